package studypartner

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LLMLog writes a plain-text transcript of one generation run: the
// prompt sent, the raw reply, and the outcome. Useful when a model
// starts returning garbage and the structured logs aren't enough.
type LLMLog struct {
	mu   sync.Mutex
	file *os.File
}

// NewLLMLog creates a transcript file named after the material under dir.
func NewLLMLog(dir, materialID string) (*LLMLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.Create(filepath.Join(dir, fmt.Sprintf("%s.log", materialID)))
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript file: %w", err)
	}

	l := &LLMLog{file: file}
	l.logf("=== Quiz Generation Transcript ===\n")
	l.logf("Material: %s\n", materialID)
	l.logf("Started: %s\n\n", time.Now().Format(time.RFC3339))
	return l, nil
}

func (l *LLMLog) logf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.file, "[%s] ", time.Now().Format("15:04:05.000"))
	fmt.Fprintf(l.file, format, args...)
	l.file.Sync()
}

// LogRequest records the prompt sent to the completion service.
func (l *LLMLog) LogRequest(prompt string) {
	l.logf("=== REQUEST ===\n%s\n\n", prompt)
}

// LogResponse records the raw completion content before extraction.
func (l *LLMLog) LogResponse(raw string) {
	l.logf("=== RESPONSE ===\n%s\n\n", raw)
}

// LogOutcome records how the run ended.
func (l *LLMLog) LogOutcome(err error) {
	if err != nil {
		l.logf("=== FAILED: %v ===\n", err)
		return
	}
	l.logf("=== OK ===\n")
}

// Close finishes and closes the transcript.
func (l *LLMLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	fmt.Fprintf(l.file, "[%s] Completed\n", time.Now().Format("15:04:05.000"))
	return l.file.Close()
}
