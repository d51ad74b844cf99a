package studypartner

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"
)

// Config holds all application configuration.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	ServerPort     string
	SessionSecret  string
	HistoryDB      string
	TranscriptDir  string
	LogLevel       string
	LogFormat      string
	MaxRetries     int
	RequestTimeout time.Duration
	NumQuestions   int
}

// LoadConfig reads configuration from environment variables with
// sensible defaults. A .env file is loaded if present but is optional.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		APIKey:         os.Getenv("OPENAI_API_KEY"),
		BaseURL:        os.Getenv("OPENAI_BASE_URL"),
		Model:          getEnv("OPENAI_MODEL", openai.GPT3Dot5Turbo),
		ServerPort:     getEnv("PORT", "8180"),
		SessionSecret:  getEnv("SESSION_SECRET", "change-this-to-a-secure-random-string"),
		HistoryDB:      getEnv("HISTORY_DB", ":memory:"),
		TranscriptDir:  os.Getenv("TRANSCRIPT_DIR"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "pretty"),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		NumQuestions:   getEnvInt("NUM_QUESTIONS", DefaultNumQuestions),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
