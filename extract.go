package studypartner

import (
	"encoding/json"
	"strings"
)

// ExtractQuizJSON pulls a JSON object out of a raw completion. Models
// sometimes wrap the payload in markdown fences or surrounding prose
// despite instructions; a fence strip plus a first-{ to last-} scan
// covers both.
func ExtractQuizJSON(raw string) (string, error) {
	s := stripFences(strings.TrimSpace(raw))

	if json.Valid([]byte(s)) {
		return s, nil
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start != -1 && end > start {
		if cand := s[start : end+1]; json.Valid([]byte(cand)) {
			return cand, nil
		}
	}
	return "", errParse(nil)
}

// stripFences removes a surrounding triple-backtick code fence,
// optionally tagged "json".
func stripFences(s string) string {
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}
