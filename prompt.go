package studypartner

import "fmt"

// systemPrompt pins the assistant to JSON-only replies.
const systemPrompt = "You are a helpful quiz generator that returns only valid JSON responses."

const promptTemplate = `Create exactly %d multiple-choice questions from the following text.

IMPORTANT: Return ONLY valid JSON in this EXACT format with no additional text:

{
  "quiz": [
    {
      "question": "What is the main topic?",
      "options": ["a) Option 1", "b) Option 2", "c) Option 3", "d) Option 4"],
      "answer": "b) Option 2",
      "explanation": "Brief explanation here"
    }
  ]
}

Rules:
- Create clear questions based ONLY on the text below
- Each question must have exactly 4 options (a, b, c, d)
- Only ONE correct answer per question
- Include brief explanations
- Return ONLY the JSON, no markdown, no extra text

Text to analyze:
%s`

// BuildPrompt constructs the instruction payload for a generation call.
// Deterministic: identical inputs produce identical prompts. Source text
// is truncated to the first MaxMaterialChars characters.
func BuildPrompt(text string, numQuestions int) string {
	return fmt.Sprintf(promptTemplate, numQuestions, truncateChars(text, MaxMaterialChars))
}

// truncateChars cuts s to at most n characters (runes, not bytes, so a
// multi-byte character is never split).
func truncateChars(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
