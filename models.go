package studypartner

import "time"

// Question is a single multiple-choice question as returned by the
// completion service. Answer holds the text of the correct option, not
// an index, so shuffling the options never invalidates it.
type Question struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// Quiz is the full set of questions generated for one study material.
// Regeneration replaces the whole quiz; there is no partial update.
type Quiz struct {
	ID         string     `json:"id"`
	MaterialID string     `json:"material_id"`
	Questions  []Question `json:"questions"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Material is one pasted block of study text. Immutable once stored.
type Material struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Attempt is one completed, scored pass through a quiz.
type Attempt struct {
	SessionID string         `json:"session_id"`
	QuizID    string         `json:"quiz_id"`
	TakenAt   time.Time      `json:"taken_at"`
	Choices   map[int]string `json:"choices"`
	Correct   int            `json:"correct"`
	Total     int            `json:"total"`
}

// Score returns the attempt's score as a percentage.
func (a Attempt) Score() float64 {
	if a.Total == 0 {
		return 0
	}
	return float64(a.Correct) / float64(a.Total) * 100
}

// GenerationRequest carries the pipeline inputs. Bounds match the UI:
// up to 2000 characters of text, 3-15 questions.
type GenerationRequest struct {
	Text         string `json:"text" validate:"required,max=2000"`
	NumQuestions int    `json:"num_questions" validate:"min=3,max=15"`
}

const (
	// MaxMaterialChars is the longest study text embedded in a prompt.
	MaxMaterialChars = 2000

	// MinQuestions and MaxQuestions bound the per-quiz question count.
	MinQuestions = 3
	MaxQuestions = 15

	// DefaultNumQuestions is used when no preference has been set.
	DefaultNumQuestions = 5
)
