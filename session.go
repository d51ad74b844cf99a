package studypartner

import (
	"context"
	"errors"
	"time"
)

// Page identifies where a session currently is.
type Page string

const (
	PageHome    Page = "home"
	PageQuiz    Page = "quiz"
	PageResults Page = "results"
)

// Session holds one user's state for the lifetime of their interaction:
// current page, the active quiz, in-progress answers and cumulative
// counters. It is not shared between users and not persisted across
// restarts. A Session must only be touched by its own user's requests.
type Session struct {
	Page              Page           `json:"page"`
	CurrentQuizID     string         `json:"current_quiz_id,omitempty"`
	Answers           map[int]string `json:"answers"`
	NumQuestions      int            `json:"num_questions"`
	APICallsMade      int            `json:"api_calls_made"`
	QuestionsAnswered int            `json:"questions_answered"`
	TotalCorrect      int            `json:"total_correct"`
}

// NewSession returns a session with defaults, on the home page.
func NewSession() *Session {
	return &Session{
		Page:         PageHome,
		Answers:      make(map[int]string),
		NumQuestions: DefaultNumQuestions,
	}
}

// SetNumQuestions updates the per-quiz question count preference,
// clamped to the allowed range.
func (s *Session) SetNumQuestions(n int) {
	if n < MinQuestions {
		n = MinQuestions
	}
	if n > MaxQuestions {
		n = MaxQuestions
	}
	s.NumQuestions = n
}

var (
	ErrQuizNotFound   = errors.New("no quiz generated for this material")
	ErrNotInQuiz      = errors.New("no quiz in progress")
	ErrNotInResults   = errors.New("no results to act on")
	ErrQuizIncomplete = errors.New("answer every question before submitting")
	ErrBadQuestion    = errors.New("question index out of range")
)

// Controller drives one session's quiz lifecycle against the store and
// the history ledger. The machine is cyclic: home -> quiz -> results
// -> (retake) quiz or (home) home; nothing is terminal.
type Controller struct {
	sessionID string
	sess      *Session
	store     *QuizStore
	ledger    *HistoryLedger
	now       func() time.Time
}

// NewController binds a session to the shared store and ledger. The
// ledger may be nil, in which case attempts are scored but not recorded.
func NewController(sessionID string, sess *Session, store *QuizStore, ledger *HistoryLedger) *Controller {
	return &Controller{
		sessionID: sessionID,
		sess:      sess,
		store:     store,
		ledger:    ledger,
		now:       time.Now,
	}
}

// Session exposes the controlled session for the read surface.
func (c *Controller) Session() *Session { return c.sess }

// SessionID returns the identity this controller's attempts and history
// are keyed under.
func (c *Controller) SessionID() string { return c.sessionID }

// Generate runs the pipeline for a stored material and stores the
// resulting quiz, replacing any previous one. A failed generation
// stores nothing and leaves every prior quiz untouched.
func (c *Controller) Generate(ctx context.Context, gen *QuizGenerator, materialID string) (*Quiz, error) {
	mat, ok := c.store.Material(materialID)
	if !ok {
		return nil, ErrMaterialNotFound
	}

	quiz, err := gen.GenerateQuiz(ctx, materialID, mat.Text, c.sess.NumQuestions)
	if err != nil {
		return nil, err
	}
	c.sess.APICallsMade++

	if err := c.store.PutQuiz(materialID, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// SelectQuiz starts an attempt at an existing quiz, clearing any
// previous answers.
func (c *Controller) SelectQuiz(materialID string) error {
	if _, ok := c.store.Quiz(materialID); !ok {
		return ErrQuizNotFound
	}
	c.sess.CurrentQuizID = materialID
	c.sess.Answers = make(map[int]string)
	c.sess.Page = PageQuiz
	return nil
}

// Answer records the selected option for a question index. Recording a
// different option for the same index overwrites the previous one.
func (c *Controller) Answer(questionIndex int, option string) error {
	if c.sess.Page != PageQuiz {
		return ErrNotInQuiz
	}
	quiz, ok := c.store.Quiz(c.sess.CurrentQuizID)
	if !ok {
		return ErrQuizNotFound
	}
	if questionIndex < 0 || questionIndex >= len(quiz.Questions) {
		return ErrBadQuestion
	}
	c.sess.Answers[questionIndex] = option
	return nil
}

// AnsweredCount reports how many of the current quiz's questions have a
// recorded answer.
func (c *Controller) AnsweredCount() int {
	quiz, ok := c.store.Quiz(c.sess.CurrentQuizID)
	if !ok {
		return 0
	}
	count := 0
	for i := range quiz.Questions {
		if c.sess.Answers[i] != "" {
			count++
		}
	}
	return count
}

// Submit scores the current quiz. The transition is gated: every
// question must have an answer. On success the session's cumulative
// counters are updated, the attempt is appended to the ledger (with
// per-minute dedup) and the session moves to the results page.
func (c *Controller) Submit() (*Attempt, error) {
	if c.sess.Page != PageQuiz {
		return nil, ErrNotInQuiz
	}
	quiz, ok := c.store.Quiz(c.sess.CurrentQuizID)
	if !ok {
		return nil, ErrQuizNotFound
	}

	total := len(quiz.Questions)
	if c.AnsweredCount() < total {
		return nil, ErrQuizIncomplete
	}

	correct := 0
	choices := make(map[int]string, total)
	for i, q := range quiz.Questions {
		choices[i] = c.sess.Answers[i]
		if c.sess.Answers[i] == q.Answer {
			correct++
		}
	}

	attempt := &Attempt{
		SessionID: c.sessionID,
		QuizID:    quiz.ID,
		TakenAt:   c.now(),
		Choices:   choices,
		Correct:   correct,
		Total:     total,
	}
	if c.ledger != nil {
		if err := c.ledger.Append(*attempt); err != nil {
			return nil, err
		}
	}

	c.sess.QuestionsAnswered += total
	c.sess.TotalCorrect += correct
	c.sess.Page = PageResults
	return attempt, nil
}

// Retake restarts the current quiz from the results page with a clean
// answer sheet. Retaking costs no API call.
func (c *Controller) Retake() error {
	if c.sess.Page != PageResults {
		return ErrNotInResults
	}
	c.sess.Answers = make(map[int]string)
	c.sess.Page = PageQuiz
	return nil
}

// GoHome abandons any in-progress state without penalty.
func (c *Controller) GoHome() {
	c.sess.Page = PageHome
}
