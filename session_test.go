package studypartner

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// quizFixture stores a material with an n-question quiz and returns a
// controller over a fresh session, plus the material id.
func quizFixture(t *testing.T, n int, ledger *HistoryLedger) (*Controller, string) {
	t.Helper()
	store := NewQuizStore()
	m, err := store.AddMaterial("fixture text")
	if err != nil {
		t.Fatalf("AddMaterial: %v", err)
	}

	questions := make([]Question, n)
	for i := range questions {
		questions[i] = Question{
			Question: fmt.Sprintf("q%d", i),
			Options:  []string{"a", "b", "c", "d"},
			Answer:   "a",
		}
	}
	quiz := &Quiz{ID: "quiz-" + m.ID, MaterialID: m.ID, Questions: questions, CreatedAt: time.Now()}
	if err := store.PutQuiz(m.ID, quiz); err != nil {
		t.Fatalf("PutQuiz: %v", err)
	}

	return NewController("sess-1", NewSession(), store, ledger), m.ID
}

func answerAll(t *testing.T, c *Controller, n int, option string) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := c.Answer(i, option); err != nil {
			t.Fatalf("Answer(%d): %v", i, err)
		}
	}
}

func TestSubmitGatedOnCompleteness(t *testing.T) {
	c, materialID := quizFixture(t, 5, nil)
	if err := c.SelectQuiz(materialID); err != nil {
		t.Fatalf("SelectQuiz: %v", err)
	}

	answerAll(t, c, 4, "a")
	if _, err := c.Submit(); !errors.Is(err, ErrQuizIncomplete) {
		t.Fatalf("Submit with 4/5 answered: error = %v, want ErrQuizIncomplete", err)
	}
	if c.Session().Page != PageQuiz {
		t.Error("failed submit left the quiz page")
	}

	if err := c.Answer(4, "b"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	attempt, err := c.Submit()
	if err != nil {
		t.Fatalf("Submit with 5/5 answered: %v", err)
	}
	if attempt.Correct != 4 || attempt.Total != 5 {
		t.Errorf("score = %d/%d, want 4/5", attempt.Correct, attempt.Total)
	}
	if c.Session().Page != PageResults {
		t.Error("successful submit did not move to results")
	}
}

func TestAnswerOverwritesPrevious(t *testing.T) {
	c, materialID := quizFixture(t, 3, nil)
	c.SelectQuiz(materialID)

	c.Answer(0, "a")
	c.Answer(0, "c")

	if got := c.Session().Answers[0]; got != "c" {
		t.Fatalf("answer = %q, want last write %q", got, "c")
	}
	if c.AnsweredCount() != 1 {
		t.Fatalf("answered count = %d, want 1 (re-answer is not a new answer)", c.AnsweredCount())
	}
}

func TestAnswerBoundsChecked(t *testing.T) {
	c, materialID := quizFixture(t, 3, nil)
	c.SelectQuiz(materialID)

	for _, idx := range []int{-1, 3, 100} {
		if err := c.Answer(idx, "a"); !errors.Is(err, ErrBadQuestion) {
			t.Errorf("Answer(%d) error = %v, want ErrBadQuestion", idx, err)
		}
	}
}

func TestAnswerOutsideQuizPage(t *testing.T) {
	c, _ := quizFixture(t, 3, nil)
	// Still on the home page.
	if err := c.Answer(0, "a"); !errors.Is(err, ErrNotInQuiz) {
		t.Fatalf("error = %v, want ErrNotInQuiz", err)
	}
}

func TestSelectQuizClearsAnswers(t *testing.T) {
	c, materialID := quizFixture(t, 3, nil)
	c.SelectQuiz(materialID)
	answerAll(t, c, 3, "a")

	if err := c.SelectQuiz(materialID); err != nil {
		t.Fatalf("SelectQuiz: %v", err)
	}
	if c.AnsweredCount() != 0 {
		t.Fatalf("answered count = %d after re-select, want 0", c.AnsweredCount())
	}
}

func TestSelectQuizRequiresGeneratedQuiz(t *testing.T) {
	store := NewQuizStore()
	m, _ := store.AddMaterial("no quiz yet")
	c := NewController("sess-1", NewSession(), store, nil)

	if err := c.SelectQuiz(m.ID); !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("error = %v, want ErrQuizNotFound", err)
	}
}

func TestRetakeResetsAnswersKeepsQuiz(t *testing.T) {
	c, materialID := quizFixture(t, 3, nil)
	c.SelectQuiz(materialID)
	answerAll(t, c, 3, "a")
	if _, err := c.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := c.Retake(); err != nil {
		t.Fatalf("Retake: %v", err)
	}
	sess := c.Session()
	if sess.Page != PageQuiz {
		t.Error("retake did not return to the quiz page")
	}
	if len(sess.Answers) != 0 {
		t.Error("retake kept the previous answer sheet")
	}
	if sess.CurrentQuizID != materialID {
		t.Error("retake switched quizzes")
	}
	if sess.APICallsMade != 0 {
		t.Error("retake cost an API call")
	}
}

func TestRetakeOnlyFromResults(t *testing.T) {
	c, materialID := quizFixture(t, 3, nil)
	if err := c.Retake(); !errors.Is(err, ErrNotInResults) {
		t.Fatalf("Retake from home: error = %v, want ErrNotInResults", err)
	}
	c.SelectQuiz(materialID)
	if err := c.Retake(); !errors.Is(err, ErrNotInResults) {
		t.Fatalf("Retake from quiz: error = %v, want ErrNotInResults", err)
	}
}

func TestCumulativeCountersAcrossAttempts(t *testing.T) {
	c, materialID := quizFixture(t, 3, nil)

	c.SelectQuiz(materialID)
	answerAll(t, c, 3, "a") // 3/3
	if _, err := c.Submit(); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	c.Retake()
	answerAll(t, c, 3, "b") // 0/3
	if _, err := c.Submit(); err != nil {
		t.Fatalf("second Submit: %v", err)
	}

	sess := c.Session()
	if sess.QuestionsAnswered != 6 {
		t.Errorf("questions answered = %d, want 6", sess.QuestionsAnswered)
	}
	if sess.TotalCorrect != 3 {
		t.Errorf("total correct = %d, want 3", sess.TotalCorrect)
	}
}

func TestGoHomeAbandonsWithoutPenalty(t *testing.T) {
	c, materialID := quizFixture(t, 3, nil)
	c.SelectQuiz(materialID)
	c.Answer(0, "a")

	c.GoHome()

	sess := c.Session()
	if sess.Page != PageHome {
		t.Fatal("not on home page")
	}
	if sess.QuestionsAnswered != 0 || sess.TotalCorrect != 0 {
		t.Error("abandoning a quiz changed the cumulative counters")
	}
}

func TestSetNumQuestionsClamped(t *testing.T) {
	sess := NewSession()
	cases := []struct{ in, want int }{
		{1, MinQuestions},
		{3, 3},
		{10, 10},
		{15, 15},
		{99, MaxQuestions},
	}
	for _, tc := range cases {
		sess.SetNumQuestions(tc.in)
		if sess.NumQuestions != tc.want {
			t.Errorf("SetNumQuestions(%d) -> %d, want %d", tc.in, sess.NumQuestions, tc.want)
		}
	}
}

func TestDoubleSubmitSameMinuteDedup(t *testing.T) {
	ledger, err := OpenHistory(":memory:")
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	defer ledger.Close()

	c, materialID := quizFixture(t, 3, ledger)
	fixed := time.Date(2026, 8, 31, 10, 30, 12, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	c.SelectQuiz(materialID)
	answerAll(t, c, 3, "a")
	if _, err := c.Submit(); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	// Same quiz, same minute: counters move but the ledger keeps one row.
	c.Retake()
	answerAll(t, c, 3, "a")
	if _, err := c.Submit(); err != nil {
		t.Fatalf("second Submit: %v", err)
	}

	stats, err := ledger.Stats(c.SessionID())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Attempts != 1 {
		t.Errorf("ledger attempts = %d, want 1 (same-minute dedup)", stats.Attempts)
	}
	if c.Session().QuestionsAnswered != 6 {
		t.Errorf("questions answered = %d, want 6 (counters are not deduped)", c.Session().QuestionsAnswered)
	}
}
