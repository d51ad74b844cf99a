package studypartner

import "encoding/json"

// quizEnvelope matches the documented response schema: an object with a
// "quiz" key holding the question array.
type quizEnvelope struct {
	Quiz []Question `json:"quiz"`
}

// CheckQuiz validates the structural shape of an extracted payload and
// returns the question list. The whole batch is rejected on the first
// bad question; no partial quiz is ever accepted.
//
// Membership of the answer in the options is checked strictly here: a
// question whose answer text matches none of its options could never be
// scored correct, so it fails validation instead of slipping through.
func CheckQuiz(payload []byte) ([]Question, error) {
	var env quizEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, errParse(err)
	}
	if len(env.Quiz) == 0 {
		return nil, errEmpty()
	}

	for i, q := range env.Quiz {
		if q.Question == "" || len(q.Options) == 0 || q.Answer == "" {
			return nil, errMalformed(i)
		}
		if !containsOption(q.Options, q.Answer) {
			return nil, errAnswerMismatch(i)
		}
	}
	return env.Quiz, nil
}

func containsOption(options []string, answer string) bool {
	for _, opt := range options {
		if opt == answer {
			return true
		}
	}
	return false
}
