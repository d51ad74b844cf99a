package studypartner

import (
	"errors"
	"fmt"
)

// ErrCode identifies a class of generation failure.
type ErrCode string

const (
	ErrCodeAuth           ErrCode = "AUTH_FAILED"
	ErrCodeBilling        ErrCode = "ACCESS_DENIED"
	ErrCodeRateLimit      ErrCode = "RATE_LIMITED"
	ErrCodeTimeout        ErrCode = "TIMEOUT"
	ErrCodeTransport      ErrCode = "TRANSPORT"
	ErrCodeParse          ErrCode = "PARSE_FAILED"
	ErrCodeEmpty          ErrCode = "EMPTY_RESULT"
	ErrCodeMalformed      ErrCode = "MALFORMED_QUESTION"
	ErrCodeAnswerMismatch ErrCode = "ANSWER_MISMATCH"
	ErrCodeInvalidRequest ErrCode = "INVALID_REQUEST"
)

// PipelineError is a classified generation failure. Message is safe to
// surface to the user as-is; Hint tells them what to do about it.
type PipelineError struct {
	Code    ErrCode
	Message string
	Hint    string
	cause   error
}

func (e *PipelineError) Error() string {
	if e.Hint != "" {
		return e.Message + " " + e.Hint
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error { return e.cause }

// retryable reports whether another attempt could succeed.
func (e *PipelineError) retryable() bool {
	return e.Code == ErrCodeRateLimit || e.Code == ErrCodeTimeout
}

// AsPipelineError unwraps err to its classified form, if it has one.
func AsPipelineError(err error) (*PipelineError, bool) {
	var perr *PipelineError
	ok := errors.As(err, &perr)
	return perr, ok
}

func errAuth(cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeAuth,
		Message: "Invalid API key.",
		Hint:    "Check your OpenAI API key. Keys are issued at https://platform.openai.com/api-keys.",
		cause:   cause,
	}
}

func errBilling(cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeBilling,
		Message: "Access denied.",
		Hint:    "Check your API key permissions and account billing status.",
		cause:   cause,
	}
}

func errRateLimit(cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeRateLimit,
		Message: "Rate limit exceeded.",
		Hint:    "Please wait a moment and try again.",
		cause:   cause,
	}
}

func errTimeout(cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeTimeout,
		Message: "Request timed out.",
		Hint:    "Please try again.",
		cause:   cause,
	}
}

func errTransport(cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeTransport,
		Message: fmt.Sprintf("Network error: %v.", cause),
		Hint:    "Check your connection and try again.",
		cause:   cause,
	}
}

func errTransportStatus(status int, serverMsg string, cause error) *PipelineError {
	if serverMsg == "" {
		serverMsg = "Unknown error"
	}
	return &PipelineError{
		Code:    ErrCodeTransport,
		Message: fmt.Sprintf("API error %d: %s.", status, serverMsg),
		cause:   cause,
	}
}

func errParse(cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeParse,
		Message: "Failed to parse quiz response.",
		Hint:    "Please try again.",
		cause:   cause,
	}
}

func errEmpty() *PipelineError {
	return &PipelineError{
		Code:    ErrCodeEmpty,
		Message: "No questions generated.",
		Hint:    "Try with more detailed text.",
	}
}

func errMalformed(index int) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeMalformed,
		Message: fmt.Sprintf("Question %d is missing required fields.", index+1),
		Hint:    "Please regenerate the quiz.",
	}
}

func errAnswerMismatch(index int) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeAnswerMismatch,
		Message: fmt.Sprintf("Question %d has an answer that is not one of its options.", index+1),
		Hint:    "Please regenerate the quiz.",
	}
}

func errInvalidRequest(cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeInvalidRequest,
		Message: "Please provide text to generate questions from.",
		Hint:    fmt.Sprintf("Text must be 1-%d characters and the question count %d-%d.", MaxMaterialChars, MinQuestions, MaxQuestions),
		cause:   cause,
	}
}
