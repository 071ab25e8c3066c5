package errors

import (
	stderrors "errors"
	"fmt"
)

// QuizFormatError is returned when a stored quiz document cannot be decoded
// into a well formed document.
type QuizFormatError struct {
	Reason     string `json:"reason"`
	QuestionID string `json:"question_id,omitempty"`
	Err        error  `json:"-"`
}

func (e *QuizFormatError) Error() string {
	msg := "invalid quiz document: " + e.Reason
	if e.QuestionID != "" {
		msg = fmt.Sprintf("%s (question %s)", msg, e.QuestionID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *QuizFormatError) Unwrap() error {
	return e.Err
}

// NewQuizFormatError creates a format error, optionally wrapping the decoder error
func NewQuizFormatError(reason string, err error) *QuizFormatError {
	return &QuizFormatError{
		Reason: reason,
		Err:    err,
	}
}

// NewQuestionFormatError creates a format error scoped to a single question
func NewQuestionFormatError(questionID, reason string) *QuizFormatError {
	return &QuizFormatError{
		Reason:     reason,
		QuestionID: questionID,
	}
}

// IsQuizFormatError reports whether err is or wraps a QuizFormatError
func IsQuizFormatError(err error) bool {
	var qfe *QuizFormatError
	return stderrors.As(err, &qfe)
}
