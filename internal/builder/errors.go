package builder

import "errors"

var (
	ErrQuestionNotFound    = errors.New("question not found")
	ErrUnknownQuestionType = errors.New("unknown question type")
	ErrWrongQuestionType   = errors.New("operation not valid for question type")
	ErrFieldNotAllowed     = errors.New("field not allowed for question type")
	ErrItemNotFound        = errors.New("item not found")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrInvalidValue        = errors.New("invalid value")
	ErrCategoryNotFound    = errors.New("sorting category not found")
	ErrNoCategories        = errors.New("sorting question has no categories")
	ErrUnknownOp           = errors.New("unknown builder operation")
)
