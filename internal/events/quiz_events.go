package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a quiz domain event
type EventType string

const (
	EventQuizContentSaved     EventType = "quiz.content_saved"
	EventAttemptStarted       EventType = "quiz.attempt_started"
	EventAttemptSubmitted     EventType = "quiz.attempt_submitted"
	EventAttemptRegraded      EventType = "quiz.attempt_regraded"
	EventManualReviewRequired EventType = "quiz.manual_review_required"
)

const (
	eventSource  = "quiz-service"
	eventVersion = "1.0"
)

// QuizEvent is the envelope of every event published by the service
type QuizEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"`
	Version   string         `json:"version"`
	Data      any            `json:"data"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type QuizContentSavedEvent struct {
	LessonID      string    `json:"lesson_id"`
	EditorID      string    `json:"editor_id"`
	QuestionCount int       `json:"question_count"`
	TotalPoints   int       `json:"total_points"`
	SavedAt       time.Time `json:"saved_at"`
}

type AttemptStartedEvent struct {
	AttemptID        string    `json:"attempt_id"`
	LessonID         string    `json:"lesson_id"`
	StudentID        string    `json:"student_id"`
	StartedAt        time.Time `json:"started_at"`
	TimeLimitSeconds *int      `json:"time_limit_seconds,omitempty"`
}

type AttemptSubmittedEvent struct {
	AttemptID     string    `json:"attempt_id"`
	LessonID      string    `json:"lesson_id"`
	StudentID     string    `json:"student_id"`
	SubmittedAt   time.Time `json:"submitted_at"`
	Earned        int       `json:"earned"`
	Total         int       `json:"total"`
	Percentage    float64   `json:"percentage"`
	Passed        bool      `json:"passed"`
	PendingReview int       `json:"pending_review"`
	AutoSubmitted bool      `json:"auto_submitted"`
}

type AttemptRegradedEvent struct {
	AttemptID      string    `json:"attempt_id"`
	LessonID       string    `json:"lesson_id"`
	StudentID      string    `json:"student_id"`
	RegradedAt     time.Time `json:"regraded_at"`
	PreviousEarned int       `json:"previous_earned"`
	Earned         int       `json:"earned"`
	Total          int       `json:"total"`
	Passed         bool      `json:"passed"`
}

type ManualReviewRequiredEvent struct {
	AttemptID   string    `json:"attempt_id"`
	LessonID    string    `json:"lesson_id"`
	StudentID   string    `json:"student_id"`
	QuestionIDs []string  `json:"question_ids"`
	RequiredAt  time.Time `json:"required_at"`
}

func newEvent(t EventType, data any) *QuizEvent {
	return &QuizEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewQuizContentSavedEvent(data QuizContentSavedEvent) *QuizEvent {
	return newEvent(EventQuizContentSaved, data)
}

func NewAttemptStartedEvent(data AttemptStartedEvent) *QuizEvent {
	return newEvent(EventAttemptStarted, data)
}

func NewAttemptSubmittedEvent(data AttemptSubmittedEvent) *QuizEvent {
	return newEvent(EventAttemptSubmitted, data)
}

func NewAttemptRegradedEvent(data AttemptRegradedEvent) *QuizEvent {
	return newEvent(EventAttemptRegraded, data)
}

func NewManualReviewRequiredEvent(data ManualReviewRequiredEvent) *QuizEvent {
	return newEvent(EventManualReviewRequired, data)
}
