package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
)

// QuizAttempt is one student's run through a lesson quiz. Document is the
// quiz as it was when the attempt started; State is the player state.
type QuizAttempt struct {
	ID        string        `json:"id" gorm:"type:uuid;primaryKey"`
	LessonID  string        `json:"lesson_id" gorm:"type:uuid;not null;index:idx_attempt_lesson_student"`
	StudentID string        `json:"student_id" gorm:"type:uuid;not null;index:idx_attempt_lesson_student"`
	Status    AttemptStatus `json:"status" gorm:"size:20;not null;default:in_progress;index"`

	Document datatypes.JSON `json:"-" gorm:"type:jsonb;not null"`
	State    datatypes.JSON `json:"-" gorm:"type:jsonb;not null"`

	Earned        *int       `json:"earned"`
	Total         *int       `json:"total"`
	Percentage    *float64   `json:"percentage"`
	Passed        *bool      `json:"passed"`
	PendingReview int        `json:"pending_review" gorm:"default:0"`
	AutoSubmitted bool       `json:"auto_submitted" gorm:"default:false"`
	StartedAt     time.Time  `json:"started_at" gorm:"not null"`
	SubmittedAt   *time.Time `json:"submitted_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuizAttempt) TableName() string { return "quiz_attempts" }

// ApplyResult copies a grade onto the attempt's score columns
func (a *QuizAttempt) ApplyResult(r *GradeResult) {
	earned, total, pct, passed := r.Earned, r.Total, r.Percentage, r.Passed
	a.Earned = &earned
	a.Total = &total
	a.Percentage = &pct
	a.Passed = &passed
	a.PendingReview = len(r.PendingReview)
}
