package models

import (
	"time"
)

type LessonType string

const (
	LessonVideo LessonType = "video"
	LessonText  LessonType = "text"
	LessonQuiz  LessonType = "quiz"
)

// Lesson is the external content record a quiz document is stored in. The
// quiz service only reads it and replaces Content.
type Lesson struct {
	ID        string     `json:"id" gorm:"type:uuid;primaryKey"`
	ModuleID  string     `json:"module_id" gorm:"type:uuid;not null;index"`
	Title     string     `json:"title" gorm:"not null"`
	Type      LessonType `json:"type" gorm:"type:lesson_type"`
	Content   *string    `json:"content" gorm:"type:text"`
	SortOrder *int       `json:"sort_order"`
	CreatedAt *time.Time `json:"created_at"`
}

func (Lesson) TableName() string { return "lessons" }

// LessonProgress records a student's completion of a lesson within an enrollment.
// The score columns are filled for quiz lessons only.
type LessonProgress struct {
	ID           string     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EnrollmentID string     `json:"enrollment_id" gorm:"type:uuid;not null;uniqueIndex:idx_progress_enrollment_lesson"`
	LessonID     string     `json:"lesson_id" gorm:"type:uuid;not null;uniqueIndex:idx_progress_enrollment_lesson"`
	IsCompleted  bool       `json:"is_completed" gorm:"default:false"`
	CompletedAt  *time.Time `json:"completed_at"`
	Score        *int       `json:"score"`
	MaxScore     *int       `json:"max_score"`
	Passed       *bool      `json:"passed"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }

// QuizScore is what a submitted attempt reports to progress tracking
type QuizScore struct {
	Earned int  `json:"earned"`
	Total  int  `json:"total"`
	Passed bool `json:"passed"`
}
