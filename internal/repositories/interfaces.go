package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// ErrNotEnrolled is returned when a student has no enrollment in the course a lesson belongs to
var ErrNotEnrolled = errors.New("student is not enrolled in the lesson's course")

// IsNotFoundError reports whether err means the record does not exist
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED FILTER STRUCTS =====

type AttemptFilters struct {
	Status    *models.AttemptStatus `json:"status"`
	StudentID *string               `json:"student_id"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`    // "started_at", "submitted_at", "percentage"
	SortOrder string                `json:"sort_order"` // "asc", "desc"
}

// ===== REPOSITORIES =====

// Transactor runs fn inside a database transaction. fn receives the
// transaction handle to pass to repository calls.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// LessonContentRepository reads and replaces the content field of a lesson.
// Writes are last-write-wins.
type LessonContentRepository interface {
	GetLesson(ctx context.Context, tx *gorm.DB, lessonID string) (*models.Lesson, error)
	ReplaceContent(ctx context.Context, tx *gorm.DB, lessonID, content string) error
}

// ProgressRepository records lesson completion for a student
type ProgressRepository interface {
	MarkLessonComplete(ctx context.Context, tx *gorm.DB, studentID, lessonID string, score models.QuizScore) (*models.LessonProgress, error)
}

type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizAttempt, error)
	Update(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error

	// GetActiveAttempt returns nil without error when the student has no attempt in progress
	GetActiveAttempt(ctx context.Context, tx *gorm.DB, studentID, lessonID string) (*models.QuizAttempt, error)
	ListByLesson(ctx context.Context, tx *gorm.DB, lessonID string, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
}
