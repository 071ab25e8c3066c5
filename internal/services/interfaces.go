package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/builder"
	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/player"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

// Deps are the collaborators shared by the services
type Deps struct {
	Lessons   repositories.LessonContentRepository
	Attempts  repositories.AttemptRepository
	Progress  repositories.ProgressRepository
	Tx        repositories.Transactor
	Cache     cache.CacheService
	Publisher events.EventPublisher
	Validator *validator.Validator
	Logger    *slog.Logger

	AttemptCacheTTL time.Duration
	// DocumentCacheTTL bounds how stale a cached quiz document may get.
	// Zero disables document caching.
	DocumentCacheTTL time.Duration

	// Now defaults to time.Now
	Now func() time.Time
}

func (d Deps) clock() func() time.Time {
	if d.Now != nil {
		return d.Now
	}
	return time.Now
}

// ===== QUIZ AUTHORING =====

type QuizService interface {
	GetDocument(ctx context.Context, lessonID string) (*models.QuizDocument, error)
	Apply(ctx context.Context, lessonID, editorID string, op builder.Op) (*ApplyResponse, error)
	Validate(ctx context.Context, lessonID string) (*ValidationReport, error)
}

type ApplyResponse struct {
	Document *models.QuizDocument `json:"document"`
	Result   builder.OpResult     `json:"result"`
}

type ValidationReport struct {
	LessonID      string              `json:"lesson_id"`
	QuestionCount int                 `json:"question_count"`
	TotalPoints   int                 `json:"total_points"`
	Warnings      []validator.Warning `json:"warnings"`
}

// ===== QUIZ DELIVERY =====

type AttemptService interface {
	Start(ctx context.Context, lessonID, studentID string) (*AttemptResponse, error)
	Get(ctx context.Context, attemptID, studentID string) (*AttemptResponse, error)
	Answer(ctx context.Context, attemptID, studentID, questionID string, value json.RawMessage) (*AttemptResponse, error)
	Next(ctx context.Context, attemptID, studentID string) (*AttemptResponse, error)
	Submit(ctx context.Context, attemptID, studentID string) (*AttemptResponse, error)
}

// AttemptResponse is what a student sees of an attempt. Result is only set
// once submitted and when the quiz shows results immediately.
type AttemptResponse struct {
	ID            string               `json:"id"`
	LessonID      string               `json:"lesson_id"`
	Status        models.AttemptStatus `json:"status"`
	Index         int                  `json:"index"`
	Total         int                  `json:"total"`
	Current       *player.Slide        `json:"current,omitempty"`
	Answers       models.Submission    `json:"answers"`
	StartedAt     time.Time            `json:"started_at"`
	Deadline      *time.Time           `json:"deadline,omitempty"`
	SubmittedAt   *time.Time           `json:"submitted_at,omitempty"`
	AutoSubmitted bool                 `json:"auto_submitted"`
	Resumed       bool                 `json:"resumed,omitempty"`
	Result        *models.GradeResult  `json:"result,omitempty"`
}

// ===== GRADING =====

type GradingService interface {
	Grade(ctx context.Context, req *GradeRequest) (*models.GradeResult, error)
	Regrade(ctx context.Context, attemptID, userID string) (*models.GradeResult, error)
	ExportResults(ctx context.Context, lessonID string) ([]byte, error)
	ExportAnswerKey(ctx context.Context, lessonID string) ([]byte, error)
}

type GradeRequest struct {
	Document   json.RawMessage   `json:"document" validate:"required"`
	Submission models.Submission `json:"submission"`
}
