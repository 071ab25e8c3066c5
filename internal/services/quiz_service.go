package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/builder"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

type quizService struct {
	store     *documentStore
	builder   *builder.Builder
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *slog.Logger
	opLogger  *ServiceLogger
	now       func() time.Time
}

func NewQuizService(deps Deps, b *builder.Builder) QuizService {
	return &quizService{
		store:     newDocumentStore(deps),
		builder:   b,
		publisher: deps.Publisher,
		validator: deps.Validator,
		logger:    deps.Logger,
		opLogger:  NewServiceLogger(deps.Logger, "quiz"),
		now:       deps.clock(),
	}
}

func (s *quizService) GetDocument(ctx context.Context, lessonID string) (*models.QuizDocument, error) {
	return s.store.load(ctx, lessonID)
}

// Apply runs one builder operation against the lesson's quiz and stores the result.
func (s *quizService) Apply(ctx context.Context, lessonID, editorID string, op builder.Op) (resp *ApplyResponse, err error) {
	opLog := s.opLogger.WithOperation(ctx, "apply_"+string(op.Op), editorID)
	defer func() { opLog.LogResult(lessonID, "lesson", err) }()

	if err := s.validator.Validate(op); err != nil {
		return nil, err
	}

	doc, err := s.store.load(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	out, result, err := s.builder.Apply(doc, op)
	if err != nil {
		return nil, builderError(op, err)
	}

	if err := s.store.save(ctx, lessonID, out); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewQuizContentSavedEvent(events.QuizContentSavedEvent{
		LessonID:      lessonID,
		EditorID:      editorID,
		QuestionCount: len(out.Questions),
		TotalPoints:   out.TotalPoints(),
		SavedAt:       s.now(),
	}))

	return &ApplyResponse{Document: out, Result: result}, nil
}

func (s *quizService) Validate(ctx context.Context, lessonID string) (*ValidationReport, error) {
	doc, err := s.store.load(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	return &ValidationReport{
		LessonID:      lessonID,
		QuestionCount: len(doc.Questions),
		TotalPoints:   doc.TotalPoints(),
		Warnings:      s.validator.Quiz().ValidateDocument(doc),
	}, nil
}

func (s *quizService) publish(ctx context.Context, event *events.QuizEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish quiz event", "event_type", event.Type, "error", err)
	}
}

// builderError classifies a builder failure for the handlers
func builderError(op builder.Op, err error) error {
	switch {
	case errors.Is(err, builder.ErrQuestionNotFound),
		errors.Is(err, builder.ErrItemNotFound),
		errors.Is(err, builder.ErrCategoryNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return NewBusinessRuleError("builder_op", err.Error(), map[string]any{
			"op":          op.Op,
			"question_id": op.QuestionID,
		})
	}
}
