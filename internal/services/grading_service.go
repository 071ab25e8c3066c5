package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/grading"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/player"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

const (
	exportPageSize   = 200
	exportTimeLayout = "2006-01-02 15:04:05"
)

type gradingService struct {
	store     *documentStore
	attempts  repositories.AttemptRepository
	progress  repositories.ProgressRepository
	tx        repositories.Transactor
	cache     cache.CacheService
	publisher events.EventPublisher
	engine    *grading.Engine
	validator *validator.Validator
	logger    *slog.Logger
	now       func() time.Time
}

func NewGradingService(deps Deps, engine *grading.Engine) GradingService {
	return &gradingService{
		store:     newDocumentStore(deps),
		attempts:  deps.Attempts,
		progress:  deps.Progress,
		tx:        deps.Tx,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		engine:    engine,
		validator: deps.Validator,
		logger:    deps.Logger,
		now:       deps.clock(),
	}
}

// Grade scores a submission against a serialized quiz document without
// touching any stored attempt.
func (s *gradingService) Grade(ctx context.Context, req *GradeRequest) (*models.GradeResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	doc, err := models.ParseQuizDocument(req.Document)
	if err != nil {
		return nil, err
	}

	submission := req.Submission
	if submission == nil {
		submission = models.NewSubmission()
	}
	return s.engine.Grade(ctx, doc, submission), nil
}

// Regrade grades a submitted attempt's answers again against the lesson's
// current quiz and updates the stored score and lesson progress.
func (s *gradingService) Regrade(ctx context.Context, attemptID, userID string) (*models.GradeResult, error) {
	s.logger.InfoContext(ctx, "Regrading attempt", "attempt_id", attemptID, "user_id", userID)

	attempt, err := s.attempts.GetByID(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.Status != models.AttemptSubmitted {
		return nil, ErrAttemptNotSubmitted
	}

	doc, err := s.store.load(ctx, attempt.LessonID)
	if err != nil {
		return nil, err
	}

	var state player.State
	if err := json.Unmarshal(attempt.State, &state); err != nil {
		return nil, fmt.Errorf("failed to decode state of attempt %s: %w", attemptID, err)
	}

	previousEarned := 0
	if attempt.Earned != nil {
		previousEarned = *attempt.Earned
	}

	result := s.engine.Grade(ctx, doc, state.Submission)
	state.Result = result
	if attempt.State, err = json.Marshal(state); err != nil {
		return nil, fmt.Errorf("failed to encode attempt state: %w", err)
	}
	attempt.ApplyResult(result)

	err = s.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.attempts.Update(ctx, tx, attempt); err != nil {
			return fmt.Errorf("failed to update attempt: %w", err)
		}
		_, err := s.progress.MarkLessonComplete(ctx, tx, attempt.StudentID, attempt.LessonID, models.QuizScore{
			Earned: result.Earned,
			Total:  result.Total,
			Passed: result.Passed,
		})
		if err != nil && !errors.Is(err, repositories.ErrNotEnrolled) {
			return fmt.Errorf("failed to record lesson progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Delete(ctx, cache.AttemptKey(attemptID)); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate attempt cache", "attempt_id", attemptID, "error", err)
	}

	event := events.NewAttemptRegradedEvent(events.AttemptRegradedEvent{
		AttemptID:      attempt.ID,
		LessonID:       attempt.LessonID,
		StudentID:      attempt.StudentID,
		RegradedAt:     s.now(),
		PreviousEarned: previousEarned,
		Earned:         result.Earned,
		Total:          result.Total,
		Passed:         result.Passed,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish quiz event", "event_type", event.Type, "error", err)
	}

	s.logger.InfoContext(ctx, "Attempt regraded",
		"attempt_id", attemptID,
		"previous_earned", previousEarned,
		"earned", result.Earned,
		"total", result.Total)

	return result, nil
}

// ===== EXPORTS =====

func (s *gradingService) ExportResults(ctx context.Context, lessonID string) ([]byte, error) {
	var attempts []*models.QuizAttempt
	filters := repositories.AttemptFilters{
		Limit:     exportPageSize,
		SortBy:    "started_at",
		SortOrder: "asc",
	}
	for {
		page, total, err := s.attempts.ListByLesson(ctx, nil, lessonID, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to get lesson attempts: %w", err)
		}
		attempts = append(attempts, page...)
		filters.Offset += len(page)
		if len(page) < exportPageSize || int64(filters.Offset) >= total {
			break
		}
	}

	headers := []string{
		"Attempt ID", "Student ID", "Status", "Started At", "Submitted At",
		"Earned", "Total", "Percentage", "Passed", "Pending Review", "Auto Submitted",
	}

	rows := make([][]any, 0, len(attempts))
	for _, a := range attempts {
		row := []any{a.ID, a.StudentID, string(a.Status), a.StartedAt.Format(exportTimeLayout)}

		if a.SubmittedAt != nil {
			row = append(row, a.SubmittedAt.Format(exportTimeLayout))
		} else {
			row = append(row, "")
		}

		row = append(row, optional(a.Earned), optional(a.Total), optional(a.Percentage))

		switch {
		case a.Passed == nil:
			row = append(row, "")
		case *a.Passed:
			row = append(row, "Pass")
		default:
			row = append(row, "Fail")
		}

		row = append(row, a.PendingReview, a.AutoSubmitted)
		rows = append(rows, row)
	}

	s.logger.InfoContext(ctx, "Exporting quiz results", "lesson_id", lessonID, "attempts", len(attempts))
	return writeWorkbook("Results", headers, rows)
}

func (s *gradingService) ExportAnswerKey(ctx context.Context, lessonID string) ([]byte, error) {
	doc, err := s.store.load(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	headers := []string{"#", "Question ID", "Type", "Prompt", "Points", "Auto Graded", "Correct Answer"}

	rows := make([][]any, 0, len(doc.Questions))
	for i, q := range doc.Questions {
		key := models.ExtractAnswerKey(q)
		rows = append(rows, []any{
			i + 1, q.ID, string(q.Type), q.Prompt, q.Points, key.AutoGradable, describeAnswer(q),
		})
	}

	return writeWorkbook("Answer Key", headers, rows)
}

func writeWorkbook(sheetName string, headers []string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// rename the default sheet so the workbook holds exactly one
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write Excel headers: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write Excel row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func optional[T any](v *T) any {
	if v == nil {
		return ""
	}
	return *v
}

// describeAnswer renders the correct answer of a question for people
func describeAnswer(q *models.Question) string {
	switch p := q.Payload.(type) {
	case *models.ChoicePayload:
		var correct []string
		for _, o := range p.Options {
			if o.IsCorrect {
				correct = append(correct, o.Text)
			}
		}
		return strings.Join(correct, "; ")
	case *models.ShortAnswerPayload:
		return strings.Join(p.CorrectAnswers, " | ")
	case *models.EssayPayload:
		return "(manual review)"
	case *models.MatchingPayload:
		pairs := make([]string, len(p.Pairs))
		for i, pair := range p.Pairs {
			pairs[i] = pair.Left + " = " + pair.Right
		}
		return strings.Join(pairs, "; ")
	case *models.OrderingPayload:
		items := make([]string, len(p.Items))
		for i, it := range p.Items {
			items[i] = it.Text
		}
		return strings.Join(items, " > ")
	case *models.SortingPayload:
		groups := make([]string, 0, len(p.Categories))
		for _, c := range p.Categories {
			var members []string
			for _, it := range p.Items {
				if it.CategoryID == c.ID {
					members = append(members, it.Text)
				}
			}
			groups = append(groups, c.Name+": "+strings.Join(members, ", "))
		}
		return strings.Join(groups, "; ")
	case *models.UnscramblePayload:
		return p.CorrectSequence
	case *models.FillBlankPayload:
		blanks := make([]string, len(p.Answers))
		for i, accepted := range p.Answers {
			blanks[i] = fmt.Sprintf("%d: %s", i+1, strings.Join(accepted, " | "))
		}
		return strings.Join(blanks, "; ")
	case *models.WordSearchPayload:
		return strings.Join(p.Words, ", ")
	case *models.CrosswordPayload:
		clues := make([]string, len(p.Clues))
		for i, c := range p.Clues {
			clues[i] = fmt.Sprintf("%d %s: %s", c.Number, c.Direction, c.Answer)
		}
		return strings.Join(clues, "; ")
	default:
		return ""
	}
}
