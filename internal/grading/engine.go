package grading

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// Verdict is the outcome of grading a single answer.
type Verdict int

const (
	Incorrect Verdict = iota
	Correct
	NeedsReview
)

// Strategy grades the answer to one question type against its answer key.
// Implementations must not panic on malformed answers.
type Strategy interface {
	Grade(key models.AnswerKey, answer json.RawMessage) Verdict
}

// autoStrategy adapts a comparison function. Questions whose answer key
// cannot be satisfied are never correct.
type autoStrategy func(key models.AnswerKey, answer json.RawMessage) bool

func (f autoStrategy) Grade(key models.AnswerKey, answer json.RawMessage) Verdict {
	if !key.AutoGradable {
		return Incorrect
	}
	if f(key, answer) {
		return Correct
	}
	return Incorrect
}

type manualStrategy struct{}

func (manualStrategy) Grade(models.AnswerKey, json.RawMessage) Verdict {
	return NeedsReview
}

var strategies = map[models.QuestionType]Strategy{
	models.QuestionMCQ:         autoStrategy(gradeChoice),
	models.QuestionTrueFalse:   autoStrategy(gradeChoice),
	models.QuestionShortAnswer: autoStrategy(gradeShortAnswer),
	models.QuestionEssay:       manualStrategy{},
	models.QuestionMatching:    autoStrategy(gradeMatching),
	models.QuestionOrdering:    autoStrategy(gradeOrdering),
	models.QuestionSorting:     autoStrategy(gradeSorting),
	models.QuestionUnscramble:  autoStrategy(gradeUnscramble),
	models.QuestionFillBlank:   autoStrategy(gradeFillBlank),
	models.QuestionWordSearch:  autoStrategy(gradeWordSearch),
	models.QuestionCrossword:   autoStrategy(gradeCrossword),
}

// StrategyFor returns the strategy registered for a question type.
func StrategyFor(t models.QuestionType) (Strategy, bool) {
	s, ok := strategies[t]
	return s, ok
}

// GradeQuestion grades a single question. Unanswered questions are incorrect.
func GradeQuestion(q *models.Question, submission models.Submission) Verdict {
	s, ok := strategies[q.Type]
	if !ok || !submission.Has(q.ID) {
		return Incorrect
	}
	return s.Grade(models.ExtractAnswerKey(q), submission[q.ID])
}

// Grade scores a submission against a quiz document. It has no side effects
// and returns the same result for the same inputs.
func Grade(doc *models.QuizDocument, submission models.Submission) *models.GradeResult {
	result := &models.GradeResult{
		PerQuestion:   make(map[string]*bool, len(doc.Questions)),
		PendingReview: []string{},
	}

	for _, q := range doc.Questions {
		result.Total += q.Points

		switch GradeQuestion(q, submission) {
		case Correct:
			result.Earned += q.Points
			result.PerQuestion[q.ID] = boolPtr(true)
		case NeedsReview:
			result.PerQuestion[q.ID] = nil
			result.PendingReview = append(result.PendingReview, q.ID)
		default:
			result.PerQuestion[q.ID] = boolPtr(false)
		}
	}

	result.Percentage = Percentage(result.Earned, result.Total)
	result.Passed = result.Percentage >= doc.Settings.PassingScorePercentage
	return result
}

// Percentage returns earned as a share of total in the range 0-100.
func Percentage(earned, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(earned) / float64(total)
}

// Engine wraps Grade with structured logging for use by services.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

func (e *Engine) Grade(ctx context.Context, doc *models.QuizDocument, submission models.Submission) *models.GradeResult {
	start := time.Now()
	result := Grade(doc, submission)

	e.logger.DebugContext(ctx, "Graded submission",
		"questions", len(doc.Questions),
		"answered", len(submission),
		"earned", result.Earned,
		"total", result.Total,
		"passed", result.Passed,
		"pending_review", len(result.PendingReview),
		"duration", time.Since(start))

	return result
}

func boolPtr(b bool) *bool {
	return &b
}
