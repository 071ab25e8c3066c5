// Package builder implements the authoring operations of a quiz document.
// Every operation works on a copy: the document passed in is never modified.
package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/SAP-F-2025/quiz-service/internal/errors"
	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// Patch is a partial set of question fields keyed by their JSON names.
type Patch map[string]json.RawMessage

var commonFields = []string{"prompt", "points", "mediaUrl"}

var variantFields = map[models.QuestionType][]string{
	models.QuestionMCQ:         {"options", "allowMultiple"},
	models.QuestionTrueFalse:   {"options", "allowMultiple"},
	models.QuestionShortAnswer: {"correctAnswers", "caseSensitive"},
	models.QuestionEssay:       {"minWords"},
	models.QuestionMatching:    {"pairs"},
	models.QuestionOrdering:    {"items"},
	models.QuestionSorting:     {"categories", "items"},
	models.QuestionUnscramble:  {"mode", "correctSequence"},
	models.QuestionFillBlank:   {"template", "answers", "caseSensitive"},
	models.QuestionWordSearch:  {"words", "gridSize", "grid"},
	models.QuestionCrossword:   {"clues", "gridSize"},
}

// AllowedFields returns the patchable fields of a question type.
func AllowedFields(t models.QuestionType) []string {
	return append(slices.Clone(commonFields), variantFields[t]...)
}

type Builder struct {
	newID func() string
}

type Option func(*Builder)

// WithIDGenerator overrides how question and sub-item ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(b *Builder) { b.newID = fn }
}

func New(opts ...Option) *Builder {
	b := &Builder{newID: uuid.NewString}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddQuestion appends a default question of the given type and returns its id.
func (b *Builder) AddQuestion(doc *models.QuizDocument, qType models.QuestionType) (*models.QuizDocument, string, error) {
	q := models.NewQuestion(b.newID(), qType)
	if q == nil {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownQuestionType, qType)
	}

	if choice, ok := q.Payload.(*models.ChoicePayload); ok {
		if qType == models.QuestionTrueFalse {
			choice.Options = []models.ChoiceOption{
				{ID: b.newID(), Text: "True"},
				{ID: b.newID(), Text: "False"},
			}
		} else {
			choice.Options = []models.ChoiceOption{{ID: b.newID(), Text: "Option 1"}}
		}
	}

	out := doc.Clone()
	out.Questions = append(out.Questions, q)
	return out, q.ID, nil
}

// RemoveQuestion removes a question. Removing an unknown id is not an error.
func (b *Builder) RemoveQuestion(doc *models.QuizDocument, questionID string) *models.QuizDocument {
	out := doc.Clone()
	out.Questions = slices.DeleteFunc(out.Questions, func(q *models.Question) bool {
		return q.ID == questionID
	})
	return out
}

// MoveQuestion moves a question to position to, clamped to the document bounds.
func (b *Builder) MoveQuestion(doc *models.QuizDocument, questionID string, to int) (*models.QuizDocument, error) {
	from := doc.IndexOf(questionID)
	if from < 0 {
		return nil, ErrQuestionNotFound
	}
	out := doc.Clone()
	out.Questions = move(out.Questions, from, to)
	return out, nil
}

// UpdateQuestion merges patch into a question. The id and type cannot be
// changed and fields belonging to other question types are rejected.
func (b *Builder) UpdateQuestion(doc *models.QuizDocument, questionID string, patch Patch) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		allowed := AllowedFields(q.Type)
		for field := range patch {
			if !slices.Contains(allowed, field) {
				return fmt.Errorf("%w: %s on %s", ErrFieldNotAllowed, field, q.Type)
			}
		}

		current, err := json.Marshal(q)
		if err != nil {
			return err
		}
		merged := map[string]json.RawMessage{}
		if err := json.Unmarshal(current, &merged); err != nil {
			return err
		}
		for field, value := range patch {
			merged[field] = value
		}
		data, err := json.Marshal(merged)
		if err != nil {
			return err
		}

		var updated models.Question
		if err := json.Unmarshal(data, &updated); err != nil {
			var qfe *apperrors.QuizFormatError
			if errors.As(err, &qfe) {
				return fmt.Errorf("%w: %s", ErrInvalidValue, qfe.Error())
			}
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		if err := checkQuestion(&updated); err != nil {
			return err
		}
		*q = updated
		return nil
	})
}

// SettingsPatch holds the settings fields to change; nil fields are left as is.
type SettingsPatch struct {
	PassingScorePercentage *float64 `json:"passingScorePercentage" validate:"omitempty,min=0,max=100"`
	ShuffleQuestions       *bool    `json:"shuffleQuestions"`
	ShowResultsImmediately *bool    `json:"showResultsImmediately"`
	TimeLimitSeconds       *int     `json:"timeLimitSeconds" validate:"omitempty,min=0"`
	ClearTimeLimit         bool     `json:"clearTimeLimit"`
}

func (b *Builder) UpdateSettings(doc *models.QuizDocument, patch SettingsPatch) (*models.QuizDocument, error) {
	out := doc.Clone()
	s := &out.Settings

	if patch.PassingScorePercentage != nil {
		score := *patch.PassingScorePercentage
		if score < 0 || score > 100 {
			return nil, fmt.Errorf("%w: passing score must be between 0 and 100", ErrInvalidValue)
		}
		s.PassingScorePercentage = score
	}
	if patch.ShuffleQuestions != nil {
		s.ShuffleQuestions = *patch.ShuffleQuestions
	}
	if patch.ShowResultsImmediately != nil {
		s.ShowResultsImmediately = *patch.ShowResultsImmediately
	}
	if patch.ClearTimeLimit {
		s.TimeLimitSeconds = nil
	} else if patch.TimeLimitSeconds != nil {
		limit := *patch.TimeLimitSeconds
		if limit <= 0 {
			return nil, fmt.Errorf("%w: time limit must be positive", ErrInvalidValue)
		}
		s.TimeLimitSeconds = &limit
	}
	return out, nil
}

// mutate clones doc, applies fn to the question and normalizes the result.
func (b *Builder) mutate(doc *models.QuizDocument, questionID string, fn func(q *models.Question) error) (*models.QuizDocument, error) {
	out := doc.Clone()
	q := out.Question(questionID)
	if q == nil {
		return nil, ErrQuestionNotFound
	}
	if err := fn(q); err != nil {
		return nil, err
	}
	normalize(q)
	return out, nil
}

func payloadOf[T models.Payload](q *models.Question) (T, error) {
	p, ok := q.Payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrWrongQuestionType, q.Type)
	}
	return p, nil
}

// checkQuestion rejects values that the document schema allows but an
// author should never be able to produce.
func checkQuestion(q *models.Question) error {
	switch p := q.Payload.(type) {
	case *models.EssayPayload:
		if p.MinWords != nil && *p.MinWords <= 0 {
			return fmt.Errorf("%w: minWords must be positive", ErrInvalidValue)
		}
	case *models.UnscramblePayload:
		if p.Mode != models.UnscrambleLetters && p.Mode != models.UnscrambleSentence {
			return fmt.Errorf("%w: unscramble mode %q", ErrInvalidValue, p.Mode)
		}
	case *models.SortingPayload:
		for _, item := range p.Items {
			if !hasCategory(p, item.CategoryID) {
				return fmt.Errorf("%w: %s", ErrCategoryNotFound, item.CategoryID)
			}
		}
	case *models.WordSearchPayload:
		if p.GridSize <= 0 {
			return fmt.Errorf("%w: grid size must be positive", ErrInvalidValue)
		}
	case *models.CrosswordPayload:
		if p.GridSize.Rows <= 0 || p.GridSize.Cols <= 0 {
			return fmt.Errorf("%w: grid size must be positive", ErrInvalidValue)
		}
		for _, clue := range p.Clues {
			if err := checkDirection(clue.Direction); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkDirection(d models.ClueDirection) error {
	if d != models.DirectionAcross && d != models.DirectionDown {
		return fmt.Errorf("%w: clue direction %q", ErrInvalidValue, d)
	}
	return nil
}

// normalize applies the storage conventions grading relies on.
func normalize(q *models.Question) {
	switch p := q.Payload.(type) {
	case *models.ChoicePayload:
		if !p.AllowMultiple {
			seen := false
			for i := range p.Options {
				if p.Options[i].IsCorrect {
					p.Options[i].IsCorrect = !seen
					seen = true
				}
			}
		}
	case *models.FillBlankPayload:
		p.Answers = resizeBlanks(p.Answers, models.CountBlanks(p.Template))
	case *models.WordSearchPayload:
		for i, w := range p.Words {
			p.Words[i] = strings.ToUpper(strings.TrimSpace(w))
		}
		for _, row := range p.Grid {
			for j, cell := range row {
				row[j] = strings.ToUpper(cell)
			}
		}
	case *models.CrosswordPayload:
		for i := range p.Clues {
			p.Clues[i].Answer = strings.ToUpper(strings.TrimSpace(p.Clues[i].Answer))
		}
	}
}

func resizeBlanks(answers [][]string, n int) [][]string {
	if len(answers) > n {
		return answers[:n]
	}
	for len(answers) < n {
		answers = append(answers, []string{})
	}
	return answers
}

func hasCategory(p *models.SortingPayload, id string) bool {
	return slices.ContainsFunc(p.Categories, func(c models.SortingCategory) bool { return c.ID == id })
}

func move[T any](s []T, from, to int) []T {
	to = max(0, min(to, len(s)-1))
	v := s[from]
	s = slices.Delete(s, from, from+1)
	return slices.Insert(s, to, v)
}
