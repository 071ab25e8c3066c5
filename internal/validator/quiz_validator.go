package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

type WarningCode string

const (
	WarnEmptyQuiz         WarningCode = "empty_quiz"
	WarnEmptyPrompt       WarningCode = "empty_prompt"
	WarnNoPoints          WarningCode = "no_points"
	WarnNoOptions         WarningCode = "no_options"
	WarnNoCorrectOption   WarningCode = "no_correct_option"
	WarnEmptyOption       WarningCode = "empty_option"
	WarnNoAnswers         WarningCode = "no_answers"
	WarnDuplicateLeft     WarningCode = "duplicate_left"
	WarnTooFewItems       WarningCode = "too_few_items"
	WarnNoCategories      WarningCode = "no_categories"
	WarnEmptyCategory     WarningCode = "empty_category"
	WarnNoBlanks          WarningCode = "no_blanks"
	WarnBlankUnanswered   WarningCode = "blank_unanswered"
	WarnNoWords           WarningCode = "no_words"
	WarnGridMissing       WarningCode = "grid_missing"
	WarnWordTooLong       WarningCode = "word_too_long"
	WarnWordNotInGrid     WarningCode = "word_not_in_grid"
	WarnNoClues           WarningCode = "no_clues"
	WarnClueOutOfBounds   WarningCode = "clue_out_of_bounds"
	WarnClueConflict      WarningCode = "clue_conflict"
	WarnBadPassingScore   WarningCode = "bad_passing_score"
	WarnBadTimeLimit      WarningCode = "bad_time_limit"
	WarnEmptyUnscramble   WarningCode = "empty_unscramble"
	WarnTrivialUnscramble WarningCode = "trivial_unscramble"
)

// Warning describes something in a quiz document that will grade poorly or
// confuse students. Warnings never block saving.
type Warning struct {
	QuestionID string      `json:"questionId,omitempty"`
	Code       WarningCode `json:"code"`
	Message    string      `json:"message"`
}

type QuizValidator struct{}

func NewQuizValidator() *QuizValidator {
	return &QuizValidator{}
}

// ValidateDocument returns authoring warnings for doc in question order.
func (v *QuizValidator) ValidateDocument(doc *models.QuizDocument) []Warning {
	warnings := []Warning{}
	if doc == nil || len(doc.Questions) == 0 {
		return append(warnings, Warning{Code: WarnEmptyQuiz, Message: "quiz has no questions"})
	}

	s := doc.Settings
	if s.PassingScorePercentage < 0 || s.PassingScorePercentage > 100 {
		warnings = append(warnings, Warning{
			Code:    WarnBadPassingScore,
			Message: fmt.Sprintf("passing score %.0f%% is outside 0-100", s.PassingScorePercentage),
		})
	}
	if s.TimeLimitSeconds != nil && *s.TimeLimitSeconds <= 0 {
		warnings = append(warnings, Warning{Code: WarnBadTimeLimit, Message: "time limit must be positive"})
	}

	for _, q := range doc.Questions {
		warnings = append(warnings, v.ValidateQuestion(q)...)
	}
	return warnings
}

// ValidateQuestion returns authoring warnings for a single question.
func (v *QuizValidator) ValidateQuestion(q *models.Question) []Warning {
	w := &collector{questionID: q.ID}

	if strings.TrimSpace(q.Prompt) == "" {
		w.add(WarnEmptyPrompt, "prompt is empty")
	}
	if q.Points <= 0 {
		w.add(WarnNoPoints, "question is worth no points")
	}

	switch p := q.Payload.(type) {
	case *models.ChoicePayload:
		checkChoice(w, p)
	case *models.ShortAnswerPayload:
		if countNonBlank(p.CorrectAnswers) == 0 {
			w.add(WarnNoAnswers, "no accepted answers")
		}
	case *models.MatchingPayload:
		checkMatching(w, p)
	case *models.OrderingPayload:
		if len(p.Items) < 2 {
			w.add(WarnTooFewItems, "ordering needs at least two items")
		}
	case *models.SortingPayload:
		checkSorting(w, p)
	case *models.UnscramblePayload:
		checkUnscramble(w, p)
	case *models.FillBlankPayload:
		checkFillBlank(w, p)
	case *models.WordSearchPayload:
		checkWordSearch(w, p)
	case *models.CrosswordPayload:
		checkCrossword(w, p)
	}
	return w.warnings
}

type collector struct {
	questionID string
	warnings   []Warning
}

func (c *collector) add(code WarningCode, format string, args ...any) {
	c.warnings = append(c.warnings, Warning{
		QuestionID: c.questionID,
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
	})
}

func checkChoice(w *collector, p *models.ChoicePayload) {
	if len(p.Options) == 0 {
		w.add(WarnNoOptions, "no options")
		return
	}
	correct := 0
	for i, o := range p.Options {
		if strings.TrimSpace(o.Text) == "" {
			w.add(WarnEmptyOption, "option %d has no text", i+1)
		}
		if o.IsCorrect {
			correct++
		}
	}
	if correct == 0 {
		w.add(WarnNoCorrectOption, "no option is marked correct")
	}
}

func checkMatching(w *collector, p *models.MatchingPayload) {
	if len(p.Pairs) == 0 {
		w.add(WarnNoAnswers, "no pairs")
		return
	}
	seen := make(map[string]bool, len(p.Pairs))
	for _, pair := range p.Pairs {
		if seen[pair.Left] {
			w.add(WarnDuplicateLeft, "left value %q appears more than once", pair.Left)
		}
		seen[pair.Left] = true
	}
}

func checkSorting(w *collector, p *models.SortingPayload) {
	if len(p.Categories) == 0 {
		w.add(WarnNoCategories, "no categories")
		return
	}
	if len(p.Items) == 0 {
		w.add(WarnTooFewItems, "no items to sort")
	}
	used := make(map[string]bool, len(p.Categories))
	for _, it := range p.Items {
		used[it.CategoryID] = true
	}
	for _, c := range p.Categories {
		if !used[c.ID] {
			w.add(WarnEmptyCategory, "category %q has no items", c.Name)
		}
	}
}

func checkUnscramble(w *collector, p *models.UnscramblePayload) {
	target := strings.TrimSpace(p.CorrectSequence)
	if target == "" {
		w.add(WarnEmptyUnscramble, "correct sequence is empty")
		return
	}
	var units int
	if p.Mode == models.UnscrambleSentence {
		units = len(strings.Fields(target))
	} else {
		units = utf8.RuneCountInString(target)
	}
	if units < 2 {
		w.add(WarnTrivialUnscramble, "nothing to unscramble")
	}
}

func checkFillBlank(w *collector, p *models.FillBlankPayload) {
	blanks := models.CountBlanks(p.Template)
	if blanks == 0 {
		w.add(WarnNoBlanks, "template has no %s markers", models.BlankMarker)
		return
	}
	for i := 0; i < blanks; i++ {
		if i >= len(p.Answers) || countNonBlank(p.Answers[i]) == 0 {
			w.add(WarnBlankUnanswered, "blank %d has no acceptable answers", i+1)
		}
	}
}

func checkWordSearch(w *collector, p *models.WordSearchPayload) {
	if len(p.Words) == 0 {
		w.add(WarnNoWords, "no words")
	}
	if !squareGrid(p.Grid, p.GridSize) {
		w.add(WarnGridMissing, "grid is not %dx%d", p.GridSize, p.GridSize)
		return
	}
	for _, word := range p.Words {
		word = strings.ToUpper(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		if utf8.RuneCountInString(word) > p.GridSize {
			w.add(WarnWordTooLong, "word %q does not fit a %dx%d grid", word, p.GridSize, p.GridSize)
			continue
		}
		if !gridContains(p.Grid, word) {
			w.add(WarnWordNotInGrid, "word %q cannot be found in the grid", word)
		}
	}
}

func checkCrossword(w *collector, p *models.CrosswordPayload) {
	if len(p.Clues) == 0 {
		w.add(WarnNoClues, "no clues")
		return
	}
	rows, cols := p.GridSize.Rows, p.GridSize.Cols
	letters := make(map[[2]int]rune)
	for _, c := range p.Clues {
		answer := []rune(strings.ToUpper(c.Answer))
		if len(answer) == 0 {
			w.add(WarnNoAnswers, "clue %d has no answer", c.Number)
			continue
		}
		dr, dc := 0, 1
		if c.Direction == models.DirectionDown {
			dr, dc = 1, 0
		}
		endR, endC := c.Row+dr*(len(answer)-1), c.Col+dc*(len(answer)-1)
		if c.Row < 0 || c.Col < 0 || endR >= rows || endC >= cols {
			w.add(WarnClueOutOfBounds, "clue %d %s does not fit the %dx%d grid", c.Number, c.Direction, rows, cols)
			continue
		}
		for i, r := range answer {
			cell := [2]int{c.Row + dr*i, c.Col + dc*i}
			if prev, ok := letters[cell]; ok && prev != r {
				w.add(WarnClueConflict, "clue %d %s conflicts at row %d col %d", c.Number, c.Direction, cell[0], cell[1])
				break
			}
			letters[cell] = r
		}
	}
}

func countNonBlank(values []string) int {
	n := 0
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

func squareGrid(grid [][]string, size int) bool {
	if size <= 0 || len(grid) != size {
		return false
	}
	for _, row := range grid {
		if len(row) != size {
			return false
		}
	}
	return true
}

var directions = [8][2]int{{0, 1}, {1, 0}, {1, 1}, {-1, 1}, {0, -1}, {-1, 0}, {-1, -1}, {1, -1}}

// gridContains reports whether word appears in a straight line in any of the
// eight directions.
func gridContains(grid [][]string, word string) bool {
	letters := strings.Split(word, "")
	n := len(grid)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			for _, d := range directions {
				if matchesAt(grid, letters, r, c, d) {
					return true
				}
			}
		}
	}
	return false
}

func matchesAt(grid [][]string, letters []string, r, c int, d [2]int) bool {
	n := len(grid)
	for i, l := range letters {
		rr, cc := r+d[0]*i, c+d[1]*i
		if rr < 0 || cc < 0 || rr >= n || cc >= n {
			return false
		}
		if !strings.EqualFold(grid[rr][cc], l) {
			return false
		}
	}
	return true
}
