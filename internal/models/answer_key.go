package models

import (
	"fmt"
	"strings"
)

// AnswerKey describes what counts as correct for one question. Only the
// fields relevant to the question type are populated.
type AnswerKey struct {
	QuestionID string       `json:"questionId"`
	Type       QuestionType `json:"type"`

	// AutoGradable is false for essays and for questions whose authored data
	// is not complete enough to ever be answered correctly.
	AutoGradable bool `json:"autoGradable"`

	// mcq, true_false
	CorrectOptionIDs []string `json:"correctOptionIds,omitempty"`
	AllowMultiple    bool     `json:"allowMultiple,omitempty"`

	// short_answer, fill_blank
	AcceptedAnswers [][]string `json:"acceptedAnswers,omitempty"`
	CaseSensitive   bool       `json:"caseSensitive,omitempty"`

	// matching
	Pairs []MatchingPair `json:"pairs,omitempty"`

	// ordering
	Sequence []string `json:"sequence,omitempty"`

	// sorting: item id to category id
	Assignments map[string]string `json:"assignments,omitempty"`

	// unscramble
	Target string `json:"target,omitempty"`

	// word_search
	Words []string `json:"words,omitempty"`

	// crossword
	Clues []ClueKey `json:"clues,omitempty"`
}

// ClueKey lists the cells a crossword clue occupies. InBounds is false when
// the placement leaves the grid or the direction is not recognised.
type ClueKey struct {
	Number   int       `json:"number"`
	Cells    []CellKey `json:"cells"`
	InBounds bool      `json:"inBounds"`
}

type CellKey struct {
	Key  string `json:"key"`
	Char string `json:"char"`
}

// CellKeyFor formats the submission key of a crossword cell.
func CellKeyFor(row, col int) string {
	return fmt.Sprintf("%d-%d", row, col)
}

// ExtractAnswerKey derives the answer key of a question from its payload.
func ExtractAnswerKey(q *Question) AnswerKey {
	key := AnswerKey{
		QuestionID: q.ID,
		Type:       q.Type,
	}

	switch p := q.Payload.(type) {
	case *ChoicePayload:
		key.AllowMultiple = p.AllowMultiple
		for _, opt := range p.Options {
			if opt.IsCorrect {
				key.CorrectOptionIDs = append(key.CorrectOptionIDs, opt.ID)
			}
		}
		key.AutoGradable = len(key.CorrectOptionIDs) > 0

	case *ShortAnswerPayload:
		key.CaseSensitive = p.CaseSensitive
		key.AcceptedAnswers = [][]string{append([]string{}, p.CorrectAnswers...)}
		key.AutoGradable = len(p.CorrectAnswers) > 0

	case *EssayPayload:
		key.AutoGradable = false

	case *MatchingPayload:
		key.Pairs = append([]MatchingPair{}, p.Pairs...)
		key.AutoGradable = len(p.Pairs) > 0

	case *OrderingPayload:
		for _, item := range p.Items {
			key.Sequence = append(key.Sequence, item.ID)
		}
		key.AutoGradable = len(p.Items) > 0

	case *SortingPayload:
		key.Assignments = make(map[string]string, len(p.Items))
		for _, item := range p.Items {
			key.Assignments[item.ID] = item.CategoryID
		}
		key.AutoGradable = len(p.Items) > 0

	case *UnscramblePayload:
		key.Target = strings.TrimSpace(p.CorrectSequence)
		key.AutoGradable = key.Target != ""

	case *FillBlankPayload:
		key.CaseSensitive = p.CaseSensitive
		key.AutoGradable = len(p.Answers) > 0
		for _, accepted := range p.Answers {
			key.AcceptedAnswers = append(key.AcceptedAnswers, append([]string{}, accepted...))
			if len(accepted) == 0 {
				key.AutoGradable = false
			}
		}

	case *WordSearchPayload:
		key.Words = append([]string{}, p.Words...)
		key.AutoGradable = len(p.Words) > 0 && gridReady(p)

	case *CrosswordPayload:
		key.AutoGradable = len(p.Clues) > 0
		for _, clue := range p.Clues {
			ck := clueCells(clue, p.GridSize)
			if !ck.InBounds {
				key.AutoGradable = false
			}
			key.Clues = append(key.Clues, ck)
		}
	}

	return key
}

// gridReady reports whether the word search grid has been generated with the
// declared size.
func gridReady(p *WordSearchPayload) bool {
	if p.GridSize <= 0 || len(p.Grid) != p.GridSize {
		return false
	}
	for _, row := range p.Grid {
		if len(row) != p.GridSize {
			return false
		}
	}
	return true
}

func clueCells(clue CrosswordClue, size CrosswordGridSize) ClueKey {
	ck := ClueKey{Number: clue.Number, InBounds: true}

	var dr, dc int
	switch clue.Direction {
	case DirectionAcross:
		dc = 1
	case DirectionDown:
		dr = 1
	default:
		ck.InBounds = false
		return ck
	}

	chars := []rune(strings.ToUpper(clue.Answer))
	if len(chars) == 0 {
		ck.InBounds = false
		return ck
	}

	for i, ch := range chars {
		r, c := clue.Row+dr*i, clue.Col+dc*i
		if r < 0 || c < 0 || r >= size.Rows || c >= size.Cols {
			ck.InBounds = false
		}
		ck.Cells = append(ck.Cells, CellKey{Key: CellKeyFor(r, c), Char: string(ch)})
	}
	return ck
}
