package grading

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

func gradeChoice(key models.AnswerKey, answer json.RawMessage) bool {
	if !key.AllowMultiple {
		var selected string
		if json.Unmarshal(answer, &selected) != nil {
			return false
		}
		return selected == key.CorrectOptionIDs[0]
	}

	var selected []string
	if json.Unmarshal(answer, &selected) != nil {
		return false
	}
	return sameSet(selected, key.CorrectOptionIDs)
}

func gradeShortAnswer(key models.AnswerKey, answer json.RawMessage) bool {
	var text string
	if json.Unmarshal(answer, &text) != nil {
		return false
	}
	return matchesAny(key.AcceptedAnswers[0], strings.TrimSpace(text), key.CaseSensitive)
}

func gradeMatching(key models.AnswerKey, answer json.RawMessage) bool {
	var matches map[string]string
	if json.Unmarshal(answer, &matches) != nil {
		return false
	}
	for _, pair := range key.Pairs {
		right, ok := matches[pair.Left]
		if !ok || right != pair.Right {
			return false
		}
	}
	return true
}

func gradeOrdering(key models.AnswerKey, answer json.RawMessage) bool {
	var order []string
	if json.Unmarshal(answer, &order) != nil {
		return false
	}
	return slices.Equal(order, key.Sequence)
}

func gradeSorting(key models.AnswerKey, answer json.RawMessage) bool {
	var assigned map[string]string
	if json.Unmarshal(answer, &assigned) != nil {
		return false
	}
	for itemID, categoryID := range key.Assignments {
		got, ok := assigned[itemID]
		if !ok || got != categoryID {
			return false
		}
	}
	return true
}

// mode only affects how the prompt is scrambled for display
func gradeUnscramble(key models.AnswerKey, answer json.RawMessage) bool {
	var text string
	if json.Unmarshal(answer, &text) != nil {
		return false
	}
	return strings.ToLower(strings.TrimSpace(text)) == strings.ToLower(key.Target)
}

func gradeFillBlank(key models.AnswerKey, answer json.RawMessage) bool {
	var values []string
	if json.Unmarshal(answer, &values) != nil {
		return false
	}
	for i, accepted := range key.AcceptedAnswers {
		value := ""
		if i < len(values) {
			value = strings.TrimSpace(values[i])
		}
		if !matchesAny(accepted, value, key.CaseSensitive) {
			return false
		}
	}
	return true
}

// extra found words do not invalidate the answer
func gradeWordSearch(key models.AnswerKey, answer json.RawMessage) bool {
	var found []string
	if json.Unmarshal(answer, &found) != nil {
		return false
	}
	return !slices.ContainsFunc(key.Words, func(word string) bool {
		return !matchesAny(found, word, false)
	})
}

func gradeCrossword(key models.AnswerKey, answer json.RawMessage) bool {
	var cells map[string]string
	if json.Unmarshal(answer, &cells) != nil {
		return false
	}
	for _, clue := range key.Clues {
		if !clue.InBounds {
			return false
		}
		for _, cell := range clue.Cells {
			got, ok := cells[cell.Key]
			if !ok || strings.ToUpper(got) != cell.Char {
				return false
			}
		}
	}
	return true
}

func matchesAny(accepted []string, value string, caseSensitive bool) bool {
	if !caseSensitive {
		value = strings.ToLower(value)
	}
	return slices.ContainsFunc(accepted, func(candidate string) bool {
		if !caseSensitive {
			candidate = strings.ToLower(candidate)
		}
		return candidate == value
	})
}

func sameSet(a, b []string) bool {
	left := make(map[string]struct{}, len(a))
	for _, v := range a {
		left[v] = struct{}{}
	}
	right := make(map[string]struct{}, len(b))
	for _, v := range b {
		right[v] = struct{}{}
	}
	if len(left) != len(right) {
		return false
	}
	for v := range left {
		if _, ok := right[v]; !ok {
			return false
		}
	}
	return true
}
