package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAnswerKey_Choice(t *testing.T) {
	q := &Question{ID: "q", Type: QuestionMCQ, Payload: &ChoicePayload{
		AllowMultiple: true,
		Options: []ChoiceOption{
			{ID: "a", IsCorrect: true},
			{ID: "b"},
			{ID: "c", IsCorrect: true},
		},
	}}

	key := ExtractAnswerKey(q)
	assert.True(t, key.AutoGradable)
	assert.True(t, key.AllowMultiple)
	assert.Equal(t, []string{"a", "c"}, key.CorrectOptionIDs)

	q.Payload.(*ChoicePayload).Options = []ChoiceOption{{ID: "a"}}
	assert.False(t, ExtractAnswerKey(q).AutoGradable)
}

func TestExtractAnswerKey_Ordering(t *testing.T) {
	q := &Question{ID: "q", Type: QuestionOrdering, Payload: &OrderingPayload{
		Items: []OrderingItem{{ID: "3"}, {ID: "1"}, {ID: "2"}},
	}}

	assert.Equal(t, []string{"3", "1", "2"}, ExtractAnswerKey(q).Sequence)
}

func TestExtractAnswerKey_Sorting(t *testing.T) {
	q := &Question{ID: "q", Type: QuestionSorting, Payload: &SortingPayload{
		Categories: []SortingCategory{{ID: "c1"}, {ID: "c2"}},
		Items:      []SortingItem{{ID: "i1", CategoryID: "c1"}, {ID: "i2", CategoryID: "c2"}},
	}}

	assert.Equal(t, map[string]string{"i1": "c1", "i2": "c2"}, ExtractAnswerKey(q).Assignments)
}

func TestExtractAnswerKey_FillBlankWithEmptySet(t *testing.T) {
	q := &Question{ID: "q", Type: QuestionFillBlank, Payload: &FillBlankPayload{
		Template: "{{blank}} and {{blank}}",
		Answers:  [][]string{{"a"}, {}},
	}}

	key := ExtractAnswerKey(q)
	assert.Len(t, key.AcceptedAnswers, 2)
	assert.False(t, key.AutoGradable)
}

func TestExtractAnswerKey_Essay(t *testing.T) {
	key := ExtractAnswerKey(NewQuestion("e", QuestionEssay))
	assert.False(t, key.AutoGradable)
	assert.Equal(t, QuestionEssay, key.Type)
}

func TestExtractAnswerKey_WordSearchGrid(t *testing.T) {
	payload := &WordSearchPayload{Words: []string{"GO"}, GridSize: 2, Grid: [][]string{{"G", "O"}, {"A", "B"}}}
	q := &Question{ID: "q", Type: QuestionWordSearch, Payload: payload}
	assert.True(t, ExtractAnswerKey(q).AutoGradable)

	payload.Grid = [][]string{{"G", "O"}, {"A"}}
	assert.False(t, ExtractAnswerKey(q).AutoGradable)

	payload.Grid = [][]string{}
	assert.False(t, ExtractAnswerKey(q).AutoGradable)
}

func TestExtractAnswerKey_CrosswordCells(t *testing.T) {
	q := &Question{ID: "q", Type: QuestionCrossword, Payload: &CrosswordPayload{
		GridSize: CrosswordGridSize{Rows: 4, Cols: 4},
		Clues: []CrosswordClue{
			{Number: 1, Direction: DirectionDown, Answer: "dog", Row: 1, Col: 2},
		},
	}}

	key := ExtractAnswerKey(q)
	require.Len(t, key.Clues, 1)
	assert.True(t, key.AutoGradable)
	assert.Equal(t, []CellKey{
		{Key: "1-2", Char: "D"},
		{Key: "2-2", Char: "O"},
		{Key: "3-2", Char: "G"},
	}, key.Clues[0].Cells)
}

func TestExtractAnswerKey_CrosswordInvalidPlacement(t *testing.T) {
	tests := []struct {
		name string
		clue CrosswordClue
	}{
		{name: "overflows columns", clue: CrosswordClue{Direction: DirectionAcross, Answer: "LONG", Row: 0, Col: 1}},
		{name: "overflows rows", clue: CrosswordClue{Direction: DirectionDown, Answer: "LONG", Row: 2, Col: 0}},
		{name: "negative start", clue: CrosswordClue{Direction: DirectionAcross, Answer: "AB", Row: -1, Col: 0}},
		{name: "unknown direction", clue: CrosswordClue{Direction: "diagonal", Answer: "AB"}},
		{name: "empty answer", clue: CrosswordClue{Direction: DirectionAcross, Answer: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &Question{ID: "q", Type: QuestionCrossword, Payload: &CrosswordPayload{
				GridSize: CrosswordGridSize{Rows: 4, Cols: 4},
				Clues:    []CrosswordClue{tt.clue},
			}}
			key := ExtractAnswerKey(q)
			assert.False(t, key.AutoGradable)
			assert.False(t, key.Clues[0].InBounds)
		})
	}
}

func TestSubmission_Has(t *testing.T) {
	sub := NewSubmission()
	require.NoError(t, sub.Set("text", "hello"))
	require.NoError(t, sub.Set("empty", ""))
	require.NoError(t, sub.Set("null", nil))
	require.NoError(t, sub.Set("list", []string{}))

	assert.True(t, sub.Has("text"))
	assert.True(t, sub.Has("list"))
	assert.False(t, sub.Has("empty"))
	assert.False(t, sub.Has("null"))
	assert.False(t, sub.Has("missing"))
}

func TestSubmission_Decode(t *testing.T) {
	sub := NewSubmission()
	require.NoError(t, sub.Set("q", []string{"a", "b"}))

	var ids []string
	assert.True(t, sub.Decode("q", &ids))
	assert.Equal(t, []string{"a", "b"}, ids)

	var single string
	assert.False(t, sub.Decode("q", &single))
	assert.False(t, sub.Decode("missing", &single))
}

func TestSubmission_CloneIsIndependent(t *testing.T) {
	sub := NewSubmission()
	require.NoError(t, sub.Set("q", "a"))

	clone := sub.Clone()
	require.NoError(t, clone.Set("q", "b"))

	var got string
	require.True(t, sub.Decode("q", &got))
	assert.Equal(t, "a", got)
}
