package builder

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

func newTestBuilder() *Builder {
	n := 0
	return New(WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
}

func addQuestion(t *testing.T, b *Builder, doc *models.QuizDocument, qType models.QuestionType) (*models.QuizDocument, string) {
	t.Helper()
	out, id, err := b.AddQuestion(doc, qType)
	require.NoError(t, err)
	return out, id
}

func intPtr(v int) *int { return &v }

func TestBuilder_AddQuestion(t *testing.T) {
	b := newTestBuilder()
	doc := models.NewQuizDocument()

	out, id, err := b.AddQuestion(doc, models.QuestionMCQ)
	require.NoError(t, err)

	assert.Empty(t, doc.Questions, "input document must not change")
	require.Len(t, out.Questions, 1)
	assert.Equal(t, "id-1", id)

	q := out.Questions[0]
	assert.Equal(t, models.DefaultPrompt, q.Prompt)
	assert.Equal(t, models.DefaultPoints, q.Points)
	choice := q.Payload.(*models.ChoicePayload)
	assert.False(t, choice.AllowMultiple)
	assert.Equal(t, []models.ChoiceOption{{ID: "id-2", Text: "Option 1"}}, choice.Options)
}

func TestBuilder_AddQuestionTrueFalse(t *testing.T) {
	b := newTestBuilder()
	out, _ := addQuestion(t, b, models.NewQuizDocument(), models.QuestionTrueFalse)

	choice := out.Questions[0].Payload.(*models.ChoicePayload)
	require.Len(t, choice.Options, 2)
	assert.Equal(t, "True", choice.Options[0].Text)
	assert.Equal(t, "False", choice.Options[1].Text)
}

func TestBuilder_AddQuestionDefaults(t *testing.T) {
	b := newTestBuilder()
	doc := models.NewQuizDocument()
	for _, qType := range models.AllQuestionTypes {
		doc, _ = addQuestion(t, b, doc, qType)
	}
	require.Len(t, doc.Questions, len(models.AllQuestionTypes))

	ws := doc.Questions[9].Payload.(*models.WordSearchPayload)
	assert.Equal(t, models.DefaultGridSize, ws.GridSize)
	assert.Empty(t, ws.Grid)

	cw := doc.Questions[10].Payload.(*models.CrosswordPayload)
	assert.Equal(t, models.CrosswordGridSize{Rows: 10, Cols: 10}, cw.GridSize)

	// the result must survive the stored form
	parsed, err := models.ParseQuizDocumentString(doc.String())
	require.NoError(t, err)
	assert.Equal(t, doc, parsed)
}

func TestBuilder_AddQuestionUnknownType(t *testing.T) {
	_, _, err := newTestBuilder().AddQuestion(models.NewQuizDocument(), "hotspot")
	assert.ErrorIs(t, err, ErrUnknownQuestionType)
}

func TestBuilder_RemoveQuestion(t *testing.T) {
	b := newTestBuilder()
	doc, id := addQuestion(t, b, models.NewQuizDocument(), models.QuestionEssay)

	out := b.RemoveQuestion(doc, id)
	assert.Empty(t, out.Questions)
	assert.Len(t, doc.Questions, 1)

	again := b.RemoveQuestion(out, id)
	assert.Equal(t, out, again)
}

func TestBuilder_MoveQuestion(t *testing.T) {
	b := newTestBuilder()
	doc := models.NewQuizDocument()
	var ids []string
	for range 3 {
		var id string
		doc, id = addQuestion(t, b, doc, models.QuestionEssay)
		ids = append(ids, id)
	}

	tests := []struct {
		name string
		id   string
		to   int
		want []string
	}{
		{name: "to end", id: ids[0], to: 2, want: []string{ids[1], ids[2], ids[0]}},
		{name: "clamped high", id: ids[0], to: 99, want: []string{ids[1], ids[2], ids[0]}},
		{name: "clamped low", id: ids[2], to: -4, want: []string{ids[2], ids[0], ids[1]}},
		{name: "same place", id: ids[1], to: 1, want: ids},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := b.MoveQuestion(doc, tt.id, tt.to)
			require.NoError(t, err)

			var got []string
			for _, q := range out.Questions {
				got = append(got, q.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := b.MoveQuestion(doc, "missing", 0)
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestBuilder_UpdateQuestion(t *testing.T) {
	b := newTestBuilder()
	doc, id := addQuestion(t, b, models.NewQuizDocument(), models.QuestionShortAnswer)

	out, err := b.UpdateQuestion(doc, id, Patch{
		"prompt":         json.RawMessage(`"Capital of France?"`),
		"points":         json.RawMessage(`5`),
		"correctAnswers": json.RawMessage(`["Paris"]`),
	})
	require.NoError(t, err)

	q := out.Question(id)
	assert.Equal(t, "Capital of France?", q.Prompt)
	assert.Equal(t, 5, q.Points)
	assert.Equal(t, []string{"Paris"}, q.Payload.(*models.ShortAnswerPayload).CorrectAnswers)
	assert.Equal(t, models.DefaultPrompt, doc.Question(id).Prompt)
}

func TestBuilder_UpdateQuestionRejects(t *testing.T) {
	b := newTestBuilder()
	doc, id := addQuestion(t, b, models.NewQuizDocument(), models.QuestionMCQ)

	tests := []struct {
		name  string
		patch Patch
		want  error
	}{
		{name: "foreign field", patch: Patch{"correctAnswers": json.RawMessage(`["x"]`)}, want: ErrFieldNotAllowed},
		{name: "id", patch: Patch{"id": json.RawMessage(`"other"`)}, want: ErrFieldNotAllowed},
		{name: "type", patch: Patch{"type": json.RawMessage(`"essay"`)}, want: ErrFieldNotAllowed},
		{name: "negative points", patch: Patch{"points": json.RawMessage(`-1`)}, want: ErrInvalidValue},
		{name: "wrong shape", patch: Patch{"options": json.RawMessage(`"abc"`)}, want: ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := b.UpdateQuestion(doc, id, tt.patch)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := b.UpdateQuestion(doc, "missing", Patch{})
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestBuilder_SingleSelectKeepsOneCorrect(t *testing.T) {
	b := newTestBuilder()
	doc, id := addQuestion(t, b, models.NewQuizDocument(), models.QuestionMCQ)

	out, err := b.UpdateQuestion(doc, id, Patch{
		"options": json.RawMessage(`[{"id":"a","text":"A","isCorrect":true},{"id":"b","text":"B","isCorrect":true}]`),
	})
	require.NoError(t, err)

	opts := out.Question(id).Payload.(*models.ChoicePayload).Options
	assert.True(t, opts[0].IsCorrect)
	assert.False(t, opts[1].IsCorrect)

	correct := true
	out, err = b.UpdateOption(out, id, "b", OptionPatch{IsCorrect: &correct})
	require.NoError(t, err)

	opts = out.Question(id).Payload.(*models.ChoicePayload).Options
	assert.False(t, opts[0].IsCorrect)
	assert.True(t, opts[1].IsCorrect)
}

func TestBuilder_MultiSelectOptions(t *testing.T) {
	b := newTestBuilder()
	doc, id := addQuestion(t, b, models.NewQuizDocument(), models.QuestionMCQ)

	doc, err := b.UpdateQuestion(doc, id, Patch{"allowMultiple": json.RawMessage(`true`)})
	require.NoError(t, err)
	doc, optA, err := b.AddOption(doc, id, "A", true)
	require.NoError(t, err)
	doc, optB, err := b.AddOption(doc, id, "B", true)
	require.NoError(t, err)

	opts := doc.Question(id).Payload.(*models.ChoicePayload).Options
	require.Len(t, opts, 3)
	assert.True(t, opts[1].IsCorrect)
	assert.True(t, opts[2].IsCorrect)

	doc, err = b.RemoveOption(doc, id, optA)
	require.NoError(t, err)
	opts = doc.Question(id).Payload.(*models.ChoicePayload).Options
	require.Len(t, opts, 2)
	assert.Equal(t, optB, opts[1].ID)

	_, err = b.UpdateOption(doc, id, "missing", OptionPatch{})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestBuilder_WrongQuestionType(t *testing.T) {
	b := newTestBuilder()
	doc, id := addQuestion(t, b, models.NewQuizDocument(), models.QuestionEssay)

	_, _, err := b.AddOption(doc, id, "A", false)
	assert.ErrorIs(t, err, ErrWrongQuestionType)

	_, err = b.AddWord(doc, id, "GO")
	assert.ErrorIs(t, err, ErrWrongQuestionType)
}

func TestBuilder_UpdateSettings(t *testing.T) {
	b := newTestBuilder()
	doc := models.NewQuizDocument()

	score := 85.0
	shuffle := true
	out, err := b.UpdateSettings(doc, SettingsPatch{
		PassingScorePercentage: &score,
		ShuffleQuestions:       &shuffle,
		TimeLimitSeconds:       intPtr(300),
	})
	require.NoError(t, err)
	assert.Equal(t, 85.0, out.Settings.PassingScorePercentage)
	assert.True(t, out.Settings.ShuffleQuestions)
	assert.True(t, out.Settings.ShowResultsImmediately)
	assert.Equal(t, 300, *out.Settings.TimeLimitSeconds)
	assert.Equal(t, models.DefaultQuizSettings(), doc.Settings)

	out, err = b.UpdateSettings(out, SettingsPatch{ClearTimeLimit: true})
	require.NoError(t, err)
	assert.Nil(t, out.Settings.TimeLimitSeconds)

	bad := 120.0
	_, err = b.UpdateSettings(doc, SettingsPatch{PassingScorePercentage: &bad})
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = b.UpdateSettings(doc, SettingsPatch{TimeLimitSeconds: intPtr(0)})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestBuilder_ShortAnswerAndPairs(t *testing.T) {
	b := newTestBuilder()
	doc, sa := addQuestion(t, b, models.NewQuizDocument(), models.QuestionShortAnswer)
	doc, mt := addQuestion(t, b, doc, models.QuestionMatching)

	doc, err := b.AddAcceptedAnswer(doc, sa, "Paris")
	require.NoError(t, err)
	doc, err = b.AddAcceptedAnswer(doc, sa, "paris.")
	require.NoError(t, err)
	doc, err = b.UpdateAcceptedAnswer(doc, sa, 1, "Lutetia")
	require.NoError(t, err)
	doc, err = b.RemoveAcceptedAnswer(doc, sa, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lutetia"}, doc.Question(sa).Payload.(*models.ShortAnswerPayload).CorrectAnswers)

	_, err = b.RemoveAcceptedAnswer(doc, sa, 5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	doc, err = b.AddPair(doc, mt, models.MatchingPair{Left: "Apple", Right: "Red"})
	require.NoError(t, err)
	right := "Green"
	doc, err = b.UpdatePair(doc, mt, 0, PairPatch{Right: &right})
	require.NoError(t, err)
	assert.Equal(t, []models.MatchingPair{{Left: "Apple", Right: "Green"}}, doc.Question(mt).Payload.(*models.MatchingPayload).Pairs)

	doc, err = b.RemovePair(doc, mt, 0)
	require.NoError(t, err)
	assert.Empty(t, doc.Question(mt).Payload.(*models.MatchingPayload).Pairs)
}

func TestBuilder_OrderingItems(t *testing.T) {
	b := newTestBuilder()
	doc, id := addQuestion(t, b, models.NewQuizDocument(), models.QuestionOrdering)

	var itemIDs []string
	for _, text := range []string{"first", "second", "third"} {
		var itemID string
		var err error
		doc, itemID, err = b.AddOrderingItem(doc, id, text)
		require.NoError(t, err)
		itemIDs = append(itemIDs, itemID)
	}

	doc, err := b.MoveOrderingItem(doc, id, itemIDs[2], 0)
	require.NoError(t, err)
	doc, err = b.RemoveOrderingItem(doc, id, itemIDs[0])
	require.NoError(t, err)
	doc, err = b.UpdateOrderingItem(doc, id, itemIDs[1], "2nd")
	require.NoError(t, err)

	items := doc.Question(id).Payload.(*models.OrderingPayload).Items
	assert.Equal(t, []models.OrderingItem{
		{ID: itemIDs[2], Text: "third"},
		{ID: itemIDs[1], Text: "2nd"},
	}, items)
}

func TestBuilder_SortingCategories(t *testing.T) {
	b := newTestBuilder()
	doc, id := addQuestion(t, b, models.NewQuizDocument(), models.QuestionSorting)

	_, _, err := b.AddSortingItem(doc, id, "Apple", "")
	assert.ErrorIs(t, err, ErrNoCategories)

	doc, fruit, err := b.AddCategory(doc, id, "Fruit")
	require.NoError(t, err)
	doc, veg, err := b.AddCategory(doc, id, "Vegetable")
	require.NoError(t, err)

	doc, apple, err := b.AddSortingItem(doc, id, "Apple", "")
	require.NoError(t, err)
	doc, carrot, err := b.AddSortingItem(doc, id, "Carrot", veg)
	require.NoError(t, err)

	p := doc.Question(id).Payload.(*models.SortingPayload)
	assert.Equal(t, fruit, p.Items[0].CategoryID)
	assert.Equal(t, veg, p.Items[1].CategoryID)

	_, _, err = b.AddSortingItem(doc, id, "Rock", "mineral")
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	other := "mineral"
	_, err = b.UpdateSortingItem(doc, id, apple, SortingItemPatch{CategoryID: &other})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	out, err := b.RemoveCategory(doc, id, veg)
	require.NoError(t, err)
	p = out.Question(id).Payload.(*models.SortingPayload)
	assert.Len(t, p.Categories, 1)
	require.Len(t, p.Items, 1)
	assert.Equal(t, apple, p.Items[0].ID)

	out, err = b.RemoveSortingItem(doc, id, carrot)
	require.NoError(t, err)
	assert.Len(t, out.Question(id).Payload.(*models.SortingPayload).Items, 1)

	_, err = b.UpdateQuestion(doc, id, Patch{"items": json.RawMessage(`[{"id":"x","text":"X","categoryId":"nope"}]`)})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestBuilder_FillBlankFollowsTemplate(t *testing.T) {
	b := newTestBuilder()
	doc, id := addQuestion(t, b, models.NewQuizDocument(), models.QuestionFillBlank)

	doc, err := b.SetTemplate(doc, id, "{{blank}} + {{blank}} = 4")
	require.NoError(t, err)
	p := doc.Question(id).Payload.(*models.FillBlankPayload)
	assert.Equal(t, [][]string{{}, {}}, p.Answers)

	doc, err = b.AddBlankAnswer(doc, id, 0, "2")
	require.NoError(t, err)
	doc, err = b.AddBlankAnswer(doc, id, 0, "two")
	require.NoError(t, err)
	doc, err = b.AddBlankAnswer(doc, id, 1, "2")
	require.NoError(t, err)
	doc, err = b.UpdateBlankAnswer(doc, id, 0, 1, "Two")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2", "Two"}, {"2"}}, doc.Question(id).Payload.(*models.FillBlankPayload).Answers)

	_, err = b.AddBlankAnswer(doc, id, 2, "x")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	doc, err = b.RemoveBlankAnswer(doc, id, 0, 0)
	require.NoError(t, err)
	doc, err = b.SetTemplate(doc, id, "{{blank}} = 4")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Two"}}, doc.Question(id).Payload.(*models.FillBlankPayload).Answers)
}

func TestBuilder_WordSearch(t *testing.T) {
	b := newTestBuilder()
	doc, id := addQuestion(t, b, models.NewQuizDocument(), models.QuestionWordSearch)

	doc, err := b.UpdateQuestion(doc, id, Patch{"gridSize": json.RawMessage(`2`)})
	require.NoError(t, err)
	doc, err = b.AddWord(doc, id, " go ")
	require.NoError(t, err)
	doc, err = b.AddWord(doc, id, "ab")
	require.NoError(t, err)
	doc, err = b.UpdateWord(doc, id, 1, "xy")
	require.NoError(t, err)

	_, err = b.AddWord(doc, id, "  ")
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = b.SetGrid(doc, id, [][]string{{"g", "o"}})
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = b.SetGrid(doc, id, [][]string{{"g", "o"}, {"xy", "z"}})
	assert.ErrorIs(t, err, ErrInvalidValue)

	grid := [][]string{{"g", "o"}, {"x", "y"}}
	doc, err = b.SetGrid(doc, id, grid)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"g", "o"}, {"x", "y"}}, grid, "caller's grid left untouched")

	p := doc.Question(id).Payload.(*models.WordSearchPayload)
	assert.Equal(t, []string{"GO", "XY"}, p.Words)
	assert.Equal(t, [][]string{{"G", "O"}, {"X", "Y"}}, p.Grid)

	doc, err = b.RemoveWord(doc, id, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"XY"}, doc.Question(id).Payload.(*models.WordSearchPayload).Words)

	_, err = b.UpdateQuestion(doc, id, Patch{"gridSize": json.RawMessage(`0`)})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestBuilder_CrosswordClues(t *testing.T) {
	b := newTestBuilder()
	doc, id := addQuestion(t, b, models.NewQuizDocument(), models.QuestionCrossword)

	for _, answer := range []string{"cat", "dog", "owl"} {
		a := answer
		var err error
		doc, err = b.AddClue(doc, id, CluePatch{Answer: &a})
		require.NoError(t, err)
	}

	down := models.DirectionDown
	doc, err := b.UpdateClue(doc, id, 2, CluePatch{Direction: &down, Row: intPtr(1), Col: intPtr(3)})
	require.NoError(t, err)

	doc, err = b.RemoveClue(doc, id, 0)
	require.NoError(t, err)

	clues := doc.Question(id).Payload.(*models.CrosswordPayload).Clues
	require.Len(t, clues, 2)
	assert.Equal(t, 1, clues[0].Number)
	assert.Equal(t, "DOG", clues[0].Answer)
	assert.Equal(t, 2, clues[1].Number)
	assert.Equal(t, "OWL", clues[1].Answer)
	assert.Equal(t, models.DirectionDown, clues[1].Direction)
	assert.Equal(t, 1, clues[1].Row)

	diagonal := models.ClueDirection("diagonal")
	_, err = b.UpdateClue(doc, id, 0, CluePatch{Direction: &diagonal})
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = b.UpdateClue(doc, id, 0, CluePatch{Row: intPtr(-1)})
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = b.RemoveClue(doc, id, 7)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestBuilder_Apply(t *testing.T) {
	b := newTestBuilder()
	doc := models.NewQuizDocument()

	doc, res, err := b.Apply(doc, Op{Op: OpAddQuestion, QuestionType: models.QuestionMCQ})
	require.NoError(t, err)
	qid := res.QuestionID
	require.NotEmpty(t, qid)

	doc, res, err = b.Apply(doc, Op{Op: OpAddOption, QuestionID: qid, Value: json.RawMessage(`{"text":"Paris","isCorrect":true}`)})
	require.NoError(t, err)
	assert.Equal(t, qid, res.QuestionID)
	require.NotEmpty(t, res.ItemID)

	opts := doc.Question(qid).Payload.(*models.ChoicePayload).Options
	require.Len(t, opts, 2)
	assert.Equal(t, models.ChoiceOption{ID: res.ItemID, Text: "Paris", IsCorrect: true}, opts[1])

	doc, _, err = b.Apply(doc, Op{Op: OpUpdateQuestion, QuestionID: qid, Value: json.RawMessage(`{"prompt":"Capital?"}`)})
	require.NoError(t, err)
	assert.Equal(t, "Capital?", doc.Question(qid).Prompt)

	doc, _, err = b.Apply(doc, Op{Op: OpUpdateSettings, Value: json.RawMessage(`{"shuffleQuestions":true}`)})
	require.NoError(t, err)
	assert.True(t, doc.Settings.ShuffleQuestions)

	doc, _, err = b.Apply(doc, Op{Op: OpRemoveQuestion, QuestionID: qid})
	require.NoError(t, err)
	assert.Empty(t, doc.Questions)
}

func TestBuilder_ApplyErrors(t *testing.T) {
	b := newTestBuilder()
	doc, id := addQuestion(t, b, models.NewQuizDocument(), models.QuestionShortAnswer)

	tests := []struct {
		name string
		op   Op
		want error
	}{
		{name: "unknown op", op: Op{Op: "explode"}, want: ErrUnknownOp},
		{name: "missing index", op: Op{Op: OpRemoveAcceptedAnswer, QuestionID: id}, want: ErrInvalidValue},
		{name: "missing value", op: Op{Op: OpUpdateQuestion, QuestionID: id}, want: ErrInvalidValue},
		{name: "bad value", op: Op{Op: OpUpdateAcceptedAnswer, QuestionID: id, Index: intPtr(0), Value: json.RawMessage(`42`)}, want: ErrInvalidValue},
		{name: "missing question", op: Op{Op: OpAddAcceptedAnswer, QuestionID: "nope", Value: json.RawMessage(`"x"`)}, want: ErrQuestionNotFound},
		{name: "missing target", op: Op{Op: OpMoveQuestion, QuestionID: id}, want: ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, res, err := b.Apply(doc, tt.op)
			assert.Nil(t, out)
			assert.Equal(t, OpResult{}, res)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
