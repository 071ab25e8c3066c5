package builder

import (
	"fmt"
	"slices"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// ===== CHOICE OPTIONS =====

type OptionPatch struct {
	Text      *string `json:"text"`
	IsCorrect *bool   `json:"isCorrect"`
}

func (b *Builder) AddOption(doc *models.QuizDocument, questionID, text string, isCorrect bool) (*models.QuizDocument, string, error) {
	id := b.newID()
	out, err := b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.ChoicePayload](q)
		if err != nil {
			return err
		}
		if isCorrect && !p.AllowMultiple {
			clearCorrect(p)
		}
		p.Options = append(p.Options, models.ChoiceOption{ID: id, Text: text, IsCorrect: isCorrect})
		return nil
	})
	return out, id, err
}

func (b *Builder) RemoveOption(doc *models.QuizDocument, questionID, optionID string) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.ChoicePayload](q)
		if err != nil {
			return err
		}
		p.Options = slices.DeleteFunc(p.Options, func(o models.ChoiceOption) bool { return o.ID == optionID })
		return nil
	})
}

// UpdateOption changes an option. Marking an option correct on a
// single-select question unmarks every other option.
func (b *Builder) UpdateOption(doc *models.QuizDocument, questionID, optionID string, patch OptionPatch) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.ChoicePayload](q)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(p.Options, func(o models.ChoiceOption) bool { return o.ID == optionID })
		if i < 0 {
			return fmt.Errorf("%w: option %s", ErrItemNotFound, optionID)
		}
		if patch.Text != nil {
			p.Options[i].Text = *patch.Text
		}
		if patch.IsCorrect != nil {
			if *patch.IsCorrect && !p.AllowMultiple {
				clearCorrect(p)
			}
			p.Options[i].IsCorrect = *patch.IsCorrect
		}
		return nil
	})
}

func clearCorrect(p *models.ChoicePayload) {
	for i := range p.Options {
		p.Options[i].IsCorrect = false
	}
}

// ===== SHORT ANSWER =====

func (b *Builder) AddAcceptedAnswer(doc *models.QuizDocument, questionID, answer string) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.ShortAnswerPayload](q)
		if err != nil {
			return err
		}
		p.CorrectAnswers = append(p.CorrectAnswers, answer)
		return nil
	})
}

func (b *Builder) RemoveAcceptedAnswer(doc *models.QuizDocument, questionID string, index int) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.ShortAnswerPayload](q)
		if err != nil {
			return err
		}
		p.CorrectAnswers, err = removeAt(p.CorrectAnswers, index)
		return err
	})
}

func (b *Builder) UpdateAcceptedAnswer(doc *models.QuizDocument, questionID string, index int, answer string) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.ShortAnswerPayload](q)
		if err != nil {
			return err
		}
		return setAt(p.CorrectAnswers, index, answer)
	})
}

// ===== MATCHING PAIRS =====

type PairPatch struct {
	Left  *string `json:"left"`
	Right *string `json:"right"`
}

func (b *Builder) AddPair(doc *models.QuizDocument, questionID string, pair models.MatchingPair) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.MatchingPayload](q)
		if err != nil {
			return err
		}
		p.Pairs = append(p.Pairs, pair)
		return nil
	})
}

func (b *Builder) RemovePair(doc *models.QuizDocument, questionID string, index int) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.MatchingPayload](q)
		if err != nil {
			return err
		}
		p.Pairs, err = removeAt(p.Pairs, index)
		return err
	})
}

func (b *Builder) UpdatePair(doc *models.QuizDocument, questionID string, index int, patch PairPatch) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.MatchingPayload](q)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(p.Pairs) {
			return ErrIndexOutOfRange
		}
		if patch.Left != nil {
			p.Pairs[index].Left = *patch.Left
		}
		if patch.Right != nil {
			p.Pairs[index].Right = *patch.Right
		}
		return nil
	})
}

// ===== ORDERING ITEMS =====

// AddOrderingItem appends an item at the end of the correct order.
func (b *Builder) AddOrderingItem(doc *models.QuizDocument, questionID, text string) (*models.QuizDocument, string, error) {
	id := b.newID()
	out, err := b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.OrderingPayload](q)
		if err != nil {
			return err
		}
		p.Items = append(p.Items, models.OrderingItem{ID: id, Text: text})
		return nil
	})
	return out, id, err
}

// RemoveOrderingItem removes an item; the remaining ids are kept as they are.
func (b *Builder) RemoveOrderingItem(doc *models.QuizDocument, questionID, itemID string) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.OrderingPayload](q)
		if err != nil {
			return err
		}
		p.Items = slices.DeleteFunc(p.Items, func(it models.OrderingItem) bool { return it.ID == itemID })
		return nil
	})
}

func (b *Builder) UpdateOrderingItem(doc *models.QuizDocument, questionID, itemID, text string) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.OrderingPayload](q)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(p.Items, func(it models.OrderingItem) bool { return it.ID == itemID })
		if i < 0 {
			return fmt.Errorf("%w: item %s", ErrItemNotFound, itemID)
		}
		p.Items[i].Text = text
		return nil
	})
}

// MoveOrderingItem changes the correct position of an item.
func (b *Builder) MoveOrderingItem(doc *models.QuizDocument, questionID, itemID string, to int) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.OrderingPayload](q)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(p.Items, func(it models.OrderingItem) bool { return it.ID == itemID })
		if i < 0 {
			return fmt.Errorf("%w: item %s", ErrItemNotFound, itemID)
		}
		p.Items = move(p.Items, i, to)
		return nil
	})
}

// ===== SORTING =====

type SortingItemPatch struct {
	Text       *string `json:"text"`
	CategoryID *string `json:"categoryId"`
}

func (b *Builder) AddCategory(doc *models.QuizDocument, questionID, name string) (*models.QuizDocument, string, error) {
	id := b.newID()
	out, err := b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.SortingPayload](q)
		if err != nil {
			return err
		}
		p.Categories = append(p.Categories, models.SortingCategory{ID: id, Name: name})
		return nil
	})
	return out, id, err
}

// RemoveCategory removes a category together with the items sorted into it.
func (b *Builder) RemoveCategory(doc *models.QuizDocument, questionID, categoryID string) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.SortingPayload](q)
		if err != nil {
			return err
		}
		p.Categories = slices.DeleteFunc(p.Categories, func(c models.SortingCategory) bool { return c.ID == categoryID })
		p.Items = slices.DeleteFunc(p.Items, func(it models.SortingItem) bool { return it.CategoryID == categoryID })
		return nil
	})
}

func (b *Builder) UpdateCategory(doc *models.QuizDocument, questionID, categoryID, name string) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.SortingPayload](q)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(p.Categories, func(c models.SortingCategory) bool { return c.ID == categoryID })
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
		}
		p.Categories[i].Name = name
		return nil
	})
}

// AddSortingItem adds an item to a category. An empty categoryID places the
// item in the first category.
func (b *Builder) AddSortingItem(doc *models.QuizDocument, questionID, text, categoryID string) (*models.QuizDocument, string, error) {
	id := b.newID()
	out, err := b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.SortingPayload](q)
		if err != nil {
			return err
		}
		if len(p.Categories) == 0 {
			return ErrNoCategories
		}
		if categoryID == "" {
			categoryID = p.Categories[0].ID
		}
		if !hasCategory(p, categoryID) {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
		}
		p.Items = append(p.Items, models.SortingItem{ID: id, Text: text, CategoryID: categoryID})
		return nil
	})
	return out, id, err
}

func (b *Builder) RemoveSortingItem(doc *models.QuizDocument, questionID, itemID string) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.SortingPayload](q)
		if err != nil {
			return err
		}
		p.Items = slices.DeleteFunc(p.Items, func(it models.SortingItem) bool { return it.ID == itemID })
		return nil
	})
}

func (b *Builder) UpdateSortingItem(doc *models.QuizDocument, questionID, itemID string, patch SortingItemPatch) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.SortingPayload](q)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(p.Items, func(it models.SortingItem) bool { return it.ID == itemID })
		if i < 0 {
			return fmt.Errorf("%w: item %s", ErrItemNotFound, itemID)
		}
		if patch.CategoryID != nil {
			if !hasCategory(p, *patch.CategoryID) {
				return fmt.Errorf("%w: %s", ErrCategoryNotFound, *patch.CategoryID)
			}
			p.Items[i].CategoryID = *patch.CategoryID
		}
		if patch.Text != nil {
			p.Items[i].Text = *patch.Text
		}
		return nil
	})
}

// ===== FILL IN THE BLANK =====

// SetTemplate replaces the template and resizes the answer sets to the new
// number of blanks.
func (b *Builder) SetTemplate(doc *models.QuizDocument, questionID, template string) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.FillBlankPayload](q)
		if err != nil {
			return err
		}
		p.Template = template
		return nil
	})
}

func (b *Builder) AddBlankAnswer(doc *models.QuizDocument, questionID string, blank int, answer string) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.FillBlankPayload](q)
		if err != nil {
			return err
		}
		if blank < 0 || blank >= len(p.Answers) {
			return fmt.Errorf("%w: blank %d", ErrIndexOutOfRange, blank)
		}
		p.Answers[blank] = append(p.Answers[blank], answer)
		return nil
	})
}

func (b *Builder) RemoveBlankAnswer(doc *models.QuizDocument, questionID string, blank, index int) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.FillBlankPayload](q)
		if err != nil {
			return err
		}
		if blank < 0 || blank >= len(p.Answers) {
			return fmt.Errorf("%w: blank %d", ErrIndexOutOfRange, blank)
		}
		p.Answers[blank], err = removeAt(p.Answers[blank], index)
		return err
	})
}

func (b *Builder) UpdateBlankAnswer(doc *models.QuizDocument, questionID string, blank, index int, answer string) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.FillBlankPayload](q)
		if err != nil {
			return err
		}
		if blank < 0 || blank >= len(p.Answers) {
			return fmt.Errorf("%w: blank %d", ErrIndexOutOfRange, blank)
		}
		return setAt(p.Answers[blank], index, answer)
	})
}

// ===== WORD SEARCH =====

func (b *Builder) AddWord(doc *models.QuizDocument, questionID, word string) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.WordSearchPayload](q)
		if err != nil {
			return err
		}
		if strings.TrimSpace(word) == "" {
			return fmt.Errorf("%w: word must not be empty", ErrInvalidValue)
		}
		p.Words = append(p.Words, word)
		return nil
	})
}

func (b *Builder) RemoveWord(doc *models.QuizDocument, questionID string, index int) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.WordSearchPayload](q)
		if err != nil {
			return err
		}
		p.Words, err = removeAt(p.Words, index)
		return err
	})
}

func (b *Builder) UpdateWord(doc *models.QuizDocument, questionID string, index int, word string) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.WordSearchPayload](q)
		if err != nil {
			return err
		}
		if strings.TrimSpace(word) == "" {
			return fmt.Errorf("%w: word must not be empty", ErrInvalidValue)
		}
		return setAt(p.Words, index, word)
	})
}

// SetGrid stores a generated letter grid. It must be gridSize x gridSize and
// every cell must hold exactly one character.
func (b *Builder) SetGrid(doc *models.QuizDocument, questionID string, grid [][]string) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.WordSearchPayload](q)
		if err != nil {
			return err
		}
		if len(grid) != p.GridSize {
			return fmt.Errorf("%w: grid must have %d rows", ErrInvalidValue, p.GridSize)
		}
		for _, row := range grid {
			if len(row) != p.GridSize {
				return fmt.Errorf("%w: grid must have %d columns", ErrInvalidValue, p.GridSize)
			}
			for _, cell := range row {
				if len([]rune(cell)) != 1 {
					return fmt.Errorf("%w: grid cell %q", ErrInvalidValue, cell)
				}
			}
		}
		p.Grid = make([][]string, len(grid))
		for i, row := range grid {
			p.Grid[i] = slices.Clone(row)
		}
		return nil
	})
}

// ===== CROSSWORD =====

type CluePatch struct {
	Direction *models.ClueDirection `json:"direction"`
	Clue      *string               `json:"clue"`
	Answer    *string               `json:"answer"`
	Row       *int                  `json:"row"`
	Col       *int                  `json:"col"`
}

// AddClue appends an empty across clue numbered after the existing ones.
func (b *Builder) AddClue(doc *models.QuizDocument, questionID string, patch CluePatch) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.CrosswordPayload](q)
		if err != nil {
			return err
		}
		clue := models.CrosswordClue{Number: len(p.Clues) + 1, Direction: models.DirectionAcross}
		if err := applyClue(&clue, patch); err != nil {
			return err
		}
		p.Clues = append(p.Clues, clue)
		return nil
	})
}

// RemoveClue removes a clue and renumbers the remaining clues from 1.
func (b *Builder) RemoveClue(doc *models.QuizDocument, questionID string, index int) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.CrosswordPayload](q)
		if err != nil {
			return err
		}
		if p.Clues, err = removeAt(p.Clues, index); err != nil {
			return err
		}
		for i := range p.Clues {
			p.Clues[i].Number = i + 1
		}
		return nil
	})
}

func (b *Builder) UpdateClue(doc *models.QuizDocument, questionID string, index int, patch CluePatch) (*models.QuizDocument, error) {
	return b.mutate(doc, questionID, func(q *models.Question) error {
		p, err := payloadOf[*models.CrosswordPayload](q)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(p.Clues) {
			return ErrIndexOutOfRange
		}
		return applyClue(&p.Clues[index], patch)
	})
}

func applyClue(clue *models.CrosswordClue, patch CluePatch) error {
	if patch.Direction != nil {
		if err := checkDirection(*patch.Direction); err != nil {
			return err
		}
		clue.Direction = *patch.Direction
	}
	if patch.Clue != nil {
		clue.Clue = *patch.Clue
	}
	if patch.Answer != nil {
		clue.Answer = *patch.Answer
	}
	if patch.Row != nil {
		if *patch.Row < 0 {
			return fmt.Errorf("%w: row must not be negative", ErrInvalidValue)
		}
		clue.Row = *patch.Row
	}
	if patch.Col != nil {
		if *patch.Col < 0 {
			return fmt.Errorf("%w: col must not be negative", ErrInvalidValue)
		}
		clue.Col = *patch.Col
	}
	return nil
}

func removeAt[T any](s []T, index int) ([]T, error) {
	if index < 0 || index >= len(s) {
		return s, ErrIndexOutOfRange
	}
	return slices.Delete(s, index, index+1), nil
}

func setAt[T any](s []T, index int, v T) error {
	if index < 0 || index >= len(s) {
		return ErrIndexOutOfRange
	}
	s[index] = v
	return nil
}
