package builder

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

type OpType string

const (
	OpAddQuestion    OpType = "add_question"
	OpRemoveQuestion OpType = "remove_question"
	OpMoveQuestion   OpType = "move_question"
	OpUpdateQuestion OpType = "update_question"
	OpUpdateSettings OpType = "update_settings"

	OpAddOption    OpType = "add_option"
	OpRemoveOption OpType = "remove_option"
	OpUpdateOption OpType = "update_option"

	OpAddAcceptedAnswer    OpType = "add_accepted_answer"
	OpRemoveAcceptedAnswer OpType = "remove_accepted_answer"
	OpUpdateAcceptedAnswer OpType = "update_accepted_answer"

	OpAddPair    OpType = "add_pair"
	OpRemovePair OpType = "remove_pair"
	OpUpdatePair OpType = "update_pair"

	OpAddOrderingItem    OpType = "add_ordering_item"
	OpRemoveOrderingItem OpType = "remove_ordering_item"
	OpUpdateOrderingItem OpType = "update_ordering_item"
	OpMoveOrderingItem   OpType = "move_ordering_item"

	OpAddCategory       OpType = "add_category"
	OpRemoveCategory    OpType = "remove_category"
	OpUpdateCategory    OpType = "update_category"
	OpAddSortingItem    OpType = "add_sorting_item"
	OpRemoveSortingItem OpType = "remove_sorting_item"
	OpUpdateSortingItem OpType = "update_sorting_item"

	OpSetTemplate       OpType = "set_template"
	OpAddBlankAnswer    OpType = "add_blank_answer"
	OpRemoveBlankAnswer OpType = "remove_blank_answer"
	OpUpdateBlankAnswer OpType = "update_blank_answer"

	OpAddWord    OpType = "add_word"
	OpRemoveWord OpType = "remove_word"
	OpUpdateWord OpType = "update_word"
	OpSetGrid    OpType = "set_grid"

	OpAddClue    OpType = "add_clue"
	OpRemoveClue OpType = "remove_clue"
	OpUpdateClue OpType = "update_clue"
)

var opTypes = []OpType{
	OpAddQuestion, OpRemoveQuestion, OpMoveQuestion, OpUpdateQuestion, OpUpdateSettings,
	OpAddOption, OpRemoveOption, OpUpdateOption,
	OpAddAcceptedAnswer, OpRemoveAcceptedAnswer, OpUpdateAcceptedAnswer,
	OpAddPair, OpRemovePair, OpUpdatePair,
	OpAddOrderingItem, OpRemoveOrderingItem, OpUpdateOrderingItem, OpMoveOrderingItem,
	OpAddCategory, OpRemoveCategory, OpUpdateCategory, OpAddSortingItem, OpRemoveSortingItem, OpUpdateSortingItem,
	OpSetTemplate, OpAddBlankAnswer, OpRemoveBlankAnswer, OpUpdateBlankAnswer,
	OpAddWord, OpRemoveWord, OpUpdateWord, OpSetGrid,
	OpAddClue, OpRemoveClue, OpUpdateClue,
}

func (t OpType) IsValid() bool {
	return slices.Contains(opTypes, t)
}

// Op is a single authoring operation as received over the wire. Which of the
// fields are read depends on Op.
type Op struct {
	Op           OpType              `json:"op" validate:"required,builder_op"`
	QuestionID   string              `json:"questionId,omitempty"`
	QuestionType models.QuestionType `json:"questionType,omitempty" validate:"omitempty,question_type"`
	ItemID       string              `json:"itemId,omitempty"`
	Index        *int                `json:"index,omitempty" validate:"omitempty,min=0"`
	BlankIndex   *int                `json:"blankIndex,omitempty" validate:"omitempty,min=0"`
	To           *int                `json:"to,omitempty"`
	Value        json.RawMessage     `json:"value,omitempty"`
}

// OpResult reports the ids created by an operation.
type OpResult struct {
	QuestionID string `json:"questionId,omitempty"`
	ItemID     string `json:"itemId,omitempty"`
}

type optionValue struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type sortingItemValue struct {
	Text       string `json:"text"`
	CategoryID string `json:"categoryId"`
}

// Apply runs op against doc and returns the new document.
func (b *Builder) Apply(doc *models.QuizDocument, op Op) (*models.QuizDocument, OpResult, error) {
	res := OpResult{QuestionID: op.QuestionID}
	var (
		out *models.QuizDocument
		err error
	)

	switch op.Op {
	case OpAddQuestion:
		out, res.QuestionID, err = b.AddQuestion(doc, op.QuestionType)
	case OpRemoveQuestion:
		out = b.RemoveQuestion(doc, op.QuestionID)
	case OpMoveQuestion:
		var to int
		if to, err = required(op.To, "to"); err == nil {
			out, err = b.MoveQuestion(doc, op.QuestionID, to)
		}
	case OpUpdateQuestion:
		var patch Patch
		if err = decodeValue(op.Value, &patch); err == nil {
			out, err = b.UpdateQuestion(doc, op.QuestionID, patch)
		}
	case OpUpdateSettings:
		var patch SettingsPatch
		if err = decodeValue(op.Value, &patch); err == nil {
			out, err = b.UpdateSettings(doc, patch)
		}

	case OpAddOption:
		var v optionValue
		if err = decodeOptional(op.Value, &v); err == nil {
			out, res.ItemID, err = b.AddOption(doc, op.QuestionID, v.Text, v.IsCorrect)
		}
	case OpRemoveOption:
		out, err = b.RemoveOption(doc, op.QuestionID, op.ItemID)
	case OpUpdateOption:
		var patch OptionPatch
		if err = decodeValue(op.Value, &patch); err == nil {
			out, err = b.UpdateOption(doc, op.QuestionID, op.ItemID, patch)
		}

	case OpAddAcceptedAnswer:
		var v string
		if err = decodeOptional(op.Value, &v); err == nil {
			out, err = b.AddAcceptedAnswer(doc, op.QuestionID, v)
		}
	case OpRemoveAcceptedAnswer:
		var i int
		if i, err = required(op.Index, "index"); err == nil {
			out, err = b.RemoveAcceptedAnswer(doc, op.QuestionID, i)
		}
	case OpUpdateAcceptedAnswer:
		var (
			i int
			v string
		)
		if i, err = required(op.Index, "index"); err == nil {
			if err = decodeValue(op.Value, &v); err == nil {
				out, err = b.UpdateAcceptedAnswer(doc, op.QuestionID, i, v)
			}
		}

	case OpAddPair:
		var v models.MatchingPair
		if err = decodeOptional(op.Value, &v); err == nil {
			out, err = b.AddPair(doc, op.QuestionID, v)
		}
	case OpRemovePair:
		var i int
		if i, err = required(op.Index, "index"); err == nil {
			out, err = b.RemovePair(doc, op.QuestionID, i)
		}
	case OpUpdatePair:
		var (
			i     int
			patch PairPatch
		)
		if i, err = required(op.Index, "index"); err == nil {
			if err = decodeValue(op.Value, &patch); err == nil {
				out, err = b.UpdatePair(doc, op.QuestionID, i, patch)
			}
		}

	case OpAddOrderingItem:
		var v string
		if err = decodeOptional(op.Value, &v); err == nil {
			out, res.ItemID, err = b.AddOrderingItem(doc, op.QuestionID, v)
		}
	case OpRemoveOrderingItem:
		out, err = b.RemoveOrderingItem(doc, op.QuestionID, op.ItemID)
	case OpUpdateOrderingItem:
		var v string
		if err = decodeValue(op.Value, &v); err == nil {
			out, err = b.UpdateOrderingItem(doc, op.QuestionID, op.ItemID, v)
		}
	case OpMoveOrderingItem:
		var to int
		if to, err = required(op.To, "to"); err == nil {
			out, err = b.MoveOrderingItem(doc, op.QuestionID, op.ItemID, to)
		}

	case OpAddCategory:
		var v string
		if err = decodeOptional(op.Value, &v); err == nil {
			out, res.ItemID, err = b.AddCategory(doc, op.QuestionID, v)
		}
	case OpRemoveCategory:
		out, err = b.RemoveCategory(doc, op.QuestionID, op.ItemID)
	case OpUpdateCategory:
		var v string
		if err = decodeValue(op.Value, &v); err == nil {
			out, err = b.UpdateCategory(doc, op.QuestionID, op.ItemID, v)
		}
	case OpAddSortingItem:
		var v sortingItemValue
		if err = decodeOptional(op.Value, &v); err == nil {
			out, res.ItemID, err = b.AddSortingItem(doc, op.QuestionID, v.Text, v.CategoryID)
		}
	case OpRemoveSortingItem:
		out, err = b.RemoveSortingItem(doc, op.QuestionID, op.ItemID)
	case OpUpdateSortingItem:
		var patch SortingItemPatch
		if err = decodeValue(op.Value, &patch); err == nil {
			out, err = b.UpdateSortingItem(doc, op.QuestionID, op.ItemID, patch)
		}

	case OpSetTemplate:
		var v string
		if err = decodeValue(op.Value, &v); err == nil {
			out, err = b.SetTemplate(doc, op.QuestionID, v)
		}
	case OpAddBlankAnswer:
		var (
			blank int
			v     string
		)
		if blank, err = required(op.BlankIndex, "blankIndex"); err == nil {
			if err = decodeValue(op.Value, &v); err == nil {
				out, err = b.AddBlankAnswer(doc, op.QuestionID, blank, v)
			}
		}
	case OpRemoveBlankAnswer:
		var blank, i int
		if blank, err = required(op.BlankIndex, "blankIndex"); err == nil {
			if i, err = required(op.Index, "index"); err == nil {
				out, err = b.RemoveBlankAnswer(doc, op.QuestionID, blank, i)
			}
		}
	case OpUpdateBlankAnswer:
		var (
			blank, i int
			v        string
		)
		if blank, err = required(op.BlankIndex, "blankIndex"); err == nil {
			if i, err = required(op.Index, "index"); err == nil {
				if err = decodeValue(op.Value, &v); err == nil {
					out, err = b.UpdateBlankAnswer(doc, op.QuestionID, blank, i, v)
				}
			}
		}

	case OpAddWord:
		var v string
		if err = decodeValue(op.Value, &v); err == nil {
			out, err = b.AddWord(doc, op.QuestionID, v)
		}
	case OpRemoveWord:
		var i int
		if i, err = required(op.Index, "index"); err == nil {
			out, err = b.RemoveWord(doc, op.QuestionID, i)
		}
	case OpUpdateWord:
		var (
			i int
			v string
		)
		if i, err = required(op.Index, "index"); err == nil {
			if err = decodeValue(op.Value, &v); err == nil {
				out, err = b.UpdateWord(doc, op.QuestionID, i, v)
			}
		}
	case OpSetGrid:
		var grid [][]string
		if err = decodeValue(op.Value, &grid); err == nil {
			out, err = b.SetGrid(doc, op.QuestionID, grid)
		}

	case OpAddClue:
		var patch CluePatch
		if err = decodeOptional(op.Value, &patch); err == nil {
			out, err = b.AddClue(doc, op.QuestionID, patch)
		}
	case OpRemoveClue:
		var i int
		if i, err = required(op.Index, "index"); err == nil {
			out, err = b.RemoveClue(doc, op.QuestionID, i)
		}
	case OpUpdateClue:
		var (
			i     int
			patch CluePatch
		)
		if i, err = required(op.Index, "index"); err == nil {
			if err = decodeValue(op.Value, &patch); err == nil {
				out, err = b.UpdateClue(doc, op.QuestionID, i, patch)
			}
		}

	default:
		err = fmt.Errorf("%w: %q", ErrUnknownOp, op.Op)
	}

	if err != nil {
		return nil, OpResult{}, err
	}
	return out, res, nil
}

func required(v *int, name string) (int, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidValue, name)
	}
	return *v, nil
}

func decodeValue(raw json.RawMessage, dest any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: value is required", ErrInvalidValue)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return nil
}

func decodeOptional(raw json.RawMessage, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	return decodeValue(raw, dest)
}
