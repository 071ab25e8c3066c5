package player

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// Presentation is the student-facing arrangement of one question, fixed the
// first time the question is shown.
type Presentation struct {
	Rights  []string `json:"rights,omitempty"`
	ItemIDs []string `json:"itemIds,omitempty"`
	Tokens  []string `json:"tokens,omitempty"`
}

func (p *Presentation) clone() *Presentation {
	if p == nil {
		return nil
	}
	return &Presentation{
		Rights:  slices.Clone(p.Rights),
		ItemIDs: slices.Clone(p.ItemIDs),
		Tokens:  slices.Clone(p.Tokens),
	}
}

// arrange shuffles the positionally randomized parts of a question. It
// returns nil for question types that are shown as authored.
func arrange(q *models.Question, r *rand.Rand) *Presentation {
	switch p := q.Payload.(type) {
	case *models.MatchingPayload:
		rights := make([]string, len(p.Pairs))
		for i, pair := range p.Pairs {
			rights[i] = pair.Right
		}
		shuffle(r, rights)
		return &Presentation{Rights: rights}
	case *models.OrderingPayload:
		ids := make([]string, len(p.Items))
		for i, item := range p.Items {
			ids[i] = item.ID
		}
		shuffle(r, ids)
		return &Presentation{ItemIDs: ids}
	case *models.SortingPayload:
		ids := make([]string, len(p.Items))
		for i, item := range p.Items {
			ids[i] = item.ID
		}
		shuffle(r, ids)
		return &Presentation{ItemIDs: ids}
	case *models.UnscramblePayload:
		var tokens []string
		if p.Mode == models.UnscrambleSentence {
			tokens = strings.Fields(p.CorrectSequence)
		} else {
			tokens = strings.Split(p.CorrectSequence, "")
		}
		shuffle(r, tokens)
		return &Presentation{Tokens: tokens}
	}
	return nil
}

// newRand derives an independent generator for one purpose within an attempt.
func newRand(seed int64, purpose string) *rand.Rand {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(seed))
	h := sha256.Sum256(append(buf[:], purpose...))
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(h[:8]), binary.LittleEndian.Uint64(h[8:16])))
}

func shuffle[T any](r *rand.Rand, s []T) {
	r.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}

type OptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type ClueView struct {
	Number    int                  `json:"number"`
	Direction models.ClueDirection `json:"direction"`
	Clue      string               `json:"clue"`
	Row       int                  `json:"row"`
	Col       int                  `json:"col"`
	Length    int                  `json:"length"`
}

// Slide is a question as shown to a student: the answer key is left out and
// shuffled parts appear in their presented order.
type Slide struct {
	Index      int                 `json:"index"`
	Total      int                 `json:"total"`
	QuestionID string              `json:"questionId"`
	Type       models.QuestionType `json:"type"`
	Prompt     string              `json:"prompt"`
	Points     int                 `json:"points"`
	MediaURL   string              `json:"mediaUrl,omitempty"`

	Options       []OptionView             `json:"options,omitempty"`
	AllowMultiple bool                     `json:"allowMultiple,omitempty"`
	MinWords      *int                     `json:"minWords,omitempty"`
	Lefts         []string                 `json:"lefts,omitempty"`
	Rights        []string                 `json:"rights,omitempty"`
	Items         []OptionView             `json:"items,omitempty"`
	Categories    []models.SortingCategory `json:"categories,omitempty"`
	Mode          models.UnscrambleMode    `json:"mode,omitempty"`
	Tokens        []string                 `json:"tokens,omitempty"`
	Segments      []string                 `json:"segments,omitempty"`
	Words         []string                 `json:"words,omitempty"`
	Grid          [][]string               `json:"grid,omitempty"`
	Clues         []ClueView               `json:"clues,omitempty"`
	GridRows      int                      `json:"gridRows,omitempty"`
	GridCols      int                      `json:"gridCols,omitempty"`

	Answer json.RawMessage `json:"answer,omitempty"`
}

func newSlide(index, total int, q *models.Question, pres *Presentation, answer json.RawMessage) *Slide {
	s := &Slide{
		Index:      index,
		Total:      total,
		QuestionID: q.ID,
		Type:       q.Type,
		Prompt:     q.Prompt,
		Points:     q.Points,
		MediaURL:   q.MediaURL,
		Answer:     answer,
	}
	if pres == nil {
		pres = &Presentation{}
	}

	switch p := q.Payload.(type) {
	case *models.ChoicePayload:
		for _, o := range p.Options {
			s.Options = append(s.Options, OptionView{ID: o.ID, Text: o.Text})
		}
		s.AllowMultiple = p.AllowMultiple
	case *models.EssayPayload:
		s.MinWords = p.MinWords
	case *models.MatchingPayload:
		for _, pair := range p.Pairs {
			s.Lefts = append(s.Lefts, pair.Left)
		}
		s.Rights = pres.Rights
	case *models.OrderingPayload:
		s.Items = itemViews(pres.ItemIDs, func(id string) (string, bool) {
			i := slices.IndexFunc(p.Items, func(it models.OrderingItem) bool { return it.ID == id })
			if i < 0 {
				return "", false
			}
			return p.Items[i].Text, true
		})
	case *models.SortingPayload:
		s.Categories = p.Categories
		s.Items = itemViews(pres.ItemIDs, func(id string) (string, bool) {
			i := slices.IndexFunc(p.Items, func(it models.SortingItem) bool { return it.ID == id })
			if i < 0 {
				return "", false
			}
			return p.Items[i].Text, true
		})
	case *models.UnscramblePayload:
		s.Mode = p.Mode
		s.Tokens = pres.Tokens
	case *models.FillBlankPayload:
		s.Segments = strings.Split(p.Template, models.BlankMarker)
	case *models.WordSearchPayload:
		s.Words = p.Words
		s.Grid = p.Grid
	case *models.CrosswordPayload:
		for _, c := range p.Clues {
			s.Clues = append(s.Clues, ClueView{
				Number:    c.Number,
				Direction: c.Direction,
				Clue:      c.Clue,
				Row:       c.Row,
				Col:       c.Col,
				Length:    len([]rune(c.Answer)),
			})
		}
		s.GridRows = p.GridSize.Rows
		s.GridCols = p.GridSize.Cols
	}
	return s
}

func itemViews(ids []string, text func(id string) (string, bool)) []OptionView {
	views := make([]OptionView, 0, len(ids))
	for _, id := range ids {
		if t, ok := text(id); ok {
			views = append(views, OptionView{ID: id, Text: t})
		}
	}
	return views
}
