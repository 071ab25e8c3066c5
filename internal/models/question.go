package models

import (
	"regexp"
	"slices"
)

type QuestionType string

const (
	QuestionMCQ         QuestionType = "mcq"
	QuestionTrueFalse   QuestionType = "true_false"
	QuestionShortAnswer QuestionType = "short_answer"
	QuestionEssay       QuestionType = "essay"
	QuestionMatching    QuestionType = "matching"
	QuestionOrdering    QuestionType = "ordering"
	QuestionSorting     QuestionType = "sorting"
	QuestionUnscramble  QuestionType = "unscramble"
	QuestionFillBlank   QuestionType = "fill_blank"
	QuestionWordSearch  QuestionType = "word_search"
	QuestionCrossword   QuestionType = "crossword"
)

// AllQuestionTypes lists every question type a quiz document may contain.
var AllQuestionTypes = []QuestionType{
	QuestionMCQ,
	QuestionTrueFalse,
	QuestionShortAnswer,
	QuestionEssay,
	QuestionMatching,
	QuestionOrdering,
	QuestionSorting,
	QuestionUnscramble,
	QuestionFillBlank,
	QuestionWordSearch,
	QuestionCrossword,
}

func (t QuestionType) IsValid() bool {
	return slices.Contains(AllQuestionTypes, t)
}

type UnscrambleMode string

const (
	UnscrambleLetters  UnscrambleMode = "letters"
	UnscrambleSentence UnscrambleMode = "sentence"
)

type ClueDirection string

const (
	DirectionAcross ClueDirection = "across"
	DirectionDown   ClueDirection = "down"
)

const (
	DefaultPrompt       = "New Question"
	DefaultPoints       = 10
	DefaultGridSize     = 10
	BlankMarker         = "{{blank}}"
	defaultPassingScore = 70
)

var blankPattern = regexp.MustCompile(regexp.QuoteMeta(BlankMarker))

// CountBlanks returns the number of blank markers in a fill-in-the-blank template.
func CountBlanks(template string) int {
	return len(blankPattern.FindAllStringIndex(template, -1))
}

// Question is a single quiz item. The variant specific fields live in Payload,
// whose concrete type is determined by Type.
type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Prompt   string       `json:"prompt"`
	Points   int          `json:"points"`
	MediaURL string       `json:"mediaUrl,omitempty"`
	Payload  Payload      `json:"-"`
}

// Payload is implemented only by the variant payload types in this package.
type Payload interface {
	clone() Payload
	normalize()
}

type ChoiceOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// ChoicePayload backs both mcq and true_false questions.
type ChoicePayload struct {
	Options       []ChoiceOption `json:"options"`
	AllowMultiple bool           `json:"allowMultiple"`
}

type ShortAnswerPayload struct {
	CorrectAnswers []string `json:"correctAnswers"`
	CaseSensitive  bool     `json:"caseSensitive"`
}

type EssayPayload struct {
	MinWords *int `json:"minWords,omitempty"`
}

type MatchingPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type MatchingPayload struct {
	Pairs []MatchingPair `json:"pairs"`
}

type OrderingItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// OrderingPayload stores items in their correct order.
type OrderingPayload struct {
	Items []OrderingItem `json:"items"`
}

type SortingCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SortingItem struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	CategoryID string `json:"categoryId"`
}

type SortingPayload struct {
	Categories []SortingCategory `json:"categories"`
	Items      []SortingItem     `json:"items"`
}

type UnscramblePayload struct {
	Mode            UnscrambleMode `json:"mode"`
	CorrectSequence string         `json:"correctSequence"`
}

// FillBlankPayload holds one acceptable-answer set per blank marker in Template.
type FillBlankPayload struct {
	Template      string     `json:"template"`
	Answers       [][]string `json:"answers"`
	CaseSensitive bool       `json:"caseSensitive"`
}

type WordSearchPayload struct {
	Words    []string   `json:"words"`
	GridSize int        `json:"gridSize"`
	Grid     [][]string `json:"grid"`
}

type CrosswordClue struct {
	Number    int           `json:"number"`
	Direction ClueDirection `json:"direction"`
	Clue      string        `json:"clue"`
	Answer    string        `json:"answer"`
	Row       int           `json:"row"`
	Col       int           `json:"col"`
}

type CrosswordGridSize struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

type CrosswordPayload struct {
	Clues    []CrosswordClue   `json:"clues"`
	GridSize CrosswordGridSize `json:"gridSize"`
}

// NewQuestion returns a question of the given type with empty defaults.
// It returns nil for an unknown type.
func NewQuestion(id string, qType QuestionType) *Question {
	payload := NewPayload(qType)
	if payload == nil {
		return nil
	}
	return &Question{
		ID:      id,
		Type:    qType,
		Prompt:  DefaultPrompt,
		Points:  DefaultPoints,
		Payload: payload,
	}
}

// NewPayload returns the default payload for a question type, or nil if the type is unknown.
func NewPayload(qType QuestionType) Payload {
	var p Payload
	switch qType {
	case QuestionMCQ, QuestionTrueFalse:
		p = &ChoicePayload{}
	case QuestionShortAnswer:
		p = &ShortAnswerPayload{}
	case QuestionEssay:
		p = &EssayPayload{}
	case QuestionMatching:
		p = &MatchingPayload{}
	case QuestionOrdering:
		p = &OrderingPayload{}
	case QuestionSorting:
		p = &SortingPayload{}
	case QuestionUnscramble:
		p = &UnscramblePayload{Mode: UnscrambleLetters}
	case QuestionFillBlank:
		p = &FillBlankPayload{}
	case QuestionWordSearch:
		p = &WordSearchPayload{GridSize: DefaultGridSize}
	case QuestionCrossword:
		p = &CrosswordPayload{GridSize: CrosswordGridSize{Rows: DefaultGridSize, Cols: DefaultGridSize}}
	default:
		return nil
	}
	p.normalize()
	return p
}

// Clone returns a deep copy of the question.
func (q *Question) Clone() *Question {
	if q == nil {
		return nil
	}
	c := *q
	if q.Payload != nil {
		c.Payload = q.Payload.clone()
	}
	return &c
}

func (p *ChoicePayload) clone() Payload {
	c := *p
	c.Options = slices.Clone(p.Options)
	return &c
}

func (p *ChoicePayload) normalize() {
	if p.Options == nil {
		p.Options = []ChoiceOption{}
	}
}

func (p *ShortAnswerPayload) clone() Payload {
	c := *p
	c.CorrectAnswers = slices.Clone(p.CorrectAnswers)
	return &c
}

func (p *ShortAnswerPayload) normalize() {
	if p.CorrectAnswers == nil {
		p.CorrectAnswers = []string{}
	}
}

func (p *EssayPayload) clone() Payload {
	c := *p
	if p.MinWords != nil {
		n := *p.MinWords
		c.MinWords = &n
	}
	return &c
}

func (p *EssayPayload) normalize() {}

func (p *MatchingPayload) clone() Payload {
	c := *p
	c.Pairs = slices.Clone(p.Pairs)
	return &c
}

func (p *MatchingPayload) normalize() {
	if p.Pairs == nil {
		p.Pairs = []MatchingPair{}
	}
}

func (p *OrderingPayload) clone() Payload {
	c := *p
	c.Items = slices.Clone(p.Items)
	return &c
}

func (p *OrderingPayload) normalize() {
	if p.Items == nil {
		p.Items = []OrderingItem{}
	}
}

func (p *SortingPayload) clone() Payload {
	c := *p
	c.Categories = slices.Clone(p.Categories)
	c.Items = slices.Clone(p.Items)
	return &c
}

func (p *SortingPayload) normalize() {
	if p.Categories == nil {
		p.Categories = []SortingCategory{}
	}
	if p.Items == nil {
		p.Items = []SortingItem{}
	}
}

func (p *UnscramblePayload) clone() Payload {
	c := *p
	return &c
}

func (p *UnscramblePayload) normalize() {
	if p.Mode == "" {
		p.Mode = UnscrambleLetters
	}
}

func (p *FillBlankPayload) clone() Payload {
	c := *p
	c.Answers = cloneMatrix(p.Answers)
	return &c
}

func (p *FillBlankPayload) normalize() {
	if p.Answers == nil {
		p.Answers = [][]string{}
	}
	for i := range p.Answers {
		if p.Answers[i] == nil {
			p.Answers[i] = []string{}
		}
	}
}

func (p *WordSearchPayload) clone() Payload {
	c := *p
	c.Words = slices.Clone(p.Words)
	c.Grid = cloneMatrix(p.Grid)
	return &c
}

func (p *WordSearchPayload) normalize() {
	if p.Words == nil {
		p.Words = []string{}
	}
	if p.Grid == nil {
		p.Grid = [][]string{}
	}
	for i := range p.Grid {
		if p.Grid[i] == nil {
			p.Grid[i] = []string{}
		}
	}
}

func (p *CrosswordPayload) clone() Payload {
	c := *p
	c.Clues = slices.Clone(p.Clues)
	return &c
}

func (p *CrosswordPayload) normalize() {
	if p.Clues == nil {
		p.Clues = []CrosswordClue{}
	}
}

func cloneMatrix(m [][]string) [][]string {
	if m == nil {
		return nil
	}
	out := make([][]string, len(m))
	for i, row := range m {
		out[i] = slices.Clone(row)
	}
	return out
}
