package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/SAP-F-2025/quiz-service/internal/errors"
)

type QuizSettings struct {
	PassingScorePercentage float64 `json:"passingScorePercentage"`
	ShuffleQuestions       bool    `json:"shuffleQuestions"`
	ShowResultsImmediately bool    `json:"showResultsImmediately"`
	TimeLimitSeconds       *int    `json:"timeLimitSeconds,omitempty"`
}

func DefaultQuizSettings() QuizSettings {
	return QuizSettings{
		PassingScorePercentage: defaultPassingScore,
		ShuffleQuestions:       false,
		ShowResultsImmediately: true,
	}
}

// QuizDocument is the authored definition of a quiz as stored in a lesson's content field.
type QuizDocument struct {
	Questions []*Question  `json:"questions"`
	Settings  QuizSettings `json:"settings"`
}

func NewQuizDocument() *QuizDocument {
	return &QuizDocument{
		Questions: []*Question{},
		Settings:  DefaultQuizSettings(),
	}
}

// ParseQuizDocument decodes a serialized quiz document. Every failure is a *QuizFormatError.
func ParseQuizDocument(data []byte) (*QuizDocument, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperrors.NewQuizFormatError("document is empty", nil)
	}

	var doc QuizDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		var qfe *apperrors.QuizFormatError
		if errors.As(err, &qfe) {
			return nil, qfe
		}
		return nil, apperrors.NewQuizFormatError("malformed JSON", err)
	}
	return &doc, nil
}

func ParseQuizDocumentString(s string) (*QuizDocument, error) {
	return ParseQuizDocument([]byte(s))
}

// MarshalQuizDocument serializes the document into its stored form.
func MarshalQuizDocument(doc *QuizDocument) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("nil quiz document")
	}
	return json.Marshal(doc)
}

func (d *QuizDocument) String() string {
	data, err := MarshalQuizDocument(d)
	if err != nil {
		return ""
	}
	return string(data)
}

func (d *QuizDocument) UnmarshalJSON(data []byte) error {
	var raw struct {
		Questions json.RawMessage `json:"questions"`
		Settings  json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return apperrors.NewQuizFormatError("document must be a JSON object", err)
	}

	if isNullOrMissing(raw.Questions) {
		return apperrors.NewQuizFormatError("missing questions", nil)
	}
	if bytes.TrimSpace(raw.Questions)[0] != '[' {
		return apperrors.NewQuizFormatError("questions must be an array", nil)
	}

	var questions []*Question
	if err := json.Unmarshal(raw.Questions, &questions); err != nil {
		var qfe *apperrors.QuizFormatError
		if errors.As(err, &qfe) {
			return qfe
		}
		return apperrors.NewQuizFormatError("malformed questions", err)
	}

	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if q == nil {
			return apperrors.NewQuizFormatError(fmt.Sprintf("question at index %d is null", i), nil)
		}
		if _, dup := seen[q.ID]; dup {
			return apperrors.NewQuestionFormatError(q.ID, "duplicate question id")
		}
		seen[q.ID] = struct{}{}
	}

	settings := DefaultQuizSettings()
	if !isNullOrMissing(raw.Settings) {
		if err := json.Unmarshal(raw.Settings, &settings); err != nil {
			return apperrors.NewQuizFormatError("malformed settings", err)
		}
	}

	if questions == nil {
		questions = []*Question{}
	}
	d.Questions = questions
	d.Settings = settings
	return nil
}

func (q Question) MarshalJSON() ([]byte, error) {
	type header Question
	head, err := json.Marshal(header(q))
	if err != nil {
		return nil, err
	}
	if q.Payload == nil {
		return head, nil
	}

	body, err := json.Marshal(q.Payload)
	if err != nil {
		return nil, err
	}
	if len(body) <= 2 {
		return head, nil
	}

	// splice {"id":...} and {"options":...} into a single flat object
	out := make([]byte, 0, len(head)+len(body))
	out = append(out, head[:len(head)-1]...)
	out = append(out, ',')
	out = append(out, body[1:]...)
	return out, nil
}

func (q *Question) UnmarshalJSON(data []byte) error {
	type header Question
	h := header{
		Prompt: DefaultPrompt,
		Points: DefaultPoints,
	}
	if err := json.Unmarshal(data, &h); err != nil {
		return apperrors.NewQuizFormatError("malformed question", err)
	}

	if strings.TrimSpace(h.ID) == "" {
		return apperrors.NewQuizFormatError("question is missing an id", nil)
	}
	if h.Type == "" {
		return apperrors.NewQuestionFormatError(h.ID, "question is missing a type")
	}
	payload := NewPayload(h.Type)
	if payload == nil {
		return apperrors.NewQuestionFormatError(h.ID, fmt.Sprintf("unknown question type %q", h.Type))
	}
	if h.Points < 0 {
		return apperrors.NewQuestionFormatError(h.ID, "points must not be negative")
	}

	if err := json.Unmarshal(data, payload); err != nil {
		return &apperrors.QuizFormatError{
			Reason:     "malformed " + string(h.Type) + " payload",
			QuestionID: h.ID,
			Err:        err,
		}
	}
	payload.normalize()

	*q = Question(h)
	q.Payload = payload
	return nil
}

// Clone returns a deep copy of the document.
func (d *QuizDocument) Clone() *QuizDocument {
	if d == nil {
		return nil
	}
	c := &QuizDocument{
		Questions: make([]*Question, len(d.Questions)),
		Settings:  d.Settings,
	}
	if d.Settings.TimeLimitSeconds != nil {
		limit := *d.Settings.TimeLimitSeconds
		c.Settings.TimeLimitSeconds = &limit
	}
	for i, q := range d.Questions {
		c.Questions[i] = q.Clone()
	}
	return c
}

// IndexOf returns the position of the question with the given id, or -1.
func (d *QuizDocument) IndexOf(id string) int {
	for i, q := range d.Questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

func (d *QuizDocument) Question(id string) *Question {
	if i := d.IndexOf(id); i >= 0 {
		return d.Questions[i]
	}
	return nil
}

func (d *QuizDocument) TotalPoints() int {
	total := 0
	for _, q := range d.Questions {
		total += q.Points
	}
	return total
}

func isNullOrMissing(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
