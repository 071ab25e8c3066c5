package models

import (
	"bytes"
	"encoding/json"
)

// Submission maps a question id to the raw answer captured for it. The shape
// of each answer depends on the question type:
//
//	mcq/true_false   "optionId" or ["optionId", ...] when allowMultiple
//	short_answer     "text"
//	essay            "text"
//	matching         {"left": "right", ...}
//	ordering         ["itemId", ...]
//	sorting          {"itemId": "categoryId", ...}
//	unscramble       "text"
//	fill_blank       ["blank 1", "blank 2", ...]
//	word_search      ["WORD", ...]
//	crossword        {"row-col": "C", ...}
type Submission map[string]json.RawMessage

func NewSubmission() Submission {
	return Submission{}
}

// Set stores value as the answer for a question.
func (s Submission) Set(questionID string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s[questionID] = raw
	return nil
}

// Has reports whether an answer was given. Missing keys, null and the empty
// string all count as unanswered.
func (s Submission) Has(questionID string) bool {
	raw, ok := s[questionID]
	if !ok {
		return false
	}
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 &&
		!bytes.Equal(trimmed, []byte("null")) &&
		!bytes.Equal(trimmed, []byte(`""`))
}

// Decode unmarshals the answer for questionID into dest. It returns false when
// the answer is absent or does not have the expected shape.
func (s Submission) Decode(questionID string, dest any) bool {
	if !s.Has(questionID) {
		return false
	}
	return json.Unmarshal(s[questionID], dest) == nil
}

func (s Submission) Clone() Submission {
	out := make(Submission, len(s))
	for k, v := range s {
		out[k] = bytes.Clone(v)
	}
	return out
}
