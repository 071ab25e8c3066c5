// Package player runs one attempt at a quiz: it presents questions in a fixed
// order, captures answers and grades the submission exactly once.
package player

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/grading"
	"github.com/SAP-F-2025/quiz-service/internal/models"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
)

var (
	ErrAttemptSubmitted = errors.New("attempt already submitted")
	ErrUnknownQuestion  = errors.New("question is not part of this quiz")
	ErrStateMismatch    = errors.New("attempt state does not match quiz document")
)

// State is everything needed to resume an attempt. It is stored alongside
// the submission so shuffles survive reloads.
type State struct {
	AttemptID     string                   `json:"attemptId"`
	Seed          int64                    `json:"seed"`
	Status        Status                   `json:"status"`
	Index         int                      `json:"index"`
	Order         []string                 `json:"order"`
	Submission    models.Submission        `json:"submission"`
	Presentations map[string]*Presentation `json:"presentations"`
	Result        *models.GradeResult      `json:"result,omitempty"`
	StartedAt     time.Time                `json:"startedAt"`
	SubmittedAt   *time.Time               `json:"submittedAt,omitempty"`
}

// Player is not safe for concurrent use; an attempt belongs to one student.
type Player struct {
	doc   *models.QuizDocument
	state State
}

// New starts an attempt at Presenting(0).
func New(doc *models.QuizDocument, attemptID string, seed int64, now time.Time) *Player {
	order := make([]string, len(doc.Questions))
	for i, q := range doc.Questions {
		order[i] = q.ID
	}
	if doc.Settings.ShuffleQuestions {
		shuffle(newRand(seed, "question-order"), order)
	}

	p := &Player{
		doc: doc.Clone(),
		state: State{
			AttemptID:     attemptID,
			Seed:          seed,
			Status:        StatusInProgress,
			Order:         order,
			Submission:    models.NewSubmission(),
			Presentations: map[string]*Presentation{},
			StartedAt:     now,
		},
	}
	p.present()
	return p
}

// Restore resumes an attempt from a stored state.
func Restore(doc *models.QuizDocument, state State) (*Player, error) {
	for _, id := range state.Order {
		if doc.Question(id) == nil {
			return nil, fmt.Errorf("%w: question %s", ErrStateMismatch, id)
		}
	}
	if state.Status == StatusInProgress && len(state.Order) > 0 &&
		(state.Index < 0 || state.Index >= len(state.Order)) {
		return nil, fmt.Errorf("%w: index %d", ErrStateMismatch, state.Index)
	}

	p := &Player{doc: doc.Clone(), state: cloneState(state)}
	if p.state.Submission == nil {
		p.state.Submission = models.NewSubmission()
	}
	if p.state.Presentations == nil {
		p.state.Presentations = map[string]*Presentation{}
	}
	if p.state.Status == "" {
		p.state.Status = StatusInProgress
	}
	if p.state.Status == StatusInProgress {
		p.present()
	}
	return p, nil
}

func (p *Player) Document() *models.QuizDocument { return p.doc }

func (p *Player) Status() Status { return p.state.Status }

func (p *Player) Submitted() bool { return p.state.Status == StatusSubmitted }

// State returns a copy of the attempt state for persistence.
func (p *Player) State() State { return cloneState(p.state) }

// Result returns the final grade, or nil while the attempt is in progress.
func (p *Player) Result() *models.GradeResult { return p.state.Result.Clone() }

// Current returns the question being presented, or nil when the attempt is
// submitted or the quiz has no questions.
func (p *Player) Current() *Slide {
	if p.Submitted() || len(p.state.Order) == 0 {
		return nil
	}
	q := p.doc.Question(p.state.Order[p.state.Index])
	return newSlide(p.state.Index, len(p.state.Order), q, p.state.Presentations[q.ID], p.state.Submission[q.ID])
}

// SetAnswer records the raw answer for a question. An empty value clears it.
func (p *Player) SetAnswer(questionID string, value json.RawMessage) error {
	if p.Submitted() {
		return ErrAttemptSubmitted
	}
	if p.doc.Question(questionID) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if len(bytes.TrimSpace(value)) == 0 {
		delete(p.state.Submission, questionID)
		return nil
	}
	p.state.Submission[questionID] = bytes.Clone(value)
	return nil
}

// Next advances to the following question. Leaving the last question
// submits the attempt and returns the grade.
func (p *Player) Next(now time.Time) (*models.GradeResult, error) {
	if p.Submitted() {
		return nil, ErrAttemptSubmitted
	}
	if p.state.Index < len(p.state.Order)-1 {
		p.state.Index++
		p.present()
		return nil, nil
	}
	return p.Submit(now)
}

// Submit ends the attempt regardless of position, for example when the time
// limit runs out.
func (p *Player) Submit(now time.Time) (*models.GradeResult, error) {
	if p.Submitted() {
		return nil, ErrAttemptSubmitted
	}
	result := grading.Grade(p.doc, p.state.Submission)
	p.state.Result = result
	p.state.Status = StatusSubmitted
	p.state.SubmittedAt = &now
	return result.Clone(), nil
}

// Deadline returns when the attempt times out, or nil if the quiz has no time limit.
func (p *Player) Deadline() *time.Time {
	limit := p.doc.Settings.TimeLimitSeconds
	if limit == nil {
		return nil
	}
	deadline := p.state.StartedAt.Add(time.Duration(*limit) * time.Second)
	return &deadline
}

func (p *Player) Expired(now time.Time) bool {
	deadline := p.Deadline()
	return deadline != nil && !p.Submitted() && now.After(*deadline)
}

// present materializes the shuffle of the current question the first time it is shown.
func (p *Player) present() {
	if len(p.state.Order) == 0 {
		return
	}
	q := p.doc.Question(p.state.Order[p.state.Index])
	if _, ok := p.state.Presentations[q.ID]; ok {
		return
	}
	pres := arrange(q, newRand(p.state.Seed, q.ID))
	if pres == nil {
		return
	}
	p.state.Presentations[q.ID] = pres

	// an untouched ordering question is answered with the order it was shown in
	if q.Type == models.QuestionOrdering && !p.state.Submission.Has(q.ID) {
		_ = p.state.Submission.Set(q.ID, pres.ItemIDs)
	}
}

func cloneState(s State) State {
	c := s
	c.Order = append([]string(nil), s.Order...)
	if s.Submission != nil {
		c.Submission = s.Submission.Clone()
	}
	if s.Presentations != nil {
		c.Presentations = make(map[string]*Presentation, len(s.Presentations))
		for id, pres := range s.Presentations {
			c.Presentations[id] = pres.clone()
		}
	}
	c.Result = s.Result.Clone()
	if s.SubmittedAt != nil {
		t := *s.SubmittedAt
		c.SubmittedAt = &t
	}
	return c
}
