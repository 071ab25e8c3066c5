package models

// GradeResult is the outcome of grading one submission against a quiz document.
// PerQuestion holds true or false for auto-graded questions and nil for
// questions that need manual review.
type GradeResult struct {
	Earned        int              `json:"earned"`
	Total         int              `json:"total"`
	Percentage    float64          `json:"percentage"`
	Passed        bool             `json:"passed"`
	PerQuestion   map[string]*bool `json:"perQuestion"`
	PendingReview []string         `json:"pendingReview"`
}

// Verdict returns the stored verdict for a question and whether one exists.
func (r *GradeResult) Verdict(questionID string) (*bool, bool) {
	v, ok := r.PerQuestion[questionID]
	return v, ok
}

func (r *GradeResult) Clone() *GradeResult {
	if r == nil {
		return nil
	}
	c := *r
	c.PerQuestion = make(map[string]*bool, len(r.PerQuestion))
	for id, v := range r.PerQuestion {
		if v == nil {
			c.PerQuestion[id] = nil
			continue
		}
		b := *v
		c.PerQuestion[id] = &b
	}
	c.PendingReview = append([]string{}, r.PendingReview...)
	return &c
}
