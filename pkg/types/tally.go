// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Tally aggregates outcomes for a run. Skipped outcomes count as successful:
// "nothing to do" is not an error at the top level, even though no file is
// written. Skipped is kept as an informational sub-count of Successful.
type Tally struct {
	Successful int `json:"successful"`
	Errors     int `json:"errors"`
	Skipped    int `json:"skipped"`
}

// Add folds one outcome into the tally.
func (t *Tally) Add(o Outcome) {
	switch o.Kind {
	case OutcomeSuccess:
		t.Successful++
	case OutcomeSkipped:
		t.Successful++
		t.Skipped++
	default:
		t.Errors++
	}
}

// Total returns the number of outcomes folded into the tally.
func (t Tally) Total() int {
	return t.Successful + t.Errors
}

// HasErrors reports whether any task failed.
func (t Tally) HasErrors() bool {
	return t.Errors > 0
}
