// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the tomarkdown pipeline:
// the unit of work (Task), its result (Outcome), the run aggregate (Tally),
// and the run configuration.
package types

import (
	"fmt"
)

// Task is one input/output file pair to be converted. The scanner creates
// one Task per discovered file; a worker consumes it exactly once.
type Task struct {
	// InputPath is the source document (e.g. "reports/q1.docx").
	InputPath string `json:"input_path"`

	// OutputPath is the Markdown destination (e.g. "out/reports/q1.md").
	OutputPath string `json:"output_path"`
}

func (t Task) String() string {
	return fmt.Sprintf("%s -> %s", t.InputPath, t.OutputPath)
}

// OutcomeKind tags the result of processing one Task.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeFailed  OutcomeKind = "failed"
)

// Outcome is the tagged result of processing one Task. Err is non-nil only
// when Kind is OutcomeFailed.
type Outcome struct {
	Task Task
	Kind OutcomeKind
	Err  error
}

// Succeeded returns a success outcome for t.
func Succeeded(t Task) Outcome {
	return Outcome{Task: t, Kind: OutcomeSuccess}
}

// Skipped returns a skip outcome for t (unsupported file type).
func Skipped(t Task) Outcome {
	return Outcome{Task: t, Kind: OutcomeSkipped}
}

// Failed returns a failure outcome for t carrying err.
func Failed(t Task, err error) Outcome {
	return Outcome{Task: t, Kind: OutcomeFailed, Err: err}
}

// Message returns the failure message, or "" for non-failed outcomes.
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
