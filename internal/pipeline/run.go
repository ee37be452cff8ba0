package pipeline

import (
	"time"

	"vocalprep/internal/enhance"
	"vocalprep/internal/layout"
	"vocalprep/internal/segment"
	"vocalprep/internal/separation"
	"vocalprep/internal/voice"
)

// State is a position in the per-run state machine.
type State string

const (
	StateStart     State = "START"
	StateReduced   State = "REDUCED"
	StateSegmented State = "SEGMENTED"
	StateSeparated State = "SEPARATED"
	StateEnhanced  State = "ENHANCED"
	StateDone      State = "DONE"
	StateAborted   State = "ABORTED"
)

// Job names one input for the orchestrator.
type Job struct {
	// Input is the WAV file the phases read.
	Input string
	// Source is the discovered file Input was converted from, if any.
	Source string
	Title  string
	Artist string
	// BatchID groups the runs started by one batch invocation.
	BatchID string
}

// Run is the record of one ProcessingRun.
type Run struct {
	ID        string
	Job       Job
	Layout    layout.Layout
	State     State
	Reduction []separation.Outcome
	Segments  []segment.Segment
	Stems     []voice.Stem
	Enhanced  []enhance.Result
	Err       error
	StartedAt time.Time
	Elapsed   time.Duration
}

// Succeeded reports whether the run reached DONE.
func (r *Run) Succeeded() bool {
	return r != nil && r.State == StateDone
}

// EnhancedCount returns how many files finished enhancement.
func (r *Run) EnhancedCount() int {
	count := 0
	for _, result := range r.Enhanced {
		if result.OK() {
			count++
		}
	}
	return count
}

// FailedModels lists the separation models that did not complete.
func (r *Run) FailedModels() []string {
	var failed []string
	for _, outcome := range r.Reduction {
		if !outcome.OK() {
			failed = append(failed, outcome.Model)
		}
	}
	return failed
}
