package journal

import (
	"path/filepath"
	"time"
)

// Status is the terminal or in-flight outcome of a run.
type Status string

const (
	StatusRunning     Status = "running"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
	StatusAborted     Status = "aborted"
	StatusInterrupted Status = "interrupted"
)

// InterruptedReason is stored on runs found still running at startup.
const InterruptedReason = "process exited before the run finished"

// Run is one persisted ProcessingRun.
type Run struct {
	ID           string
	BatchID      string
	InputPath    string
	SourcePath   string
	RunKey       string
	OutputRoot   string
	Models       []string
	State        string
	Status       Status
	FailureKind  string
	ErrorMessage string
	Title        string
	Artist       string
	Segments     int
	Stems        int
	Enhanced     int
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Elapsed returns the run duration, measured to now for unfinished runs.
func (r Run) Elapsed() time.Duration {
	if r.StartedAt.IsZero() {
		return 0
	}
	if r.FinishedAt != nil {
		return r.FinishedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}

// OutputDir is the directory holding the run's phase outputs.
func (r Run) OutputDir() string {
	return filepath.Join(r.OutputRoot, r.RunKey)
}

// Finished reports whether the run reached a terminal status.
func (r Run) Finished() bool {
	return r.Status != StatusRunning
}

// PhaseEvent records one phase transition of a run.
type PhaseEvent struct {
	RunID      string
	Phase      string
	Outcome    string
	Detail     string
	Elapsed    time.Duration
	RecordedAt time.Time
}
