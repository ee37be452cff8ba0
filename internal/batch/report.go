package batch

import (
	"time"

	"vocalprep/internal/pipeline"
)

// RunSummary is the per-file line of a Report.
type RunSummary struct {
	Source string
	Input  string
	RunID  string
	// OutputDir holds the run's phase directories.
	OutputDir string
	State     pipeline.State
	Segments  int
	Stems     int
	Enhanced  int
	Elapsed   time.Duration
	Err       error
}

// OK reports whether the file finished every phase.
func (s RunSummary) OK() bool {
	return s.Err == nil && s.State == pipeline.StateDone
}

// Report aggregates one batch.
type Report struct {
	Total            int
	Succeeded        int
	Failed           int
	ConversionFailed int
	Runs             []RunSummary
	Elapsed          time.Duration
}

// ExitCode maps the report to a process exit status. The batch succeeds when
// at least one run succeeded; strict mode also fails on any failed run.
func (r Report) ExitCode(strict bool) int {
	if r.Succeeded == 0 {
		return 1
	}
	if strict && r.Failed > 0 {
		return 1
	}
	return 0
}

func (r *Report) add(summary RunSummary) {
	r.Runs = append(r.Runs, summary)
	if summary.OK() {
		r.Succeeded++
	} else {
		r.Failed++
	}
}

func summarize(source string, run *pipeline.Run) RunSummary {
	return RunSummary{
		Source:    source,
		Input:     run.Job.Input,
		RunID:     run.ID,
		OutputDir: run.Layout.Root,
		State:     run.State,
		Segments:  len(run.Segments),
		Stems:     len(run.Stems),
		Enhanced:  run.EnhancedCount(),
		Elapsed:   run.Elapsed,
		Err:       run.Err,
	}
}
