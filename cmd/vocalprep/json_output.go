package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vocalprep/internal/journal"
)

// runJSON is the journal view printed by `runs list --json`.
type runJSON struct {
	ID          string     `json:"id"`
	BatchID     string     `json:"batch_id,omitempty"`
	Source      string     `json:"source"`
	Input       string     `json:"input"`
	RunKey      string     `json:"run_key,omitempty"`
	OutputRoot  string     `json:"output_root"`
	OutputDir   string     `json:"output_dir"`
	Models      []string   `json:"models,omitempty"`
	State       string     `json:"state"`
	Status      string     `json:"status"`
	FailureKind string     `json:"failure_kind,omitempty"`
	Error       string     `json:"error,omitempty"`
	Title       string     `json:"title,omitempty"`
	Artist      string     `json:"artist,omitempty"`
	Segments    int        `json:"segments"`
	Stems       int        `json:"stems"`
	Enhanced    int        `json:"enhanced"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	ElapsedMS   int64      `json:"elapsed_ms"`
}

type phaseJSON struct {
	Phase     string `json:"phase"`
	Outcome   string `json:"outcome"`
	Detail    string `json:"detail,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// runDetailJSON adds the phase history for `runs show --json`.
type runDetailJSON struct {
	runJSON
	Phases []phaseJSON `json:"phases"`
}

func toRunJSON(run *journal.Run) runJSON {
	return runJSON{
		ID:          run.ID,
		BatchID:     run.BatchID,
		Source:      run.SourcePath,
		Input:       run.InputPath,
		RunKey:      run.RunKey,
		OutputRoot:  run.OutputRoot,
		OutputDir:   run.OutputDir(),
		Models:      run.Models,
		State:       run.State,
		Status:      string(run.Status),
		FailureKind: run.FailureKind,
		Error:       run.ErrorMessage,
		Title:       run.Title,
		Artist:      run.Artist,
		Segments:    run.Segments,
		Stems:       run.Stems,
		Enhanced:    run.Enhanced,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		ElapsedMS:   run.Elapsed().Milliseconds(),
	}
}

func toRunDetailJSON(run *journal.Run, events []journal.PhaseEvent) runDetailJSON {
	detail := runDetailJSON{
		runJSON: toRunJSON(run),
		Phases:  make([]phaseJSON, 0, len(events)),
	}
	for _, event := range events {
		detail.Phases = append(detail.Phases, phaseJSON{
			Phase:     event.Phase,
			Outcome:   event.Outcome,
			Detail:    event.Detail,
			ElapsedMS: event.Elapsed.Milliseconds(),
		})
	}
	return detail
}

// writeJSON prints v as a single indented document followed by a newline.
func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	data = append(data, '\n')
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
