package journal_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"vocalprep/internal/journal"
	"vocalprep/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	if store.Path() != cfg.JournalPath() {
		t.Fatalf("unexpected journal path %q", store.Path())
	}

	// Reopening must not reapply migrations.
	again, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = again.Close()
}

func TestRunLifecycle(t *testing.T) {
	store := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	ctx := context.Background()

	run := journal.Run{
		ID:         "0b6f4d6e-1111-4a2b-9c3d-000000000001",
		BatchID:    "batch-1",
		InputPath:  "/in/converted/take.wav",
		SourcePath: "/in/take.mp3",
		RunKey:     "take-0b6f4d6e",
		OutputRoot: "/out",
		Models:     []string{"htdemucs", "mdx_extra_q"},
		State:      "START",
		Title:      "Morning Take",
		StartedAt:  time.Now().Add(-time.Minute),
	}
	if err := store.Begin(ctx, run); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for _, phase := range []string{"REDUCED", "SEGMENTED"} {
		if err := store.RecordPhase(ctx, journal.PhaseEvent{RunID: run.ID, Phase: phase, Outcome: "ok", Elapsed: 1500 * time.Millisecond}); err != nil {
			t.Fatalf("RecordPhase %s: %v", phase, err)
		}
	}

	fetched, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.Status != journal.StatusRunning || fetched.State != "SEGMENTED" || fetched.Finished() {
		t.Fatalf("unexpected in-flight run %+v", fetched)
	}
	if len(fetched.Models) != 2 || fetched.Models[1] != "mdx_extra_q" || fetched.Title != "Morning Take" {
		t.Fatalf("unexpected stored fields %+v", fetched)
	}
	if fetched.OutputDir() != filepath.Join("/out", "take-0b6f4d6e") {
		t.Fatalf("unexpected output dir %q", fetched.OutputDir())
	}

	run.State = "DONE"
	run.Status = journal.StatusSucceeded
	run.Segments, run.Stems, run.Enhanced = 3, 12, 12
	if err := store.Finish(ctx, run); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	done, err := store.Find(ctx, "0b6f4d6e")
	if err != nil {
		t.Fatalf("Find by prefix: %v", err)
	}
	if done.Status != journal.StatusSucceeded || done.Stems != 12 || done.FinishedAt == nil {
		t.Fatalf("unexpected finished run %+v", done)
	}
	if done.Elapsed() < time.Minute {
		t.Fatalf("expected elapsed of at least a minute, got %s", done.Elapsed())
	}

	phases, err := store.Phases(ctx, run.ID)
	if err != nil {
		t.Fatalf("Phases: %v", err)
	}
	if len(phases) != 2 || phases[0].Phase != "REDUCED" || phases[1].Elapsed != 1500*time.Millisecond {
		t.Fatalf("unexpected phases %+v", phases)
	}
}

func TestListFindAndInterrupted(t *testing.T) {
	store := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	ids := []string{"aaaa-1", "aaaa-2", "bbbb-1"}
	for i, id := range ids {
		if err := store.Begin(ctx, journal.Run{ID: id, InputPath: id + ".wav", OutputRoot: "/out", State: "START", StartedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("Begin %s: %v", id, err)
		}
	}
	if err := store.Finish(ctx, journal.Run{ID: "aaaa-1", State: "ABORTED", Status: journal.StatusFailed, FailureKind: "decode", ErrorMessage: "no segments"}); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	runs, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "bbbb-1" {
		t.Fatalf("expected newest first, got %d runs starting %q", len(runs), runs[0].ID)
	}
	failed, err := store.List(ctx, 10, journal.StatusFailed)
	if err != nil || len(failed) != 1 || failed[0].FailureKind != "decode" {
		t.Fatalf("unexpected failed list %v %v", failed, err)
	}

	if _, err := store.Find(ctx, "aaaa"); !errors.Is(err, journal.ErrAmbiguous) {
		t.Fatalf("expected ErrAmbiguous, got %v", err)
	}
	if _, err := store.Find(ctx, "zzzz"); !errors.Is(err, journal.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Find(ctx, "%"); !errors.Is(err, journal.ErrNotFound) {
		t.Fatalf("expected wildcard to be escaped, got %v", err)
	}

	n, err := store.MarkInterrupted(ctx, "/out")
	if err != nil {
		t.Fatalf("MarkInterrupted: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 interrupted runs, got %d", n)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[journal.StatusInterrupted] != 2 || stats[journal.StatusFailed] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}

	if err := store.Finish(ctx, journal.Run{ID: "missing", Status: journal.StatusFailed}); !errors.Is(err, journal.ErrNotFound) {
		t.Fatalf("expected ErrNotFound finishing unknown run, got %v", err)
	}
}
