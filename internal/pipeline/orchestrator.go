package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vocalprep/internal/audio"
	"vocalprep/internal/enhance"
	"vocalprep/internal/journal"
	"vocalprep/internal/layout"
	"vocalprep/internal/logging"
	"vocalprep/internal/segment"
	"vocalprep/internal/separation"
	"vocalprep/internal/services"
	"vocalprep/internal/voice"
)

// ErrNoSegments aborts a run whose segmentation produced nothing.
var ErrNoSegments = errors.New("segmentation produced no segments")

// SourceSeparator runs the noise reduction models.
type SourceSeparator interface {
	Separate(ctx context.Context, input string, models []string, outBase string) []separation.Outcome
}

// Segmenter splits a recording into chunks.
type Segmenter interface {
	Split(ctx context.Context, input string, segmentSeconds int, outDir string) []segment.Segment
}

// VoiceSeparator splits one segment into stems.
type VoiceSeparator interface {
	SeparateVoices(ctx context.Context, segmentPath, outDir string) map[string]audio.Asset
}

// Enhancer restores and filters stems.
type Enhancer interface {
	Load(ctx context.Context) error
	Process(ctx context.Context, inputs []string, outDir string) []enhance.Result
}

// Recorder persists run progress. journal.Store implements it.
type Recorder interface {
	Begin(ctx context.Context, run journal.Run) error
	RecordPhase(ctx context.Context, event journal.PhaseEvent) error
	Finish(ctx context.Context, run journal.Run) error
}

// Options configures every run of an orchestrator.
type Options struct {
	OutputRoot     string
	SegmentSeconds int
	Models         []string
	PrimaryStem    string
	SkipReduction  bool
	RunScoped      bool
	SegmentWorkers int
	// StemFilter limits enhancement to these stems. Empty means all.
	StemFilter []string
}

// Orchestrator sequences the phases for one input at a time.
type Orchestrator struct {
	separator SourceSeparator
	segmenter Segmenter
	voices    VoiceSeparator
	enhancer  Enhancer
	recorder  Recorder
	opts      Options
	logger    *slog.Logger
	newID     func() string
}

// New creates an orchestrator. recorder may be nil.
func New(separator SourceSeparator, segmenter Segmenter, voices VoiceSeparator, enhancer Enhancer, recorder Recorder, opts Options, logger *slog.Logger) *Orchestrator {
	if strings.TrimSpace(opts.PrimaryStem) == "" {
		opts.PrimaryStem = "vocals"
	}
	return &Orchestrator{
		separator: separator,
		segmenter: segmenter,
		voices:    voices,
		enhancer:  enhancer,
		recorder:  recorder,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		newID:     func() string { return uuid.NewString() },
	}
}

// Options returns the orchestrator settings.
func (o *Orchestrator) Options() Options {
	return o.opts
}

// Load acquires the process-lifetime model handles. A failure is fatal for
// the batch.
func (o *Orchestrator) Load(ctx context.Context) error {
	if o.enhancer == nil {
		return nil
	}
	return o.enhancer.Load(ctx)
}

// Process runs every phase for job and returns the finished run record.
func (o *Orchestrator) Process(ctx context.Context, job Job) *Run {
	id := o.newID()
	run := &Run{
		ID:        id,
		Job:       job,
		Layout:    layout.ForRun(o.opts.OutputRoot, job.Input, id, o.opts.RunScoped),
		State:     StateStart,
		StartedAt: time.Now(),
	}
	ctx = services.WithRunID(ctx, run.ID)
	ctx = services.WithInput(ctx, filepath.Base(job.Input))
	logger := logging.WithContext(ctx, o.logger)

	o.begin(ctx, logger, run)
	logging.Phase(ctx, o.logger, "run started",
		logging.String("input", job.Input),
		logging.String("output", run.Layout.Root),
	)

	if err := o.execute(ctx, logger, run); err != nil {
		run.Err = err
		run.State = StateAborted
		o.phase(ctx, logger, run, StateAborted, "failed", err.Error(), 0)
		logging.ErrorWithContext(logger, "run aborted", "run_aborted",
			logging.String("failure_kind", services.FailureKind(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, abortHint(err)),
		)
	} else {
		run.State = StateDone
		o.phase(ctx, logger, run, StateDone, "ok", "", 0)
	}
	run.Elapsed = time.Since(run.StartedAt)
	o.finish(ctx, logger, run)

	if run.Succeeded() {
		logging.Phase(ctx, o.logger, "run finished",
			logging.Int("segments", len(run.Segments)),
			logging.Int("stems", len(run.Stems)),
			logging.Int("enhanced", run.EnhancedCount()),
			logging.Duration("elapsed", run.Elapsed),
		)
	}
	return run
}

func (o *Orchestrator) execute(ctx context.Context, logger *slog.Logger, run *Run) error {
	if err := run.Layout.Ensure(); err != nil {
		return services.Wrap(services.ErrConfiguration, "", "layout", "create phase directories", err)
	}

	// START -> REDUCED
	segmentSource := run.Job.Input
	start := time.Now()
	phaseCtx := services.WithPhase(ctx, string(StateReduced))
	if o.opts.SkipReduction {
		o.phase(ctx, logger, run, StateReduced, "skipped", "noise reduction disabled", 0)
	} else {
		logging.Phase(phaseCtx, o.logger, "noise reduction", logging.String("models", strings.Join(o.opts.Models, ",")))
		run.Reduction = o.separator.Separate(phaseCtx, run.Job.Input, o.opts.Models, run.Layout.Reduced)
		if len(o.opts.Models) > 0 {
			segmentSource = separation.PrimaryOutput(run.Layout.Reduced, o.opts.Models[0], run.Job.Input, o.opts.PrimaryStem)
		}
		detail := ""
		if failed := run.FailedModels(); len(failed) > 0 {
			detail = "failed models: " + strings.Join(failed, ",")
		}
		o.phase(ctx, logger, run, StateReduced, "ok", detail, time.Since(start))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// REDUCED -> SEGMENTED
	start = time.Now()
	phaseCtx = services.WithPhase(ctx, string(StateSegmented))
	logging.Phase(phaseCtx, o.logger, "segmentation",
		logging.String("source", segmentSource),
		logging.Int("segment_seconds", o.opts.SegmentSeconds),
	)
	run.Segments = o.segmenter.Split(phaseCtx, segmentSource, o.opts.SegmentSeconds, run.Layout.Segments)
	if len(run.Segments) == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return services.Wrap(services.ErrDecode, string(StateSegmented), "split", filepath.Base(segmentSource), ErrNoSegments)
	}
	o.phase(ctx, logger, run, StateSegmented, "ok", fmt.Sprintf("%d segments", len(run.Segments)), time.Since(start))
	if err := ctx.Err(); err != nil {
		return err
	}

	// SEGMENTED -> SEPARATED
	start = time.Now()
	phaseCtx = services.WithPhase(ctx, string(StateSeparated))
	logging.Phase(phaseCtx, o.logger, "voice separation", logging.Int("segments", len(run.Segments)))
	run.Stems = o.separateSegments(phaseCtx, run)
	if len(run.Stems) == 0 {
		logging.WarnWithContext(logger, "voice separation produced no stems", "separation_empty",
			logging.String(logging.FieldImpact, "nothing to enhance for this run"),
			logging.String(logging.FieldErrorHint, "check the umx warnings above for each segment"),
		)
	}
	o.phase(ctx, logger, run, StateSeparated, "ok", fmt.Sprintf("%d stems", len(run.Stems)), time.Since(start))
	if err := ctx.Err(); err != nil {
		return err
	}

	// SEPARATED -> ENHANCED
	start = time.Now()
	phaseCtx = services.WithPhase(ctx, string(StateEnhanced))
	inputs := o.enhancementInputs(run.Stems)
	logging.Phase(phaseCtx, o.logger, "enhancement", logging.Int("files", len(inputs)))
	run.Enhanced = o.enhancer.Process(phaseCtx, inputs, run.Layout.Enhanced)
	o.phase(ctx, logger, run, StateEnhanced, "ok", fmt.Sprintf("%d/%d enhanced", run.EnhancedCount(), len(inputs)), time.Since(start))
	return ctx.Err()
}

// separateSegments runs voice separation for every segment and returns the
// stems ordered by segment index, then stem name.
func (o *Orchestrator) separateSegments(ctx context.Context, run *Run) []voice.Stem {
	perSegment := make([][]voice.Stem, len(run.Segments))
	var g errgroup.Group
	g.SetLimit(max(o.opts.SegmentWorkers, 1))
	for i, seg := range run.Segments {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			segCtx := services.WithSegment(ctx, seg.Index)
			perSegment[i] = voice.Sorted(o.voices.SeparateVoices(segCtx, seg.Path, run.Layout.Separated))
			return nil
		})
	}
	_ = g.Wait()

	var stems []voice.Stem
	for _, group := range perSegment {
		stems = append(stems, group...)
	}
	return stems
}

func (o *Orchestrator) enhancementInputs(stems []voice.Stem) []string {
	inputs := make([]string, 0, len(stems))
	for _, stem := range stems {
		if len(o.opts.StemFilter) > 0 && !slices.Contains(o.opts.StemFilter, strings.ToLower(stem.Name)) {
			continue
		}
		inputs = append(inputs, stem.Path)
	}
	return inputs
}

func (o *Orchestrator) begin(ctx context.Context, logger *slog.Logger, run *Run) {
	if o.recorder == nil {
		return
	}
	err := o.recorder.Begin(context.WithoutCancel(ctx), journal.Run{
		ID:         run.ID,
		BatchID:    run.Job.BatchID,
		InputPath:  run.Job.Input,
		SourcePath: run.Job.Source,
		RunKey:     run.Layout.RunKey,
		OutputRoot: o.opts.OutputRoot,
		Models:     o.opts.Models,
		State:      string(StateStart),
		Title:      run.Job.Title,
		Artist:     run.Job.Artist,
		StartedAt:  run.StartedAt,
	})
	if err != nil {
		logging.WarnWithContext(logger, "failed to record run start", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history incomplete; processing continues"),
		)
	}
}

func (o *Orchestrator) phase(ctx context.Context, logger *slog.Logger, run *Run, state State, outcome, detail string, elapsed time.Duration) {
	if state != StateAborted && state != StateDone {
		run.State = state
	}
	if o.recorder == nil {
		return
	}
	err := o.recorder.RecordPhase(context.WithoutCancel(ctx), journal.PhaseEvent{
		RunID:   run.ID,
		Phase:   string(state),
		Outcome: outcome,
		Detail:  detail,
		Elapsed: elapsed,
	})
	if err != nil {
		logger.Debug("failed to record phase", logging.String("state", string(state)), logging.Error(err))
	}
}

func (o *Orchestrator) finish(ctx context.Context, logger *slog.Logger, run *Run) {
	if o.recorder == nil {
		return
	}
	record := journal.Run{
		ID:       run.ID,
		State:    string(run.State),
		Status:   journal.StatusSucceeded,
		Segments: len(run.Segments),
		Stems:    len(run.Stems),
		Enhanced: run.EnhancedCount(),
	}
	if run.Err != nil {
		record.Status = journal.StatusFailed
		if errors.Is(run.Err, context.Canceled) {
			record.Status = journal.StatusAborted
		}
		record.FailureKind = services.FailureKind(run.Err)
		record.ErrorMessage = run.Err.Error()
	}
	if err := o.recorder.Finish(context.WithoutCancel(ctx), record); err != nil {
		logging.WarnWithContext(logger, "failed to record run result", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history incomplete"),
		)
	}
}

func abortHint(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "run was cancelled; rerun the batch to process this file"
	case errors.Is(err, ErrNoSegments):
		return "the input or the primary model output could not be decoded; check the separation warnings above"
	default:
		return "check logs for details"
	}
}
