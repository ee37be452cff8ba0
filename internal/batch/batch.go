package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"vocalprep/internal/layout"
	"vocalprep/internal/logging"
	"vocalprep/internal/media/tags"
	"vocalprep/internal/notifications"
	"vocalprep/internal/pipeline"
	"vocalprep/internal/services"
)

var (
	// ErrNoInputs is returned when the input directory holds no supported files.
	ErrNoInputs = errors.New("no input files found")
	// ErrLocked is returned when another batch holds the output root.
	ErrLocked = errors.New("output directory is in use by another vocalprep process")
)

// Processor runs the phases for one input. pipeline.Orchestrator implements it.
type Processor interface {
	Load(ctx context.Context) error
	Process(ctx context.Context, job pipeline.Job) *pipeline.Run
}

// Normalizer converts a source recording to the pipeline's WAV format.
type Normalizer interface {
	Normalize(ctx context.Context, input, output string) error
}

// Interrupter marks runs left unfinished by an earlier process.
// journal.Store implements it.
type Interrupter interface {
	MarkInterrupted(ctx context.Context, outputRoot string) (int64, error)
}

// Options configures a Driver.
type Options struct {
	OutputRoot      string
	ConvertedSubdir string
}

// Driver runs batches.
type Driver struct {
	processor   Processor
	normalizer  Normalizer
	interrupter Interrupter
	notifier    notifications.Service
	opts        Options
	logger      *slog.Logger
}

// New creates a batch driver. interrupter may be nil when the journal is off.
func New(processor Processor, normalizer Normalizer, interrupter Interrupter, opts Options, logger *slog.Logger) *Driver {
	if opts.ConvertedSubdir == "" {
		opts.ConvertedSubdir = layout.ConvertedDir
	}
	return &Driver{
		processor:   processor,
		normalizer:  normalizer,
		interrupter: interrupter,
		opts:        opts,
		logger:      logging.NewComponentLogger(logger, "batch"),
	}
}

// WithNotifier publishes batch events to notifier. A nil notifier is ignored.
func (d *Driver) WithNotifier(notifier notifications.Service) {
	if notifier != nil {
		d.notifier = notifier
	}
}

// Run processes every supported file in inputDir.
func (d *Driver) Run(ctx context.Context, inputDir string) (Report, error) {
	files, err := Discover(inputDir)
	if err != nil {
		return Report{}, services.Wrap(services.ErrNotFound, "", "discover", inputDir, err)
	}
	if len(files) == 0 {
		return Report{}, fmt.Errorf("%w in %s", ErrNoInputs, inputDir)
	}
	return d.process(ctx, inputDir, files)
}

// RunFile processes a single file. The watcher uses it for each arrival.
func (d *Driver) RunFile(ctx context.Context, path string) (Report, error) {
	if !Supported(path) {
		return Report{}, services.Wrap(services.ErrValidation, "", "discover", filepath.Base(path)+": unsupported extension", nil)
	}
	return d.process(ctx, filepath.Dir(path), []string{path})
}

func (d *Driver) process(ctx context.Context, inputDir string, files []string) (Report, error) {
	start := time.Now()
	unlock, err := d.lock()
	if err != nil {
		return Report{}, err
	}
	defer unlock()

	d.markInterrupted(ctx)

	if err := d.processor.Load(ctx); err != nil {
		return Report{}, fmt.Errorf("load models: %w", err)
	}

	batchID := uuid.NewString()
	logger := d.logger.With(logging.String("batch_id", batchID))
	logging.Phase(ctx, logger, "batch started",
		logging.String("input_dir", inputDir),
		logging.Int("files", len(files)),
	)
	d.publish(ctx, logger, notifications.EventBatchStarted, notifications.Payload{
		"files":    len(files),
		"inputDir": inputDir,
	})

	report := Report{Total: len(files)}
	for i, source := range files {
		if err := ctx.Err(); err != nil {
			logger.Info("batch cancelled", logging.Int("remaining", len(files)-i))
			break
		}
		logger.Info("processing file",
			logging.String("file", filepath.Base(source)),
			logging.Int("position", i+1),
			logging.Int("total", len(files)),
		)

		input, err := d.prepare(ctx, inputDir, source)
		if err != nil {
			report.ConversionFailed++
			d.record(ctx, logger, &report, RunSummary{Source: source, Err: err})
			logging.WarnWithContext(logger, "input conversion failed; skipping file", "conversion_failed",
				logging.String("file", source),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file excluded from this batch"),
				logging.String(logging.FieldErrorHint, "check that ffmpeg can decode the file"),
			)
			continue
		}

		job := pipeline.Job{Input: input, BatchID: batchID}
		if input != source {
			job.Source = source
		}
		d.applyTags(logger, &job, source)

		run := d.processor.Process(ctx, job)
		d.record(ctx, logger, &report, summarize(source, run))
	}
	report.Elapsed = time.Since(start)

	logging.Phase(ctx, logger, "batch finished",
		logging.Int("succeeded", report.Succeeded),
		logging.Int("failed", report.Failed),
		logging.Int("total", report.Total),
		logging.Duration("elapsed", report.Elapsed),
	)
	d.publish(ctx, logger, notifications.EventBatchCompleted, notifications.Payload{
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"elapsed":   report.Elapsed,
	})
	return report, ctx.Err()
}

func (d *Driver) record(ctx context.Context, logger *slog.Logger, report *Report, summary RunSummary) {
	report.add(summary)
	if summary.OK() || errors.Is(summary.Err, context.Canceled) {
		return
	}
	payload := notifications.Payload{
		"file": filepath.Base(summary.Source),
		"kind": services.FailureKind(summary.Err),
	}
	if summary.Err != nil {
		payload["error"] = summary.Err.Error()
	}
	d.publish(ctx, logger, notifications.EventRunFailed, payload)
}

// publish delivers an event without letting delivery affect the batch. It
// still sends after cancellation so the final summary reaches the topic.
func (d *Driver) publish(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "batch continues; only the notification is lost"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

// prepare returns the WAV path to process for source, converting when the
// file is not already WAV.
func (d *Driver) prepare(ctx context.Context, inputDir, source string) (string, error) {
	if layout.IsWAV(source) {
		return source, nil
	}
	if d.normalizer == nil {
		return "", services.Wrap(services.ErrConfiguration, "", "convert", filepath.Base(source)+": no converter configured", nil)
	}
	target := layout.ConvertedPath(inputDir, d.opts.ConvertedSubdir, source)
	if err := layout.EnsureDir(filepath.Dir(target)); err != nil {
		return "", err
	}
	if err := d.normalizer.Normalize(ctx, source, target); err != nil {
		return "", err
	}
	return target, nil
}

func (d *Driver) applyTags(logger *slog.Logger, job *pipeline.Job, source string) {
	info, err := tags.Read(source)
	if err != nil {
		logger.Debug("tag read failed", logging.String("file", source), logging.Error(err))
		return
	}
	job.Title = info.Title
	job.Artist = info.Artist
}

func (d *Driver) lock() (func(), error) {
	if err := os.MkdirAll(d.opts.OutputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	path := layout.LockPath(d.opts.OutputRoot)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			d.logger.Warn("failed to release output lock", logging.Error(err))
		}
	}, nil
}

func (d *Driver) markInterrupted(ctx context.Context) {
	if d.interrupter == nil {
		return
	}
	count, err := d.interrupter.MarkInterrupted(context.WithoutCancel(ctx), d.opts.OutputRoot)
	if err != nil {
		logging.WarnWithContext(d.logger, "failed to mark interrupted runs", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale runs stay listed as running"),
		)
		return
	}
	if count > 0 {
		d.logger.Info("marked interrupted runs", logging.Int64("count", count))
	}
}
