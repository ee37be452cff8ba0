package enhance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"vocalprep/internal/audio"
	"vocalprep/internal/layout"
	"vocalprep/internal/logging"
	"vocalprep/internal/services"
)

// DefaultFilterGraph lifts low presence and adds treble sparkle to vocals.
const DefaultFilterGraph = "bass=g=3:f=110:w=0.3,treble=g=5"

// Filter applies an ffmpeg filter graph to a file.
type Filter interface {
	ApplyFilter(ctx context.Context, input, output, graph string) error
}

// Options selects which enhancement steps Process runs.
type Options struct {
	Restore     bool
	Exciter     bool
	FilterGraph string
}

// Result reports the enhancement of one file.
type Result struct {
	Input    string
	Enhanced string
	Final    string
	Err      error
}

// OK reports whether every requested step succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Enhancer composes restoration and the exciter filter.
type Enhancer struct {
	restorer *Restorer
	filter   Filter
	opts     Options
	logger   *slog.Logger
}

// New creates an enhancer. restorer may be nil when opts.Restore is false and
// filter may be nil when opts.Exciter is false.
func New(restorer *Restorer, filter Filter, opts Options, logger *slog.Logger) *Enhancer {
	if strings.TrimSpace(opts.FilterGraph) == "" {
		opts.FilterGraph = DefaultFilterGraph
	}
	return &Enhancer{
		restorer: restorer,
		filter:   filter,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "enhance"),
	}
}

// Load verifies the restoration tool when restoration is enabled. A failure
// here is fatal for the whole batch.
func (e *Enhancer) Load(ctx context.Context) error {
	if !e.opts.Restore {
		return nil
	}
	if e.restorer == nil {
		return services.Wrap(services.ErrConfiguration, "enhance", "load", "restoration enabled without a restorer", nil)
	}
	return e.restorer.Load(ctx)
}

// Restore runs restoration on one file.
func (e *Enhancer) Restore(ctx context.Context, input, outDir string) (audio.Asset, error) {
	if e.restorer == nil {
		return audio.Asset{}, services.Wrap(services.ErrConfiguration, "enhance", "restore", "no restorer configured", nil)
	}
	return e.restorer.Restore(ctx, input, outDir)
}

// ApplyFilter runs the exciter graph over input and writes {base}_final.wav
// into outDir.
func (e *Enhancer) ApplyFilter(ctx context.Context, input, outDir, graph string) (audio.Asset, error) {
	if e.filter == nil {
		return audio.Asset{}, services.Wrap(services.ErrConfiguration, "enhance", "filter", "no filter configured", nil)
	}
	if strings.TrimSpace(graph) == "" {
		graph = e.opts.FilterGraph
	}
	if err := layout.EnsureDir(outDir); err != nil {
		return audio.Asset{}, err
	}
	target := filepath.Join(outDir, layout.FinalName(input))
	if err := e.filter.ApplyFilter(ctx, input, target, graph); err != nil {
		return audio.Asset{}, services.Wrap(services.ErrExternalTool, "enhance", "filter", filepath.Base(input), err)
	}
	asset, err := audio.Describe(target)
	if err != nil {
		return audio.Asset{Path: target}, nil
	}
	return asset, nil
}

// Process enhances each input in order. The exciter runs on the restored
// file, or on the input itself when restoration is disabled; it is skipped for
// a file whose restoration failed.
func (e *Enhancer) Process(ctx context.Context, inputs []string, outDir string) []Result {
	logger := logging.WithContext(ctx, e.logger)
	results := make([]Result, 0, len(inputs))
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Input: input, Err: err})
			continue
		}
		results = append(results, e.processOne(ctx, logger, input, outDir))
	}
	return results
}

func (e *Enhancer) processOne(ctx context.Context, logger *slog.Logger, input, outDir string) Result {
	result := Result{Input: input}
	start := time.Now()
	source := input

	if e.opts.Restore {
		asset, err := e.Restore(ctx, input, outDir)
		if err != nil {
			result.Err = err
			logging.WarnWithContext(logger, "restoration failed", "enhance_restore_failed",
				logging.String("file", filepath.Base(input)),
				logging.String("failure_kind", services.FailureKind(err)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run voicefixer manually on the file to see the full error"),
				logging.String(logging.FieldImpact, "file left unenhanced; other files continue"),
			)
			return result
		}
		result.Enhanced = asset.Path
		source = asset.Path
	}

	if e.opts.Exciter {
		asset, err := e.ApplyFilter(ctx, source, outDir, e.opts.FilterGraph)
		if err != nil {
			result.Err = err
			logging.WarnWithContext(logger, "exciter filter failed", "enhance_filter_failed",
				logging.String("file", filepath.Base(source)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the filter graph with ffmpeg -af directly"),
				logging.String(logging.FieldImpact, "final variant missing for this file"),
			)
			return result
		}
		result.Final = asset.Path
	}

	logger.Debug("file enhanced",
		logging.String("file", filepath.Base(input)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return result
}

// Discover lists the .wav files directly inside dir, matching the suffix in
// any case, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || !layout.IsWAV(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
