package separation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"vocalprep/internal/layout"
	"vocalprep/internal/logging"
	"vocalprep/internal/services"
	"vocalprep/internal/stage"
)

// DefaultCommand is the demucs executable name.
const DefaultCommand = "demucs"

// Config captures runtime settings for demucs invocations.
type Config struct {
	// Command is the demucs executable.
	Command string
	// Device is passed as -d when set ("cpu", "cuda", "mps").
	Device string
	// TwoStems, when set, asks demucs for only that stem plus its complement.
	TwoStems string
	// Timeout bounds each model run. Zero means no limit.
	Timeout time.Duration
	// Workers bounds how many models run at once. Values below 1 mean one.
	Workers int
}

// Outcome reports one model run.
type Outcome struct {
	Model   string
	Dir     string
	Stems   []string
	Elapsed time.Duration
	Err     error
}

// OK reports whether the model run succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Service runs demucs models against an input file.
type Service struct {
	cfg    Config
	runner services.CommandRunner
	logger *slog.Logger
}

// NewService creates a demucs adapter.
func NewService(cfg Config, logger *slog.Logger) *Service {
	if strings.TrimSpace(cfg.Command) == "" {
		cfg.Command = DefaultCommand
	}
	return &Service{
		cfg:    cfg,
		runner: services.RunCommand,
		logger: logging.NewComponentLogger(logger, "separation"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner services.CommandRunner) {
	if runner != nil {
		s.runner = runner
	}
}

// Command returns the configured executable for dependency checks.
func (s *Service) Command() string {
	return s.cfg.Command
}

// Separate runs every model against input in caller order and returns one
// outcome per model. Failures are logged and absorbed.
func (s *Service) Separate(ctx context.Context, input string, models []string, outBase string) []Outcome {
	outcomes := make([]Outcome, len(models))
	workers := max(s.cfg.Workers, 1)

	var g errgroup.Group
	g.SetLimit(workers)
	for i, model := range models {
		g.Go(func() error {
			outcomes[i] = s.runModel(ctx, input, model, outBase)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (s *Service) runModel(ctx context.Context, input, model, outBase string) (outcome Outcome) {
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldModel, model))
	outcome = Outcome{Model: model, Dir: filepath.Join(outBase, model)}
	start := time.Now()
	defer func() { outcome.Elapsed = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		outcome.Err = err
		return outcome
	}
	if err := layout.EnsureDir(outcome.Dir); err != nil {
		outcome.Err = err
		logging.WarnWithContext(logger, "failed to prepare model output directory", "separation_dir_failed",
			logging.String("dir", outcome.Dir),
			logging.Error(err),
		)
		return outcome
	}

	logger.Info("source separation started", logging.String("input", filepath.Base(input)))
	runCtx, cancel := services.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	if err := s.runner(runCtx, s.cfg.Command, s.buildArgs(model, input, outcome.Dir)...); err != nil {
		outcome.Err = services.Wrap(services.ErrExternalTool, "separation", model, "demucs run failed", err)
		logging.WarnWithContext(logger, "source separation failed", "separation_model_failed",
			logging.String("failure_kind", services.FailureKind(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run demucs manually with the same model to see the full error"),
			logging.String(logging.FieldImpact, "this model's stems are missing; other models continue"),
		)
		return outcome
	}

	outcome.Stems = ListStems(outBase, model, input)
	logger.Info("source separation finished",
		logging.Int("stems", len(outcome.Stems)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return outcome
}

// buildArgs constructs the demucs command line for one model.
func (s *Service) buildArgs(model, input, outDir string) []string {
	args := make([]string, 0, 10)
	args = append(args, "-n", model)
	if s.cfg.Device != "" {
		args = append(args, "-d", s.cfg.Device)
	}
	if s.cfg.TwoStems != "" {
		args = append(args, "--two-stems", s.cfg.TwoStems)
	}
	args = append(args, input, "-o", outDir)
	return args
}

// StemDir returns where demucs writes the stems of input for model. demucs
// nests its own model-named directory under the -o target.
func StemDir(outBase, model, input string) string {
	return filepath.Join(outBase, model, model, layout.BaseName(input))
}

// PrimaryOutput returns the path of one stem written by model for input.
func PrimaryOutput(outBase, model, input, stem string) string {
	return filepath.Join(StemDir(outBase, model, input), stem+".wav")
}

// ListStems returns the sorted stem names model wrote for input.
func ListStems(outBase, model, input string) []string {
	entries, err := os.ReadDir(StemDir(outBase, model, input))
	if err != nil {
		return nil
	}
	stems := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !layout.IsWAV(entry.Name()) {
			continue
		}
		stems = append(stems, layout.BaseName(entry.Name()))
	}
	sort.Strings(stems)
	return stems
}

// HealthCheck reports whether the demucs executable can be found.
func (s *Service) HealthCheck(context.Context) stage.Health {
	const name = "Noise reduction (demucs)"
	if _, err := exec.LookPath(s.cfg.Command); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("%s not found on PATH", s.cfg.Command))
	}
	return stage.Healthy(name)
}
