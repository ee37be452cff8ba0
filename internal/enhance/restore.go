package enhance

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"vocalprep/internal/audio"
	"vocalprep/internal/layout"
	"vocalprep/internal/logging"
	"vocalprep/internal/services"
	"vocalprep/internal/stage"
)

// DefaultCommand is the VoiceFixer executable name.
const DefaultCommand = "voicefixer"

// RestorerConfig captures runtime settings for VoiceFixer.
type RestorerConfig struct {
	Command     string
	Mode        int
	CUDAEnabled bool
	Timeout     time.Duration
}

// Restorer runs VoiceFixer. It is resolved once with Load and then shared by
// every run in a batch.
type Restorer struct {
	cfg    RestorerConfig
	runner services.CommandRunner
	lookup func(string) (string, error)
	logger *slog.Logger

	once    sync.Once
	path    string
	loadErr error
}

// NewRestorer creates a VoiceFixer adapter.
func NewRestorer(cfg RestorerConfig, logger *slog.Logger) *Restorer {
	if strings.TrimSpace(cfg.Command) == "" {
		cfg.Command = DefaultCommand
	}
	return &Restorer{
		cfg:    cfg,
		runner: services.RunCommand,
		lookup: exec.LookPath,
		logger: logging.NewComponentLogger(logger, "restore"),
	}
}

// WithCommandRunner sets a custom command runner and disables the PATH
// lookup (for testing).
func (r *Restorer) WithCommandRunner(runner services.CommandRunner) {
	if runner == nil {
		return
	}
	r.runner = runner
	r.lookup = func(name string) (string, error) { return name, nil }
}

// Command returns the configured executable for dependency checks.
func (r *Restorer) Command() string {
	return r.cfg.Command
}

// Load resolves the restoration tool. The result is cached, so a missing
// tool is reported once per process and every later call returns the same
// error.
func (r *Restorer) Load(ctx context.Context) error {
	r.once.Do(func() {
		if err := ctx.Err(); err != nil {
			r.loadErr = err
			return
		}
		path, err := r.lookup(r.cfg.Command)
		if err != nil {
			r.loadErr = services.Wrap(services.ErrConfiguration, "enhance", "load restorer",
				fmt.Sprintf("%s not found on PATH", r.cfg.Command), err)
			return
		}
		r.path = path
		r.logger.Debug("restoration tool resolved", logging.String("path", path))
	})
	return r.loadErr
}

// Restore writes the restored version of input into outDir as
// {base}_enhanced.wav.
func (r *Restorer) Restore(ctx context.Context, input, outDir string) (audio.Asset, error) {
	if err := r.Load(ctx); err != nil {
		return audio.Asset{}, err
	}
	if err := layout.EnsureDir(outDir); err != nil {
		return audio.Asset{}, err
	}
	target := filepath.Join(outDir, layout.EnhancedName(input))

	runCtx, cancel := services.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	if err := r.runner(runCtx, r.path, r.buildArgs(input, target)...); err != nil {
		return audio.Asset{}, services.Wrap(services.ErrExternalTool, "enhance", "restore", filepath.Base(input), err)
	}
	asset, err := audio.Describe(target)
	if err != nil {
		return audio.Asset{}, services.Wrap(services.ErrExternalTool, "enhance", "restore", "restoration produced no readable output", err)
	}
	return asset, nil
}

// buildArgs constructs the voicefixer command line.
func (r *Restorer) buildArgs(input, output string) []string {
	args := []string{"--infile", input, "--outfile", output, "--mode", strconv.Itoa(r.cfg.Mode)}
	if !r.cfg.CUDAEnabled {
		args = append(args, "--disable-cuda")
	}
	return args
}

// HealthCheck reports whether the restoration tool can be found. It does not
// touch the cached Load result.
func (r *Restorer) HealthCheck(context.Context) stage.Health {
	const name = "Restoration (voicefixer)"
	if _, err := r.lookup(r.cfg.Command); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("%s not found on PATH", r.cfg.Command))
	}
	return stage.Healthy(name)
}
