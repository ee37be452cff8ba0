package voice

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"vocalprep/internal/audio"
	"vocalprep/internal/layout"
	"vocalprep/internal/logging"
	"vocalprep/internal/services"
	"vocalprep/internal/stage"
)

// Model separates a waveform into named stems.
type Model interface {
	Separate(ctx context.Context, buf audio.Buffer) (map[string]audio.Tensor, error)
}

// UMX CLI defaults.
const (
	DefaultCommand = "umx"
	DefaultModel   = "umxhq"
)

// UMXConfig captures runtime settings for the Open-Unmix CLI.
type UMXConfig struct {
	Command     string
	Model       string
	Targets     []string
	CUDAEnabled bool
	// TempDir hosts the per-call scratch directories. Empty uses os.TempDir.
	TempDir string
}

// UMX runs the Open-Unmix CLI as a Model.
type UMX struct {
	cfg    UMXConfig
	runner services.CommandRunner
	logger *slog.Logger
}

// NewUMX creates the CLI-backed model.
func NewUMX(cfg UMXConfig, logger *slog.Logger) *UMX {
	if strings.TrimSpace(cfg.Command) == "" {
		cfg.Command = DefaultCommand
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	return &UMX{
		cfg:    cfg,
		runner: services.RunCommand,
		logger: logging.NewComponentLogger(logger, "umx"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (m *UMX) WithCommandRunner(runner services.CommandRunner) {
	if runner != nil {
		m.runner = runner
	}
}

// Command returns the configured executable for dependency checks.
func (m *UMX) Command() string {
	return m.cfg.Command
}

// Separate writes buf to a scratch WAV, runs umx on it and reads back every
// target the CLI produced.
func (m *UMX) Separate(ctx context.Context, buf audio.Buffer) (map[string]audio.Tensor, error) {
	work, err := os.MkdirTemp(m.cfg.TempDir, "vocalprep-umx-")
	if err != nil {
		return nil, fmt.Errorf("umx: create scratch dir: %w", err)
	}
	defer os.RemoveAll(work)

	input := filepath.Join(work, "mix.wav")
	if err := audio.WriteWAV(input, buf); err != nil {
		return nil, fmt.Errorf("umx: stage input: %w", err)
	}
	outDir := filepath.Join(work, "out")
	if err := m.runner(ctx, m.cfg.Command, m.buildArgs(input, outDir)...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "voice", "umx", "separation failed", err)
	}

	stemDir := filepath.Join(outDir, layout.BaseName(input))
	entries, err := os.ReadDir(stemDir)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "voice", "umx", "no output produced", err)
	}
	logger := logging.WithContext(ctx, m.logger)
	out := make(map[string]audio.Tensor, len(entries))
	produced := 0
	for _, entry := range entries {
		if entry.IsDir() || !layout.IsWAV(entry.Name()) {
			continue
		}
		produced++
		stem, err := audio.ReadWAV(filepath.Join(stemDir, entry.Name()))
		if err != nil {
			logging.WarnWithContext(logger, "skipping unreadable umx output", "umx_output_unreadable",
				logging.String("file", entry.Name()),
				logging.String("failure_kind", services.FailureKind(err)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "stem dropped; sibling stems continue"),
			)
			continue
		}
		out[layout.BaseName(entry.Name())] = audio.TensorFromBuffer(stem)
	}
	if produced > 0 && len(out) == 0 {
		return nil, services.Wrap(services.ErrDecode, "voice", "umx",
			fmt.Sprintf("none of %d output files could be decoded", produced), nil)
	}
	return out, nil
}

// buildArgs constructs the umx command line.
func (m *UMX) buildArgs(input, outDir string) []string {
	args := []string{"--outdir", outDir, "--model", m.cfg.Model}
	if len(m.cfg.Targets) > 0 {
		args = append(args, "--targets")
		args = append(args, m.cfg.Targets...)
	}
	if !m.cfg.CUDAEnabled {
		args = append(args, "--no-cuda")
	}
	return append(args, input)
}

// HealthCheck reports whether the umx executable can be found.
func (m *UMX) HealthCheck(context.Context) stage.Health {
	const name = "Voice separation (umx)"
	if _, err := exec.LookPath(m.cfg.Command); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("%s not found on PATH", m.cfg.Command))
	}
	return stage.Healthy(name)
}
