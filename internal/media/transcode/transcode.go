package transcode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"vocalprep/internal/services"
)

// PCMCodec is the sample format every normalized WAV is written in.
const PCMCodec = "pcm_s16le"

// Config captures runtime settings for ffmpeg invocations.
type Config struct {
	// Binary is the resolved ffmpeg executable.
	Binary string
	// Timeout bounds each call. Zero means no limit.
	Timeout time.Duration
	// SampleRate and Channels are the Normalize target.
	SampleRate int
	Channels   int
}

// Transcoder runs ffmpeg.
type Transcoder struct {
	cfg    Config
	runner services.CommandRunner
}

// New creates a transcoder.
func New(cfg Config) *Transcoder {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = "ffmpeg"
	}
	return &Transcoder{cfg: cfg, runner: services.RunCommand}
}

// WithCommandRunner sets a custom command runner (for testing).
func (t *Transcoder) WithCommandRunner(runner services.CommandRunner) {
	if runner != nil {
		t.runner = runner
	}
}

// Binary returns the ffmpeg executable in use.
func (t *Transcoder) Binary() string {
	return t.cfg.Binary
}

// Normalize converts input to the configured sample rate and channel layout.
func (t *Transcoder) Normalize(ctx context.Context, input, output string) error {
	return t.ToPCM(ctx, input, output, t.cfg.SampleRate, t.cfg.Channels)
}

// ToPCM converts input to 16-bit PCM WAV. A zero sampleRate or channels keeps
// the source value.
func (t *Transcoder) ToPCM(ctx context.Context, input, output string, sampleRate, channels int) error {
	return t.run(ctx, "convert", output, func(tmp string) []string {
		return buildPCMArgs(input, tmp, sampleRate, channels)
	})
}

// ApplyFilter runs graph over input and writes output.
func (t *Transcoder) ApplyFilter(ctx context.Context, input, output, graph string) error {
	if strings.TrimSpace(graph) == "" {
		return services.Wrap(services.ErrValidation, "", "filter", "empty filter graph", nil)
	}
	return t.run(ctx, "filter", output, func(tmp string) []string {
		return buildFilterArgs(input, tmp, graph)
	})
}

func (t *Transcoder) run(ctx context.Context, operation, output string, args func(tmp string) []string) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("ffmpeg %s: ensure output dir: %w", operation, err)
	}
	tmp := partialPath(output)
	runCtx, cancel := services.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()
	if err := t.runner(runCtx, t.cfg.Binary, args(tmp)...); err != nil {
		_ = os.Remove(tmp)
		return services.Wrap(services.ErrExternalTool, "", "ffmpeg "+operation, filepath.Base(output), err)
	}
	if err := os.Rename(tmp, output); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("ffmpeg %s: finalize %s: %w", operation, output, err)
	}
	return nil
}

func buildPCMArgs(input, output string, sampleRate, channels int) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-vn",
		"-map", "0:a:0",
	}
	if channels > 0 {
		args = append(args, "-ac", strconv.Itoa(channels))
	}
	if sampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(sampleRate))
	}
	return append(args, "-c:a", PCMCodec, output)
}

func buildFilterArgs(input, output, graph string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-af", graph,
		"-c:a", PCMCodec,
		output,
	}
}

// partialPath keeps the extension last so ffmpeg still infers the muxer.
func partialPath(output string) string {
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + ".partial" + ext
}
