package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vocalprep/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_STATE_HOME", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if !filepath.IsAbs(cfg.Paths.OutputDir) {
		t.Fatalf("expected absolute output dir, got %q", cfg.Paths.OutputDir)
	}
	if filepath.Base(cfg.Paths.OutputDir) != "Audio_Processing_Output" {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	wantState := filepath.Join(tempHome, ".local", "state", "vocalprep")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Pipeline.SegmentDuration != 60 {
		t.Fatalf("expected 60 second segments, got %d", cfg.Pipeline.SegmentDuration)
	}
	if got := strings.Join(cfg.Separation.Models, ","); got != "htdemucs,mdx_extra_q" {
		t.Fatalf("unexpected default models: %q", got)
	}
	if cfg.FFmpeg.SampleRate != 44100 || cfg.FFmpeg.Channels != 2 {
		t.Fatalf("unexpected normalization target: %d Hz %d ch", cfg.FFmpeg.SampleRate, cfg.FFmpeg.Channels)
	}
	if cfg.Enhance.FilterGraph != "bass=g=3:f=110:w=0.3,treble=g=5" {
		t.Fatalf("unexpected exciter filter graph: %q", cfg.Enhance.FilterGraph)
	}
	if !cfg.Pipeline.RunScopedDirs {
		t.Fatal("expected run-scoped directories by default")
	}
	if cfg.Logging.Color != "auto" {
		t.Fatalf("expected auto color, got %q", cfg.Logging.Color)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "vocalprep.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"input_dir":  "~/incoming",
			"output_dir": "~/processed",
		},
		"pipeline": map[string]any{
			"segment_duration": 30,
			"segment_workers":  4,
		},
		"separation": map[string]any{
			"models": []string{" mdx_extra_q ", "htdemucs", "mdx_extra_q", ""},
		},
		"enhance": map[string]any{
			"stems": []string{"Vocals", "vocals", "OTHER"},
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.InputDir != filepath.Join(tempHome, "incoming") {
		t.Fatalf("unexpected input dir: %q", cfg.Paths.InputDir)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "processed") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Pipeline.SegmentDuration != 30 {
		t.Fatalf("unexpected segment duration: %d", cfg.Pipeline.SegmentDuration)
	}
	if cfg.Pipeline.SegmentWorkers != 4 {
		t.Fatalf("unexpected segment workers: %d", cfg.Pipeline.SegmentWorkers)
	}
	if got := strings.Join(cfg.Separation.Models, ","); got != "mdx_extra_q,htdemucs" {
		t.Fatalf("expected models trimmed and deduplicated in order, got %q", got)
	}
	if got := strings.Join(cfg.Enhance.Stems, ","); got != "vocals,other" {
		t.Fatalf("expected stems lowercased and deduplicated, got %q", got)
	}
}

func TestFFmpegEnvFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VOCALPREP_FFMPEG", "/opt/ffmpeg/bin/ffmpeg")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.FFmpeg.Binary != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("expected ffmpeg binary from env, got %q", cfg.FFmpeg.Binary)
	}
}

func TestNtfyTopicEnvFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VOCALPREP_NTFY_TOPIC", " https://ntfy.example/vocals ")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/vocals" {
		t.Fatalf("expected topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.NotificationTimeout().Seconds() != 10 {
		t.Fatalf("unexpected notification timeout: %s", cfg.NotificationTimeout())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"segment duration", func(c *config.Config) { c.Pipeline.SegmentDuration = 0 }, "pipeline.segment_duration"},
		{"enhance mode", func(c *config.Config) { c.Enhance.Mode = 5 }, "enhance.mode"},
		{"channels", func(c *config.Config) { c.FFmpeg.Channels = 6 }, "ffmpeg.channels"},
		{"color", func(c *config.Config) { c.Logging.Color = "rainbow" }, "logging.color"},
		{"model path", func(c *config.Config) { c.Separation.Models = []string{"../evil"} }, "separation.models"},
		{"device", func(c *config.Config) { c.Separation.Device = "tpu" }, "separation.device"},
		{"converted subdir", func(c *config.Config) { c.Paths.ConvertedSubdir = "a/b" }, "paths.converted_subdir"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" }, "notifications.ntfy_topic"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Separation.Command != "demucs" {
		t.Fatalf("unexpected separation command: %q", cfg.Separation.Command)
	}
}

func TestEnsureDirectoriesIsIdempotent(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.StateDir = filepath.Join(base, "state")

	for i := 0; i < 2; i++ {
		if err := cfg.EnsureDirectories(); err != nil {
			t.Fatalf("EnsureDirectories pass %d: %v", i+1, err)
		}
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.StateDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
	if cfg.JournalPath() != filepath.Join(cfg.Paths.StateDir, "runs.db") {
		t.Fatalf("unexpected journal path: %s", cfg.JournalPath())
	}
}
