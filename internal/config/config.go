package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input, output, and bookkeeping directories.
type Paths struct {
	InputDir        string `toml:"input_dir"`
	OutputDir       string `toml:"output_dir"`
	ConvertedSubdir string `toml:"converted_subdir"`
	StateDir        string `toml:"state_dir"`
	LogDir          string `toml:"log_dir"`
}

// Pipeline contains orchestration settings shared by every run.
type Pipeline struct {
	SegmentDuration int  `toml:"segment_duration"`
	RunScopedDirs   bool `toml:"run_scoped_dirs"`
	SegmentWorkers  int  `toml:"segment_workers"`
	ModelWorkers    int  `toml:"model_workers"`
	SkipReduction   bool `toml:"skip_reduction"`
	StrictExit      bool `toml:"strict_exit"`
}

// Separation configures the demucs source-separation pass.
type Separation struct {
	Command        string   `toml:"command"`
	Models         []string `toml:"models"`
	PrimaryStem    string   `toml:"primary_stem"`
	TwoStems       bool     `toml:"two_stems"`
	Device         string   `toml:"device"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Voice configures the Open-Unmix voice separation pass.
type Voice struct {
	Command        string   `toml:"command"`
	Model          string   `toml:"model"`
	Targets        []string `toml:"targets"`
	CUDAEnabled    bool     `toml:"cuda_enabled"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Enhance configures restoration and the exciter filter.
type Enhance struct {
	Restore        bool     `toml:"restore"`
	Command        string   `toml:"command"`
	Mode           int      `toml:"mode"`
	CUDAEnabled    bool     `toml:"cuda_enabled"`
	Exciter        bool     `toml:"exciter"`
	FilterGraph    string   `toml:"filter_graph"`
	Stems          []string `toml:"stems"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// FFmpeg locates the transcoder and sets the normalization target format.
type FFmpeg struct {
	Binary         string   `toml:"binary"`
	FFprobeBinary  string   `toml:"ffprobe_binary"`
	SearchPaths    []string `toml:"search_paths"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	SampleRate     int      `toml:"sample_rate"`
	Channels       int      `toml:"channels"`
}

// Journal controls the sqlite run history.
type Journal struct {
	Enabled bool `toml:"enabled"`
}

// Preflight contains thresholds for startup checks.
type Preflight struct {
	MinFreeGiB float64 `toml:"min_free_gib"`
}

// Watch configures hot-folder mode.
type Watch struct {
	DebounceSeconds int `toml:"debounce_seconds"`
	SettleSeconds   int `toml:"settle_seconds"`
}

// Notifications configures ntfy delivery of batch events.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunFailures    bool   `toml:"run_failures"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Color  string `toml:"color"`
	File   bool   `toml:"file"`
}

// Config encapsulates all configuration values for vocalprep.
//
// Configuration sections by subsystem:
//   - Paths: input, output, state, and log directories
//   - Pipeline: segment duration, directory scoping, and fan-out limits
//   - Separation: demucs models and invocation
//   - Voice: Open-Unmix model and invocation
//   - Enhance: VoiceFixer restoration and ffmpeg exciter
//   - FFmpeg: transcoder discovery and normalization format
//   - Journal: sqlite run history
//   - Preflight: startup check thresholds
//   - Watch: hot-folder debounce timing
//   - Notifications: ntfy topic for batch events
//   - Logging: log format, level, and color
type Config struct {
	Paths         Paths         `toml:"paths"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Separation    Separation    `toml:"separation"`
	Voice         Voice         `toml:"voice"`
	Enhance       Enhance       `toml:"enhance"`
	FFmpeg        FFmpeg        `toml:"ffmpeg"`
	Journal       Journal       `toml:"journal"`
	Preflight     Preflight     `toml:"preflight"`
	Watch         Watch         `toml:"watch"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vocalprep.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and bookkeeping directories. The input
// directory is never created; a missing input directory is reported when a
// batch starts.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Logging.File && strings.TrimSpace(c.Paths.LogDir) != "" {
		if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
			return fmt.Errorf("create log directory %q: %w", c.Paths.LogDir, err)
		}
	}
	return nil
}

// JournalPath returns the sqlite file backing the run history.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "runs.db")
}

// NotificationTimeout returns the ntfy request timeout.
func (c *Config) NotificationTimeout() time.Duration {
	return seconds(c.Notifications.RequestTimeout)
}

// SegmentDuration returns the configured segment length.
func (c *Config) SegmentDuration() time.Duration {
	return time.Duration(c.Pipeline.SegmentDuration) * time.Second
}

// SeparationTimeout returns the per-model demucs timeout.
func (c *Config) SeparationTimeout() time.Duration {
	return seconds(c.Separation.TimeoutSeconds)
}

// VoiceTimeout returns the per-segment voice separation timeout.
func (c *Config) VoiceTimeout() time.Duration {
	return seconds(c.Voice.TimeoutSeconds)
}

// EnhanceTimeout returns the per-file restoration timeout.
func (c *Config) EnhanceTimeout() time.Duration {
	return seconds(c.Enhance.TimeoutSeconds)
}

// FFmpegTimeout returns the per-call transcoder timeout.
func (c *Config) FFmpegTimeout() time.Duration {
	return seconds(c.FFmpeg.TimeoutSeconds)
}

func seconds(value int) time.Duration {
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "vocalprep")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/state/vocalprep"
	}
	return filepath.Join(home, ".local", "state", "vocalprep")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
