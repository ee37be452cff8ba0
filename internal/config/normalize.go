package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeSeparation()
	c.normalizeVoice()
	c.normalizeEnhance()
	c.normalizeFFmpeg()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		c.Paths.InputDir = defaultInputDir
	}
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		if value, ok := os.LookupEnv(defaultOutputDirEnvVar); ok && strings.TrimSpace(value) != "" {
			c.Paths.OutputDir = strings.TrimSpace(value)
		} else {
			c.Paths.OutputDir = defaultOutputDir
		}
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	c.Paths.ConvertedSubdir = strings.TrimSpace(c.Paths.ConvertedSubdir)
	if c.Paths.ConvertedSubdir == "" {
		c.Paths.ConvertedSubdir = defaultConvertedSubdir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.SegmentWorkers <= 0 {
		c.Pipeline.SegmentWorkers = defaultSegmentWorkers
	}
	if c.Pipeline.ModelWorkers <= 0 {
		c.Pipeline.ModelWorkers = defaultModelWorkers
	}
}

func (c *Config) normalizeSeparation() {
	c.Separation.Command = strings.TrimSpace(c.Separation.Command)
	if c.Separation.Command == "" {
		c.Separation.Command = defaultSeparationCommand
	}
	c.Separation.Models = dedupeList(c.Separation.Models, false)
	if len(c.Separation.Models) == 0 {
		c.Separation.Models = DefaultModels()
	}
	c.Separation.PrimaryStem = strings.ToLower(strings.TrimSpace(c.Separation.PrimaryStem))
	if c.Separation.PrimaryStem == "" {
		c.Separation.PrimaryStem = defaultPrimaryStem
	}
	c.Separation.Device = strings.ToLower(strings.TrimSpace(c.Separation.Device))
	if c.Separation.TimeoutSeconds < 0 {
		c.Separation.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeVoice() {
	c.Voice.Command = strings.TrimSpace(c.Voice.Command)
	if c.Voice.Command == "" {
		c.Voice.Command = defaultVoiceCommand
	}
	c.Voice.Model = strings.TrimSpace(c.Voice.Model)
	if c.Voice.Model == "" {
		c.Voice.Model = defaultVoiceModel
	}
	c.Voice.Targets = dedupeList(c.Voice.Targets, true)
	if c.Voice.TimeoutSeconds < 0 {
		c.Voice.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeEnhance() {
	c.Enhance.Command = strings.TrimSpace(c.Enhance.Command)
	if c.Enhance.Command == "" {
		c.Enhance.Command = defaultEnhanceCommand
	}
	c.Enhance.FilterGraph = strings.TrimSpace(c.Enhance.FilterGraph)
	if c.Enhance.FilterGraph == "" {
		c.Enhance.FilterGraph = defaultFilterGraph
	}
	c.Enhance.Stems = dedupeList(c.Enhance.Stems, true)
	if c.Enhance.TimeoutSeconds < 0 {
		c.Enhance.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	if c.FFmpeg.Binary == "" || c.FFmpeg.Binary == defaultFFmpegBinary {
		if value, ok := os.LookupEnv(defaultFFmpegEnvVar); ok && strings.TrimSpace(value) != "" {
			c.FFmpeg.Binary = strings.TrimSpace(value)
		}
	}
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = defaultFFmpegBinary
	}
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(c.FFmpeg.FFprobeBinary)
	if c.FFmpeg.FFprobeBinary == "" {
		c.FFmpeg.FFprobeBinary = defaultFFprobeBinary
	}
	if c.FFmpeg.SearchPaths == nil {
		c.FFmpeg.SearchPaths = DefaultSearchPaths()
	}
	c.FFmpeg.SearchPaths = dedupeList(c.FFmpeg.SearchPaths, false)
	if c.FFmpeg.SampleRate == 0 {
		c.FFmpeg.SampleRate = defaultSampleRate
	}
	if c.FFmpeg.Channels == 0 {
		c.FFmpeg.Channels = defaultChannels
	}
	if c.FFmpeg.TimeoutSeconds < 0 {
		c.FFmpeg.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv(defaultNtfyTopicEnvVar); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Color = strings.ToLower(strings.TrimSpace(c.Logging.Color))
	if c.Logging.Color == "" {
		c.Logging.Color = defaultLogColor
	}
}

func dedupeList(values []string, lower bool) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if lower {
			normalized = strings.ToLower(normalized)
		}
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
