package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateSeparation(); err != nil {
		return err
	}
	if err := c.validateEnhance(); err != nil {
		return err
	}
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.ContainsAny(c.Paths.ConvertedSubdir, `/\`) {
		return errors.New("paths.converted_subdir must be a single directory name")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.SegmentDuration <= 0 {
		return errors.New("pipeline.segment_duration must be positive (seconds)")
	}
	if c.Pipeline.SegmentWorkers > maxWorkers {
		return fmt.Errorf("pipeline.segment_workers must be at most %d", maxWorkers)
	}
	if c.Pipeline.ModelWorkers > maxWorkers {
		return fmt.Errorf("pipeline.model_workers must be at most %d", maxWorkers)
	}
	return nil
}

func (c *Config) validateSeparation() error {
	if !c.Pipeline.SkipReduction && len(c.Separation.Models) == 0 {
		return errors.New("separation.models must list at least one model")
	}
	for _, model := range c.Separation.Models {
		if strings.ContainsAny(model, `/\ `) {
			return fmt.Errorf("separation.models entry %q must not contain path separators or spaces", model)
		}
	}
	switch c.Separation.Device {
	case "", "cpu", "cuda", "mps":
	default:
		return fmt.Errorf("separation.device %q must be one of cpu, cuda, mps", c.Separation.Device)
	}
	return nil
}

func (c *Config) validateEnhance() error {
	if c.Enhance.Mode < 0 || c.Enhance.Mode > maxEnhanceMode {
		return fmt.Errorf("enhance.mode must be between 0 and %d", maxEnhanceMode)
	}
	if c.Enhance.Exciter && strings.TrimSpace(c.Enhance.FilterGraph) == "" {
		return errors.New("enhance.filter_graph must be set when enhance.exciter is true")
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	if err := ensurePositiveMap(map[string]int{
		"ffmpeg.sample_rate": c.FFmpeg.SampleRate,
		"ffmpeg.channels":    c.FFmpeg.Channels,
	}); err != nil {
		return err
	}
	if c.FFmpeg.Channels > 2 {
		return errors.New("ffmpeg.channels must be 1 or 2")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic %q must be a full http(s) URL", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("logging.color %q must be one of auto, always, never", c.Logging.Color)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
