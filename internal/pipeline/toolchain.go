package pipeline

import (
	"log/slog"
	"os"

	"vocalprep/internal/audio"
	"vocalprep/internal/config"
	"vocalprep/internal/enhance"
	"vocalprep/internal/media/transcode"
	"vocalprep/internal/segment"
	"vocalprep/internal/separation"
	"vocalprep/internal/voice"
)

// Toolchain holds the production adapters built from configuration. The
// restoration handle lives here so it is resolved once per process.
type Toolchain struct {
	Transcoder *transcode.Transcoder
	Loader     *audio.Loader
	Separation *separation.Service
	Segmenter  *segment.Segmenter
	UMX        *voice.UMX
	Voice      *voice.Service
	Restorer   *enhance.Restorer
	Enhancer   *enhance.Enhancer
}

// NewToolchain wires every adapter. ffmpegPath is the resolved transcoder.
func NewToolchain(cfg *config.Config, ffmpegPath string, logger *slog.Logger) *Toolchain {
	tc := &Toolchain{}
	tc.Transcoder = transcode.New(transcode.Config{
		Binary:     ffmpegPath,
		Timeout:    cfg.FFmpegTimeout(),
		SampleRate: cfg.FFmpeg.SampleRate,
		Channels:   cfg.FFmpeg.Channels,
	})
	tc.Loader = audio.NewLoader(tc.Transcoder, os.TempDir())

	twoStems := ""
	if cfg.Separation.TwoStems {
		twoStems = cfg.Separation.PrimaryStem
	}
	tc.Separation = separation.NewService(separation.Config{
		Command:  cfg.Separation.Command,
		Device:   cfg.Separation.Device,
		TwoStems: twoStems,
		Timeout:  cfg.SeparationTimeout(),
		Workers:  cfg.Pipeline.ModelWorkers,
	}, logger)
	tc.Segmenter = segment.New(tc.Loader, logger)

	tc.UMX = voice.NewUMX(voice.UMXConfig{
		Command:     cfg.Voice.Command,
		Model:       cfg.Voice.Model,
		Targets:     cfg.Voice.Targets,
		CUDAEnabled: cfg.Voice.CUDAEnabled,
	}, logger)
	tc.Voice = voice.NewService(tc.UMX, tc.Loader, cfg.VoiceTimeout(), logger)

	if cfg.Enhance.Restore {
		tc.Restorer = enhance.NewRestorer(enhance.RestorerConfig{
			Command:     cfg.Enhance.Command,
			Mode:        cfg.Enhance.Mode,
			CUDAEnabled: cfg.Enhance.CUDAEnabled,
			Timeout:     cfg.EnhanceTimeout(),
		}, logger)
	}
	tc.Enhancer = enhance.New(tc.Restorer, tc.Transcoder, enhance.Options{
		Restore:     cfg.Enhance.Restore,
		Exciter:     cfg.Enhance.Exciter,
		FilterGraph: cfg.Enhance.FilterGraph,
	}, logger)
	return tc
}

// OptionsFromConfig maps configuration onto orchestrator options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		OutputRoot:     cfg.Paths.OutputDir,
		SegmentSeconds: cfg.Pipeline.SegmentDuration,
		Models:         append([]string(nil), cfg.Separation.Models...),
		PrimaryStem:    cfg.Separation.PrimaryStem,
		SkipReduction:  cfg.Pipeline.SkipReduction,
		RunScoped:      cfg.Pipeline.RunScopedDirs,
		SegmentWorkers: cfg.Pipeline.SegmentWorkers,
		StemFilter:     append([]string(nil), cfg.Enhance.Stems...),
	}
}

// Orchestrator builds an orchestrator over this toolchain.
func (tc *Toolchain) Orchestrator(opts Options, recorder Recorder, logger *slog.Logger) *Orchestrator {
	return New(tc.Separation, tc.Segmenter, tc.Voice, tc.Enhancer, recorder, opts, logger)
}
