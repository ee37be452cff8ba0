package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"vocalprep/internal/batch"
	"vocalprep/internal/config"
	"vocalprep/internal/deps"
	"vocalprep/internal/journal"
	"vocalprep/internal/notifications"
	"vocalprep/internal/pipeline"
	"vocalprep/internal/preflight"
)

// runtime bundles everything a processing command needs.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	toolchain *pipeline.Toolchain
	store     *journal.Store
	driver    *batch.Driver
}

func (r *runtime) Close() {
	if r.store != nil {
		_ = r.store.Close()
	}
}

// resolveFFmpeg locates ffmpeg or returns an error carrying install guidance.
func resolveFFmpeg(cfg *config.Config) (string, error) {
	path, err := deps.ResolveFFmpeg(cfg.FFmpeg.Binary, cfg.FFmpeg.SearchPaths)
	if err != nil {
		return "", fmt.Errorf("%w\n\n%s", err, deps.FFmpegInstallGuidance)
	}
	return path, nil
}

// checkPreflight fails when any filesystem check does not pass.
func checkPreflight(ctx context.Context, cfg *config.Config) error {
	failed := preflight.Failed(preflight.RunAll(ctx, cfg))
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, result := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", result.Name, result.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}

// newRuntime resolves tools, runs preflight, opens the journal, and wires the
// batch driver.
func newRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, store *journal.Store) (*runtime, error) {
	ffmpeg, err := resolveFFmpeg(cfg)
	if err != nil {
		return nil, err
	}
	if err := checkPreflight(ctx, cfg); err != nil {
		return nil, err
	}

	tc := pipeline.NewToolchain(cfg, ffmpeg, logger)
	rt := &runtime{cfg: cfg, logger: logger, toolchain: tc, store: store}

	var recorder pipeline.Recorder
	var interrupter batch.Interrupter
	if store != nil {
		recorder = store
		interrupter = store
	}
	orch := tc.Orchestrator(pipeline.OptionsFromConfig(cfg), recorder, logger)
	rt.driver = batch.New(orch, tc.Transcoder, interrupter, batch.Options{
		OutputRoot:      cfg.Paths.OutputDir,
		ConvertedSubdir: cfg.Paths.ConvertedSubdir,
	}, logger)
	rt.driver.WithNotifier(notifications.NewService(cfg))
	return rt, nil
}
