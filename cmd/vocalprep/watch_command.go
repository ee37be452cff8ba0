package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vocalprep/internal/config"
	"vocalprep/internal/logging"
	"vocalprep/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var overrides runOverrides
	var skipBacklog bool

	cmd := &cobra.Command{
		Use:   "watch [input_dir]",
		Short: "Process recordings as they arrive in the input directory",
		Long: `watch keeps running and processes each recording dropped into the input
directory once it has stopped growing. Files already present are processed
at startup unless --skip-backlog is set. Press Ctrl+C to stop.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := overrides.apply(cmd, cfg); err != nil {
				return err
			}
			inputDir := cfg.Paths.InputDir
			if len(args) == 1 {
				if inputDir, err = config.ExpandPath(args[0]); err != nil {
					return fmt.Errorf("resolve input path: %w", err)
				}
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			rt, err := newRuntime(signalCtx, cfg, logger, store)
			if err != nil {
				if store != nil {
					_ = store.Close()
				}
				return err
			}
			defer rt.Close()

			watcher := watch.New(inputDir, rt.driver, watch.Options{
				Debounce: time.Duration(cfg.Watch.DebounceSeconds) * time.Second,
				Settle:   time.Duration(cfg.Watch.SettleSeconds) * time.Second,
				Backlog:  !skipBacklog,
			}, logger)
			logger.Info("watching for recordings",
				logging.String("input_dir", inputDir),
				logging.String("output_dir", cfg.Paths.OutputDir),
			)
			return watcher.Run(signalCtx)
		},
	}
	addRunFlags(cmd, &overrides)
	cmd.Flags().BoolVar(&skipBacklog, "skip-backlog", false, "Ignore files already in the input directory")
	return cmd
}
