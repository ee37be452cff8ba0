package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vocalprep/internal/batch"
	"vocalprep/internal/config"
)

type runOverrides struct {
	output          string
	segmentDuration int
	models          []string
	skipReduction   bool
	strict          bool
	noExciter       bool
	noRestore       bool
}

func (o runOverrides) apply(cmd *cobra.Command, cfg *config.Config) error {
	if o.output != "" {
		expanded, err := config.ExpandPath(o.output)
		if err != nil {
			return fmt.Errorf("resolve output path: %w", err)
		}
		cfg.Paths.OutputDir = expanded
	}
	if cmd.Flags().Changed("segment-duration") {
		cfg.Pipeline.SegmentDuration = o.segmentDuration
	}
	if len(o.models) > 0 {
		cfg.Separation.Models = append([]string(nil), o.models...)
	}
	if o.skipReduction {
		cfg.Pipeline.SkipReduction = true
	}
	if o.strict {
		cfg.Pipeline.StrictExit = true
	}
	if o.noExciter {
		cfg.Enhance.Exciter = false
	}
	if o.noRestore {
		cfg.Enhance.Restore = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cfg.EnsureDirectories()
}

func addRunFlags(cmd *cobra.Command, o *runOverrides) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Output root for the phase directories")
	cmd.Flags().IntVar(&o.segmentDuration, "segment-duration", 0, "Segment length in seconds")
	cmd.Flags().StringArrayVar(&o.models, "model", nil, "Demucs model to run (repeatable; the first feeds segmentation)")
	cmd.Flags().BoolVar(&o.skipReduction, "skip-reduction", false, "Segment the input directly without demucs")
	cmd.Flags().BoolVar(&o.strict, "strict", false, "Exit non-zero when any run fails")
	cmd.Flags().BoolVar(&o.noExciter, "no-exciter", false, "Skip the ffmpeg exciter filter")
	cmd.Flags().BoolVar(&o.noRestore, "no-restore", false, "Skip VoiceFixer restoration")
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var overrides runOverrides

	cmd := &cobra.Command{
		Use:   "run [input_dir]",
		Short: "Process every recording in the input directory",
		Args:  cobra.MaximumNArgs(1),
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

			report, err := rt.driver.Run(signalCtx, inputDir)
			if len(report.Runs) > 0 {
				fmt.Fprint(cmd.OutOrStdout(), renderReport(report))
			}
			if err != nil {
				if signalCtx.Err() != nil {
					return context.Canceled
				}
				return err
			}
			if code := report.ExitCode(cfg.Pipeline.StrictExit); code != 0 {
				return &exitError{msg: failureMessage(report, cfg.Pipeline.StrictExit)}
			}
			return nil
		},
	}
	addRunFlags(cmd, &overrides)
	return cmd
}

func failureMessage(report batch.Report, strict bool) string {
	if report.Succeeded == 0 {
		return fmt.Sprintf("no recordings processed successfully (%d failed)", report.Failed)
	}
	if strict {
		return fmt.Sprintf("%d of %d recordings failed (strict mode)", report.Failed, report.Total)
	}
	return fmt.Sprintf("%d of %d recordings failed", report.Failed, report.Total)
}
