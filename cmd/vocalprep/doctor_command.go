package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"vocalprep/internal/deps"
	"vocalprep/internal/journal"
	"vocalprep/internal/logging"
	"vocalprep/internal/pipeline"
	"vocalprep/internal/preflight"
	"vocalprep/internal/stage"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, free space, and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}

			var lines []string
			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			configPath := ctx.configPath
			if configPath == "" {
				configPath = "(defaults)"
			}
			lines = append(lines,
				renderStatusLine("Config file", statusInfo, configPath, colorize),
				renderStatusLine("Input directory", statusInfo, cfg.Paths.InputDir, colorize),
				renderStatusLine("Output directory", statusInfo, cfg.Paths.OutputDir, colorize),
				renderStatusLine("Segment duration", statusInfo, fmt.Sprintf("%ds", cfg.Pipeline.SegmentDuration), colorize),
				renderStatusLine("Models", statusInfo, strings.Join(cfg.Separation.Models, ", "), colorize),
				renderStatusLine("Skip reduction", statusInfo, yesNo(cfg.Pipeline.SkipReduction), colorize),
				"",
			)

			results := preflight.RunAll(runCtx, cfg)
			results = append(results, preflight.CheckReadable("Input directory", cfg.Paths.InputDir))
			lines = append(lines, renderSectionHeader("Preflight", colorize)...)
			lines = append(lines, preflightLines(results, colorize)...)
			lines = append(lines, "")

			statuses := preflight.CheckSystemDeps(runCtx, cfg)
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(statuses, colorize)...)
			lines = append(lines, "")

			tc := pipeline.NewToolchain(cfg, cfg.FFmpeg.Binary, logging.NewNop())
			checkers := []stage.Checker{tc.UMX}
			if !cfg.Pipeline.SkipReduction {
				checkers = append([]stage.Checker{tc.Separation}, checkers...)
			}
			if tc.Restorer != nil {
				checkers = append(checkers, tc.Restorer)
			}
			health := stage.Collect(runCtx, checkers...)
			lines = append(lines, renderSectionHeader("Phases", colorize)...)
			lines = append(lines, healthLines(health, colorize)...)
			lines = append(lines, statusIndent+stage.Summary(health), "")

			lines = append(lines, renderSectionHeader("Run journal", colorize)...)
			lines = append(lines, journalLines(runCtx, ctx, colorize)...)

			fmt.Fprintln(out, strings.Join(lines, "\n"))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return &exitError{msg: "missing required tools: " + strings.Join(missing, ", ")}
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return &exitError{msg: fmt.Sprintf("%d preflight checks failed", len(failed))}
			}
			return nil
		},
	}
}

func journalLines(runCtx context.Context, ctx *commandContext, colorize bool) []string {
	store, err := ctx.openJournal()
	if err != nil {
		return []string{renderStatusLine("Journal", statusError, err.Error(), colorize)}
	}
	if store == nil {
		return []string{renderStatusLine("Journal", statusWarn, "disabled", colorize)}
	}
	defer store.Close()

	stats, err := store.Stats(runCtx)
	if err != nil {
		return []string{renderStatusLine("Journal", statusError, err.Error(), colorize)}
	}
	lines := []string{renderStatusLine("Journal", statusOK, store.Path(), colorize)}
	statuses := make([]string, 0, len(stats))
	for status := range stats {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		kind := statusInfo
		if journal.Status(status) == journal.StatusFailed || journal.Status(status) == journal.StatusInterrupted {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(displayStatus(status), kind, fmt.Sprintf("%d runs", stats[journal.Status(status)]), colorize))
	}
	return lines
}
