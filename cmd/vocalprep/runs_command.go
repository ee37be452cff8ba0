package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vocalprep/internal/deps"
	"vocalprep/internal/journal"
	"vocalprep/internal/media/ffprobe"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run journal",
	}
	cmd.AddCommand(newRunsListCommand(ctx))
	cmd.AddCommand(newRunsShowCommand(ctx))
	return cmd
}

func requireJournal(ctx *commandContext) (*journal.Store, error) {
	store, err := ctx.openJournal()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errJournalDisabled
	}
	return store, nil
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(statusFilters)
			if err != nil {
				return err
			}
			store, err := requireJournal(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit, statuses...)
			if err != nil {
				return err
			}
			if asJSON {
				payload := make([]runJSON, 0, len(runs))
				for _, run := range runs {
					payload = append(payload, toRunJSON(run))
				}
				return writeJSON(cmd, payload)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRunList(runs))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&statusFilters, "status", "s", nil, "Filter by status (running, succeeded, failed, aborted, interrupted)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func parseStatuses(values []string) ([]journal.Status, error) {
	valid := map[journal.Status]struct{}{
		journal.StatusRunning:     {},
		journal.StatusSucceeded:   {},
		journal.StatusFailed:      {},
		journal.StatusAborted:     {},
		journal.StatusInterrupted: {},
	}
	statuses := make([]journal.Status, 0, len(values))
	for _, value := range values {
		status := journal.Status(strings.ToLower(strings.TrimSpace(value)))
		if status == "" {
			continue
		}
		if _, ok := valid[status]; !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its phase history",
		Long:  "show accepts a full run identifier or any unique prefix of one.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := requireJournal(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Find(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, journal.ErrAmbiguous) {
					return fmt.Errorf("%w; use more characters of the run id", err)
				}
				return err
			}
			phases, err := store.Phases(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, toRunDetailJSON(run, phases))
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Run "+run.ID, colorize)
			lines = append(lines,
				renderStatusLine("Status", runStatusKind(run.Status), displayStatus(string(run.Status)), colorize),
				renderStatusLine("Last phase", statusInfo, run.State, colorize),
				renderStatusLine("Source", statusInfo, run.SourcePath, colorize),
			)
			if run.InputPath != run.SourcePath {
				lines = append(lines, renderStatusLine("Converted input", statusInfo, run.InputPath, colorize))
			}
			if run.Title != "" || run.Artist != "" {
				lines = append(lines, renderStatusLine("Tags", statusInfo, strings.Trim(run.Artist+" - "+run.Title, " -"), colorize))
			}
			lines = append(lines,
				renderStatusLine("Models", statusInfo, strings.Join(run.Models, ", "), colorize),
				renderStatusLine("Output", statusInfo, run.OutputDir(), colorize),
				renderStatusLine("Segments", statusInfo, fmt.Sprintf("%d", run.Segments), colorize),
				renderStatusLine("Stems", statusInfo, fmt.Sprintf("%d (%d enhanced)", run.Stems, run.Enhanced), colorize),
				renderStatusLine("Started", statusInfo, run.StartedAt.Local().Format(time.RFC3339), colorize),
				renderStatusLine("Elapsed", statusInfo, formatElapsed(run.Elapsed()), colorize),
			)
			if run.ErrorMessage != "" {
				lines = append(lines, renderStatusLine("Error", statusError, fmt.Sprintf("%s: %s", run.FailureKind, run.ErrorMessage), colorize))
			}
			lines = append(lines, inputLines(cmd, ctx, run.InputPath, colorize)...)
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderPhases(phases))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

// inputLines describes the run's input with ffprobe when both are available.
func inputLines(cmd *cobra.Command, ctx *commandContext, path string, colorize bool) []string {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil
	}
	ffmpeg, err := deps.ResolveFFmpeg(cfg.FFmpeg.Binary, cfg.FFmpeg.SearchPaths)
	if err != nil {
		return nil
	}
	ffprobePath, err := deps.ResolveFFprobe(cfg.FFmpeg.FFprobeBinary, ffmpeg, cfg.FFmpeg.SearchPaths)
	if err != nil {
		return nil
	}
	probe, err := ffprobe.Inspect(cmd.Context(), ffprobePath, path)
	if err != nil {
		return []string{renderStatusLine("Input", statusWarn, err.Error(), colorize)}
	}
	stream, ok := probe.PrimaryAudio()
	if !ok {
		return []string{renderStatusLine("Input", statusWarn, "no audio stream", colorize)}
	}
	detail := fmt.Sprintf("%s, %d Hz, %d ch, %s", stream.CodecName, stream.SampleRateHz(), stream.Channels, probe.Duration().Round(time.Second))
	return []string{renderStatusLine("Input", statusInfo, detail, colorize)}
}

func runStatusKind(status journal.Status) statusKind {
	switch status {
	case journal.StatusSucceeded:
		return statusOK
	case journal.StatusFailed, journal.StatusAborted:
		return statusError
	case journal.StatusInterrupted:
		return statusWarn
	default:
		return statusInfo
	}
}
