package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vocalprep/internal/logging"
	"vocalprep/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var runID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the JSON log file",
		Long: `logs prints the end of the log file written when [logging].file is true.
--run keeps only records of one run; a unique prefix of the run id is enough.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := logging.FilePath(cfg)
			if !cfg.Logging.File || path == "" {
				return errors.New("file logging is disabled; set [logging].file = true")
			}

			keep := logs.Filter(runID)
			out := cmd.OutOrStdout()
			emit := func(line string) {
				if keep(line) {
					fmt.Fprintln(out, line)
				}
			}

			var offset int64
			if runID != "" {
				if offset, err = logs.ReadFrom(path, 0, emit); err != nil {
					return err
				}
			} else {
				var tail []string
				if tail, offset, err = logs.Last(path, lines); err != nil {
					return err
				}
				for _, line := range tail {
					emit(line)
				}
			}
			if !follow {
				return nil
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return logs.Follow(signalCtx, path, offset, 0, emit)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&runID, "run", "", "Only show records of this run id (prefix)")
	return cmd
}
