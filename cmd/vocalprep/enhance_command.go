package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"vocalprep/internal/config"
	"vocalprep/internal/enhance"
	"vocalprep/internal/layout"
	"vocalprep/internal/pipeline"
)

func newEnhanceCommand(ctx *commandContext) *cobra.Command {
	var output string
	var noExciter bool
	var noRestore bool

	cmd := &cobra.Command{
		Use:   "enhance <dir>",
		Short: "Restore and excite every WAV file in a directory",
		Long: `enhance runs only the final phase: VoiceFixer restoration followed by the
ffmpeg exciter, on each .wav file directly inside <dir>. Results are written
to --output, or to <dir>/` + layout.EnhancedDir + ` when it is not set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if noExciter {
				cfg.Enhance.Exciter = false
			}
			if noRestore {
				cfg.Enhance.Restore = false
			}

			inputDir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve input path: %w", err)
			}
			outDir := filepath.Join(inputDir, layout.EnhancedDir)
			if output != "" {
				if outDir, err = config.ExpandPath(output); err != nil {
					return fmt.Errorf("resolve output path: %w", err)
				}
			}

			files, err := enhance.Discover(inputDir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no .wav files found in %s", inputDir)
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			ffmpeg, err := resolveFFmpeg(cfg)
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			tc := pipeline.NewToolchain(cfg, ffmpeg, logger)
			if err := tc.Enhancer.Load(signalCtx); err != nil {
				return fmt.Errorf("load restoration model: %w", err)
			}
			results := tc.Enhancer.Process(signalCtx, files, outDir)
			fmt.Fprintln(cmd.OutOrStdout(), renderEnhanceResults(results))

			failed := 0
			for _, result := range results {
				if !result.OK() {
					failed++
				}
			}
			if failed == len(results) {
				return &exitError{msg: fmt.Sprintf("all %d files failed enhancement", failed)}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d files enhanced into %s\n", len(results)-failed, len(results), outDir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Directory for the enhanced files")
	cmd.Flags().BoolVar(&noExciter, "no-exciter", false, "Skip the ffmpeg exciter filter")
	cmd.Flags().BoolVar(&noRestore, "no-restore", false, "Skip VoiceFixer restoration")
	return cmd
}
