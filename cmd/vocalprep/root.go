package main

import (
	"github.com/spf13/cobra"
)

const rootLongHelp = `vocalprep prepares vocal recordings for downstream use.

Every input runs through four phases, each writing its own directory under
the output root:

  1. Noise reduction    demucs source separation, one pass per model
  2. Segmentation       fixed-length mono chunks at 44.1 kHz
  3. Voice separation   Open-Unmix stems for every segment
  4. Enhancement        VoiceFixer restoration plus an ffmpeg exciter

Non-WAV inputs (mp3, ogg, flac, aac, m4a, mp4) are converted with ffmpeg
first. A failed model, segment, or file is logged and skipped; only a
recording that yields no segments is abandoned.

Requirements:
  ffmpeg       format conversion and the exciter filter
  demucs       noise reduction (skip with --skip-reduction)
  umx          voice separation (pip install openunmix)
  voicefixer   restoration (pip install voicefixer)

Troubleshooting:
  vocalprep doctor          check directories, free space, and tools
  vocalprep runs list       review previous runs and their failures
  vocalprep logs --run ID   show the log records of one run ([logging].file)
  --log-level debug         show every external command and its output tail`

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string
	var logFormatFlag string
	var colorFlag string

	ctx := newCommandContext(&configFlag, &logLevelFlag, &logFormatFlag, &colorFlag)

	rootCmd := &cobra.Command{
		Use:           "vocalprep",
		Short:         "Batch noise reduction, voice separation, and enhancement for recordings",
		Long:          rootLongHelp,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	flags.StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&logFormatFlag, "log-format", "", "Log format (console, json)")
	flags.StringVar(&colorFlag, "color", "", "Color output (auto, always, never)")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newEnhanceCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newRunsCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))

	return rootCmd
}
