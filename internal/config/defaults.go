package config

const (
	defaultConfigPath             = "~/.config/vocalprep/config.toml"
	defaultInputDir               = "source_audio"
	defaultOutputDir              = "Audio_Processing_Output"
	defaultConvertedSubdir        = "converted"
	defaultLogDir                 = "~/.local/share/vocalprep/logs"
	defaultSegmentDuration        = 60
	defaultSeparationCommand      = "demucs"
	defaultPrimaryStem            = "vocals"
	defaultSeparationDevice       = "cpu"
	defaultSeparationTimeout      = 3600
	defaultVoiceCommand           = "umx"
	defaultVoiceModel             = "umxhq"
	defaultVoiceTimeout           = 900
	defaultEnhanceCommand         = "voicefixer"
	defaultEnhanceTimeout         = 900
	defaultFilterGraph            = "bass=g=3:f=110:w=0.3,treble=g=5"
	defaultFFmpegBinary           = "ffmpeg"
	defaultFFprobeBinary          = "ffprobe"
	defaultFFmpegTimeout          = 600
	defaultSampleRate             = 44100
	defaultChannels               = 2
	defaultMinFreeGiB             = 2
	defaultWatchDebounceSeconds   = 2
	defaultWatchSettleSeconds     = 5
	defaultNotifyTimeout          = 10
	defaultNtfyTopicEnvVar        = "VOCALPREP_NTFY_TOPIC"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogColor               = "auto"
	maxEnhanceMode                = 2
	defaultSegmentWorkers         = 1
	defaultModelWorkers           = 1
	maxWorkers                    = 16
	defaultFFmpegEnvVar           = "VOCALPREP_FFMPEG"
	defaultOutputDirEnvVar        = "VOCALPREP_OUTPUT_DIR"
	defaultSearchPathUsrLocal     = "/usr/local/bin"
	defaultSearchPathHomebrew     = "/opt/homebrew/bin"
	defaultSearchPathUsr          = "/usr/bin"
	defaultSearchPathSnap         = "/snap/bin"
	defaultSeparationModelPrimary = "htdemucs"
	defaultSeparationModelExtra   = "mdx_extra_q"
)

// DefaultModels lists the demucs models run when none are configured. The first
// entry is the primary model whose output feeds segmentation.
func DefaultModels() []string {
	return []string{defaultSeparationModelPrimary, defaultSeparationModelExtra}
}

// DefaultSearchPaths lists the well-known ffmpeg install locations checked
// after PATH.
func DefaultSearchPaths() []string {
	return []string{defaultSearchPathUsrLocal, defaultSearchPathHomebrew, defaultSearchPathUsr, defaultSearchPathSnap}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:        defaultInputDir,
			OutputDir:       defaultOutputDir,
			ConvertedSubdir: defaultConvertedSubdir,
			StateDir:        defaultStateDir(),
			LogDir:          defaultLogDir,
		},
		Pipeline: Pipeline{
			SegmentDuration: defaultSegmentDuration,
			RunScopedDirs:   true,
			SegmentWorkers:  defaultSegmentWorkers,
			ModelWorkers:    defaultModelWorkers,
		},
		Separation: Separation{
			Command:        defaultSeparationCommand,
			Models:         DefaultModels(),
			PrimaryStem:    defaultPrimaryStem,
			Device:         defaultSeparationDevice,
			TimeoutSeconds: defaultSeparationTimeout,
		},
		Voice: Voice{
			Command:        defaultVoiceCommand,
			Model:          defaultVoiceModel,
			TimeoutSeconds: defaultVoiceTimeout,
		},
		Enhance: Enhance{
			Restore:        true,
			Command:        defaultEnhanceCommand,
			Exciter:        true,
			FilterGraph:    defaultFilterGraph,
			TimeoutSeconds: defaultEnhanceTimeout,
		},
		FFmpeg: FFmpeg{
			Binary:         defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			SearchPaths:    DefaultSearchPaths(),
			TimeoutSeconds: defaultFFmpegTimeout,
			SampleRate:     defaultSampleRate,
			Channels:       defaultChannels,
		},
		Journal: Journal{
			Enabled: true,
		},
		Preflight: Preflight{
			MinFreeGiB: defaultMinFreeGiB,
		},
		Watch: Watch{
			DebounceSeconds: defaultWatchDebounceSeconds,
			SettleSeconds:   defaultWatchSettleSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			RunFailures:    true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Color:  defaultLogColor,
		},
	}
}
