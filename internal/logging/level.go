package logging

import (
	"context"
	"log/slog"
	"strings"
)

// LevelPhase marks pipeline phase transitions. It sits between INFO and WARN
// so phase banners survive an info-level filter but not a warn-level one.
const LevelPhase = slog.LevelInfo + 2

// Phase logs a phase transition at LevelPhase, adding the run fields carried
// by ctx. Pass a logger that does not already carry them.
func Phase(ctx context.Context, logger *slog.Logger, msg string, attrs ...Attr) {
	if logger == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	WithContext(ctx, logger).Log(ctx, LevelPhase, msg, Args(attrs...)...)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "phase":
		return LevelPhase
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= LevelPhase:
		return "PHASE"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
	ansiGray   = "\x1b[90m"
)

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed
	case level >= slog.LevelWarn:
		return ansiYellow
	case level >= LevelPhase:
		return ansiCyan
	case level >= slog.LevelInfo:
		return ansiGreen
	default:
		return ansiGray
	}
}
