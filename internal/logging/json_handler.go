package logging

import (
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// newJSONHandler writes one record per line with short keys (ts, level,
// msg, source) and UTC RFC 3339 timestamps.
func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: shortenJSONAttr,
	})
}

func shortenJSONAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return attr
	}
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() == slog.KindTime {
			return slog.String("ts", attr.Value.Time().UTC().Format(time.RFC3339))
		}
		return slog.Attr{Key: "ts", Value: attr.Value}
	case slog.LevelKey:
		label := attr.Value.String()
		if level, ok := attr.Value.Any().(slog.Level); ok {
			label = levelLabel(level)
		}
		return slog.String("level", strings.ToLower(label))
	case slog.SourceKey:
		src, ok := attr.Value.Any().(*slog.Source)
		if !ok || src == nil {
			return attr
		}
		return slog.String("source", filepath.Base(src.File)+":"+strconv.Itoa(src.Line))
	}
	return attr
}
