package logutil

import (
	"io"
	"log/slog"
	"os"
)

// BuildLogger returns a text (or JSON) slog logger on stdout at the named
// level. Unknown levels mean info.
func BuildLogger(level string, jsonOutput bool) *slog.Logger {
	return New(os.Stdout, level, jsonOutput)
}

func New(w io.Writer, level string, jsonOutput bool) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	hOpts := &slog.HandlerOptions{Level: lvl}
	if jsonOutput {
		return slog.New(slog.NewJSONHandler(w, hOpts))
	}
	return slog.New(slog.NewTextHandler(w, hOpts))
}

// Discard is for tests and callers that want no output.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
