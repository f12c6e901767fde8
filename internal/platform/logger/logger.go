package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns the structured JSON logger shared by the worker and hubctl.
// HUB_LOG_LEVEL selects debug, info, warn or error; info is the default.
func New() *slog.Logger {
	return NewWithWriter(os.Stdout, os.Getenv("HUB_LOG_LEVEL"))
}

// NewWithWriter builds a logger writing to w at the named level.
func NewWithWriter(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return slog.New(handler).With("service", "hub")
}

// Discard returns a logger that drops everything; used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
