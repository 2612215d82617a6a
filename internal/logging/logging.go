package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New builds the process logger writing key=value pairs to stderr.
// level accepts debug|info|warn|error (case-insensitive); unknown means info.
func New(level string) *slog.Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(h)
}

// ParseLevel converts a string to a slog.Level
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
