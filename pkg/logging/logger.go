package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// InitLogger initializes a logger with the specified level and format.
// Format "text" selects a human-readable handler; anything else emits JSON
// with source location information.
func InitLogger(level slog.Level, format string) *slog.Logger {
	return InitLoggerTo(os.Stdout, level, format)
}

// InitLoggerTo is InitLogger with an explicit destination. Processes that own
// stdout as a protocol stream log to stderr instead.
func InitLoggerTo(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	}
	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewComponentLogger creates a component-specific logger with context.
// It adds the component name to all log messages for better traceability.
func NewComponentLogger(base *slog.Logger, component string) *slog.Logger {
	return base.With(
		slog.String("component", component),
	)
}
