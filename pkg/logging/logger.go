package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger so every package shares one structured handler.
type Logger struct {
	*slog.Logger
}

// New creates a JSON logger on stdout at the given level.
func New(level string) *Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter creates a JSON logger writing to w.
func NewWithWriter(w io.Writer, level string) *Logger {
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return &Logger{Logger: slog.New(handler).With("service", "visitplus-leads")}
}

// ParseLevel maps LOG_LEVEL values onto slog levels, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	if l == nil || l.Logger == nil {
		return Default().With(args...)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default returns a logger with default settings
func Default() *Logger {
	return New("info")
}
