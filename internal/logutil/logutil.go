package logutil

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// New builds the application logger. format is "text" or "json"; level is one of
// debug, info, warn, error (default warn, so CLI output stays clean).
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to slog.Level
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// LogAndWrapErr logs err at error level with the given fields and returns it
// wrapped with msg, so errors.Is / errors.As still work.
func LogAndWrapErr(logger *slog.Logger, msg string, err error, fields ...any) error {
	if err == nil {
		return nil
	}
	logger.Error(msg, append(fields, "err", err)...)
	return fmt.Errorf("%s: %w", msg, err)
}

// DebugAndWrapErr is LogAndWrapErr at debug level, for expected failures.
func DebugAndWrapErr(logger *slog.Logger, msg string, err error, fields ...any) error {
	if err == nil {
		return nil
	}
	logger.Debug(msg, append(fields, "err", err)...)
	return fmt.Errorf("%s: %w", msg, err)
}

// NewTimingLogger returns a closure that logs msg at debug level with the time
// elapsed since start. Typical use: defer logutil.NewTimingLogger(l, time.Now(), "x")()
func NewTimingLogger(logger *slog.Logger, start time.Time, msg string, fields ...any) func() {
	return func() {
		logger.Debug(msg, append(fields, "duration", time.Since(start).String())...)
	}
}
