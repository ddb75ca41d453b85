package logutil

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(" INFO "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(""))
}

func TestNew_Format(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", "json").Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)

	buf.Reset()
	New(&buf, "info", "text").Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")

	buf.Reset()
	New(&buf, "warn", "text").Info("dropped")
	assert.Empty(t, buf.String())
}

func TestLogAndWrapErr(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", "text")

	original := errors.New("disk full")
	err := LogAndWrapErr(logger, "failed to save", original, "session_id", "7")

	assert.ErrorIs(t, err, original)
	assert.Equal(t, "failed to save: disk full", err.Error())
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "session_id=7")
	assert.Contains(t, buf.String(), `err="disk full"`)

	assert.NoError(t, LogAndWrapErr(logger, "noop", nil))
}

func TestDebugAndWrapErr(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", "text")

	err := DebugAndWrapErr(logger, "lookup failed", errors.New("boom"))
	assert.EqualError(t, err, "lookup failed: boom")
	assert.Contains(t, buf.String(), "level=DEBUG")
}

func TestNewTimingLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", "text")

	NewTimingLogger(logger, time.Now().Add(-time.Second), "report generated", "reports", 3)()
	assert.Contains(t, buf.String(), "report generated")
	assert.Contains(t, buf.String(), "reports=3")
	assert.Contains(t, buf.String(), "duration=")
}
