package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"postlabor-feed/internal/handler/http/requestid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.value)
			assert.Equal(t, tt.want, LevelFromEnv())
		})
	}
}

func TestNewJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", slog.String("field", "poll_interval"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "poll_interval", entry["field"])
}

func TestNewTextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTextLogger(&buf, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("feed updated", slog.Int("items", 6))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, `msg="feed updated"`)
	assert.Contains(t, out, "items=6")
}

func TestNewLogger_Format(t *testing.T) {
	tests := []struct {
		format   string
		wantText bool
	}{
		{"", false},
		{"json", false},
		{"text", true},
		{" TEXT ", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Setenv("LOG_FORMAT", tt.format)
			_, isText := NewLogger().Handler().(*slog.TextHandler)
			assert.Equal(t, tt.wantText, isText)
		})
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "feedview.log")

	logger, closeFn, err := NewFileLogger(path)
	require.NoError(t, err)
	logger.Info("feed refreshed", slog.Int("items", 6))
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"feed refreshed"`)
	assert.Contains(t, string(data), `"items":6`)
}

func TestNewFileLogger_EmptyPathDiscards(t *testing.T) {
	logger, closeFn, err := NewFileLogger("  ")
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Error("dropped")
	assert.NoError(t, closeFn())
}

func TestNewFileLogger_Unwritable(t *testing.T) {
	dir := t.TempDir()
	_, _, err := NewFileLogger(dir)
	assert.Error(t, err)
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := NewJSONLogger(&buf, slog.LevelInfo)

	ctx := requestid.WithRequestID(context.Background(), "req-123")
	WithRequestID(ctx, base).Info("processing")

	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.NotContains(t, buf.String(), "trace_id")
}

func TestWithRequestID_TraceID(t *testing.T) {
	var buf bytes.Buffer
	base := NewJSONLogger(&buf, slog.LevelInfo)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	WithRequestID(ctx, base).Info("traced")

	assert.Contains(t, buf.String(), `"trace_id":"`+span.SpanContext().TraceID().String()+`"`)
	assert.NotContains(t, buf.String(), "request_id")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := WithFields(NewJSONLogger(&buf, slog.LevelInfo), map[string]any{
		"component": "feedwatch",
		"items":     3,
	})
	logger.Info("ok")

	assert.Contains(t, buf.String(), `"component":"feedwatch"`)
	assert.Contains(t, buf.String(), `"items":3`)
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	custom := Discard()
	ctx := WithLogger(context.Background(), custom)
	assert.Same(t, custom, FromContext(ctx))
}
