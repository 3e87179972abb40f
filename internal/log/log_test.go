package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer, level slog.Level) *Logger {
	return New(Config{Level: level, Format: "json", Component: ComponentApp, Output: buf})
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &rec))
	return rec
}

func TestLogger_ComponentIsAttached(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, slog.LevelInfo).WithComponent(ComponentLedger)

	logger.Info("hello", FieldOwnerID, "alice")

	rec := lastRecord(t, &buf)
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, ComponentLedger, rec[FieldComponent])
	assert.Equal(t, "alice", rec[FieldOwnerID])
	assert.Equal(t, ComponentLedger, logger.Component())
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, slog.LevelWarn)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Equal(t, "WARN", lastRecord(t, &buf)["level"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLevelForStatus(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, LevelForStatus(204))
	assert.Equal(t, slog.LevelWarn, LevelForStatus(404))
	assert.Equal(t, slog.LevelError, LevelForStatus(503))
}

func TestFromContext(t *testing.T) {
	fallback := FromContext(context.Background())
	require.NotNil(t, fallback)
	assert.Equal(t, "unknown", fallback.Component())

	logger := Discard().WithComponent(ComponentHTTP)
	ctx := NewContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}

func TestStructuredLogger_HTTPEnd(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(jsonLogger(&buf, slog.LevelDebug))
	req := httptest.NewRequest("GET", "/api/accounts?x=1", nil)

	sl.LogHTTPEnd(context.Background(), req, "req_1", 404, 12, "10.0.0.1")

	rec := lastRecord(t, &buf)
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, ComponentHTTP, rec[FieldComponent])
	assert.Equal(t, "/api/accounts", rec[FieldPath])
	assert.Equal(t, "x=1", rec[FieldQuery])
	assert.Equal(t, float64(404), rec[FieldStatusCode])
	assert.Equal(t, false, rec[FieldSuccess])
	assert.Equal(t, "req_1", rec[FieldRequestID])
}

func TestStructuredLogger_LogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(jsonLogger(&buf, slog.LevelInfo))

	sl.LogError(context.Background(), "boom", errors.New("db down"), ComponentStorage, OpList, NewFields().WithOwner("alice"))

	rec := lastRecord(t, &buf)
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, ComponentStorage, rec[FieldComponent])
	assert.Equal(t, "db down", rec[FieldError])
	assert.Equal(t, OpList, rec[FieldOperation])
	assert.Equal(t, "alice", rec[FieldOwnerID])
}

func TestLogFields_ToSliceDropsComponent(t *testing.T) {
	s := NewFields().WithComponent("x").WithCount(2).ToSlice()
	assert.Equal(t, []any{FieldCount, 2}, s)
}
