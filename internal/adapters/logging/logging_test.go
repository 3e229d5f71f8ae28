package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/stepcheck/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopLogger(t *testing.T) {
	t.Parallel()

	logger := NewNopLogger()
	ctx := context.Background()

	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")

	assert.Same(t, logger, logger.With(ports.F("k", "v")))
	assert.Equal(t, ports.LevelInfo, logger.Level())

	logger.SetLevel(ports.LevelError)
	assert.Equal(t, ports.LevelError, logger.Level())
}

func newTestLogger(buf *bytes.Buffer, opts ...ConsoleLoggerOption) *ConsoleLogger {
	base := []ConsoleLoggerOption{
		WithOutput(buf),
		WithLevel(ports.LevelDebug),
		WithTimestamp(false),
	}
	return NewConsoleLogger(append(base, opts...)...)
}

func TestConsoleLogger_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.Info(context.Background(), "file accepted",
		ports.F("field", "Reflux time"),
		ports.F("step", 1),
	)

	assert.Equal(t, "[INFO] file accepted field=\"Reflux time\" step=1\n", buf.String())
}

func TestConsoleLogger_TextWithoutLabel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestLogger(&buf, WithLevelLabel(false))

	logger.Warn(context.Background(), "rejected")

	assert.Equal(t, "rejected\n", buf.String())
}

func TestConsoleLogger_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestLogger(&buf, WithJSONFormat(true))

	logger.Error(context.Background(), "transport failure",
		ports.F("err", errors.New("connection refused")),
		ports.F("status", 0),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "transport failure", entry["msg"])
	assert.Equal(t, "connection refused", entry["err"])
	assert.InDelta(t, 0, entry["status"], 0)
	assert.NotContains(t, entry, "time")
}

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestLogger(&buf, WithLevel(ports.LevelWarn))
	ctx := context.Background()

	logger.Debug(ctx, "hidden debug")
	logger.Info(ctx, "hidden info")
	logger.Warn(ctx, "shown warn")
	logger.Error(ctx, "shown error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warn")
	assert.Contains(t, out, "shown error")
}

func TestConsoleLogger_WithSharesLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	child := logger.With(ports.F("session", "abc"))

	logger.SetLevel(ports.LevelError)
	child.Info(context.Background(), "suppressed")
	assert.Empty(t, buf.String())

	child.Error(context.Background(), "kept", ports.F("field", "x"))
	assert.Equal(t, "[ERROR] kept session=abc field=x\n", buf.String())
	assert.Equal(t, ports.LevelError, child.Level())
}

func TestConsoleLogger_WithDoesNotLeakFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	_ = logger.With(ports.F("child", true))

	logger.Info(context.Background(), "parent")

	assert.False(t, strings.Contains(buf.String(), "child"))
}

func TestConsoleLogger_Color(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestLogger(&buf, WithColor(true))

	logger.Info(context.Background(), "coloured")

	assert.Contains(t, buf.String(), "INFO")
	assert.Contains(t, buf.String(), "coloured")
}
