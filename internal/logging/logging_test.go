package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chriserin/ftrun/internal/config"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LoggingConfig{Level: zapcore.InfoLevel, Format: "json"}, &buf)

	log.Debug("hidden")
	log.Info("run finished", zap.Int("scenarios", 3))
	require.NoError(t, log.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "run finished", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, float64(3), entry["scenarios"])
	assert.Contains(t, entry, "ts")
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LoggingConfig{Level: zapcore.WarnLevel, Format: "console"}, &buf)

	log.Info("hidden")
	log.Warn("slow step", zap.String("step", "a user"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "slow step")
	assert.Contains(t, out, `"step": "a user"`)
}

func TestNewObserved(t *testing.T) {
	log, logs := NewObserved(zapcore.InfoLevel)
	log.Debug("ignored")
	log.Info("kept", zap.String("worker", "2"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "kept", entry.Message)
	assert.Equal(t, "2", entry.ContextMap()["worker"])
}

func TestSync_Buffer(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LoggingConfig{Level: zapcore.InfoLevel, Format: "json"}, &buf)
	assert.NoError(t, Sync(log))
}
