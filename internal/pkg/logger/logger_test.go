package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.Info("command verified", map[string]interface{}{"command": "kubectl get pods", "accepted": true})
	log.Error("store failed", errors.New("disk full"), nil)

	require.Equal(t, 2, logs.Len())
	first := logs.All()[0]
	assert.Equal(t, "command verified", first.Message)
	assert.Equal(t, "kubectl get pods", first.ContextMap()["command"])
	assert.Equal(t, true, first.ContextMap()["accepted"])

	second := logs.All()[1]
	assert.Equal(t, zapcore.ErrorLevel, second.Level)
	assert.Equal(t, "disk full", second.ContextMap()["error"])
}

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "kubeask.log")
	log, err := New(Options{Level: "debug", File: path})
	require.NoError(t, err)

	log.Debug("hello", map[string]interface{}{"k": "v"})
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"message":"hello"`), string(data))
	assert.Contains(t, string(data), `"level":"debug"`)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNewWithoutSinksIsNop(t *testing.T) {
	log, err := New(Options{})
	require.NoError(t, err)
	log.Info("ignored", nil)
}
