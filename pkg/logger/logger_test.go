package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bptree.log")

	log, err := New(Config{Level: "debug", Format: "json", OutputFile: path})
	require.NoError(t, err)
	log.Debug("split leaf")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &record))
	require.Equal(t, "split leaf", record["msg"])
	require.Equal(t, "DEBUG", record["level"])
	require.Equal(t, "bptree", record["service"])
}

func TestNew_LevelFiltersAndFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bptree.log")

	log, err := New(Config{Level: "not-a-level", OutputFile: path, Service: "stress"})
	require.NoError(t, err)
	log.Debug("hidden")
	log.Info("shown")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "hidden")
	require.Contains(t, string(data), "shown")
	require.Contains(t, string(data), `"service":"stress"`)
}

func TestNew_BadOutputFile(t *testing.T) {
	_, err := New(Config{OutputFile: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	require.Error(t, err)
}

func TestNewWithLevel_ChangesAtRuntime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bptree.log")

	log, level, err := NewWithLevel(Config{Level: "warn", OutputFile: path})
	require.NoError(t, err)
	require.Equal(t, zapcore.WarnLevel, level.Level())

	log.Info("before")
	level.SetLevel(zapcore.DebugLevel)
	log.Debug("after")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "before")
	require.Contains(t, string(data), "after")
}
