package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bptree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 4, cfg.Index.NodeCapacity)
	require.Equal(t, 1000, cfg.Stress.Inserts)
	require.Equal(t, int64(10000), cfg.Stress.KeyMax)
	require.NoError(t, cfg.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
  format: json
telemetry:
  enabled: true
  prometheus_port: 9100
index:
  node_capacity: 8
stress:
  delete_ratio: 0.25
  rate_per_second: 500
  seed: 7
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Logger.Level)
	require.Equal(t, "json", cfg.Logger.Format)
	require.Equal(t, "stderr", cfg.Logger.OutputFile, "unset fields keep their default")
	require.True(t, cfg.Telemetry.Enabled)
	require.Equal(t, 9100, cfg.Telemetry.PrometheusPort)
	require.Equal(t, "bptree", cfg.Telemetry.ServiceName)
	require.Equal(t, 8, cfg.Index.NodeCapacity)
	require.Equal(t, 0.25, cfg.Stress.DeleteRatio)
	require.Equal(t, 500.0, cfg.Stress.RatePerSecond)
	require.Equal(t, uint64(7), cfg.Stress.Seed)
	require.Equal(t, DefaultInserts, cfg.Stress.Inserts)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "index: [not, a, map]"))
	require.ErrorContains(t, err, "failed to parse config")

	_, err = Load(writeConfig(t, "index:\n  node_capacity: 1\nstress:\n  delete_ratio: 2\n  key_max: 0\n"))
	require.ErrorIs(t, err, ErrInvalidCapacity)
	require.ErrorIs(t, err, ErrInvalidDeleteRatio)
	require.ErrorIs(t, err, ErrInvalidKeyMax)
}
