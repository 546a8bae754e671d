package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherine-k/infusion/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
scan:
  devicePath: /mnt/pump/history.bin
  interval: 1s
  timeout: 5s
upload:
  enabled: true
  url: https://platform.example.com/v1/uploads
watchSchedule: "*/15 * * * *"
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/mnt/pump/history.bin", cfg.Scan.DevicePath)
	assert.Equal(t, time.Second, cfg.Scan.Interval)
	assert.Equal(t, 5*time.Second, cfg.Scan.Timeout)
	assert.True(t, cfg.Upload.Enabled)
	assert.Equal(t, config.DefaultUploadTimeout, cfg.Upload.Timeout, "unset upload timeout gets a default")
	assert.Equal(t, "*/15 * * * *", cfg.WatchSchedule)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
scan:
  devicePath: /mnt/pump/history.bin
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultScanInterval, cfg.Scan.Interval)
	assert.Equal(t, config.DefaultScanTimeout, cfg.Scan.Timeout)
	assert.False(t, cfg.Upload.Enabled)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := writeConfig(t, "scan: [not: a: mapping")
	_, err := config.LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadConfig_UploadEnabledWithoutURL(t *testing.T) {
	path := writeConfig(t, `
upload:
  enabled: true
`)
	_, err := config.LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload.url is required")
}

func TestLoadConfig_BadWatchSchedule(t *testing.T) {
	path := writeConfig(t, `
watchSchedule: "every full moon"
`)
	_, err := config.LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watchSchedule")
}

func TestLoadConfig_NegativeInterval(t *testing.T) {
	path := writeConfig(t, `
scan:
  interval: -1s
`)
	_, err := config.LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan.interval")
}
