package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigSample(t *testing.T) {
	cfg, err := NewConfig("../../configs/conf.toml")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 8089, cfg.Bridge.CommandPort)
	assert.Equal(t, 8099, cfg.Bridge.LocalPort)
	assert.Equal(t, 2000*time.Millisecond, cfg.Bridge.ScanTimeout.Duration)
	assert.Equal(t, 100*time.Millisecond, cfg.Bridge.CommandTimeout.Duration)
	assert.Equal(t, 8099, cfg.Directory.Port)
	assert.Equal(t, 0, cfg.Directory.LocalPort)
	assert.True(t, strings.HasPrefix(cfg.MQTT.ClientID, "showbridge-"))
}

func TestNewConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.toml")
	require.NoError(t, os.WriteFile(path, []byte("[Directory]\nhost = \"10.0.0.5\"\n"), 0o600))

	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", cfg.Directory.Host)
	assert.Equal(t, 8099, cfg.Directory.Port)
	assert.Equal(t, time.Second, cfg.Directory.Timeout.Duration)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestNewConfigEmptyPath(t *testing.T) {
	cfg, err := NewConfig("")
	require.NoError(t, err)
	assert.Equal(t, Default().Bridge, cfg.Bridge)
}

func TestNewConfigBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.toml")
	require.NoError(t, os.WriteFile(path, []byte("[Bridge]\nscan-timeout = \"soon\"\n"), 0o600))

	_, err := NewConfig(path)
	require.Error(t, err)
}

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}
