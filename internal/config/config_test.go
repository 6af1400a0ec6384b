package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.False(t, cfg.IsConfigured())
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Cache.GCTime)
	assert.True(t, cfg.Cache.Persist)
	assert.Equal(t, 30*time.Second, cfg.Polling.UnreadInterval)
	assert.Equal(t, 5*time.Second, cfg.Polling.ChatInterval)
	assert.Empty(t, cfg.Metrics.Listen)
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `api:
  base_url: https://api.example.com
  rate_limit: 5
cache:
  stale_time: 10s
  persist: false
polling:
  unread_interval: 1m
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.True(t, cfg.IsConfigured())
	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5.0, cfg.API.RateLimit)
	assert.Equal(t, 10*time.Second, cfg.Cache.StaleTime)
	assert.False(t, cfg.Cache.Persist)
	assert.Equal(t, time.Minute, cfg.Polling.UnreadInterval)
	// untouched keys keep their defaults
	assert.Equal(t, 5*time.Second, cfg.Polling.ChatInterval)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api:\n  base_url: https://file\n"), 0644))
	t.Setenv("MEDBOOK_API_BASE_URL", "https://env")
	t.Setenv("MEDBOOK_METRICS_LISTEN", "127.0.0.1:9464")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://env", cfg.API.BaseURL)
	assert.Equal(t, "127.0.0.1:9464", cfg.Metrics.Listen)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://saved"
	cfg.Logging.Level = "DEBUG"
	require.NoError(t, SaveTo(dir, cfg))

	loaded, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://saved", loaded.API.BaseURL)
	assert.Equal(t, "DEBUG", loaded.Logging.Level)
	assert.Equal(t, cfg.Cache.GCTime, loaded.Cache.GCTime)
}

func TestMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api: [unclosed"), 0644))

	_, err := LoadFrom(dir)
	assert.Error(t, err)
}
