package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "dealsource.db", cfg.Store.SQLitePath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.HaikuModel)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.SonnetModel)
	assert.Equal(t, 4096, cfg.Anthropic.MaxTokens)
	assert.Equal(t, 3, cfg.Fetch.DelayMinSecs)
	assert.Equal(t, 8, cfg.Fetch.DelayMaxSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, 60, cfg.Fetch.PageTimeoutSecs)
	assert.Equal(t, 10, cfg.Fetch.RateLimitBaseSec)
	assert.Equal(t, 30, cfg.Fetch.FailureBaseSecs)
	assert.Equal(t, "url_status.csv", cfg.Pipeline.StatusPath)
	assert.Equal(t, 10, cfg.Pipeline.URLDelayMinSecs)
	assert.Equal(t, 20, cfg.Pipeline.URLDelayMaxSecs)
	assert.Equal(t, 1500, cfg.Pipeline.ClassifyMaxChars)
	assert.Equal(t, "https://api-v2.forager.ai/api/datastorage/autocomplete/organizations/", cfg.Forager.BaseURL)
	assert.Equal(t, "deals.csv", cfg.Export.CSVPath)
	assert.Equal(t, "deals.json", cfg.Export.JSONPath)
	assert.Empty(t, cfg.Export.XLSXPath)
	assert.Equal(t, 30, cfg.Feeds.TimeoutSecs)
	assert.Equal(t, 4, cfg.Feeds.Concurrency)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/dealsource
log:
  level: debug
  format: console
pipeline:
  url_delay_min_secs: 1
  url_delay_max_secs: 2
feeds:
  sources:
    - name: prnewswire
      url: https://www.prnewswire.com/rss/news-releases-list.rss
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/dealsource", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 1, cfg.Pipeline.URLDelayMinSecs)
	assert.Equal(t, 2, cfg.Pipeline.URLDelayMaxSecs)
	require.Len(t, cfg.Feeds.Sources, 1)
	assert.Equal(t, "prnewswire", cfg.Feeds.Sources[0].Name)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("DEALSOURCE_STORE_DRIVER", "postgres")
	t.Setenv("DEALSOURCE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("DEALSOURCE_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
