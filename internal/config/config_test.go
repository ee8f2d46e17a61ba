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
	assert.Equal(t, "floodwatch.db", cfg.Store.SQLitePath)
	assert.Equal(t, "https://data.cityofnewyork.us", cfg.Socrata.BaseURL)
	assert.Equal(t, "erm2-nwe9", cfg.Socrata.DatasetID)
	assert.Equal(t, 50000, cfg.Socrata.PageSize)
	assert.Equal(t, 2019, cfg.Filter.Year)
	assert.Equal(t, DefaultKeywords, cfg.Filter.Keywords)
	assert.Equal(t, "data", cfg.Pipeline.DataDir)
	assert.Equal(t, "figures", cfg.Pipeline.FiguresDir)
	assert.Equal(t, "results", cfg.Pipeline.ResultsDir)
	assert.Equal(t, "maps", cfg.Pipeline.MapsDir)
	assert.Equal(t, 60, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, 5000, cfg.Render.MaxPoints)
	assert.Equal(t, "ylorrd", cfg.Render.ColorScheme)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/floodwatch
filter:
  year: 2020
  keywords:
    - flood
    - sewer
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/floodwatch", cfg.Store.DatabaseURL)
	assert.Equal(t, 2020, cfg.Filter.Year)
	assert.Equal(t, []string{"flood", "sewer"}, cfg.Filter.Keywords)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [not a map"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))

	err := InitLogger(LogConfig{Level: "not-a-level", Format: "json"})
	assert.Error(t, err)
}
