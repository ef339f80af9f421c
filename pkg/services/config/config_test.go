package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidYAML_PopulatesAllFields(t *testing.T) {
	// Given
	dir := t.TempDir()
	path := filepath.Join(dir, "valid.yaml")
	content := `variant: landscape
variants_file: variants.ini
log_level: debug
snapshot_db: /tmp/atlas.duckdb
refresh:
  interval: 15m
  snapshot: nightly
server:
  host: 0.0.0.0
  port: "9090"
  cors_origins:
    - https://dashboards.example.com
dataset:
  source: sql
  status_file: status.json
  sql:
    driver: snowflake
    profile: snowflake.yaml
    query: SELECT * FROM book_of_business`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// When
	cfg, err := LoadConfig(path)

	// Then
	require.NoError(t, err)
	assert.Equal(t, "landscape", cfg.Variant)
	assert.Equal(t, "variants.ini", cfg.VariantsFile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/atlas.duckdb", cfg.SnapshotDB)
	assert.Equal(t, 15*time.Minute, cfg.Refresh.Interval)
	assert.Equal(t, "nightly", cfg.Refresh.Snapshot)
	assert.Equal(t, "0.0.0.0:9090", cfg.Address())
	assert.Equal(t, []string{"https://dashboards.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "sql", cfg.Dataset.Source)
	assert.Equal(t, "status.json", cfg.Dataset.StatusFile)
	assert.Equal(t, SQLConfig{Driver: "snowflake", Profile: "snowflake.yaml", Query: "SELECT * FROM book_of_business"}, cfg.Dataset.SQL)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")

	require.NoError(t, err)
	assert.Equal(t, VariantBookOfBusiness, cfg.Variant)
	assert.Equal(t, "localhost:8080", cfg.Address())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.Refresh.Interval)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("BOOK_ATLAS_SERVER_PORT", "7000")
	t.Setenv("BOOK_ATLAS_VARIANT", "entitlements")

	cfg, err := LoadConfig("")

	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, VariantEntitlements, cfg.Variant)
}

func TestLoadConfig_InvalidYAML_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [port: bad"), 0o644))

	_, err := LoadConfig(path)

	assert.Error(t, err)
}

func TestLoadConfig_MissingFile_ReturnsError(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
