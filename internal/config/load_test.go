package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/fusion/internal/config"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fusion.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "strict", cfg.Reader.Unknown)
	assert.Equal(t, "error", cfg.Reader.Duplicates)
	assert.Equal(t, 1000, cfg.Reader.MaxDepth)
	assert.Empty(t, cfg.Schemas.Files)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
reader:
  unknown: strip
  max_depth: 16
schemas:
  files: [a.yaml, b.json]
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "strip", cfg.Reader.Unknown)
	assert.Equal(t, 16, cfg.Reader.MaxDepth)
	assert.Equal(t, []string{"a.yaml", "b.json"}, cfg.Schemas.Files)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "reader:\n  max_depth: 16\n")
	t.Setenv("FUSION_READER_MAX_DEPTH", "8")
	t.Setenv("FUSION_LOG_FORMAT", "json")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Reader.MaxDepth)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeFile(t, "reader:\n  unknown: lenient\n  max_depth: 0\n")

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reader.unknown")
	assert.Contains(t, err.Error(), "reader.max_depth")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
