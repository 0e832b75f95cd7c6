package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "yahoo", cfg.Provider.Name)
	assert.Equal(t, "raw", cfg.Storage.RawPrefix)
	assert.Equal(t, "refined", cfg.Storage.RefinedPrefix)
	assert.Equal(t, "glue", cfg.Catalog.Backend)
	assert.Equal(t, 8, cfg.Batch.Parallelism)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Trigger.JobName)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
provider:
  name: alpaca
storage:
  bucket: lake-from-file
  raw_prefix: landing
catalog:
  backend: sqlite
  sqlite_path: /tmp/catalog.db
batch:
  parallelism: 3
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("B3QUOTES_S3_BUCKET", "lake-from-env")
	t.Setenv("GLUE_JOB_NAME", "refine-job")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "alpaca", cfg.Provider.Name)
	assert.Equal(t, "lake-from-env", cfg.Storage.Bucket)
	assert.Equal(t, "landing", cfg.Storage.RawPrefix)
	assert.Equal(t, "sqlite", cfg.Catalog.Backend)
	assert.Equal(t, "/tmp/catalog.db", cfg.Catalog.SQLitePath)
	assert.Equal(t, 3, cfg.Batch.Parallelism)
	assert.Equal(t, "refine-job", cfg.Trigger.JobName)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	t.Setenv("APCA_API_KEY_ID", "key")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "key", cfg.Alpaca.APIKey)
}

func TestLoadConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unterminated"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
