package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DSN", "file::memory:")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "/media/", cfg.MediaURL)
	assert.Equal(t, int64(10<<20), cfg.MaxEmbedBytes)
	assert.Equal(t, "filesystem", cfg.Storage.Adapter)
	assert.True(t, cfg.AutoMigrate)
}

func TestLoadMissingDSN(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DSN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN is not set")
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vulnsphere.yaml")
	yml := `
db_driver: sqlite
db_dsn: file:test.db
server_port: "9000"
storage:
  adapter: s3
  timeout: 5s
  s3:
    bucket: reports
    region: eu-west-1
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_DSN", "")
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("DB_AUTO_MIGRATE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file:test.db", cfg.DBDSN)
	assert.Equal(t, "9100", cfg.ServerPort, "env wins over file")
	assert.Equal(t, "s3", cfg.Storage.Adapter)
	assert.Equal(t, "reports", cfg.Storage.S3.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Storage.S3.Region)
	assert.Equal(t, 5*time.Second, cfg.Storage.Timeout)
	assert.False(t, cfg.AutoMigrate)
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	cfg.DBDSN = "x"
	cfg.DBDriver = "mysql"
	cfg.Storage.Adapter = "s3"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported DB_DRIVER "mysql"`)
	assert.Contains(t, err.Error(), "S3_BUCKET is required")
}
