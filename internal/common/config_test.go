package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_URL", "postgres://ledger@localhost/ledger")
	t.Setenv("INGEST_WORKERS", "8")
	t.Setenv("OCR_ARGS", "--format json")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres://ledger@localhost/ledger", cfg.Database.DSN)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, 30*time.Minute, cfg.Database.MaxConnLifetime)
	assert.Equal(t, 8, cfg.Ingest.Workers)
	assert.Equal(t, "EUR", cfg.Ingest.DefaultCurrency)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, []string{"--format", "json"}, cfg.OCR.Args)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  inmem: true
storage:
  backend: s3
  region: eu-west-1
  endpoint: http://localhost:9000
  path_style: true
ingest:
  bucket: scans
  default_currency: RON
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Database.InMemory)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.True(t, cfg.Storage.PathStyle)
	assert.Equal(t, "scans", cfg.Ingest.Bucket)
	assert.Equal(t, "RON", cfg.Ingest.DefaultCurrency)
	assert.Equal(t, 2, cfg.Ingest.Workers)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := LoadConfig()
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{DSN: "postgres://x"},
			Storage:  StorageConfig{Backend: "local", LocalRoot: "./data"},
			Ingest:   IngestConfig{DefaultCurrency: "EUR", Workers: 1},
			Server:   ServerConfig{GRPCAddr: ":8080"},
		}
	}
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "no database", mutate: func(c *Config) { c.Database.DSN = "" }},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "gcs" }},
		{name: "local without root", mutate: func(c *Config) { c.Storage.LocalRoot = "" }},
		{name: "s3 without region", mutate: func(c *Config) { c.Storage.Backend = "s3" }},
		{name: "bad currency", mutate: func(c *Config) { c.Ingest.DefaultCurrency = "EURO" }},
		{name: "no workers", mutate: func(c *Config) { c.Ingest.Workers = 0 }},
		{name: "no grpc addr", mutate: func(c *Config) { c.Server.GRPCAddr = "" }},
	}

	base := valid()
	require.NoError(t, base.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
