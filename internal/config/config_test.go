package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
env: local
http_server:
  address: "0.0.0.0:9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTPServer.Address)
	assert.Equal(t, 24*time.Hour, cfg.Presentations.Retention)
	assert.Equal(t, 5, cfg.Presentations.MaxCodeAttempts)
	assert.Equal(t, 5*time.Second, cfg.Presentations.DefaultSlideInterval)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, int64(10), cfg.RateLimit.UploadsPerMinute)
	assert.Empty(t, cfg.Admin.Email)
	assert.Equal(t, "Administrator", cfg.Admin.Name)
}

func TestLoad_OverridesFromFile(t *testing.T) {
	path := writeConfig(t, `
env: production
storage:
  driver: memory
http_server:
  address: "localhost:8081"
presentations:
  retention: 2h
  max_slides: 20
pgsql:
  host: db
  dbname: screens
admin:
  email: ops@example.com
  password: s3cret!
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Presentations.Retention)
	assert.Equal(t, 20, cfg.Presentations.MaxSlides)
	assert.Contains(t, cfg.PGSQL.DSN(), "host=db")
	assert.Contains(t, cfg.PGSQL.DSN(), "dbname=screens")
	assert.Equal(t, "ops@example.com", cfg.Admin.Email)
	assert.Equal(t, "s3cret!", cfg.Admin.Password)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
