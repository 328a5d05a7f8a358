package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingDefaultFileUsesDefaults(t *testing.T) {
	cfg, err := Load(DefaultConfigPath)
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Contains(t, cfg.DSN, "docspace")
	assert.Equal(t, defaultRedisURL, cfg.RedisURL)
	assert.Equal(t, 8*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval())
	assert.Equal(t, 5*time.Minute, cfg.BuildTimeout())
	assert.Equal(t, defaultIndexerHost, cfg.Indexer.Host)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load("/no/such/config.yml")
	assert.Error(t, err)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
port: 9000
env: production
redis_url: redis://cache:6379/1
jwt_secret: topsecret
session:
  ttl_hours: 2
  sweep_interval_minutes: 1
indexer:
  host: http://meili:7700
  api_key: masterkey
  index_prefix: acme
  build_timeout_seconds: 30
database:
  host: db
  name: acme
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL())
	assert.Equal(t, time.Minute, cfg.SweepInterval())
	assert.Equal(t, 30*time.Second, cfg.BuildTimeout())
	assert.Equal(t, "http://meili:7700", cfg.Indexer.Host)
	assert.Equal(t, "acme", cfg.Indexer.IndexPrefix)
	assert.Contains(t, cfg.DSN, "tcp(db:3306)/acme")
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("port: [oops"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
