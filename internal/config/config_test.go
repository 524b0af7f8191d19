package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "https://localhost:9200", cfg.OpenSearch.URL)
	assert.Equal(t, "faultline", cfg.OpenSearch.IndexPrefix)
	assert.Equal(t, int64(1048576), cfg.Relay.MaxEnvelopeSize)
	assert.Equal(t, time.Hour, cfg.Consumer.ClaimTTL)
	assert.Equal(t, 30*time.Second, cfg.Consumer.AckWait)
	assert.Equal(t, 3, cfg.Consumer.MaxDeliver)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9001
nats:
  url: nats://queue:4222
consumer:
  claim_ttl: 2h
  max_deliver: 5
logging:
  level: debug
  format: text
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "nats://queue:4222", cfg.NATS.URL)
	assert.Equal(t, 2*time.Hour, cfg.Consumer.ClaimTTL)
	assert.Equal(t, 5, cfg.Consumer.MaxDeliver)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)

	// Untouched sections keep their defaults.
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
