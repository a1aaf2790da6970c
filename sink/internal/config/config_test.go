package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
nats:
  url: nats://localhost:4222
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "CHANGE_EVENTS", cfg.Consumer.Stream)
	assert.Equal(t, "sink-workers", cfg.Consumer.Name)
	assert.Equal(t, 10, cfg.Consumer.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.Consumer.RestartDelay)
	assert.False(t, cfg.OpenSearch.Enabled)
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestLoad_MissingNATSURL(t *testing.T) {
	path := writeConfig(t, `
consumer:
  batch_size: 5
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nats.url")
}

func TestLoad_BatchSizeBounds(t *testing.T) {
	path := writeConfig(t, `
nats:
  url: nats://localhost:4222
consumer:
  batch_size: 11
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_size")

	path = writeConfig(t, `
nats:
  url: nats://localhost:4222
consumer:
  batch_size: 0
`)
	_, err = Load(path)
	require.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SINK_NATS_URL", "nats://queue:4222")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "nats://queue:4222", cfg.NATS.URL)
}
