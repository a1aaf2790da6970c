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

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, `
wikimedia:
  language: en
  stream: recentchange
nats:
  url: nats://localhost:4222
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "en", cfg.Wikimedia.Language)
	assert.Equal(t, "recentchange", cfg.Wikimedia.Stream)
	assert.Equal(t, time.Second, cfg.Backoff.Start)
	assert.Equal(t, time.Second, cfg.Backoff.Increment)
	assert.Equal(t, 30*time.Second, cfg.Backoff.Max)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_DerivedValues(t *testing.T) {
	path := writeConfig(t, `
wikimedia:
  language: de
  stream: recentchange
nats:
  url: nats://localhost:4222
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "de.wikipedia.org", cfg.Origin())
	assert.Equal(t, "https://stream.wikimedia.org/v2/stream/recentchange", cfg.StreamURL())
	assert.Equal(t, "https://stream.wikimedia.org/?spec", cfg.SpecURL())
}

func TestLoad_MissingLanguage(t *testing.T) {
	path := writeConfig(t, `
wikimedia:
  stream: recentchange
nats:
  url: nats://localhost:4222
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wikimedia.language")
}

func TestLoad_MissingStream(t *testing.T) {
	path := writeConfig(t, `
wikimedia:
  language: en
nats:
  url: nats://localhost:4222
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wikimedia.stream")
}

func TestLoad_MissingNATSURL(t *testing.T) {
	path := writeConfig(t, `
wikimedia:
  language: en
  stream: recentchange
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nats.url")
}

func TestLoad_BackoffStartAboveMax(t *testing.T) {
	path := writeConfig(t, `
wikimedia:
  language: en
  stream: recentchange
nats:
  url: nats://localhost:4222
backoff:
  start: 1m
  increment: 1s
  max: 30s
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backoff.start")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RELAY_WIKIMEDIA_LANGUAGE", "fr")
	t.Setenv("RELAY_WIKIMEDIA_STREAM", "recentchange")
	t.Setenv("RELAY_NATS_URL", "nats://queue:4222")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "fr", cfg.Wikimedia.Language)
	assert.Equal(t, "fr.wikipedia.org", cfg.Origin())
	assert.Equal(t, "nats://queue:4222", cfg.NATS.URL)
}
