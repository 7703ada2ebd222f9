package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/trail-guide/internal/models"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.APIURL)
	assert.Equal(t, models.UnitsImperial, cfg.Units)
	assert.Equal(t, "sqlite", cfg.Queue.Backend)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "queue.db"), cfg.Queue.Path)
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("TRAILGUIDE_TOKEN", "abc.def.ghi")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://trailguide.example.com
token: ${TRAILGUIDE_TOKEN}
units: metric
contacts:
  - name: Sam
    phone: 970-555-0101
queue:
  backend: redis
  redis_addr: localhost:6379
`), 0o600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", cfg.Token)
	assert.Equal(t, models.UnitsMetric, cfg.Units)
	require.Len(t, cfg.Contacts, 1)
	assert.Equal(t, "970-555-0101", cfg.Contacts[0].Phone)
	assert.Equal(t, "redis", cfg.Queue.Backend)
}

func TestLoadConfigValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("units: furlongs\n"), 0o600))
	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig(path)
	cfg.Token = "tok"
	require.NoError(t, saveConfig(path, cfg))

	loaded, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "tok", loaded.Token)
}
