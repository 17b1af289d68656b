package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 180*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "mcp-rotina178-server/1.0", cfg.Backend.UserAgent)
	assert.Equal(t, 3, cfg.Store.Parts)
	assert.Equal(t, 100000, cfg.Store.DefaultLimit)
	assert.Equal(t, "*.json", cfg.Store.Pattern)
	assert.Equal(t, DefaultListTimeout, cfg.Tools.ListTimeout)
	assert.Equal(t, "relatorios_json", filepath.Base(cfg.Store.Dir))
	assert.Empty(t, cfg.Backend.BaseURL)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotina178.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  base_url: http://saam.local:8080
  timeout: 90s
store:
  dir: /var/lib/rotina178
  parts: 5
tools:
  timeout: 2m
  list_timeout: 15s
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://saam.local:8080", cfg.Backend.BaseURL)
	assert.Equal(t, 90*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "/var/lib/rotina178", cfg.Store.Dir)
	assert.Equal(t, 5, cfg.Store.Parts)
	assert.Equal(t, 2*time.Minute, cfg.Tools.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Tools.ListTimeout)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, DefaultUserAgent, cfg.Backend.UserAgent)
	assert.Equal(t, DefaultLimit, cfg.Store.DefaultLimit)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0o644))
	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Backend.BaseURL = "https://api.example.com"
	cfg.Store.Parts = 4
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"relative base url", func(c *Config) { c.Backend.BaseURL = "saam.local" }, "base_url"},
		{"zero timeout", func(c *Config) { c.Backend.Timeout = 0 }, "backend.timeout"},
		{"no store dir", func(c *Config) { c.Store.Dir = "" }, "store.dir"},
		{"zero parts", func(c *Config) { c.Store.Parts = 0 }, "store.parts"},
		{"no pattern", func(c *Config) { c.Store.Pattern = "" }, "store.pattern"},
		{"zero limit", func(c *Config) { c.Store.DefaultLimit = 0 }, "store.default_limit"},
		{"tool timeout too short", func(c *Config) { c.Tools.Timeout = time.Minute }, "tools.timeout"},
		{"negative list timeout", func(c *Config) { c.Tools.ListTimeout = -time.Second }, "tools.list_timeout"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoader_Precedence(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(ProjectConfigFile, []byte(`
backend:
  base_url: http://from-file:8080
log:
  level: debug
`), 0o644))
	t.Setenv(EnvBaseURL, "http://from-env:9090")
	t.Setenv(EnvStoreDir, "/tmp/relatorios")

	cfg, err := NewLoader(nil).Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:9090", cfg.Backend.BaseURL, "env beats file")
	assert.Equal(t, "/tmp/relatorios", cfg.Store.Dir)
	assert.Equal(t, "debug", cfg.Log.Level, "file beats defaults")
}

func TestLoader_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvBaseURL, "")
	cfg, err := NewLoader(nil).Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Backend.BaseURL)
	assert.Equal(t, DefaultParts, cfg.Store.Parts)
}

func TestLoader_ExplicitPathMissing(t *testing.T) {
	_, err := NewLoader(nil).Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoader_InvalidEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvLogLevel, "loud")
	_, err := NewLoader(nil).Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

