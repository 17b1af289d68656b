// Package config provides configuration loading for the rotina178 tool server.
//
// Configuration is fixed at process start and handed to constructors by value; no
// package reads ambient global state after Load returns.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults shared with the packages that consume the configuration.
const (
	DefaultBackendTimeout = 180 * time.Second
	DefaultListTimeout    = 60 * time.Second
	DefaultUserAgent      = "mcp-rotina178-server/1.0"
	DefaultParts          = 3
	DefaultPattern        = "*.json"
	DefaultLimit          = 100_000
	DefaultLogFile        = "mcp_rotina178.log"
	storeDirName          = "relatorios_json"
)

// Config represents the complete server configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Store   StoreConfig   `yaml:"store"`
	Tools   ToolsConfig   `yaml:"tools"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// BackendConfig configures the reporting API client.
type BackendConfig struct {
	// BaseURL is prefixed to every endpoint (env API_BASE_URL). Empty is allowed;
	// requests then fail as transport errors.
	BaseURL string `yaml:"base_url"`
	// Timeout bounds a single request (default 180s).
	Timeout time.Duration `yaml:"timeout"`
	// UserAgent is the client signature sent with every request.
	UserAgent string `yaml:"user_agent"`
}

// StoreConfig configures the chunked report store.
type StoreConfig struct {
	// Dir holds every persisted chunk (default: relatorios_json next to the executable).
	Dir string `yaml:"dir"`
	// Parts is the number of chunks a report is split into.
	Parts int `yaml:"parts"`
	// Pattern selects the files concatenated by the extractor.
	Pattern string `yaml:"pattern"`
	// DefaultLimit is the extraction window size when the caller gives none.
	DefaultLimit int `yaml:"default_limit"`
}

// ToolsConfig configures tool execution.
type ToolsConfig struct {
	// Timeout bounds one tool call; it must exceed the backend timeout.
	Timeout time.Duration `yaml:"timeout"`
	// ListTimeout bounds the listing tools, which answer much faster than report
	// generation (0 = use Timeout).
	ListTimeout time.Duration `yaml:"list_timeout"`
	// MaxConcurrency bounds in-flight tool calls (0 = unlimited).
	MaxConcurrency int `yaml:"max_concurrency"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// File receives the log; "-" selects stderr. Stdout is reserved for MCP.
	File string `yaml:"file"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables the endpoint.
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the built-in configuration, used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Timeout:   DefaultBackendTimeout,
			UserAgent: DefaultUserAgent,
		},
		Store: StoreConfig{
			Dir:          DefaultStoreDir(),
			Parts:        DefaultParts,
			Pattern:      DefaultPattern,
			DefaultLimit: DefaultLimit,
		},
		Tools: ToolsConfig{
			Timeout:        DefaultBackendTimeout + 20*time.Second,
			ListTimeout:    DefaultListTimeout,
			MaxConcurrency: 1,
		},
		Log: LogConfig{
			Level: "info",
			File:  DefaultLogFile,
		},
	}
}

// DefaultStoreDir returns relatorios_json next to the running executable, or relative
// to the working directory when the executable path is unknown.
func DefaultStoreDir() string {
	exe, err := os.Executable()
	if err != nil {
		return storeDirName
	}
	return filepath.Join(filepath.Dir(exe), storeDirName)
}

// LoadFromFile decodes a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML, creating parent directories.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Backend.BaseURL != "" {
		u, err := url.Parse(c.Backend.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("backend.base_url must be an absolute http(s) URL, got %q", c.Backend.BaseURL)
		}
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}
	if c.Store.Dir == "" {
		return fmt.Errorf("store.dir is required")
	}
	if c.Store.Parts < 1 {
		return fmt.Errorf("store.parts must be at least 1, got %d", c.Store.Parts)
	}
	if c.Store.Pattern == "" {
		return fmt.Errorf("store.pattern is required")
	}
	if c.Store.DefaultLimit < 1 {
		return fmt.Errorf("store.default_limit must be at least 1, got %d", c.Store.DefaultLimit)
	}
	if c.Tools.Timeout > 0 && c.Tools.Timeout <= c.Backend.Timeout {
		return fmt.Errorf("tools.timeout (%s) must exceed backend.timeout (%s)", c.Tools.Timeout, c.Backend.Timeout)
	}
	if c.Tools.ListTimeout < 0 {
		return fmt.Errorf("tools.list_timeout must not be negative, got %s", c.Tools.ListTimeout)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	return nil
}
