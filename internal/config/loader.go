package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	// ProjectConfigFile is looked up in the working directory when no path is given.
	ProjectConfigFile = "rotina178.yaml"

	EnvBaseURL  = "API_BASE_URL"
	EnvStoreDir = "ROTINA178_STORE_DIR"
	EnvLogLevel = "ROTINA178_LOG_LEVEL"
	EnvLogFile  = "ROTINA178_LOG_FILE"
)

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. YAML file (path, or rotina178.yaml in the working directory when path is empty)
// 3. Environment variables (API_BASE_URL, ROTINA178_*)
// An explicit path that cannot be read is an error; a missing project file is not.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	switch {
	case path != "":
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		l.logger.Debug("Loaded config", slog.String("path", path))
		cfg = fileCfg
	default:
		if fileCfg, err := LoadFromFile(ProjectConfigFile); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", ProjectConfigFile))
			cfg = fileCfg
		} else if !os.IsNotExist(err) {
			l.logger.Warn("Failed to load project config", slog.String("path", ProjectConfigFile), slog.String("error", err.Error()))
		}
	}

	l.applyEnv(cfg)

	if cfg.Backend.BaseURL == "" {
		l.logger.Warn("Backend base URL is empty; every request will fail", slog.String("env", EnvBaseURL))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvBaseURL); ok {
		cfg.Backend.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvStoreDir); ok && v != "" {
		cfg.Store.Dir = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFile); ok && v != "" {
		cfg.Log.File = v
	}
}
