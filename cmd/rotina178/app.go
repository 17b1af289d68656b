package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/saam-fiscal/rotina178/internal/backend"
	"github.com/saam-fiscal/rotina178/internal/config"
	"github.com/saam-fiscal/rotina178/internal/metrics"
	"github.com/saam-fiscal/rotina178/internal/report"
	"github.com/saam-fiscal/rotina178/internal/tool"
	"github.com/saam-fiscal/rotina178/internal/tools"
)

// app is the wired object graph shared by every command.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	registry *tool.Registry
	closeLog func() error
}

func newApp(opts *globalOptions) (*app, error) {
	bootstrap := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg, err := config.NewLoader(bootstrap).Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	client := backend.NewClient(cfg.Backend)
	store := report.NewStore(cfg.Store)
	generator := report.NewGenerator(client, store,
		report.WithLogger(logger),
		report.WithRequestTimeout(cfg.Backend.Timeout),
		report.WithObserver(m.ObserveReport),
	)
	extractor := report.NewExtractor(store, report.WithDefaultLimit(cfg.Store.DefaultLimit))
	svc := tools.NewService(client, generator, extractor,
		tools.WithLogger(logger),
		tools.WithExtractObserver(m.ObserveExtraction),
		tools.WithListTimeout(cfg.Tools.ListTimeout),
	)

	registry := tool.NewRegistry(
		tool.WithDefaultTimeout(cfg.Tools.Timeout),
		tool.WithMaxConcurrency(cfg.Tools.MaxConcurrency),
		tool.WithRecoverPanics(true),
		tool.WithOnBeforeExecute(func(_ context.Context, call tool.Call) {
			logger.Debug("Tool call received", slog.String("call_id", call.ID), slog.String("tool", call.ToolName))
		}),
		tool.WithOnAfterExecute(m.ObserveToolCall),
	)
	// Recovery sits inside logging so a panicking tool still gets its "tool error" line.
	registry.Use(tool.WithLogging(logger), tool.WithRecovery())
	if err := tools.Register(registry, svc); err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("register tools: %w", err)
	}

	logger.Debug("Configuration loaded",
		slog.String("base_url", cfg.Backend.BaseURL),
		slog.String("store_dir", store.Dir()),
		slog.Int("parts", store.Parts()))

	return &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		registry: registry,
		closeLog: closeLog,
	}, nil
}

func applyFlags(cfg *config.Config, opts *globalOptions) {
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFile != "" {
		cfg.Log.File = opts.logFile
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Addr = opts.metricsAddr
	}
}

// newLogger builds the process logger. Stdout carries the MCP protocol, so logs go
// to the configured file or, with "-", to stderr.
func newLogger(cfg config.LogConfig) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var w io.Writer = os.Stderr
	closeFn := func() error { return nil }
	if cfg.File != "" && cfg.File != "-" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = f.Close
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, closeFn, nil
}
