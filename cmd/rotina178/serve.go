package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/saam-fiscal/rotina178/internal/mcpserver"
	"github.com/saam-fiscal/rotina178/internal/tools"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the tools over MCP on stdio (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *globalOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.closeLog() }()

	srv, err := mcpserver.New(a.registry, version,
		mcpserver.WithLogger(a.logger),
		mcpserver.WithInstructions(tools.UsageText()),
	)
	if err != nil {
		return fmt.Errorf("build mcp server: %w", err)
	}

	if addr := a.cfg.Metrics.Addr; addr != "" {
		stopMetrics := a.serveMetrics(addr)
		defer stopMetrics()
	}

	a.logger.Info("Rotina 1.7.8 MCP server started",
		slog.String("version", version),
		slog.String("store_dir", a.cfg.Store.Dir))

	serveErr := srv.Serve(ctx, os.Stdin, os.Stdout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.registry.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("Tool registry shutdown incomplete", slog.String("error", err.Error()))
	}
	a.logger.Info("Rotina 1.7.8 MCP server stopped")
	return serveErr
}

// serveMetrics starts the /metrics listener and returns its shutdown function.
func (a *app) serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Metrics server failed", slog.String("addr", addr), slog.String("error", err.Error()))
		}
	}()
	a.logger.Info("Metrics endpoint listening", slog.String("addr", addr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = httpSrv.Shutdown(ctx)
	}
}
