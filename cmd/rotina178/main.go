// Package main provides the rotina178 binary entry point.
// rotina178 serves the SAAM Rotina 1.7.8 fiscal report tools to an agent over MCP
// stdio, and exposes the same tools as CLI commands.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

const appName = "rotina178"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every command. Non-empty values
// override the loaded configuration.
type globalOptions struct {
	configPath  string
	logLevel    string
	logFile     string
	metricsAddr string
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "SAAM Rotina 1.7.8 fiscal report tool server",
		Long: `rotina178 exposes the SAAM Rotina 1.7.8 reporting API as agent tools.

Without a subcommand it serves the tools over MCP on stdio. The gerar, extrair and
listar commands run the same tools once and print the answer.

Configuration is read from --config (or rotina178.yaml in the working directory)
and overridden by API_BASE_URL and ROTINA178_* environment variables.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFile, "log-file", "", `Log file ("-" for stderr)`)
	pf.StringVar(&opts.metricsAddr, "metrics-addr", "", "Listen address for Prometheus /metrics (empty disables)")

	cmd.AddCommand(
		serveCmd(opts),
		generateCmd(opts),
		extractCmd(opts),
		listCmd(opts),
		instructionsCmd(opts),
		configCmd(opts),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, version)
		},
	}
}
