// Package main is the entry point for quonitor, a usage and quota monitor
// for AI provider accounts.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/j-veylop/quonitor/internal/config"
	"github.com/j-veylop/quonitor/internal/logger"
	"github.com/j-veylop/quonitor/internal/services"
	"github.com/j-veylop/quonitor/internal/ui/styles"
)

var (
	flagVerbose bool

	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "quonitor",
	Short: "Monitor usage and quota across AI provider accounts",
	Long: `quonitor polls usage APIs for your OpenAI, Anthropic, Google and GitHub
accounts, stores the history locally and alerts you as quotas run low.

Configuration is read from .env files (current directory, then the data
directory) and environment variables such as QUONITOR_DATA_DIR,
QUOTA_REFRESH_INTERVAL and GOOGLE_CLIENT_ID.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log at the configured level instead of warnings only")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.ErrorTextStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// setup loads configuration and initializes logging for every command.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.LogLevel
	if cmd.Name() != serveCmd.Name() && !flagVerbose && cfg.LogFile == "" {
		level = "warn"
	}
	logCloser = logger.Init(logger.Options{Level: level, File: cfg.LogFile})
	return nil
}

// withManager opens the services for the duration of fn.
func withManager(fn func(m *services.Manager) error) error {
	m, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()
	return fn(m)
}
