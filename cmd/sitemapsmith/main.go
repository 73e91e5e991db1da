package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amosWeiskopf/sitemapsmith/internal/config"
	"github.com/amosWeiskopf/sitemapsmith/internal/logging"
	"github.com/amosWeiskopf/sitemapsmith/internal/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitemapsmith",
		Short: "SitemapSmith - crawl a website and generate its sitemap",
		Long: `SitemapSmith crawls a single website from its root URL, respecting
robots.txt, and writes a sitemap that ranks every page it found.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().String("config", "", "Config file path")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHistoryCmd())
	return cmd
}

// loadConfig reads the --config file and applies --verbose.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, sinks ...io.Writer) (*slog.Logger, func() error, error) {
	logger, closeFn, err := logging.New(cfg.Logging, sinks...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return logger, closeFn, nil
}

// openHistory opens the history database, or returns nil when it is disabled
// or unavailable. History is never required to generate a sitemap.
func openHistory(cfg *config.Config, logger *slog.Logger) *store.Store {
	if cfg.Storage.Path == "" {
		return nil
	}
	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		logger.Warn("sitemap history disabled", "path", cfg.Storage.Path, "error", err)
		return nil
	}
	return st
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
