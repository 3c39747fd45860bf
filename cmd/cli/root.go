package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"zweigbib/internal/bibliography"
	"zweigbib/internal/source"
	"zweigbib/pkg/utils"
)

const defaultServerURL = "http://localhost:8080"

var (
	cfgFile   string
	sourceArg string
	serverURL string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "zweigbib",
	Short: "Browse the Stefan Zweig bibliography from the terminal",
	Long: `zweigbib loads the bibliography dataset and browses it with the same
navigation tokens the web client uses.

Examples:
  zweigbib browse                                   # interactive browser
  zweigbib search schach --language German          # filtered search
  zweigbib show 1234                                # one entry
  zweigbib route '#view=list&filter=category&id=Novellas'
  zweigbib reload --server http://localhost:8080    # reload a running server`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.zweigbib/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&sourceArg, "source", "", "dataset source: file path, http(s) URL or sqlite:<path> (default from config)",
	)
	rootCmd.PersistentFlags().StringVar(
		&serverURL, "server", defaultServerURL, "API server URL for remote commands",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "log load progress to stderr",
	)
}

// loadConfig applies the --source override.
func loadConfig() (utils.Config, error) {
	cfg, err := utils.LoadConfig(cfgFile)
	if err != nil {
		return utils.Config{}, err
	}
	if sourceArg != "" {
		cfg.Source = sourceArg
	}
	return cfg, nil
}

func newLogger(cfg utils.Config, w io.Writer) *slog.Logger {
	level := "warn"
	if verbose {
		level = cfg.LogLevel
	}
	return utils.NewLogger(w, level, cfg.LogFormat)
}

func newStore(cfg utils.Config) *bibliography.Store {
	return bibliography.NewStore(source.NewMux(cfg.FetchTimeout, cfg.FetchAttempts), newLogger(cfg, os.Stderr))
}

// openStore loads the configured source.
func openStore(ctx context.Context) (*bibliography.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store := newStore(cfg)
	if err := store.Load(ctx, cfg.Source); err != nil {
		return nil, err
	}
	return store, nil
}
