// Package commands implements the gitbuildnumber CLI commands.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/gitbuildnumber/internal/config"
)

var (
	// configPath is the optional YAML configuration file.
	configPath string

	// logLevel and logFormat override log.level and log.format when set.
	logLevel  string
	logFormat string
)

// rootCmd is the top-level cobra command for gitbuildnumber.
var rootCmd = &cobra.Command{
	Use:   "gitbuildnumber",
	Short: "Publish git metadata as build properties",
	Long: "gitbuildnumber reads revision, branch, tag and commit count from the enclosing git " +
		"repository and prints them as build properties, with an optional JavaScript " +
		"expression for the composite buildnumber.",
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"log format: text, json")

	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration and applies the persistent flag
// overrides on top of file and environment values.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}

	return cfg, nil
}

// newLogger creates a structured logger writing to w. Logs go to stderr so
// stdout carries only the resolved properties.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.Level)}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
