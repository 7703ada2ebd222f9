// Package main provides trailctl, a terminal client for the TrailGuide API
// with the same discovery pipeline, favorite toggle and offline SOS queue the
// mobile app uses.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/foxxcyber/trail-guide/internal/client"
	"github.com/foxxcyber/trail-guide/internal/units"
)

// app carries what every subcommand needs once flags are parsed
type app struct {
	configPath string
	cfg        *Config
	api        *client.Client
	prefs      units.DisplayPreferences
	log        *slog.Logger
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	a := &app{}
	var (
		logLevel string
		apiURL   string
		unitFlag string
	)

	cmd := &cobra.Command{
		Use:           "trailctl",
		Short:         "Find Estes Park trails and raise an SOS from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.log = newLogger(logLevel)
			slog.SetDefault(a.log)

			cfg, err := loadConfig(a.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if apiURL != "" {
				cfg.APIURL = apiURL
			}
			a.cfg = cfg
			a.prefs = units.Parse(string(cfg.Units))
			if unitFlag != "" {
				a.prefs = units.Parse(strings.ToLower(unitFlag))
			}
			a.api = client.New(cfg.APIURL, cfg.Token)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath(), "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (overrides config)")
	cmd.PersistentFlags().StringVar(&unitFlag, "units", "", "Display units: imperial or metric (overrides config)")

	cmd.AddCommand(
		trailsCmd(a),
		featuredCmd(a),
		trailCmd(a),
		weatherCmd(a),
		favoriteCmd(a),
		sosCmd(a),
		queueCmd(a),
		watchCmd(a),
		loginCmd(a),
	)
	return cmd
}

func newLogger(level string) *slog.Logger {
	l := slog.LevelWarn
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
