package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/surveyloom-cli/internal/config"
	"github.com/KaramelBytes/surveyloom-cli/internal/logging"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "surveyloom",
	Short: "SurveyLoom CLI: frequencies, cross-tabs and scores from survey exports",
	Long: `SurveyLoom turns survey exports (CSV, XLSX, SQLite) into analysis tables.
It splits multi-valued answers into categories, counts and cross-tabulates them,
computes composite scores and joins response tables on a shared identifier.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.surveyloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text|json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = defaultConfig()
	}
	cfg = c
	initLogging()
}

func initLogging() {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
	}
	if debug {
		level = slog.LevelDebug
	}
	format := cfg.LogFormat
	if logFormat != "" {
		format = logFormat
	}
	logging.Init(level, format, os.Stderr)
}

// settings returns the loaded configuration, loading it on first use when
// the command runs without cobra initialization.
func settings() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}

func defaultConfig() *cfgpkg.Global {
	return &cfgpkg.Global{
		Delimiters:      ",",
		CaseMode:        "preserve",
		SentinelLabel:   "Empty",
		OutcomeLabels:   cfgpkg.DefaultOutcomeLabels,
		OutcomeFallback: "Autre",
		Encoding:        "utf-8",
		OutputFormat:    "markdown",
		TopN:            10,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}
