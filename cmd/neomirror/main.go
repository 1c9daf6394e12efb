// Package main is the entry point for the neomirror command.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/neomirror/internal/config"
	"github.com/dshills/neomirror/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	// Global flags
	configPath string
	logLevel   string
	logFile    string

	// Set up by PersistentPreRunE.
	cfg    config.Config
	logger *zap.Logger
	level  zap.AtomicLevel
)

var rootCmd = &cobra.Command{
	Use:   "neomirror",
	Short: "Mirror a headless Neovim screen",
	Long: `neomirror runs Neovim as an embedded UI client and keeps a local copy
of its screen, its window layout and its status lines.

Use "view" to drive the editor from this terminal, or "dump" to print what
the editor shows.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}
		return setup(cmd, logging.Config{Console: true})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "neomirror %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (.toml or .yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file")

	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration, applies flag overrides and builds the
// root logger. defaults fills log settings the configuration leaves empty.
func setup(cmd *cobra.Command, defaults logging.Config) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if cmd.Flags().Changed("log-file") {
		cfg.Logging.File = logFile
	}

	lc := logging.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: defaults.Console,
	}
	if lc.File == "" {
		lc.File = defaults.File
	}

	logger, level, err = logging.New(lc)
	if err != nil {
		return err
	}
	logger.Debug("configuration loaded",
		zap.String("path", configPath),
		zap.String("editor", cfg.Editor.Path),
		zap.Int("rows", cfg.Screen.Rows),
		zap.Int("columns", cfg.Screen.Columns))
	return nil
}
