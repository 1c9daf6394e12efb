package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/neomirror/internal/bridge"
	"github.com/dshills/neomirror/internal/config"
	"github.com/dshills/neomirror/internal/logging"
	"github.com/dshills/neomirror/internal/view"
)

// defaultViewLog receives the log while the terminal is taken by the view.
const defaultViewLog = "neomirror.log"

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the mirrored screen in this terminal",
	Long: `Starts Neovim, mirrors its screen into this terminal and forwards
keystrokes to it. Press Ctrl-Q to quit.

Logs go to neomirror.log unless --log-file or logging.file says otherwise.
When a configuration file is given, edits to its log level apply at once.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd, logging.Config{File: defaultViewLog})
	},
	RunE: runView,
}

func runView(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	if configPath != "" {
		go watchConfig(ctx, configPath, cmd.Flags().Changed("log-level"))
	}

	b, err := bridge.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open editor: %w", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := b.Close(closeCtx); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}()

	term, err := view.NewTerminal()
	if err != nil {
		return fmt.Errorf("create terminal: %w", err)
	}

	v := view.New(term, b, logger)
	err = v.Run(ctx)
	st := v.Stats()
	logger.Info("view stopped",
		zap.Uint64("painted", st.Painted),
		zap.Uint64("held", st.Held),
		zap.Uint64("keys", st.Keys))
	return err
}

// watchConfig applies log level edits from the configuration file. A level
// given with --log-level is pinned and not overridden.
func watchConfig(ctx context.Context, path string, pinned bool) {
	err := config.Watch(ctx, path, func(c config.Config, err error) {
		if err != nil {
			logger.Warn("config reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		reloadLogLevel(c, pinned)
	})
	if err != nil {
		logger.Warn("config watch stopped", zap.String("path", path), zap.Error(err))
	}
}

// reloadLogLevel moves the root logger to the level in c unless pinned and
// reports whether the level changed.
func reloadLogLevel(c config.Config, pinned bool) bool {
	if pinned {
		return false
	}
	next := logging.ParseLevel(c.Logging.Level)
	if next == level.Level() {
		return false
	}
	level.SetLevel(next)
	logger.Info("log level changed", zap.Stringer("level", next))
	return true
}
