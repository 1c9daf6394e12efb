// Package config holds neomirror's settings.
//
// Settings are layered, later layers overriding earlier ones:
//
//  1. Built-in defaults (Default)
//  2. A TOML or YAML file, chosen by extension
//  3. NEOMIRROR_<SECTION>_<KEY> environment variables
//
// Keys use snake_case, e.g. screen.line_number_columns. Durations are Go
// duration strings ("500ms"); bare integers are read as milliseconds.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "NEOMIRROR_"

// Config is the complete neomirror configuration.
type Config struct {
	Editor    Editor
	Screen    Screen
	Reconcile Reconcile
	Logging   Logging
}

// Editor selects the editor process.
type Editor struct {
	// Path of the editor binary.
	Path string
	// Args passed to the editor; --embed is added by the session.
	Args []string
	// Socket of a running editor. When set, Path and Args are unused.
	Socket string
}

// Screen sizes the mirrored grid.
type Screen struct {
	Rows    int
	Columns int
	// LineNumberColumns is the gutter width, shared by the grid and the
	// editor's numberwidth option.
	LineNumberColumns int
}

// Reconcile tunes window metadata reconciliation.
type Reconcile struct {
	WindowDebounce    time.Duration
	BufferEnterWindow time.Duration
	QueryConcurrency  int
}

// Logging configures log output.
type Logging struct {
	// Level is one of debug, info, warn, error.
	Level string
	// File receives logs when set; stderr otherwise.
	File string
}

// LogLevels lists the accepted logging levels.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Editor: Editor{
			Path: "nvim",
			Args: []string{"-u", "NONE"},
		},
		Screen: Screen{
			Rows:              24,
			Columns:           80,
			LineNumberColumns: 6,
		},
		Reconcile: Reconcile{
			WindowDebounce:    500 * time.Millisecond,
			BufferEnterWindow: 50 * time.Millisecond,
			QueryConcurrency:  4,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	invalid := func(key string, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalid, key, fmt.Sprintf(format, args...)))
	}

	if c.Editor.Path == "" && c.Editor.Socket == "" {
		invalid("editor", "path or socket required")
	}
	if c.Screen.Rows <= 0 {
		invalid("screen.rows", "must be positive, got %d", c.Screen.Rows)
	}
	if c.Screen.Columns <= 0 {
		invalid("screen.columns", "must be positive, got %d", c.Screen.Columns)
	}
	if c.Screen.LineNumberColumns < 0 || c.Screen.LineNumberColumns >= c.Screen.Columns {
		invalid("screen.line_number_columns", "must be in [0, %d), got %d", c.Screen.Columns, c.Screen.LineNumberColumns)
	}
	if c.Reconcile.WindowDebounce <= 0 {
		invalid("reconcile.window_debounce", "must be positive, got %s", c.Reconcile.WindowDebounce)
	}
	if c.Reconcile.BufferEnterWindow <= 0 {
		invalid("reconcile.buffer_enter_window", "must be positive, got %s", c.Reconcile.BufferEnterWindow)
	}
	if c.Reconcile.QueryConcurrency <= 0 {
		invalid("reconcile.query_concurrency", "must be positive, got %d", c.Reconcile.QueryConcurrency)
	}
	if !slices.Contains(LogLevels, c.Logging.Level) {
		invalid("logging.level", "unknown level %q", c.Logging.Level)
	}

	return errors.Join(errs...)
}
