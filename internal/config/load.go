package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/dshills/neomirror/internal/config/loader"
)

// Loader reads configuration from a file system and an environment.
// The zero value reads the real file system and process environment.
type Loader struct {
	FS      loader.FileSystem
	Environ func() []string
}

// Load reads the configuration at path (empty for none) with the default
// Loader.
func Load(path string) (Config, error) {
	return Loader{}.Load(path)
}

// Load layers the file at path and the environment over Default and
// validates the result. A missing file is not an error.
func (l Loader) Load(path string) (Config, error) {
	fsys := l.FS
	if fsys == nil {
		fsys = loader.DefaultFS()
	}
	environ := l.Environ
	if environ == nil {
		environ = os.Environ
	}

	var data map[string]any
	if path != "" {
		fl, err := loader.ForPath(fsys, path)
		if err != nil {
			return Config{}, err
		}
		file, err := fl.LoadFrom(path)
		if err != nil {
			return Config{}, err
		}
		if err := checkKeys(file); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
		data = loader.DeepMerge(data, file)
	}

	env, err := loader.NewEnvLoaderFrom(EnvPrefix, environ).Load()
	if err != nil {
		return Config{}, err
	}
	data = loader.DeepMerge(data, env)

	cfg := Default()
	if err := apply(&cfg, data); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type setter func(c *Config, v any) error

var setters = map[string]setter{
	"editor.path":   func(c *Config, v any) error { return setString(&c.Editor.Path, v) },
	"editor.args":   func(c *Config, v any) error { return setStrings(&c.Editor.Args, v) },
	"editor.socket": func(c *Config, v any) error { return setString(&c.Editor.Socket, v) },

	"screen.rows":                func(c *Config, v any) error { return setInt(&c.Screen.Rows, v) },
	"screen.columns":             func(c *Config, v any) error { return setInt(&c.Screen.Columns, v) },
	"screen.line_number_columns": func(c *Config, v any) error { return setInt(&c.Screen.LineNumberColumns, v) },

	"reconcile.window_debounce":     func(c *Config, v any) error { return setDuration(&c.Reconcile.WindowDebounce, v) },
	"reconcile.buffer_enter_window": func(c *Config, v any) error { return setDuration(&c.Reconcile.BufferEnterWindow, v) },
	"reconcile.query_concurrency":   func(c *Config, v any) error { return setInt(&c.Reconcile.QueryConcurrency, v) },

	"logging.level": func(c *Config, v any) error { return setString(&c.Logging.Level, v) },
	"logging.file":  func(c *Config, v any) error { return setString(&c.Logging.File, v) },
}

// Keys returns every known setting path, sorted.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// checkKeys rejects sections and keys that no setting uses.
func checkKeys(data map[string]any) error {
	var errs []error
	for _, section := range sortedKeys(data) {
		values, ok := data[section].(map[string]any)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownKey, section))
			continue
		}
		for _, key := range sortedKeys(values) {
			if _, known := setters[section+"."+key]; !known {
				errs = append(errs, fmt.Errorf("%w: %s.%s", ErrUnknownKey, section, key))
			}
		}
	}
	return errors.Join(errs...)
}

// apply copies every known setting present in data onto c. Other keys are
// ignored.
func apply(c *Config, data map[string]any) error {
	var errs []error
	for _, path := range Keys() {
		v, ok := loader.Lookup(data, path)
		if !ok {
			continue
		}
		if err := setters[path](c, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func setString(dst *string, v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("%w: want string, got %T", ErrTypeMismatch, v)
	}
	*dst = s
	return nil
}

func setStrings(dst *[]string, v any) error {
	switch list := v.(type) {
	case []string:
		*dst = append([]string(nil), list...)
		return nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("%w: item %d: want string, got %T", ErrTypeMismatch, i, item)
			}
			out = append(out, s)
		}
		*dst = out
		return nil
	case string:
		*dst = []string{list}
		return nil
	default:
		return fmt.Errorf("%w: want list of strings, got %T", ErrTypeMismatch, v)
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func setInt(dst *int, v any) error {
	n, ok := toInt64(v)
	if !ok || n > math.MaxInt32 || n < math.MinInt32 {
		return fmt.Errorf("%w: want integer, got %v (%T)", ErrTypeMismatch, v, v)
	}
	*dst = int(n)
	return nil
}

func setDuration(dst *time.Duration, v any) error {
	switch d := v.(type) {
	case time.Duration:
		*dst = d
		return nil
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		*dst = parsed
		return nil
	}
	if ms, ok := toInt64(v); ok {
		*dst = time.Duration(ms) * time.Millisecond
		return nil
	}
	return fmt.Errorf("%w: want duration, got %T", ErrTypeMismatch, v)
}
