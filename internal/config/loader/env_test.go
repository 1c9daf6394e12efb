package loader

import (
	"testing"
)

func newTestEnvLoader(env ...string) *EnvLoader {
	return NewEnvLoaderFrom("NEOMIRROR_", func() []string { return env })
}

func TestEnvLoader_Load(t *testing.T) {
	loader := newTestEnvLoader(
		"NEOMIRROR_LOG_LEVEL=debug",
		"NEOMIRROR_SCREEN_ROWS=30",
		"NEOMIRROR_SCREEN_LINE_NUMBER_COLUMNS=5",
		"NEOMIRROR_RECONCILE_WINDOW_DEBOUNCE=1s",
		"NEOMIRROR_EDITOR_ARGS=[\"-u\",\"NONE\"]",
		"HOME=/root",
	)

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		path string
		want any
	}{
		{"logging.level", "debug"},
		{"screen.rows", int64(30)},
		{"screen.line_number_columns", int64(5)},
		{"reconcile.window_debounce", "1s"},
	}
	for _, tt := range tests {
		if v, ok := Lookup(config, tt.path); !ok || v != tt.want {
			t.Errorf("%s = %v (%T), want %v", tt.path, v, v, tt.want)
		}
	}

	args, _ := Lookup(config, "editor.args")
	if list, ok := args.([]any); !ok || len(list) != 2 || list[0] != "-u" {
		t.Errorf("editor.args = %v, want [-u NONE]", args)
	}
	if _, ok := config["home"]; ok {
		t.Error("unprefixed variables must be ignored")
	}
}

func TestEnvLoader_Mapping(t *testing.T) {
	loader := newTestEnvLoader("NEOMIRROR_SOCKET=/tmp/s", "NEOMIRROR_CUSTOM=x")
	loader.AddMapping("NEOMIRROR_CUSTOM", "logging.file")

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if v, _ := Lookup(config, "editor.socket"); v != "/tmp/s" {
		t.Errorf("editor.socket = %v, want /tmp/s", v)
	}
	if v, _ := Lookup(config, "logging.file"); v != "x" {
		t.Errorf("logging.file = %v, want x", v)
	}
}

func TestEnvLoader_envToPath(t *testing.T) {
	loader := NewEnvLoader("NEOMIRROR_")

	tests := []struct {
		env      string
		expected string
	}{
		{"NEOMIRROR_EDITOR_PATH", "editor.path"},
		{"NEOMIRROR_SCREEN_LINE_NUMBER_COLUMNS", "screen.line_number_columns"},
		{"NEOMIRROR_SIMPLE", ""},
		{"NEOMIRROR_", ""},
	}

	for _, tt := range tests {
		got := loader.envToPath(tt.env)
		if got != tt.expected {
			t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.expected)
		}
	}
}

func TestEnvLoader_parseValue(t *testing.T) {
	loader := NewEnvLoader("NEOMIRROR_")

	tests := []struct {
		input    string
		expected any
	}{
		{"", ""},
		{"true", true},
		{"off", false},
		{"1", int64(1)},
		{"0", int64(0)},
		{"250ms", "250ms"},
		{"hello", "hello"},
	}

	for _, tt := range tests {
		got := loader.parseValue(tt.input)
		if got != tt.expected {
			t.Errorf("parseValue(%q) = %v (%T), want %v (%T)", tt.input, got, got, tt.expected, tt.expected)
		}
	}
}
