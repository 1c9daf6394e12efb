package loader

import (
	"errors"
	"testing"
)

func TestYAMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/neomirror.yaml", `
editor:
  socket: /tmp/nvim.sock
screen:
  columns: 120
reconcile:
  query_concurrency: 8
`)

	config, err := NewYAMLLoaderWithFS(memfs, "/neomirror.yaml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if v, _ := Lookup(config, "editor.socket"); v != "/tmp/nvim.sock" {
		t.Errorf("editor.socket = %v, want /tmp/nvim.sock", v)
	}
	if v, _ := Lookup(config, "screen.columns"); v != 120 {
		t.Errorf("screen.columns = %v (%T), want 120", v, v)
	}
	if v, _ := Lookup(config, "reconcile.query_concurrency"); v != 8 {
		t.Errorf("reconcile.query_concurrency = %v, want 8", v)
	}
}

func TestYAMLLoader_LoadNonExistent(t *testing.T) {
	config, err := NewYAMLLoaderWithFS(NewMemFS(), "/missing.yml").Load()
	if err != nil {
		t.Fatalf("expected no error for non-existent file, got: %v", err)
	}
	if config != nil {
		t.Error("expected nil config for non-existent file")
	}
}

func TestYAMLLoader_LoadInvalid(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.yaml", "screen: [rows\n")

	_, err := NewYAMLLoaderWithFS(memfs, "/bad.yaml").Load()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T (%v)", err, err)
	}
	if parseErr.Path != "/bad.yaml" {
		t.Errorf("Path = %q, want /bad.yaml", parseErr.Path)
	}
}
