package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triage-home")
	d, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if d.Exists() {
		t.Fatalf("home should not exist yet")
	}
	if err := d.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}
	if !d.Exists() {
		t.Fatalf("home should exist")
	}
	if info, err := os.Stat(d.CallsPath()); err != nil || !info.IsDir() {
		t.Fatalf("calls directory missing: %v", err)
	}
	if d.ConfigExists() {
		t.Fatalf("config should not exist yet")
	}
	if got, want := d.ConfigPath(), filepath.Join(path, "config.yaml"); got != want {
		t.Fatalf("ConfigPath() = %q, want %q", got, want)
	}
}
