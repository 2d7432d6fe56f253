package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPathExplicitEnv(t *testing.T) {
	t.Setenv("RIVET_CONFIG", "/etc/rivet/config.yaml")
	if got := DefaultPath(); got != "/etc/rivet/config.yaml" {
		t.Fatalf("DefaultPath = %q", got)
	}
}

func TestDefaultPathXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RIVET_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", t.TempDir())

	if got := DefaultPath(); got != "" {
		t.Fatalf("DefaultPath with no config files = %q, want empty", got)
	}

	cfgDir := filepath.Join(dir, "rivet")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	file := filepath.Join(cfgDir, "config.yaml")
	if err := os.WriteFile(file, []byte("logLevel: debug\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := DefaultPath(); got != file {
		t.Fatalf("DefaultPath = %q, want %q", got, file)
	}
}

func TestDefaultPathPrefersYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RIVET_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfgDir := filepath.Join(dir, "rivet")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"config.json", "config.yaml"} {
		if err := os.WriteFile(filepath.Join(cfgDir, name), []byte("{}"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if got := DefaultPath(); got != filepath.Join(cfgDir, "config.yaml") {
		t.Fatalf("DefaultPath = %q", got)
	}
}
