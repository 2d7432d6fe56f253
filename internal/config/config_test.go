package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ServerURL != "ws://127.0.0.1:8080" {
		t.Fatalf("default server url = %q", cfg.ServerURL)
	}
	if cfg.Worker.Concurrency != 1 {
		t.Fatalf("default concurrency = %d", cfg.Worker.Concurrency)
	}
	if cfg.Worker.HeartbeatSeconds != 10 || cfg.Worker.DrainSeconds != 30 {
		t.Fatalf("default intervals = %d/%d", cfg.Worker.HeartbeatSeconds, cfg.Worker.DrainSeconds)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Fatalf("default logging = %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "rivet.json")
	data := []byte(`{"serverUrl":"wss://queue.prod:443","worker":{"queues":["billing"],"concurrency":8}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "wss://queue.prod:443" {
		t.Fatalf("server url = %q", cfg.ServerURL)
	}
	if len(cfg.Worker.Queues) != 1 || cfg.Worker.Queues[0] != "billing" {
		t.Fatalf("queues = %v", cfg.Worker.Queues)
	}
	if cfg.Worker.Concurrency != 8 {
		t.Fatalf("concurrency = %d", cfg.Worker.Concurrency)
	}
	// Untouched fields keep their defaults.
	if cfg.Worker.HeartbeatSeconds != 10 {
		t.Fatalf("heartbeat = %d", cfg.Worker.HeartbeatSeconds)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "rivet.yaml")
	data := []byte("serverUrl: ws://10.0.0.5:8080\nworker:\n  queues: [emails, reports]\n  concurrency: 4\nlogFormat: json\n")
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "ws://10.0.0.5:8080" {
		t.Fatalf("server url = %q", cfg.ServerURL)
	}
	if len(cfg.Worker.Queues) != 2 || cfg.Worker.Queues[1] != "reports" {
		t.Fatalf("queues = %v", cfg.Worker.Queues)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("log format = %q", cfg.LogFormat)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("RIVET_SERVER_URL", "wss://queue.staging:443")
	t.Setenv("RIVET_WORKER_QUEUES", "billing, refunds ,")
	t.Setenv("RIVET_WORKER_CONCURRENCY", "16")
	t.Setenv("RIVET_LOG_LEVEL", "debug")
	FromEnv(&cfg)
	if cfg.ServerURL != "wss://queue.staging:443" {
		t.Fatalf("env server url = %q", cfg.ServerURL)
	}
	if len(cfg.Worker.Queues) != 2 || cfg.Worker.Queues[1] != "refunds" {
		t.Fatalf("env queues = %v", cfg.Worker.Queues)
	}
	if cfg.Worker.Concurrency != 16 {
		t.Fatalf("env concurrency = %d", cfg.Worker.Concurrency)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("env log level = %q", cfg.LogLevel)
	}
}

func TestFromEnvIgnoresBadNumbers(t *testing.T) {
	cfg := Default()
	t.Setenv("RIVET_WORKER_CONCURRENCY", "lots")
	FromEnv(&cfg)
	if cfg.Worker.Concurrency != 1 {
		t.Fatalf("concurrency = %d, want default 1", cfg.Worker.Concurrency)
	}
}
