package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays RIVET_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("RIVET_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("RIVET_HTTP_URL"); v != "" {
		cfg.HTTPURL = v
	}
	if v := os.Getenv("RIVET_WORKER_NAME"); v != "" {
		cfg.Worker.Name = v
	}
	if v := os.Getenv("RIVET_WORKER_QUEUES"); v != "" {
		parts := strings.Split(v, ",")
		cfg.Worker.Queues = nil
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.Worker.Queues = append(cfg.Worker.Queues, p)
			}
		}
	}
	if v := os.Getenv("RIVET_WORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Worker.Concurrency = n
		}
	}
	if v := os.Getenv("RIVET_WORKER_HEARTBEAT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Worker.HeartbeatSeconds = n
		}
	}
	if v := os.Getenv("RIVET_WORKER_DRAIN_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Worker.DrainSeconds = n
		}
	}
	if v := os.Getenv("RIVET_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RIVET_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("RIVET_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
}
