package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level CLI/worker configuration loaded from file/env.
type Config struct {
	ServerURL string `json:"serverUrl" yaml:"serverUrl"`
	HTTPURL   string `json:"httpUrl" yaml:"httpUrl"`

	Worker WorkerDefaults `json:"worker" yaml:"worker"`

	LogLevel    string `json:"logLevel" yaml:"logLevel"`
	LogFormat   string `json:"logFormat" yaml:"logFormat"`
	MetricsAddr string `json:"metricsAddr" yaml:"metricsAddr"`
}

// WorkerDefaults captures baseline worker runtime settings. Durations are
// in seconds.
type WorkerDefaults struct {
	Name             string   `json:"name" yaml:"name"`
	Queues           []string `json:"queues" yaml:"queues"`
	Concurrency      int      `json:"concurrency" yaml:"concurrency"`
	HeartbeatSeconds int      `json:"heartbeatSeconds" yaml:"heartbeatSeconds"`
	DrainSeconds     int      `json:"drainSeconds" yaml:"drainSeconds"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		ServerURL: "ws://127.0.0.1:8080",
		HTTPURL:   "http://127.0.0.1:8080",
		Worker: WorkerDefaults{
			Concurrency:      1,
			HeartbeatSeconds: 10,
			DrainSeconds:     30,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads configuration from a JSON or YAML file (by extension), merged
// over the defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}
