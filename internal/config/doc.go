// Package config provides loading and environment overlay for Rivet CLI and
// worker configuration. It exposes a Default() baseline, file loading (JSON
// or YAML by extension), and a RIVET_* environment overlay.
//
// Example:
//
//	cfg, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    return err
//	}
//	config.FromEnv(&cfg)
package config
