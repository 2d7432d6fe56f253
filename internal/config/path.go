package config

import (
	"os"
	"path/filepath"
)

// DefaultPath returns the first existing config file among the standard
// locations, or "" when none exists. Locations are checked in order:
// $RIVET_CONFIG, $XDG_CONFIG_HOME/rivet/, ~/.config/rivet/, ~/.rivet.
func DefaultPath() string {
	if p := os.Getenv("RIVET_CONFIG"); p != "" {
		return p
	}

	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "rivet"))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dirs = append(dirs,
			filepath.Join(home, ".config", "rivet"),
			filepath.Join(home, ".rivet"))
	}

	for _, dir := range dirs {
		for _, name := range []string{"config.yaml", "config.yml", "config.json"} {
			p := filepath.Join(dir, name)
			if isFile(p) {
				return p
			}
		}
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
