// internal/config/discover.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath returns where `omm config init` writes without arguments:
// $XDG_CONFIG_HOME/omm/omm.toml, falling back to ~/.config.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "./omm.toml"
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "omm", "omm.toml")
}

// searchPaths is the discovery order after OMM_CONFIG: working
// directory, XDG location, then the system path.
func searchPaths() []string {
	return []string{"./omm.toml", DefaultPath(), "/etc/omm/omm.toml"}
}

// Discover locates the config file. OMM_CONFIG wins when set; a set but
// missing value is an error, not a fallthrough.
func Discover() (string, error) {
	if envPath := os.Getenv("OMM_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("OMM_CONFIG=%s: %w", envPath, err)
		}
		return envPath, nil
	}

	paths := searchPaths()
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("config not found, checked: %s", strings.Join(paths, ", "))
}
