// internal/config/write.go
package config

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed default_config.toml
var defaultConfig string

// WriteDefault writes the commented starter config to path. Callers
// decide whether overwriting an existing file is acceptable.
func WriteDefault(path string) error {
	return writeFile(path, []byte(defaultConfig))
}

// Write serializes the effective config as TOML to path.
func (c *Config) Write(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
