// internal/config/error.go
package config

import "strings"

// ConfigError aggregates everything wrong with a config file: unresolved
// environment references and validation problems, reported together so
// the user fixes the file in one pass.
type ConfigError struct {
	Path    string   // Config file path
	Missing []string // Unresolved environment variables
	Errors  []string // Validation errors
}

func (e *ConfigError) Error() string {
	if !e.HasErrors() {
		return ""
	}

	var b strings.Builder
	if len(e.Missing) > 0 {
		b.WriteString("missing environment variables: ")
		b.WriteString(strings.Join(e.Missing, ", "))
	}
	if len(e.Errors) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("validation failed:")
		for _, err := range e.Errors {
			b.WriteString("\n  - ")
			b.WriteString(err)
		}
	}
	return b.String()
}

// HasErrors reports whether the config failed to load cleanly.
func (e *ConfigError) HasErrors() bool {
	return len(e.Missing) > 0 || len(e.Errors) > 0
}
