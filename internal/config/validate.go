// internal/config/validate.go
package config

import (
	"fmt"
	"os"

	"github.com/vmunix/omm/pkg/shows"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	// At least one library root required
	if len(c.Library.Roots) == 0 {
		errs = append(errs, "library: at least one root must be configured")
	}

	if !validLogLevels[c.LogLevel] {
		errs = append(errs, fmt.Sprintf("log_level: must be one of debug, info, warn, error; got %q", c.LogLevel))
	}

	// Library tuning
	if c.Library.ScanThreads < 0 {
		errs = append(errs, fmt.Sprintf("library.scan_threads: must not be negative, got %d", c.Library.ScanThreads))
	}
	if c.Library.MinFileSizeMB < 0 {
		errs = append(errs, fmt.Sprintf("library.min_file_size_mb: must not be negative, got %d", c.Library.MinFileSizeMB))
	}
	if _, err := shows.CompileMarkers(c.Library.ExtrasMarkers); err != nil {
		errs = append(errs, fmt.Sprintf("library.extras_markers: %v", err))
	}

	// Standards and encoding both know how to judge themselves; their
	// messages already carry a section prefix.
	errs = append(errs, c.MediaStandards().Validate()...)
	errs = append(errs, c.EncodeSettings().Validate()...)

	// Library path warnings (non-fatal in spirit, reported with the rest)
	for _, root := range c.Library.Roots {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("library.roots: warning: directory %q does not exist", root))
		}
	}

	return errs
}
