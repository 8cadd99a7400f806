// internal/config/envsubst.go
package config

import (
	"os"
	"regexp"
	"strings"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteEnvVars expands ${VAR}, ${VAR:-default} and ${VAR:?message}
// references in content. Unresolvable references are left in place and
// reported in the returned list; for the :? form the list entry carries
// the message.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		expr := match[2 : len(match)-1] // strip ${ and }

		if name, def, ok := strings.Cut(expr, ":-"); ok {
			if value := os.Getenv(name); value != "" {
				return value
			}
			return def
		}
		if name, msg, ok := strings.Cut(expr, ":?"); ok {
			if value := os.Getenv(name); value != "" {
				return value
			}
			missing = append(missing, name+": "+msg)
			return match
		}
		if value, ok := os.LookupEnv(expr); ok {
			return value
		}
		missing = append(missing, expr)
		return match
	})
	return out, missing
}
