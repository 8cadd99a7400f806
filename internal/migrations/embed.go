// Package migrations holds the embedded schema applied at startup.
package migrations

import _ "embed"

// InitialSQL creates the full schema: media records, encode sessions
// and jobs, and the event trail.
//
//go:embed sql/001_initial.sql
var InitialSQL string
