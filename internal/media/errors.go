package media

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert collides with an existing path.
	ErrDuplicate = errors.New("duplicate record")

	// ErrConstraint is returned for other constraint violations.
	ErrConstraint = errors.New("constraint violation")
)
