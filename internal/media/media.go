// Package media defines the library domain model: scanned records, their
// compliance status, resolution tiers, and the quality standards they are
// measured against.
package media

import (
	"time"
)

// Category distinguishes movies, show episodes, and bonus material.
type Category string

const (
	CategoryMovie Category = "movie"
	CategoryShow  Category = "show"
	CategoryExtra Category = "extra"
)

// IsValid reports whether c is one of the defined categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryMovie, CategoryShow, CategoryExtra:
		return true
	}
	return false
}

// Status is the compliance state of a record. It is derived from the
// record's technical attributes and the active Standards, never set
// directly by callers (except StatusScanning while a probe is in flight).
type Status string

const (
	StatusUnknown         Status = "unknown"
	StatusScanning        Status = "scanning"
	StatusCompliant       Status = "compliant"
	StatusNeedsReencoding Status = "needs_reencoding"
	StatusBelowStandard   Status = "below_standard"
	StatusError           Status = "error"
)

// IsValid reports whether s is one of the defined statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusUnknown, StatusScanning, StatusCompliant,
		StatusNeedsReencoding, StatusBelowStandard, StatusError:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// Record represents one physical media file. The path is the identity;
// a rescan replaces the whole record rather than mutating it in place.
type Record struct {
	Path     string
	Filename string
	Category Category

	// Show fields, populated only when Category is show (ShowName is
	// also set for an extra when it could be associated with a show).
	ShowName string
	Season   *int // 0 = specials
	Episode  *int

	// Technical attributes from probing.
	Tier          Tier
	Width         int
	Height        int
	Codec         string
	BitDepth      int
	BitrateKbps   int
	DurationS     float64
	FPS           float64
	FileSizeBytes int64
	AudioCodec    string
	AudioLangs    []string
	SubtitleLangs []string
	HasCoverArt   bool

	Status       Status
	ErrorMessage string // set iff Status is StatusError
	Issues       []string

	ScannedAt time.Time
}
