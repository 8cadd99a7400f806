// Package classify derives a record's compliance status from its
// technical attributes and the active quality standards. Evaluation is
// pure: no I/O, no mutation, same inputs always give the same answer.
package classify

import (
	"fmt"

	"github.com/vmunix/omm/internal/media"
)

// Evaluate maps a record's technical attributes against the standards
// and returns the resulting status plus the issues that produced it.
//
// The resolution gate runs first and wins outright: a source below the
// minimum tier cannot be fixed by re-encoding, so none of its other
// attributes matter. Everything else accumulates into NeedsReencoding.
func Evaluate(r *media.Record, s media.Standards) (media.Status, []string) {
	if r.Tier < s.MinimumTier {
		return media.StatusBelowStandard, []string{
			fmt.Sprintf("Resolution %s below minimum %s", r.Tier, s.MinimumTier),
		}
	}

	var issues []string

	if !s.CodecSatisfies(r.Codec) {
		issues = append(issues, fmt.Sprintf("Codec is %s, not %s", r.Codec, s.RequiredCodec))
	}

	if !s.BitDepthSatisfies(r.BitDepth) {
		switch s.BitDepth {
		case media.DepthForce10:
			issues = append(issues, fmt.Sprintf("Bit depth is %d-bit, should be 10-bit", r.BitDepth))
		case media.DepthForce8:
			issues = append(issues, fmt.Sprintf("Bit depth is %d-bit, should be 8-bit", r.BitDepth))
		}
	}

	// A zero bitrate means probing could not measure one; skip the check
	// rather than flagging the file.
	if w, ok := s.Window(r.Tier); ok && r.BitrateKbps > 0 {
		if r.BitrateKbps < w.MinKbps {
			issues = append(issues, fmt.Sprintf("Bitrate %dkbps below minimum %dkbps for %s", r.BitrateKbps, w.MinKbps, r.Tier))
		} else if r.BitrateKbps > w.MaxKbps {
			issues = append(issues, fmt.Sprintf("Bitrate %dkbps exceeds max %dkbps for %s", r.BitrateKbps, w.MaxKbps, r.Tier))
		}
	}

	if len(issues) > 0 {
		return media.StatusNeedsReencoding, issues
	}
	return media.StatusCompliant, nil
}
