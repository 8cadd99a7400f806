package media

import (
	"fmt"
	"strings"
)

// BitDepthPolicy says how bit depth is judged and encoded.
type BitDepthPolicy string

const (
	DepthSource  BitDepthPolicy = "source"
	DepthForce10 BitDepthPolicy = "force_10bit"
	DepthForce8  BitDepthPolicy = "force_8bit"
)

// IsValid reports whether p is a known policy.
func (p BitDepthPolicy) IsValid() bool {
	switch p {
	case DepthSource, DepthForce10, DepthForce8:
		return true
	}
	return false
}

// BitrateWindow is the acceptable bitrate band for a tier, plus the
// target a re-encode of that tier aims for.
type BitrateWindow struct {
	MinKbps    int
	MaxKbps    int
	TargetKbps int
}

// Standards is the yardstick records are measured against. A record is
// compliant when its tier meets MinimumTier, its bitrate sits inside the
// tier's window, its codec matches, and its bit depth satisfies the
// policy.
type Standards struct {
	Windows       map[Tier]BitrateWindow
	RequiredCodec string
	BitDepth      BitDepthPolicy
	MinimumTier   Tier
}

// DefaultStandards returns the stock quality bar: HEVC at 720p or
// better, source bit depth, with bitrate windows per tier.
func DefaultStandards() Standards {
	return Standards{
		Windows: map[Tier]BitrateWindow{
			TierLowRes: {MinKbps: 500, MaxKbps: 1000, TargetKbps: 800},
			Tier720p:   {MinKbps: 1000, MaxKbps: 2000, TargetKbps: 1500},
			Tier1080p:  {MinKbps: 2000, MaxKbps: 4000, TargetKbps: 3000},
			Tier1440p:  {MinKbps: 4000, MaxKbps: 6000, TargetKbps: 5000},
			Tier4K:     {MinKbps: 6000, MaxKbps: 10000, TargetKbps: 8000},
		},
		RequiredCodec: "hevc",
		BitDepth:      DepthSource,
		MinimumTier:   Tier720p,
	}
}

// Window returns the bitrate window for t.
func (s Standards) Window(t Tier) (BitrateWindow, bool) {
	w, ok := s.Windows[t]
	return w, ok
}

// CodecSatisfies reports whether a probed codec name meets the standard.
// HEVC spellings and AV1 always pass: re-encoding an AV1 source into
// HEVC would be a downgrade, not a fix.
func (s Standards) CodecSatisfies(codec string) bool {
	if strings.EqualFold(codec, s.RequiredCodec) {
		return true
	}
	switch strings.ToLower(codec) {
	case "hevc", "h265", "av1":
		return true
	}
	return false
}

// BitDepthSatisfies reports whether a probed bit depth meets the policy.
func (s Standards) BitDepthSatisfies(depth int) bool {
	switch s.BitDepth {
	case DepthForce10:
		return depth >= 10
	case DepthForce8:
		return depth < 10
	default:
		return true
	}
}

// Validate returns a list of problems with the standards, empty if none.
func (s Standards) Validate() []string {
	var problems []string
	if s.RequiredCodec == "" {
		problems = append(problems, "standards: required_codec must be set")
	}
	if !s.BitDepth.IsValid() {
		problems = append(problems, fmt.Sprintf("standards: bit_depth_preference %q must be one of source, force_10bit, force_8bit", s.BitDepth))
	}
	if s.MinimumTier == TierUnknown {
		problems = append(problems, "standards: minimum_tier must be one of low_res, 720p, 1080p, 1440p, 4k")
	}
	for _, t := range Tiers() {
		w, ok := s.Windows[t]
		if !ok {
			problems = append(problems, fmt.Sprintf("standards: no bitrate window for tier %s", t))
			continue
		}
		if w.MinKbps <= 0 || w.MaxKbps <= 0 {
			problems = append(problems, fmt.Sprintf("standards: tier %s bitrate bounds must be positive", t))
		}
		if w.MinKbps >= w.MaxKbps {
			problems = append(problems, fmt.Sprintf("standards: tier %s min bitrate %d must be below max %d", t, w.MinKbps, w.MaxKbps))
		}
		if w.TargetKbps <= 0 {
			problems = append(problems, fmt.Sprintf("standards: tier %s target bitrate must be positive", t))
		}
	}
	return problems
}
