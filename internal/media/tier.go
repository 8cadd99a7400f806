package media

const unknownStr = "unknown"

// Tier buckets a video stream by its frame dimensions. Values are ordered,
// so tiers can be compared directly against a minimum.
type Tier int

const (
	TierUnknown Tier = iota
	TierLowRes
	Tier720p
	Tier1080p
	Tier1440p
	Tier4K
)

func (t Tier) String() string {
	switch t {
	case TierLowRes:
		return "low_res"
	case Tier720p:
		return "720p"
	case Tier1080p:
		return "1080p"
	case Tier1440p:
		return "1440p"
	case Tier4K:
		return "4k"
	}
	return unknownStr
}

// ParseTier maps a tier name back to its value. Unrecognized names
// return TierUnknown.
func ParseTier(s string) Tier {
	switch s {
	case "low_res":
		return TierLowRes
	case "720p":
		return Tier720p
	case "1080p":
		return Tier1080p
	case "1440p":
		return Tier1440p
	case "4k":
		return Tier4K
	}
	return TierUnknown
}

// Tiers lists all defined tiers from lowest to highest.
func Tiers() []Tier {
	return []Tier{TierLowRes, Tier720p, Tier1080p, Tier1440p, Tier4K}
}

// TierFromDimensions classifies a frame size. Width decides first so that
// cropped widescreen sources (e.g. 3840x1600) land in the tier their
// width suggests; height is the fallback for narrow encodes.
func TierFromDimensions(width, height int) Tier {
	switch {
	case width >= 3840:
		return Tier4K
	case width >= 2560:
		return Tier1440p
	case width >= 1900:
		return Tier1080p
	case width >= 1200:
		return Tier720p
	}
	switch {
	case height >= 2160:
		return Tier4K
	case height >= 1440:
		return Tier1440p
	case height >= 1080:
		return Tier1080p
	case height >= 720:
		return Tier720p
	}
	return TierLowRes
}
