// Package encode builds ffmpeg invocations from encoding settings and
// drives the resulting process, reporting parsed progress. It never
// decides what to encode; that is the batch scheduler's job.
package encode

import (
	"fmt"

	"github.com/vmunix/omm/internal/media"
)

// CodecType selects the target codec family. The concrete ffmpeg
// encoder also depends on the GPU flag; see Settings.ResolvedCodec.
type CodecType string

const (
	CodecX265 CodecType = "x265"
	CodecAV1  CodecType = "av1"
)

// IsValid reports whether c is a known codec family.
func (c CodecType) IsValid() bool {
	return c == CodecX265 || c == CodecAV1
}

// Settings is one immutable encoding configuration snapshot, flat. The
// TOML keys are the [encoding] section of the config file.
type Settings struct {
	CodecType     CodecType            `toml:"codec_type"`
	Codec         string               `toml:"codec"` // explicit ffmpeg encoder, overrides CodecType+UseGPU
	UseGPU        bool                 `toml:"use_gpu"`
	Preset        string               `toml:"preset"`
	TuneAnimation bool                 `toml:"tune_animation"`
	Level         string               `toml:"level"`
	CQ            int                  `toml:"cq"`
	ThreadCount   int                  `toml:"thread_count"`
	BitDepth      media.BitDepthPolicy `toml:"bit_depth_preference"`

	SkipVideo     bool `toml:"skip_video_encoding"`
	SkipAudio     bool `toml:"skip_audio_encoding"`
	SkipSubtitles bool `toml:"skip_subtitle_encoding"`
	SkipCoverArt  bool `toml:"skip_cover_art"`
	IgnoreExtras  bool `toml:"ignore_extras"`

	UseBitrateLimits bool `toml:"use_bitrate_limits"`
	UseTargetBitrate bool `toml:"use_target_bitrate"`

	BitrateMinLowRes int `toml:"encoding_bitrate_min_low_res"`
	BitrateMaxLowRes int `toml:"encoding_bitrate_max_low_res"`
	BitrateMin720p   int `toml:"encoding_bitrate_min_720p"`
	BitrateMax720p   int `toml:"encoding_bitrate_max_720p"`
	BitrateMin1080p  int `toml:"encoding_bitrate_min_1080p"`
	BitrateMax1080p  int `toml:"encoding_bitrate_max_1080p"`
	BitrateMin1440p  int `toml:"encoding_bitrate_min_1440p"`
	BitrateMax1440p  int `toml:"encoding_bitrate_max_1440p"`
	BitrateMin4K     int `toml:"encoding_bitrate_min_4k"`
	BitrateMax4K     int `toml:"encoding_bitrate_max_4k"`

	TargetBitrateLowRes int `toml:"target_bitrate_low_res"`
	TargetBitrate720p   int `toml:"target_bitrate_720p"`
	TargetBitrate1080p  int `toml:"target_bitrate_1080p"`
	TargetBitrate1440p  int `toml:"target_bitrate_1440p"`
	TargetBitrate4K     int `toml:"target_bitrate_4k"`

	FilterAudioLangs    bool     `toml:"audio_filter_enabled"`
	AudioLanguages      []string `toml:"audio_languages"`
	FilterSubtitleLangs bool     `toml:"subtitle_filter_enabled"`
	SubtitleLanguages   []string `toml:"subtitle_languages"`

	AutoRemoveBroken bool `toml:"auto_remove_broken"`
	AutoMoveSmaller  bool `toml:"auto_move_smaller"`

	// Tiers carries the legacy nested per-tier tables; Normalize folds
	// it onto the flat keys above.
	Tiers map[string]TierBand `toml:"tiers"`
}

// TierBand is the legacy nested form of per-tier bitrate settings.
type TierBand struct {
	Min    int `toml:"min"`
	Max    int `toml:"max"`
	Target int `toml:"target"`
}

// Default returns the stock encoding settings.
func Default() Settings {
	return Settings{
		CodecType:   CodecX265,
		Preset:      "veryfast",
		Level:       "4.1",
		CQ:          22,
		ThreadCount: 4,
		BitDepth:    media.DepthSource,

		SkipCoverArt: true,
		IgnoreExtras: true,

		BitrateMinLowRes: 500,
		BitrateMaxLowRes: 1000,
		BitrateMin720p:   1000,
		BitrateMax720p:   2000,
		BitrateMin1080p:  2000,
		BitrateMax1080p:  4000,
		BitrateMin1440p:  4000,
		BitrateMax1440p:  6000,
		BitrateMin4K:     6000,
		BitrateMax4K:     10000,

		TargetBitrateLowRes: 800,
		TargetBitrate720p:   1500,
		TargetBitrate1080p:  3000,
		TargetBitrate1440p:  5000,
		TargetBitrate4K:     8000,

		AudioLanguages:    []string{"eng"},
		SubtitleLanguages: []string{"eng"},
	}
}

// ResolvedCodec returns the ffmpeg encoder these settings select: the
// explicit override when present, otherwise derived from the codec
// family and the GPU flag.
func (s Settings) ResolvedCodec() string {
	if s.Codec != "" {
		return s.Codec
	}
	if s.CodecType == CodecAV1 {
		if s.UseGPU {
			return "av1_nvenc"
		}
		return "libsvtav1"
	}
	if s.UseGPU {
		return "hevc_nvenc"
	}
	return "libx265"
}

// window is the bitrate band applied to one encode.
type window struct {
	min, max, target int
}

// windowForHeight picks the band by source frame height.
func (s Settings) windowForHeight(height int) window {
	switch {
	case height >= 2160:
		return window{s.BitrateMin4K, s.BitrateMax4K, s.TargetBitrate4K}
	case height >= 1440:
		return window{s.BitrateMin1440p, s.BitrateMax1440p, s.TargetBitrate1440p}
	case height >= 1080:
		return window{s.BitrateMin1080p, s.BitrateMax1080p, s.TargetBitrate1080p}
	case height >= 720:
		return window{s.BitrateMin720p, s.BitrateMax720p, s.TargetBitrate720p}
	default:
		return window{s.BitrateMinLowRes, s.BitrateMaxLowRes, s.TargetBitrateLowRes}
	}
}

// wants10Bit reports whether the output should be 10-bit for a source
// with the given bit depth.
func (s Settings) wants10Bit(sourceDepth int) bool {
	switch s.BitDepth {
	case media.DepthForce10:
		return true
	case media.DepthForce8:
		return false
	default:
		return sourceDepth >= 10
	}
}

// Normalize folds the legacy nested tier tables onto the flat per-tier
// keys and drops them. A config that sets both forms gets the nested
// values; mixing the two forms is not supported.
func (s *Settings) Normalize() {
	if len(s.Tiers) == 0 {
		return
	}
	apply := func(name string, min, max, target *int) {
		band, ok := s.Tiers[name]
		if !ok {
			return
		}
		if band.Min > 0 {
			*min = band.Min
		}
		if band.Max > 0 {
			*max = band.Max
		}
		if band.Target > 0 {
			*target = band.Target
		}
	}
	apply("low_res", &s.BitrateMinLowRes, &s.BitrateMaxLowRes, &s.TargetBitrateLowRes)
	apply("720p", &s.BitrateMin720p, &s.BitrateMax720p, &s.TargetBitrate720p)
	apply("1080p", &s.BitrateMin1080p, &s.BitrateMax1080p, &s.TargetBitrate1080p)
	apply("1440p", &s.BitrateMin1440p, &s.BitrateMax1440p, &s.TargetBitrate1440p)
	apply("4k", &s.BitrateMin4K, &s.BitrateMax4K, &s.TargetBitrate4K)
	s.Tiers = nil
}

// Validate returns a list of problems with the settings, empty if none.
func (s Settings) Validate() []string {
	var problems []string
	if !s.CodecType.IsValid() {
		problems = append(problems, fmt.Sprintf("encoding: codec_type %q must be x265 or av1", s.CodecType))
	}
	if !s.BitDepth.IsValid() {
		problems = append(problems, fmt.Sprintf("encoding: bit_depth_preference %q must be one of source, force_10bit, force_8bit", s.BitDepth))
	}
	if s.CQ < 0 || s.CQ > 51 {
		problems = append(problems, fmt.Sprintf("encoding: cq %d must be between 0 and 51", s.CQ))
	}
	if s.ThreadCount < 0 {
		problems = append(problems, fmt.Sprintf("encoding: thread_count %d must not be negative", s.ThreadCount))
	}

	type tierBand struct {
		name             string
		min, max, target int
	}
	bands := []tierBand{
		{"low_res", s.BitrateMinLowRes, s.BitrateMaxLowRes, s.TargetBitrateLowRes},
		{"720p", s.BitrateMin720p, s.BitrateMax720p, s.TargetBitrate720p},
		{"1080p", s.BitrateMin1080p, s.BitrateMax1080p, s.TargetBitrate1080p},
		{"1440p", s.BitrateMin1440p, s.BitrateMax1440p, s.TargetBitrate1440p},
		{"4k", s.BitrateMin4K, s.BitrateMax4K, s.TargetBitrate4K},
	}
	for _, b := range bands {
		if s.UseBitrateLimits && b.min > b.max {
			problems = append(problems, fmt.Sprintf("encoding: tier %s min bitrate %d must not exceed max %d", b.name, b.min, b.max))
		}
		if s.UseTargetBitrate && s.UseBitrateLimits && (b.target < b.min || b.target > b.max) {
			problems = append(problems, fmt.Sprintf("encoding: tier %s target bitrate %d must sit within [%d, %d]", b.name, b.target, b.min, b.max))
		}
	}
	return problems
}
