package encode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vmunix/omm/internal/media"
)

// BuildArgs assembles the ffmpeg argument list for encoding rec into
// output. The settings must already be resolved against the host (see
// Encoder.Resolve); BuildArgs itself never touches the system. Flag
// order matters to ffmpeg: global flags, input, video codec options,
// bitrate control, stream maps, then the output.
func BuildArgs(rec *media.Record, set Settings, output string) []string {
	codec := set.ResolvedCodec()
	gpu := strings.Contains(codec, "nvenc")

	var args []string
	if gpu {
		args = append(args, "-hwaccel", "auto")
	}
	args = append(args, "-hide_banner", "-i", rec.Path)

	if set.SkipVideo {
		args = append(args, "-c:v", "copy")
	} else {
		args = append(args, "-c:v", codec)

		if set.wants10Bit(rec.BitDepth) {
			args = append(args, "-profile:v", "main10")
		} else {
			args = append(args, "-profile:v", "main")
		}

		preset := set.Preset
		if gpu {
			// NVENC presets are p0..p7, not the x265 names.
			preset = "p6"
		}
		args = append(args, "-preset", preset)

		if set.TuneAnimation && !gpu {
			args = append(args, "-tune", "animation")
		}

		// Constant quality drives the encode unless a target bitrate
		// takes over.
		if !set.UseTargetBitrate {
			switch {
			case gpu:
				args = append(args, "-rc", "vbr", "-qp", strconv.Itoa(set.CQ), "-qmax", strconv.Itoa(set.CQ+3))
			case strings.Contains(codec, "svtav1"):
				args = append(args, "-crf", strconv.Itoa(set.CQ))
			default:
				args = append(args, "-rc", "vbr", "-crf", strconv.Itoa(set.CQ))
			}
		}
		if !gpu {
			args = append(args, "-aq-mode", "2")
		}
	}

	if set.UseTargetBitrate || set.UseBitrateLimits {
		w := set.windowForHeight(rec.Height)
		if set.UseTargetBitrate {
			args = append(args, "-b:v", fmt.Sprintf("%dk", w.target))
		}
		if set.UseBitrateLimits {
			args = append(args, "-minrate", fmt.Sprintf("%dk", w.min), "-maxrate", fmt.Sprintf("%dk", w.max))
		}
	}

	if !set.SkipVideo {
		args = append(args, "-level", set.Level)
		args = append(args, "-pix_fmt", pixelFormat(set, rec.BitDepth, gpu))
		if !gpu {
			args = append(args, "-threads", strconv.Itoa(set.ThreadCount))
		}
	}

	// Mapping only the first video stream drops attached pictures, so
	// embedded cover art is not re-encoded as a one-frame video.
	if set.SkipCoverArt {
		args = append(args, "-map", "0:v:0")
	} else {
		args = append(args, "-map", "0:v")
	}

	args = append(args, "-map", "0:a?")
	args = append(args, dropMaps("a", rec.AudioLangs, set.FilterAudioLangs, set.AudioLanguages)...)
	args = append(args, "-c:a", "copy")

	args = append(args, "-map", "0:s?")
	args = append(args, dropMaps("s", rec.SubtitleLangs, set.FilterSubtitleLangs, set.SubtitleLanguages)...)
	args = append(args, "-c:s", "copy")

	args = append(args, "-y", "-progress", "pipe:2", output)
	return args
}

func pixelFormat(set Settings, sourceDepth int, gpu bool) string {
	if set.wants10Bit(sourceDepth) {
		if gpu {
			return "p010le"
		}
		return "yuv420p10le"
	}
	return "yuv420p"
}

// dropMaps returns negative -map flags excluding streams whose probed
// language is not on the allow-list. langs is ordered by stream index.
// When no stream would survive, no maps are emitted: filtering must
// never strip a file of all its audio or subtitles.
func dropMaps(kind string, langs []string, enabled bool, allowed []string) []string {
	if !enabled || len(allowed) == 0 || len(langs) == 0 {
		return nil
	}
	keep := make(map[string]bool, len(allowed))
	for _, l := range allowed {
		keep[strings.ToLower(l)] = true
	}

	var drops []string
	kept := 0
	for i, lang := range langs {
		if keep[strings.ToLower(lang)] {
			kept++
			continue
		}
		drops = append(drops, "-map", fmt.Sprintf("-0:%s:%d", kind, i))
	}
	if kept == 0 {
		return nil
	}
	return drops
}
