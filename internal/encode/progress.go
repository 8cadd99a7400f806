package encode

import (
	"fmt"
	"strconv"
	"strings"
)

// Progress is one parsed sample from a running encode. Percent is
// 0-100; ETA is a display string, "--:--" until the rate is known.
type Progress struct {
	Percent float64
	FPS     float64
	Speed   float64
	ETA     string
}

// parseStatsLine extracts progress from one ffmpeg stderr line. Only
// the periodic status line carries both frame= and time= together; the
// -progress key=value stream and general log chatter fall through.
//
// Percent prefers the frame count against the expected total (exact
// for constant-rate sources); when the source frame rate is unknown it
// falls back to output time over duration.
func parseStatsLine(line string, duration, totalFrames float64) (Progress, bool) {
	if !strings.Contains(line, "frame=") || !strings.Contains(line, "time=") {
		return Progress{}, false
	}

	frame := tokenFloat(line, "frame=")
	elapsed := parseClock(tokenAfter(line, "time="))

	var percent float64
	switch {
	case totalFrames > 0 && frame > 0:
		percent = frame / totalFrames * 100
	case elapsed > 0 && duration > 0:
		percent = elapsed / duration * 100
	default:
		return Progress{}, false
	}
	if percent > 100 {
		percent = 100
	}

	fps := tokenFloat(line, "fps=")
	speed, _ := strconv.ParseFloat(strings.TrimSuffix(tokenAfter(line, "speed="), "x"), 64)

	eta := "--:--"
	if fps > 0 && totalFrames > 0 && frame > 0 {
		remaining := (totalFrames - frame) / fps
		if remaining < 0 {
			remaining = 0
		}
		eta = fmt.Sprintf("%02d:%02d", int(remaining)/60, int(remaining)%60)
	}

	return Progress{Percent: percent, FPS: fps, Speed: speed, ETA: eta}, true
}

// tokenAfter returns the token following key. ffmpeg pads small values
// ("frame=  243"), so the value may be separated from its key.
func tokenAfter(line, key string) string {
	_, rest, ok := strings.Cut(line, key)
	if !ok {
		return ""
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func tokenFloat(line, key string) float64 {
	v, _ := strconv.ParseFloat(tokenAfter(line, key), 64)
	return v
}

// parseClock converts an ffmpeg timestamp (HH:MM:SS.ss, MM:SS, or bare
// seconds) to seconds. Unparseable input yields 0.
func parseClock(s string) float64 {
	if s == "" {
		return 0
	}
	var total float64
	for _, part := range strings.Split(s, ":") {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0
		}
		total = total*60 + v
	}
	return total
}
