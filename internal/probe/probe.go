// Package probe extracts technical metadata from media files by running
// ffprobe against the container headers.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/vmunix/omm/internal/proc"
)

// probeTimeout bounds a single ffprobe invocation. Header-only reads
// finish in well under a second; anything slower is a stuck mount.
const probeTimeout = 10 * time.Second

// showEntries keeps ffprobe to header fields so no stream analysis runs.
const showEntries = "stream=codec_name,codec_type,width,height,pix_fmt,r_frame_rate,channels,disposition:stream_tags=language:format=duration"

// Info holds the attributes extracted from one media file.
type Info struct {
	Codec         string
	Width         int
	Height        int
	BitDepth      int
	FPS           float64
	DurationS     float64
	BitrateKbps   int
	AudioCodec    string
	AudioChannels int
	AudioLangs    []string // one entry per audio stream, in stream order
	SubtitleLangs []string // one entry per subtitle stream, in stream order
	HasCoverArt   bool
}

// FFProbe probes files by invoking the ffprobe binary.
type FFProbe struct {
	runner  proc.Runner
	bin     string
	timeout time.Duration
	log     *slog.Logger
}

// New creates a prober that runs commands through runner.
func New(runner proc.Runner, log *slog.Logger) *FFProbe {
	return &FFProbe{runner: runner, bin: "ffprobe", timeout: probeTimeout, log: log}
}

// Probe reads the container header of the file at path and returns its
// technical attributes. The file's size is needed by callers to derive
// the average bitrate; see ParseJSON.
func (f *FFProbe) Probe(ctx context.Context, path string, sizeBytes int64) (*Info, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	out, err := f.runner.Run(ctx, f.bin,
		"-v", "error",
		"-analyzeduration", "5M",
		"-print_format", "json",
		"-show_entries", showEntries,
		path,
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("probe %s: timed out after %s", path, f.timeout)
		}
		return nil, fmt.Errorf("probe %s: %w", path, stderrMessage(err))
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		f.log.Debug("slow probe", "path", path, "duration_ms", elapsed.Milliseconds())
	}

	info, err := ParseJSON(out, sizeBytes)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	return info, nil
}

// stderrMessage lifts ffprobe's stderr out of an exit error so the
// failure reads as the tool's own diagnostic.
func stderrMessage(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if msg := strings.TrimSpace(string(exitErr.Stderr)); msg != "" {
			if i := strings.IndexByte(msg, '\n'); i > 0 {
				msg = msg[:i]
			}
			return fmt.Errorf("ffprobe: %s", msg)
		}
	}
	return err
}
