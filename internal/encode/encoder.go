package encode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vmunix/omm/internal/media"
	"github.com/vmunix/omm/internal/proc"
)

// ErrCancelled is returned by Encode when the context was cancelled
// and the ffmpeg process was stopped on purpose.
var ErrCancelled = errors.New("encode cancelled")

// stopGrace is how long a stopped ffmpeg gets to exit on SIGTERM
// before the process group is killed.
const stopGrace = 3 * time.Second

// Encoder invokes ffmpeg through a process runner, one file at a time.
type Encoder struct {
	runner proc.Runner
	bin    string
	log    *slog.Logger

	mu       sync.Mutex
	encoders string // cached `ffmpeg -encoders` output, lowercased
}

// New builds an Encoder that invokes ffmpeg through runner.
func New(runner proc.Runner, logger *slog.Logger) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Encoder{runner: runner, bin: "ffmpeg", log: logger}
}

// Resolve pins the settings' codec to what the host ffmpeg can run.
// When a hardware encoder is requested but absent from the encoder
// list, the settings fall back to software x265; the returned bool
// reports that fallback so callers can surface a warning.
func (e *Encoder) Resolve(ctx context.Context, set Settings) (Settings, bool) {
	codec := set.ResolvedCodec()
	if !strings.Contains(codec, "nvenc") || e.hasEncoder(ctx, codec) {
		set.Codec = codec
		return set, false
	}
	e.log.Warn("gpu encoder unavailable", "requested", codec, "fallback", "libx265")
	set.Codec = "libx265"
	set.UseGPU = false
	return set, true
}

// hasEncoder reports whether ffmpeg ships the named encoder. The
// encoder list is queried once and cached; if the query itself fails,
// the encoder is assumed present and ffmpeg gets to complain instead.
func (e *Encoder) hasEncoder(ctx context.Context, name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.encoders == "" {
		out, err := e.runner.Run(ctx, e.bin, "-hide_banner", "-encoders")
		if err != nil {
			e.log.Warn("encoder list query failed", "error", err)
			return true
		}
		e.encoders = strings.ToLower(string(out))
	}
	return strings.Contains(e.encoders, strings.ToLower(name))
}

// Encode runs ffmpeg over rec and blocks until the process exits.
// onProgress, when non-nil, receives parsed progress samples with
// non-decreasing percent. Cancelling the context stops the process and
// returns ErrCancelled; any other non-zero exit comes back as an error.
func (e *Encoder) Encode(ctx context.Context, rec *media.Record, set Settings, output string, onProgress func(Progress)) error {
	args := BuildArgs(rec, set, output)
	e.log.Info("encode started", "input", rec.Path, "output", output, "codec", set.ResolvedCodec())
	e.log.Debug("ffmpeg command", "args", strings.Join(args, " "))

	p, err := e.runner.Start(ctx, e.bin, args...)
	if err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	var totalFrames float64
	if rec.FPS > 0 {
		totalFrames = rec.DurationS * rec.FPS
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		var floor float64
		for line := range p.Lines() {
			prog, ok := parseStatsLine(line, rec.DurationS, totalFrames)
			if !ok {
				continue
			}
			// ffmpeg occasionally reports a stats line out of order
			// after a flush; progress never moves backwards.
			if prog.Percent < floor {
				prog.Percent = floor
			} else {
				floor = prog.Percent
			}
			if onProgress != nil {
				onProgress(prog)
			}
		}
	}()

	waitErr := make(chan error, 1)
	go func() { waitErr <- p.Wait() }()

	select {
	case <-ctx.Done():
		if err := p.Stop(stopGrace); err != nil {
			e.log.Debug("ffmpeg stop", "error", err)
		}
		<-drained
		e.log.Info("encode cancelled", "input", rec.Path)
		return ErrCancelled
	case err := <-waitErr:
		<-drained
		if err != nil {
			return fmt.Errorf("ffmpeg: %w", err)
		}
		return nil
	}
}
