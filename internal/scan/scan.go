// Package scan walks a media library, probes every file it keeps, and
// returns classified records. The walk is sequential and cheap; probing
// fans out across a bounded worker pool because ffprobe dominates the
// cost of a scan.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/omm/internal/classify"
	"github.com/vmunix/omm/internal/events"
	"github.com/vmunix/omm/internal/media"
	"github.com/vmunix/omm/internal/probe"
	"github.com/vmunix/omm/pkg/shows"
)

// Prober extracts the technical attributes of one media file.
type Prober interface {
	Probe(ctx context.Context, path string, sizeBytes int64) (*probe.Info, error)
}

const (
	defaultWorkers = 8
	defaultMinSize = 1 << 20 // 1 MiB

	// progressEvery is how many probed files pass between progress
	// events on the bus.
	progressEvery = 25
)

var defaultExtensions = []string{".mkv", ".mp4", ".avi", ".mov", ".m4v", ".ts"}

// skipDirs are directory names that never hold library media. The
// encoded directory is this tool's own output; rescanning it would feed
// encodes back into the queue.
var skipDirs = map[string]bool{
	"encoded":      true,
	"node_modules": true,
}

// Options tune a Scanner. Zero values fall back to defaults.
type Options struct {
	Workers       int      // concurrent probes
	MinFileSize   int64    // bytes; smaller files are samples or stubs, not media
	Extensions    []string // media file extensions, including the dot
	ExtrasMarkers []string // regexp fragments marking bonus material
}

// Scanner walks library roots and produces media records.
type Scanner struct {
	prober  Prober
	bus     *events.Bus // may be nil
	log     *slog.Logger
	workers int
	minSize int64
	exts    map[string]bool
	markers []*regexp.Regexp
}

// New builds a Scanner. The bus is optional; without one the scanner
// still works but publishes no progress events.
func New(prober Prober, bus *events.Bus, logger *slog.Logger, opts Options) (*Scanner, error) {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.MinFileSize <= 0 {
		opts.MinFileSize = defaultMinSize
	}
	extensions := opts.Extensions
	if len(extensions) == 0 {
		extensions = defaultExtensions
	}
	patterns := opts.ExtrasMarkers
	if len(patterns) == 0 {
		patterns = shows.DefaultExtrasMarkers
	}
	markers, err := shows.CompileMarkers(patterns)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}
	return &Scanner{
		prober:  prober,
		bus:     bus,
		log:     logger,
		workers: opts.Workers,
		minSize: opts.MinFileSize,
		exts:    exts,
		markers: markers,
	}, nil
}

// candidate is one file the walk kept for probing.
type candidate struct {
	path string
	size int64
}

// Scan walks root, probes every media file, and classifies each against
// std. A file that fails to probe becomes an error record; the scan
// itself only fails on a broken walk or a cancelled context. Records
// come back in walk (lexical) order.
func (s *Scanner) Scan(ctx context.Context, root string, std media.Standards) ([]*media.Record, error) {
	start := time.Now()
	files, dirCounts, err := s.collect(root)
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, root, events.LogInfo, fmt.Sprintf("Scanning %d media files in %s", len(files), root))
	s.log.Info("scan started", "root", root, "files", len(files), "workers", s.workers)

	records := make([]*media.Record, len(files))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := s.processFile(gctx, f, dirCounts[filepath.Dir(f.path)], std)
			if err != nil {
				return err
			}
			records[i] = rec
			if n := done.Add(1); n%progressEvery == 0 {
				s.logEvent(gctx, root, events.LogInfo, fmt.Sprintf("Scanned %d/%d files", n, len(files)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.associateExtras(records)

	var errCount int
	for _, r := range records {
		if r.Status == media.StatusError {
			errCount++
		}
	}
	s.logEvent(ctx, root, events.LogInfo, fmt.Sprintf("Scan complete: %d files, %d errors", len(records), errCount))
	s.log.Info("scan finished", "root", root,
		"files", len(records), "errors", errCount,
		"duration", time.Since(start).Round(time.Millisecond))
	return records, nil
}

// collect walks root and returns the files worth probing, plus a count
// of media files per directory. The single-file heuristic needs sibling
// counts, and counting during the walk avoids re-listing directories on
// network mounts.
func (s *Scanner) collect(root string) ([]candidate, map[string]int, error) {
	var files []candidate
	dirCounts := make(map[string]int)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || skipDirs[d.Name()]) {
				return fs.SkipDir
			}
			return nil
		}
		if !s.exts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		dirCounts[filepath.Dir(path)]++
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() < s.minSize {
			return nil
		}
		files = append(files, candidate{path: path, size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, dirCounts, nil
}

// processFile builds the record for one file. Structure comes first:
// category and show fields derive from the path alone, so they survive
// a failed probe.
func (s *Scanner) processFile(ctx context.Context, c candidate, dirFiles int, std media.Standards) (*media.Record, error) {
	rec := &media.Record{
		Path:          c.path,
		Filename:      filepath.Base(c.path),
		FileSizeBytes: c.size,
		Status:        media.StatusScanning,
		ScannedAt:     time.Now().UTC(),
	}
	rec.Category = s.detectCategory(c.path)
	s.detectShow(rec, dirFiles)

	info, err := s.prober.Probe(ctx, c.path, c.size)
	if err != nil {
		if ctx.Err() != nil {
			// A cancelled probe is not a broken file.
			return nil, ctx.Err()
		}
		rec.Status = media.StatusError
		rec.ErrorMessage = err.Error()
		s.log.Warn("probe failed", "path", c.path, "error", err)
		return rec, nil
	}

	rec.Codec = info.Codec
	rec.Width = info.Width
	rec.Height = info.Height
	rec.BitDepth = info.BitDepth
	rec.BitrateKbps = info.BitrateKbps
	rec.DurationS = info.DurationS
	rec.FPS = info.FPS
	rec.AudioCodec = info.AudioCodec
	rec.AudioLangs = info.AudioLangs
	rec.SubtitleLangs = info.SubtitleLangs
	rec.HasCoverArt = info.HasCoverArt
	rec.Tier = media.TierFromDimensions(info.Width, info.Height)

	rec.Status, rec.Issues = classify.Evaluate(rec, std)
	return rec, nil
}

func (s *Scanner) logEvent(ctx context.Context, root, logType, message string) {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(ctx, events.NewLogMessage(events.EntityScan, root, logType, message))
}
