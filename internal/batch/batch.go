// Package batch runs sequential encoding sessions over scanned library
// records. The scheduler builds the job queue, drives the encoder one
// file at a time, applies the post-encode disposition, and publishes
// progress on the event bus. At most one session runs at a time; a
// second start is rejected rather than queued.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vmunix/omm/internal/media"
)

// ErrBatchActive is wrapped by the ConfigError returned when a start
// request arrives while a session is still running.
var ErrBatchActive = errors.New("an encoding session is already running")

// ConfigError rejects a batch before any job runs: invalid settings or
// a second start while one session is active.
type ConfigError struct {
	Problems []string
	cause    error
}

func (e *ConfigError) Error() string {
	if len(e.Problems) == 0 {
		return "batch rejected"
	}
	return strings.Join(e.Problems, "; ")
}

func (e *ConfigError) Unwrap() error { return e.cause }

// Job is one file in the queue. Fields are mutated by the session loop
// only; read them through Session.Jobs, which copies under the lock.
type Job struct {
	ID           string
	Record       *media.Record
	OutputPath   string
	State        JobState
	Progress     float64
	FPS          float64
	ETA          string
	OriginalSize int64
	EncodedSize  int64
	Error        string
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// FileReduction is one succeeded encode's size outcome.
type FileReduction struct {
	Filename     string
	OriginalSize int64
	EncodedSize  int64
}

// Percent returns the size reduction as a percentage of the original.
// Negative when the encode grew the file.
func (r FileReduction) Percent() float64 {
	if r.OriginalSize <= 0 {
		return 0
	}
	return (1 - float64(r.EncodedSize)/float64(r.OriginalSize)) * 100
}

// Stats aggregates a session's outcome. Size totals cover succeeded
// jobs only.
type Stats struct {
	TotalOriginalSize int64
	TotalEncodedSize  int64
	Succeeded         int
	Failed            int
	Cancelled         int
	Reductions        []FileReduction
}

// Session is the handle for one batch run. Start hands it to the caller
// while the loop mutates it from its own goroutine, so all reads go
// through accessors.
type Session struct {
	ID        string
	StartedAt time.Time

	mu            sync.Mutex
	jobs          []*Job
	currentIndex  int
	state         SessionState
	stopRequested bool
	stats         Stats
	finishedAt    *time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// State returns the session's current state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StopRequested reports whether Stop was called on this session.
func (s *Session) StopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequested
}

// CurrentIndex returns the queue position of the in-flight job.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex
}

// Jobs returns a snapshot of the queue.
func (s *Session) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, len(s.jobs))
	for i, j := range s.jobs {
		out[i] = *j
	}
	return out
}

// Stats returns a snapshot of the session's aggregate outcome.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Reductions = append([]FileReduction(nil), s.stats.Reductions...)
	return st
}

// FinishedAt returns when the session reached a terminal state, nil
// while it is still running.
func (s *Session) FinishedAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishedAt
}

// Done is closed when the session loop has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the session loop has exited.
func (s *Session) Wait() { <-s.done }

// requestStop marks the session for cancellation and interrupts the
// in-flight encode. Safe to call more than once.
func (s *Session) requestStop() {
	s.mu.Lock()
	if s.stopRequested || s.state.IsTerminal() {
		s.mu.Unlock()
		return
	}
	s.stopRequested = true
	s.mu.Unlock()
	s.cancel()
}

// finish moves the session to a terminal state and stamps the time.
func (s *Session) finish(to SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.CanTransitionTo(to) {
		return
	}
	s.state = to
	now := time.Now().UTC()
	s.finishedAt = &now
}

func (s *Session) setCurrentIndex(i int) {
	s.mu.Lock()
	s.currentIndex = i
	s.mu.Unlock()
}

func (s *Session) addSuccess(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Succeeded++
	s.stats.TotalOriginalSize += job.OriginalSize
	s.stats.TotalEncodedSize += job.EncodedSize
	s.stats.Reductions = append(s.stats.Reductions, FileReduction{
		Filename:     job.Record.Filename,
		OriginalSize: job.OriginalSize,
		EncodedSize:  job.EncodedSize,
	})
}

func (s *Session) addFailed() {
	s.mu.Lock()
	s.stats.Failed++
	s.mu.Unlock()
}

func (s *Session) addCancelled() {
	s.mu.Lock()
	s.stats.Cancelled++
	s.mu.Unlock()
}

// batchETA estimates the time remaining for the whole queue from wall
// time elapsed against the batch percentage covered so far.
func (s *Session) batchETA(batchPct float64) string {
	if batchPct <= 0 {
		return "--:--"
	}
	elapsed := time.Since(s.StartedAt)
	return formatETA(time.Duration(float64(elapsed) * (100 - batchPct) / batchPct))
}

// formatETA renders a remaining duration as MM:SS, or HH:MM:SS once it
// crosses an hour.
func formatETA(d time.Duration) string {
	sec := int(d.Seconds())
	if sec < 0 {
		sec = 0
	}
	if sec >= 3600 {
		return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
	}
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

// OutputPath returns where the encoded copy of path is written: an
// "encoded" directory beside the original, with ".encoded" spliced in
// before the extension.
func OutputPath(path string) string {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	return filepath.Join(dir, "encoded", stem+".encoded"+ext)
}
