package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vmunix/omm/internal/classify"
	"github.com/vmunix/omm/internal/encode"
	"github.com/vmunix/omm/internal/events"
	"github.com/vmunix/omm/internal/media"
	"github.com/vmunix/omm/internal/probe"
)

// Encoder resolves settings against the host and runs one encode.
type Encoder interface {
	Resolve(ctx context.Context, set encode.Settings) (encode.Settings, bool)
	Encode(ctx context.Context, rec *media.Record, set encode.Settings, output string, onProgress func(encode.Progress)) error
}

// Prober re-inspects a file after its original was replaced.
type Prober interface {
	Probe(ctx context.Context, path string, sizeBytes int64) (*probe.Info, error)
}

// RecordStore persists record updates after a replacement.
type RecordStore interface {
	SaveRecord(r *media.Record) error
}

// Deps are the scheduler's collaborators. Prober, Store, History, and
// Bus may each be nil, which skips the matching side effect.
type Deps struct {
	Prober    Prober
	Store     RecordStore
	History   *History
	Bus       *events.Bus
	Standards media.Standards
}

// Scheduler owns at most one running session.
type Scheduler struct {
	enc  Encoder
	deps Deps
	log  *slog.Logger

	mu      sync.Mutex
	current *Session
}

// NewScheduler builds a scheduler around the given encoder.
func NewScheduler(enc Encoder, deps Deps, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{enc: enc, deps: deps, log: logger}
}

// Start validates the settings, builds the job queue, and launches the
// session loop in its own goroutine. It fails with *ConfigError when a
// session is already running or the settings are structurally invalid;
// no job runs in either case. Cancelling ctx stops the session the same
// way Stop does.
func (s *Scheduler) Start(ctx context.Context, records []*media.Record, set encode.Settings) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && !s.current.State().IsTerminal() {
		return nil, &ConfigError{
			Problems: []string{"an encoding session is already running"},
			cause:    ErrBatchActive,
		}
	}

	set.Normalize()
	if problems := set.Validate(); len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}

	set, fellBack := s.enc.Resolve(ctx, set)

	runCtx, cancel := context.WithCancel(ctx)
	sess := &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		jobs:      prepareJobs(records, set),
		state:     SessionRunning,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	if s.deps.History != nil {
		if err := s.deps.History.SaveSession(sessionRow(sess)); err != nil {
			s.log.Error("save session history", "session_id", sess.ID, "error", err)
		}
	}

	s.current = sess
	go s.run(runCtx, sess, set, fellBack)
	return sess, nil
}

// Stop requests cancellation of the running session: the in-flight
// encode is terminated and queued jobs are cancelled without spawning.
// It is a no-op when nothing is running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	sess := s.current
	s.mu.Unlock()
	if sess != nil {
		sess.requestStop()
	}
}

// Current returns the most recent session, which may already have
// finished, or nil before the first start.
func (s *Scheduler) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Eligible reports whether a record would be queued for encoding.
// Compliant and below-standard records never encode; extras are
// skipped when the settings say so.
func Eligible(rec *media.Record, set encode.Settings) bool {
	if rec == nil {
		return false
	}
	if rec.Status == media.StatusCompliant || rec.Status == media.StatusBelowStandard {
		return false
	}
	if set.IgnoreExtras && rec.Category == media.CategoryExtra {
		return false
	}
	return true
}

// prepareJobs builds the ordered queue from the eligible records.
func prepareJobs(records []*media.Record, set encode.Settings) []*Job {
	var jobs []*Job
	for _, rec := range records {
		if !Eligible(rec, set) {
			continue
		}
		jobs = append(jobs, &Job{
			ID:           uuid.NewString(),
			Record:       rec,
			OutputPath:   OutputPath(rec.Path),
			State:        JobQueued,
			ETA:          "--:--",
			OriginalSize: rec.FileSizeBytes,
		})
	}
	return jobs
}

func (s *Scheduler) run(ctx context.Context, sess *Session, set encode.Settings, fellBack bool) {
	defer close(sess.done)

	total := len(sess.jobs)
	s.publish(ctx, &events.EncodingStart{
		BaseEvent: events.NewBaseEvent(events.EventEncodingStart, events.EntitySession, sess.ID),
		JobCount:  total,
	})
	s.logEvent(ctx, sess.ID, events.LogInfo, fmt.Sprintf("Starting batch encoding of %d files", total))
	if fellBack {
		s.logEvent(ctx, sess.ID, events.LogWarning, "GPU encoder not available, falling back to libx265")
	}
	s.log.Info("batch started", "session_id", sess.ID, "jobs", total, "codec", set.ResolvedCodec())

	for i, job := range sess.jobs {
		if sess.StopRequested() || ctx.Err() != nil {
			s.cancelQueued(sess, job)
			continue
		}
		sess.setCurrentIndex(i)
		s.runJob(ctx, sess, job, set, i, total)
	}

	stopped := sess.StopRequested() || ctx.Err() != nil
	if stopped {
		sess.finish(SessionStopped)
		s.publish(ctx, &events.EncodingStopped{
			BaseEvent: events.NewBaseEvent(events.EventEncodingStopped, events.EntitySession, sess.ID),
		})
		s.logEvent(ctx, sess.ID, events.LogWarning, "Encoding stopped")
	} else {
		sess.finish(SessionCompleted)
		s.publish(ctx, &events.EncodingComplete{
			BaseEvent: events.NewBaseEvent(events.EventEncodingComplete, events.EntitySession, sess.ID),
		})
	}

	row := sessionRow(sess)
	if s.deps.History != nil {
		if err := s.deps.History.SaveSession(row); err != nil {
			s.log.Error("save session history", "session_id", sess.ID, "error", err)
		}
	}
	if row.Succeeded > 0 {
		s.logEvent(ctx, sess.ID, events.LogReductionInfo, Report(row, jobRows(sess)))
	}

	st := sess.Stats()
	s.log.Info("batch finished",
		"session_id", sess.ID,
		"state", sess.State(),
		"succeeded", st.Succeeded,
		"failed", st.Failed,
		"cancelled", st.Cancelled,
		"duration", time.Since(sess.StartedAt).Round(time.Second))
}

func (s *Scheduler) runJob(ctx context.Context, sess *Session, job *Job, set encode.Settings, index, total int) {
	rec := job.Record
	s.setJobState(sess, job, JobRunning)

	s.publish(ctx, &events.FileStart{
		BaseEvent: events.NewBaseEvent(events.EventFileStart, events.EntityFile, rec.Path),
		Filename:  rec.Filename,
	})
	s.logEvent(ctx, sess.ID, events.LogFileStart, "Encoding: "+rec.Filename)

	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0755); err != nil {
		s.failJob(ctx, sess, job, fmt.Sprintf("create output directory: %v", err))
		return
	}

	onProgress := func(p encode.Progress) {
		batchPct := (float64(index)*100 + p.Percent) / float64(total)
		sess.mu.Lock()
		job.Progress = p.Percent
		job.FPS = p.FPS
		job.ETA = p.ETA
		sess.mu.Unlock()
		s.publish(ctx, &events.FileProgress{
			BaseEvent:     events.NewBaseEvent(events.EventFileProgress, events.EntityFile, rec.Path),
			Filename:      rec.Filename,
			Progress:      p.Percent,
			FPS:           p.FPS,
			ETA:           p.ETA,
			BatchProgress: batchPct,
			BatchETA:      sess.batchETA(batchPct),
		})
	}

	err := s.enc.Encode(ctx, rec, set, job.OutputPath, onProgress)
	switch {
	case errors.Is(err, encode.ErrCancelled):
		// Partial output must never look like a finished artifact.
		s.removeOutput(job.OutputPath)
		s.setJobState(sess, job, JobCancelled)
		sess.addCancelled()
		s.logEvent(ctx, sess.ID, events.LogWarning, "Cancelled: "+rec.Filename)
		s.publishComplete(ctx, job, false)
		s.saveJob(sess, job)
	case err != nil:
		s.failJob(ctx, sess, job, err.Error())
	default:
		s.finishSuccess(ctx, sess, job, set)
	}
}

// finishSuccess applies the post-encode disposition after a clean
// process exit: broken-output checks first, then the keep-or-replace
// decision.
func (s *Scheduler) finishSuccess(ctx context.Context, sess *Session, job *Job, set encode.Settings) {
	rec := job.Record

	info, err := os.Stat(job.OutputPath)
	if err != nil || info.Size() == 0 {
		s.removeOutput(job.OutputPath)
		s.failJob(ctx, sess, job, "output file is empty or missing")
		return
	}
	encoded := info.Size()

	// Under 1% of the original means the encode silently produced
	// garbage even though ffmpeg exited zero.
	if set.AutoRemoveBroken && encoded*100 < job.OriginalSize {
		s.removeOutput(job.OutputPath)
		s.failJob(ctx, sess, job,
			fmt.Sprintf("output suspiciously small (%d of %d bytes), removed", encoded, job.OriginalSize))
		return
	}

	if set.AutoMoveSmaller {
		if encoded >= job.OriginalSize {
			s.removeOutput(job.OutputPath)
			s.succeedJob(ctx, sess, job, job.OriginalSize)
			s.logEvent(ctx, sess.ID, events.LogInfo,
				fmt.Sprintf("Kept original: %s (encoded file was not smaller)", rec.Filename))
			return
		}
		if err := os.Rename(job.OutputPath, rec.Path); err != nil {
			s.removeOutput(job.OutputPath)
			s.failJob(ctx, sess, job, fmt.Sprintf("replace original: %v", err))
			return
		}
		rec.FileSizeBytes = encoded
		s.reclassify(ctx, rec)
		s.succeedJob(ctx, sess, job, encoded)
		s.logEvent(ctx, sess.ID, events.LogReductionInfo,
			fmt.Sprintf("Replaced: %s (%.2f%% smaller)", rec.Filename,
				FileReduction{OriginalSize: job.OriginalSize, EncodedSize: encoded}.Percent()))
		return
	}

	s.succeedJob(ctx, sess, job, encoded)
	s.logEvent(ctx, sess.ID, events.LogReductionInfo,
		fmt.Sprintf("Encoded: %s (%.2f%% smaller)", rec.Filename,
			FileReduction{OriginalSize: job.OriginalSize, EncodedSize: encoded}.Percent()))
}

// reclassify refreshes a record whose file content changed. Without a
// prober the technical attributes are unknowable, so the status is left
// for the next scan to settle.
func (s *Scheduler) reclassify(ctx context.Context, rec *media.Record) {
	if s.deps.Prober != nil {
		info, err := s.deps.Prober.Probe(ctx, rec.Path, rec.FileSizeBytes)
		if err != nil {
			s.log.Warn("re-probe failed", "path", rec.Path, "error", err)
		} else {
			applyProbe(rec, info)
			rec.Status, rec.Issues = classify.Evaluate(rec, s.deps.Standards)
		}
	}
	rec.ScannedAt = time.Now().UTC()
	if s.deps.Store != nil {
		if err := s.deps.Store.SaveRecord(rec); err != nil {
			s.log.Error("save record", "path", rec.Path, "error", err)
		}
	}
}

func applyProbe(rec *media.Record, info *probe.Info) {
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
}

func (s *Scheduler) succeedJob(ctx context.Context, sess *Session, job *Job, encodedSize int64) {
	sess.mu.Lock()
	job.EncodedSize = encodedSize
	job.Progress = 100
	sess.mu.Unlock()
	s.setJobState(sess, job, JobSucceeded)
	sess.addSuccess(job)
	s.publishComplete(ctx, job, true)
	s.saveJob(sess, job)
}

func (s *Scheduler) failJob(ctx context.Context, sess *Session, job *Job, msg string) {
	sess.mu.Lock()
	job.Error = msg
	sess.mu.Unlock()
	s.setJobState(sess, job, JobFailed)
	sess.addFailed()
	s.log.Warn("encode failed", "path", job.Record.Path, "error", msg)
	s.logEvent(ctx, sess.ID, events.LogError, fmt.Sprintf("Failed: %s: %s", job.Record.Filename, msg))
	s.publishComplete(ctx, job, false)
	s.saveJob(sess, job)
}

// cancelQueued marks a job that never ran. No file events are published
// for it; it only shows up in the final counts.
func (s *Scheduler) cancelQueued(sess *Session, job *Job) {
	s.setJobState(sess, job, JobCancelled)
	sess.addCancelled()
	s.saveJob(sess, job)
}

func (s *Scheduler) setJobState(sess *Session, job *Job, to JobState) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !job.State.CanTransitionTo(to) {
		s.log.Error("invalid job transition", "job_id", job.ID, "from", job.State, "to", to)
		return
	}
	job.State = to
	now := time.Now().UTC()
	switch {
	case to == JobRunning:
		job.StartedAt = &now
	case to.IsTerminal():
		job.FinishedAt = &now
	}
}

func (s *Scheduler) publishComplete(ctx context.Context, job *Job, success bool) {
	s.publish(ctx, &events.FileComplete{
		BaseEvent:    events.NewBaseEvent(events.EventFileComplete, events.EntityFile, job.Record.Path),
		Filename:     job.Record.Filename,
		Success:      success,
		OriginalSize: job.OriginalSize,
		EncodedSize:  job.EncodedSize,
	})
}

func (s *Scheduler) saveJob(sess *Session, job *Job) {
	if s.deps.History == nil {
		return
	}
	if err := s.deps.History.SaveJob(jobRow(sess.ID, job)); err != nil {
		s.log.Error("save job history", "job_id", job.ID, "error", err)
	}
}

func (s *Scheduler) removeOutput(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("remove output", "path", path, "error", err)
	}
}

func (s *Scheduler) publish(ctx context.Context, e events.Event) {
	if s.deps.Bus == nil {
		return
	}
	_ = s.deps.Bus.Publish(ctx, e)
}

func (s *Scheduler) logEvent(ctx context.Context, sessionID, logType, message string) {
	s.publish(ctx, events.NewLogMessage(events.EntitySession, sessionID, logType, message))
}
