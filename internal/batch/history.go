package batch

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoSession is returned when a session id has no history row.
var ErrNoSession = errors.New("session not found")

// SessionRow is the persisted form of a session. Byte totals cover
// succeeded jobs only, mirroring Stats.
type SessionRow struct {
	ID          string
	State       SessionState
	TotalJobs   int
	Succeeded   int
	Failed      int
	Cancelled   int
	BytesBefore int64
	BytesAfter  int64
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// JobRow is the persisted form of one job attempt.
type JobRow struct {
	ID           string
	SessionID    string
	Path         string
	Filename     string
	State        JobState
	ErrorMessage string
	OriginalSize int64
	EncodedSize  int64
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// Reduction returns the job's size reduction percentage.
func (r *JobRow) Reduction() float64 {
	return FileReduction{OriginalSize: r.OriginalSize, EncodedSize: r.EncodedSize}.Percent()
}

// History persists sessions and their jobs. The scheduler writes rows
// synchronously as jobs finish, so a crash loses at most the in-flight
// job.
type History struct {
	db *sql.DB
}

// NewHistory creates a history store.
func NewHistory(db *sql.DB) *History { return &History{db: db} }

// SaveSession inserts or replaces a session row. The scheduler writes
// one row at start and replaces it with the final counts at the end.
func (h *History) SaveSession(r *SessionRow) error {
	_, err := h.db.Exec(`
		INSERT OR REPLACE INTO encode_sessions
		(id, state, total_jobs, succeeded, failed, cancelled, bytes_before, bytes_after, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.State), r.TotalJobs, r.Succeeded, r.Failed, r.Cancelled,
		r.BytesBefore, r.BytesAfter, r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", r.ID, err)
	}
	return nil
}

// SaveJob inserts or replaces a job row.
func (h *History) SaveJob(r *JobRow) error {
	_, err := h.db.Exec(`
		INSERT OR REPLACE INTO encode_jobs
		(id, session_id, path, filename, state, error_message, original_size, encoded_size, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, r.Path, r.Filename, string(r.State), r.ErrorMessage,
		r.OriginalSize, r.EncodedSize, r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save job %s: %w", r.ID, err)
	}
	return nil
}

// BySession returns a session and its jobs in queue order.
// Returns ErrNoSession if the id is unknown.
func (h *History) BySession(id string) (*SessionRow, []*JobRow, error) {
	row := h.db.QueryRow(`
		SELECT id, state, total_jobs, succeeded, failed, cancelled,
		       bytes_before, bytes_after, started_at, finished_at
		FROM encode_sessions WHERE id = ?`, id)
	s, err := scanSessionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("session %s: %w", id, ErrNoSession)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get session %s: %w", id, err)
	}

	rows, err := h.db.Query(`
		SELECT id, session_id, path, filename, state, error_message,
		       original_size, encoded_size, started_at, finished_at
		FROM encode_jobs WHERE session_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list jobs for %s: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []*JobRow
	for rows.Next() {
		j := &JobRow{}
		var state string
		if err := rows.Scan(&j.ID, &j.SessionID, &j.Path, &j.Filename, &state,
			&j.ErrorMessage, &j.OriginalSize, &j.EncodedSize, &j.StartedAt, &j.FinishedAt); err != nil {
			return nil, nil, fmt.Errorf("scan job: %w", err)
		}
		j.State = JobState(state)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return s, jobs, nil
}

// Recent returns the latest sessions, newest first.
func (h *History) Recent(n int) ([]*SessionRow, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := h.db.Query(`
		SELECT id, state, total_jobs, succeeded, failed, cancelled,
		       bytes_before, bytes_after, started_at, finished_at
		FROM encode_sessions ORDER BY started_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*SessionRow
	for rows.Next() {
		s, err := scanSessionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSessionRow(row rowScanner) (*SessionRow, error) {
	s := &SessionRow{}
	var state string
	err := row.Scan(&s.ID, &state, &s.TotalJobs, &s.Succeeded, &s.Failed,
		&s.Cancelled, &s.BytesBefore, &s.BytesAfter, &s.StartedAt, &s.FinishedAt)
	if err != nil {
		return nil, err
	}
	s.State = SessionState(state)
	return s, nil
}

// sessionRow snapshots a live session for persistence.
func sessionRow(sess *Session) *SessionRow {
	st := sess.Stats()
	return &SessionRow{
		ID:          sess.ID,
		State:       sess.State(),
		TotalJobs:   len(sess.jobs),
		Succeeded:   st.Succeeded,
		Failed:      st.Failed,
		Cancelled:   st.Cancelled,
		BytesBefore: st.TotalOriginalSize,
		BytesAfter:  st.TotalEncodedSize,
		StartedAt:   sess.StartedAt,
		FinishedAt:  sess.FinishedAt(),
	}
}

func jobRow(sessionID string, job *Job) *JobRow {
	return &JobRow{
		ID:           job.ID,
		SessionID:    sessionID,
		Path:         job.Record.Path,
		Filename:     job.Record.Filename,
		State:        job.State,
		ErrorMessage: job.Error,
		OriginalSize: job.OriginalSize,
		EncodedSize:  job.EncodedSize,
		StartedAt:    job.StartedAt,
		FinishedAt:   job.FinishedAt,
	}
}

func jobRows(sess *Session) []*JobRow {
	rows := make([]*JobRow, 0, len(sess.jobs))
	for _, j := range sess.jobs {
		rows = append(rows, jobRow(sess.ID, j))
	}
	return rows
}
