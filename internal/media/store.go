package media

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// querier abstracts *sql.DB and *sql.Tx for shared query logic.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

// Store provides access to the scanned library.
type Store struct {
	db *sql.DB
}

// NewStore creates a new media store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Begin starts a transaction.
func (s *Store) Begin() (*Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx wraps a database transaction with the same methods as Store.
type Tx struct {
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// mapSQLiteError converts SQLite errors to custom error types.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	// modernc.org/sqlite wraps errors; check error message for constraint violations
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "PRIMARY KEY constraint failed") {
		return ErrDuplicate
	}
	if strings.Contains(errStr, "FOREIGN KEY constraint failed") ||
		strings.Contains(errStr, "CHECK constraint failed") ||
		strings.Contains(errStr, "NOT NULL constraint failed") {
		return ErrConstraint
	}
	return err
}

const recordColumns = `path, filename, category, show_name, season, episode,
	resolution_tier, width, height, codec, bit_depth, bitrate_kbps,
	duration_s, fps, file_size_bytes, audio_codec, audio_langs,
	subtitle_langs, has_cover_art, status, error_message, issues, scanned_at`

// Lists are stored as delimited text. Languages are short codes so a
// comma is safe; issues are free-form sentences so they get newlines.
func joinLangs(langs []string) string { return strings.Join(langs, ",") }

func joinIssues(issues []string) string { return strings.Join(issues, "\n") }

func splitField(s, sep string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, sep)
}

func saveRecord(q querier, r *Record) error {
	if r.ScannedAt.IsZero() {
		r.ScannedAt = time.Now()
	}
	_, err := q.Exec(`
		INSERT OR REPLACE INTO media_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Path, r.Filename, string(r.Category), r.ShowName, r.Season, r.Episode,
		r.Tier.String(), r.Width, r.Height, r.Codec, r.BitDepth, r.BitrateKbps,
		r.DurationS, r.FPS, r.FileSizeBytes, r.AudioCodec, joinLangs(r.AudioLangs),
		joinLangs(r.SubtitleLangs), r.HasCoverArt, string(r.Status), r.ErrorMessage,
		joinIssues(r.Issues), r.ScannedAt,
	)
	if err != nil {
		return fmt.Errorf("save record %s: %w", r.Path, mapSQLiteError(err))
	}
	return nil
}

// SaveRecord inserts a record, replacing any existing record at the same
// path. Rescans go through here so a record is always a whole snapshot.
func (s *Store) SaveRecord(r *Record) error { return saveRecord(s.db, r) }

// SaveRecord inserts or replaces a record within a transaction.
func (t *Tx) SaveRecord(r *Record) error { return saveRecord(t.tx, r) }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	r := &Record{}
	var category, tier, status, audioLangs, subtitleLangs, issues string
	err := row.Scan(
		&r.Path, &r.Filename, &category, &r.ShowName, &r.Season, &r.Episode,
		&tier, &r.Width, &r.Height, &r.Codec, &r.BitDepth, &r.BitrateKbps,
		&r.DurationS, &r.FPS, &r.FileSizeBytes, &r.AudioCodec, &audioLangs,
		&subtitleLangs, &r.HasCoverArt, &status, &r.ErrorMessage, &issues, &r.ScannedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Category = Category(category)
	r.Tier = ParseTier(tier)
	r.Status = Status(status)
	r.AudioLangs = splitField(audioLangs, ",")
	r.SubtitleLangs = splitField(subtitleLangs, ",")
	r.Issues = splitField(issues, "\n")
	return r, nil
}

func getRecord(q querier, path string) (*Record, error) {
	row := q.QueryRow(`SELECT `+recordColumns+` FROM media_records WHERE path = ?`, path)
	r, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", path, mapSQLiteError(err))
	}
	return r, nil
}

// GetRecord retrieves a record by path.
// Returns ErrNotFound if no record exists at that path.
func (s *Store) GetRecord(path string) (*Record, error) { return getRecord(s.db, path) }

// GetRecord retrieves a record by path within a transaction.
func (t *Tx) GetRecord(path string) (*Record, error) { return getRecord(t.tx, path) }

func listRecords(q querier, f RecordFilter) ([]*Record, int, error) {
	var conditions []string
	var args []any

	if f.Category != nil {
		conditions = append(conditions, "category = ?")
		args = append(args, string(*f.Category))
	}
	if f.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*f.Status))
	}
	if f.Tier != nil {
		conditions = append(conditions, "resolution_tier = ?")
		args = append(args, f.Tier.String())
	}
	if f.ShowName != nil {
		conditions = append(conditions, "show_name = ?")
		args = append(args, *f.ShowName)
	}
	if f.PathPrefix != nil {
		conditions = append(conditions, `path LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(*f.PathPrefix)+"%")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.QueryRow("SELECT COUNT(*) FROM media_records "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}

	query := "SELECT " + recordColumns + " FROM media_records " + whereClause + " ORDER BY path"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan record: %w", err)
		}
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// ListRecords returns records matching the filter plus the total count
// before limit/offset are applied.
func (s *Store) ListRecords(f RecordFilter) ([]*Record, int, error) { return listRecords(s.db, f) }

// ListRecords returns matching records within a transaction.
func (t *Tx) ListRecords(f RecordFilter) ([]*Record, int, error) { return listRecords(t.tx, f) }

func deleteRecord(q querier, path string) error {
	if _, err := q.Exec(`DELETE FROM media_records WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete record %s: %w", path, mapSQLiteError(err))
	}
	return nil
}

// DeleteRecord removes a record by path. Deleting a missing record is
// not an error.
func (s *Store) DeleteRecord(path string) error { return deleteRecord(s.db, path) }

// DeleteRecord removes a record by path within a transaction.
func (t *Tx) DeleteRecord(path string) error { return deleteRecord(t.tx, path) }

func pruneBefore(q querier, prefix string, cutoff time.Time) (int64, error) {
	result, err := q.Exec(`DELETE FROM media_records WHERE path LIKE ? ESCAPE '\' AND scanned_at < ?`,
		escapeLike(prefix)+"%", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune records under %s: %w", prefix, mapSQLiteError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// PruneBefore removes records under a directory prefix that were last
// scanned before the cutoff. A rescan calls this with its start time so
// files that vanished from disk drop out of the library.
func (s *Store) PruneBefore(prefix string, cutoff time.Time) (int64, error) {
	return pruneBefore(s.db, prefix, cutoff)
}

// PruneBefore removes stale records within a transaction.
func (t *Tx) PruneBefore(prefix string, cutoff time.Time) (int64, error) {
	return pruneBefore(t.tx, prefix, cutoff)
}

// LibraryStats summarizes the library for status reporting.
type LibraryStats struct {
	Total      int
	TotalBytes int64
	ByStatus   map[Status]int
	ByCategory map[Category]int
	ByTier     map[Tier]int
}

func libraryStats(q querier) (*LibraryStats, error) {
	stats := &LibraryStats{
		ByStatus:   make(map[Status]int),
		ByCategory: make(map[Category]int),
		ByTier:     make(map[Tier]int),
	}

	var totalBytes sql.NullInt64
	if err := q.QueryRow(`SELECT COUNT(*), SUM(file_size_bytes) FROM media_records`).
		Scan(&stats.Total, &totalBytes); err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	stats.TotalBytes = totalBytes.Int64

	groupBy := func(column string, assign func(key string, n int)) error {
		rows, err := q.Query(`SELECT ` + column + `, COUNT(*) FROM media_records GROUP BY ` + column)
		if err != nil {
			return fmt.Errorf("group by %s: %w", column, err)
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			var key string
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				return fmt.Errorf("scan %s count: %w", column, err)
			}
			assign(key, n)
		}
		return rows.Err()
	}

	if err := groupBy("status", func(key string, n int) { stats.ByStatus[Status(key)] = n }); err != nil {
		return nil, err
	}
	if err := groupBy("category", func(key string, n int) { stats.ByCategory[Category(key)] = n }); err != nil {
		return nil, err
	}
	if err := groupBy("resolution_tier", func(key string, n int) { stats.ByTier[ParseTier(key)] = n }); err != nil {
		return nil, err
	}
	return stats, nil
}

// Stats returns aggregate counts across the whole library.
func (s *Store) Stats() (*LibraryStats, error) { return libraryStats(s.db) }

// Stats returns aggregate counts within a transaction.
func (t *Tx) Stats() (*LibraryStats, error) { return libraryStats(t.tx) }
