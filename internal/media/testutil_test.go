// internal/media/testutil_test.go
package media

import (
	"database/sql"
	_ "embed"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed testdata/schema.sql
var testSchema string

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

// ptr is a helper to create pointer to value
func ptr[T any](v T) *T {
	return &v
}

// testRecord returns a plausible compliant episode record at the given path.
func testRecord(path string) *Record {
	return &Record{
		Path:          path,
		Filename:      "Slow Horses - S01E03.mkv",
		Category:      CategoryShow,
		ShowName:      "Slow Horses",
		Season:        ptr(1),
		Episode:       ptr(3),
		Tier:          Tier1080p,
		Width:         1920,
		Height:        1080,
		Codec:         "hevc",
		BitDepth:      10,
		BitrateKbps:   2800,
		DurationS:     2710.5,
		FPS:           23.976,
		FileSizeBytes: 948640000,
		AudioCodec:    "aac",
		AudioLangs:    []string{"eng"},
		SubtitleLangs: []string{"eng", "spa"},
		Status:        StatusCompliant,
		ScannedAt:     time.Now(),
	}
}
