package media

import (
	"errors"
	"testing"
	"time"
)

func TestStore_SaveRecord(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	r := testRecord("/tv/Slow Horses/Season 1/Slow Horses - S01E03.mkv")
	r.ScannedAt = time.Time{}

	before := time.Now()
	if err := store.SaveRecord(r); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	after := time.Now()

	// ScannedAt should be backfilled when zero
	if r.ScannedAt.Before(before) || r.ScannedAt.After(after) {
		t.Errorf("ScannedAt %v not in expected range [%v, %v]", r.ScannedAt, before, after)
	}
}

func TestStore_SaveRecord_ReplacesExisting(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	path := "/tv/Slow Horses/Season 1/Slow Horses - S01E03.mkv"

	first := testRecord(path)
	first.Status = StatusNeedsReencoding
	first.Issues = []string{"codec h264 does not match required hevc"}
	if err := store.SaveRecord(first); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	second := testRecord(path)
	second.Codec = "hevc"
	second.Status = StatusCompliant
	if err := store.SaveRecord(second); err != nil {
		t.Fatalf("SaveRecord replace: %v", err)
	}

	// The second save is a whole-row replacement, not a merge
	retrieved, err := store.GetRecord(path)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if retrieved.Status != StatusCompliant {
		t.Errorf("Status = %q, want compliant", retrieved.Status)
	}
	if len(retrieved.Issues) != 0 {
		t.Errorf("Issues = %v, want none after replacement", retrieved.Issues)
	}

	_, total, err := store.ListRecords(RecordFilter{})
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestStore_GetRecord(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	original := testRecord("/tv/Slow Horses/Season 1/Slow Horses - S01E03.mkv")
	original.ErrorMessage = ""
	original.Issues = []string{"bitrate 5200 kbps above 4000 kbps max for 1080p"}
	if err := store.SaveRecord(original); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	retrieved, err := store.GetRecord(original.Path)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}

	// Verify all fields
	if retrieved.Path != original.Path {
		t.Errorf("Path = %q, want %q", retrieved.Path, original.Path)
	}
	if retrieved.Filename != original.Filename {
		t.Errorf("Filename = %q, want %q", retrieved.Filename, original.Filename)
	}
	if retrieved.Category != original.Category {
		t.Errorf("Category = %q, want %q", retrieved.Category, original.Category)
	}
	if retrieved.ShowName != original.ShowName {
		t.Errorf("ShowName = %q, want %q", retrieved.ShowName, original.ShowName)
	}
	if retrieved.Season == nil || *retrieved.Season != *original.Season {
		t.Errorf("Season = %v, want %v", retrieved.Season, original.Season)
	}
	if retrieved.Episode == nil || *retrieved.Episode != *original.Episode {
		t.Errorf("Episode = %v, want %v", retrieved.Episode, original.Episode)
	}
	if retrieved.Tier != original.Tier {
		t.Errorf("Tier = %v, want %v", retrieved.Tier, original.Tier)
	}
	if retrieved.Width != original.Width || retrieved.Height != original.Height {
		t.Errorf("dimensions = %dx%d, want %dx%d", retrieved.Width, retrieved.Height, original.Width, original.Height)
	}
	if retrieved.Codec != original.Codec {
		t.Errorf("Codec = %q, want %q", retrieved.Codec, original.Codec)
	}
	if retrieved.BitDepth != original.BitDepth {
		t.Errorf("BitDepth = %d, want %d", retrieved.BitDepth, original.BitDepth)
	}
	if retrieved.BitrateKbps != original.BitrateKbps {
		t.Errorf("BitrateKbps = %d, want %d", retrieved.BitrateKbps, original.BitrateKbps)
	}
	if retrieved.DurationS != original.DurationS {
		t.Errorf("DurationS = %v, want %v", retrieved.DurationS, original.DurationS)
	}
	if retrieved.FPS != original.FPS {
		t.Errorf("FPS = %v, want %v", retrieved.FPS, original.FPS)
	}
	if retrieved.FileSizeBytes != original.FileSizeBytes {
		t.Errorf("FileSizeBytes = %d, want %d", retrieved.FileSizeBytes, original.FileSizeBytes)
	}
	if len(retrieved.AudioLangs) != 1 || retrieved.AudioLangs[0] != "eng" {
		t.Errorf("AudioLangs = %v, want [eng]", retrieved.AudioLangs)
	}
	if len(retrieved.SubtitleLangs) != 2 {
		t.Errorf("SubtitleLangs = %v, want 2 entries", retrieved.SubtitleLangs)
	}
	if retrieved.Status != original.Status {
		t.Errorf("Status = %q, want %q", retrieved.Status, original.Status)
	}
	if len(retrieved.Issues) != 1 || retrieved.Issues[0] != original.Issues[0] {
		t.Errorf("Issues = %v, want %v", retrieved.Issues, original.Issues)
	}
}

func TestStore_GetRecord_NotFound(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	_, err := store.GetRecord("/nope.mkv")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRecord error = %v, want ErrNotFound", err)
	}
}

func TestStore_GetRecord_NilSeasonEpisode(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	r := testRecord("/movies/Heat (1995)/Heat (1995).mkv")
	r.Category = CategoryMovie
	r.ShowName = ""
	r.Season = nil
	r.Episode = nil
	if err := store.SaveRecord(r); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	retrieved, err := store.GetRecord(r.Path)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if retrieved.Season != nil || retrieved.Episode != nil {
		t.Errorf("Season/Episode = %v/%v, want nil/nil", retrieved.Season, retrieved.Episode)
	}
}

func TestStore_ListRecords_All(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	paths := []string{
		"/tv/Slow Horses/Season 1/Slow Horses - S01E01.mkv",
		"/tv/Slow Horses/Season 1/Slow Horses - S01E02.mkv",
		"/movies/Heat (1995)/Heat (1995).mkv",
	}
	for _, p := range paths {
		if err := store.SaveRecord(testRecord(p)); err != nil {
			t.Fatalf("SaveRecord: %v", err)
		}
	}

	results, total, err := store.ListRecords(RecordFilter{})
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}

	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(results) != 3 {
		t.Errorf("len(results) = %d, want 3", len(results))
	}
}

func TestStore_ListRecords_FilterByStatus(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	compliant := testRecord("/tv/a.mkv")
	needsWork := testRecord("/tv/b.mkv")
	needsWork.Status = StatusNeedsReencoding

	if err := store.SaveRecord(compliant); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	if err := store.SaveRecord(needsWork); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	results, total, err := store.ListRecords(RecordFilter{Status: ptr(StatusNeedsReencoding)})
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}

	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(results) != 1 || results[0].Path != "/tv/b.mkv" {
		t.Errorf("results = %v, want [/tv/b.mkv]", results)
	}
}

func TestStore_ListRecords_FilterByCategoryAndShow(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	episode := testRecord("/tv/Slow Horses/Season 1/Slow Horses - S01E01.mkv")
	otherShow := testRecord("/tv/Severance/Season 1/Severance - S01E01.mkv")
	otherShow.ShowName = "Severance"
	movie := testRecord("/movies/Heat (1995)/Heat (1995).mkv")
	movie.Category = CategoryMovie
	movie.ShowName = ""
	movie.Season = nil
	movie.Episode = nil

	for _, r := range []*Record{episode, otherShow, movie} {
		if err := store.SaveRecord(r); err != nil {
			t.Fatalf("SaveRecord: %v", err)
		}
	}

	results, total, err := store.ListRecords(RecordFilter{
		Category: ptr(CategoryShow),
		ShowName: ptr("Slow Horses"),
	})
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}

	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(results) != 1 || results[0].ShowName != "Slow Horses" {
		t.Errorf("results = %v, want one Slow Horses episode", results)
	}
}

func TestStore_ListRecords_PathPrefix(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	inside := testRecord("/tv/Slow Horses/Season 1/Slow Horses - S01E01.mkv")
	outside := testRecord("/movies/Heat (1995)/Heat (1995).mkv")
	// A path sharing a LIKE wildcard character with the prefix
	tricky := testRecord("/tv_extras/clip.mkv")

	for _, r := range []*Record{inside, outside, tricky} {
		if err := store.SaveRecord(r); err != nil {
			t.Fatalf("SaveRecord: %v", err)
		}
	}

	results, total, err := store.ListRecords(RecordFilter{PathPrefix: ptr("/tv/")})
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}

	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(results) != 1 || results[0].Path != inside.Path {
		t.Errorf("results = %v, want [%s]", results, inside.Path)
	}
}

func TestStore_ListRecords_Pagination(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	for _, p := range []string{"/tv/a.mkv", "/tv/b.mkv", "/tv/c.mkv", "/tv/d.mkv", "/tv/e.mkv"} {
		if err := store.SaveRecord(testRecord(p)); err != nil {
			t.Fatalf("SaveRecord: %v", err)
		}
	}

	results, total, err := store.ListRecords(RecordFilter{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(results) != 2 {
		t.Errorf("len(results) = %d, want 2", len(results))
	}

	results2, _, err := store.ListRecords(RecordFilter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(results2) != 2 {
		t.Errorf("len(results) = %d, want 2", len(results2))
	}
	if results[0].Path == results2[0].Path {
		t.Error("pagination should return different items")
	}
}

func TestStore_DeleteRecord(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	r := testRecord("/tv/a.mkv")
	if err := store.SaveRecord(r); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	if err := store.DeleteRecord(r.Path); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}

	// Verify deleted
	_, err := store.GetRecord(r.Path)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRecord after delete: error = %v, want ErrNotFound", err)
	}
}

func TestStore_DeleteRecord_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	if err := store.DeleteRecord("/nope.mkv"); err != nil {
		t.Errorf("DeleteRecord = %v, want nil (idempotent)", err)
	}
}

func TestStore_PruneBefore(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	cutoff := time.Now()

	stale := testRecord("/tv/gone.mkv")
	stale.ScannedAt = cutoff.Add(-time.Hour)
	fresh := testRecord("/tv/still-here.mkv")
	fresh.ScannedAt = cutoff.Add(time.Minute)
	elsewhere := testRecord("/movies/old.mkv")
	elsewhere.ScannedAt = cutoff.Add(-time.Hour)

	for _, r := range []*Record{stale, fresh, elsewhere} {
		if err := store.SaveRecord(r); err != nil {
			t.Fatalf("SaveRecord: %v", err)
		}
	}

	n, err := store.PruneBefore("/tv/", cutoff)
	if err != nil {
		t.Fatalf("PruneBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}

	// Stale record under the prefix is gone
	if _, err := store.GetRecord(stale.Path); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRecord(stale) error = %v, want ErrNotFound", err)
	}
	// Fresh record and records outside the prefix survive
	if _, err := store.GetRecord(fresh.Path); err != nil {
		t.Errorf("GetRecord(fresh): %v", err)
	}
	if _, err := store.GetRecord(elsewhere.Path); err != nil {
		t.Errorf("GetRecord(elsewhere): %v", err)
	}
}

func TestStore_Stats(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	a := testRecord("/tv/a.mkv")
	b := testRecord("/tv/b.mkv")
	b.Status = StatusNeedsReencoding
	c := testRecord("/movies/c.mkv")
	c.Category = CategoryMovie
	c.Tier = Tier720p
	c.Status = StatusBelowStandard

	for _, r := range []*Record{a, b, c} {
		if err := store.SaveRecord(r); err != nil {
			t.Fatalf("SaveRecord: %v", err)
		}
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
	wantBytes := a.FileSizeBytes + b.FileSizeBytes + c.FileSizeBytes
	if stats.TotalBytes != wantBytes {
		t.Errorf("TotalBytes = %d, want %d", stats.TotalBytes, wantBytes)
	}
	if stats.ByStatus[StatusCompliant] != 1 || stats.ByStatus[StatusNeedsReencoding] != 1 || stats.ByStatus[StatusBelowStandard] != 1 {
		t.Errorf("ByStatus = %v, want one of each", stats.ByStatus)
	}
	if stats.ByCategory[CategoryShow] != 2 || stats.ByCategory[CategoryMovie] != 1 {
		t.Errorf("ByCategory = %v, want 2 shows 1 movie", stats.ByCategory)
	}
	if stats.ByTier[Tier1080p] != 2 || stats.ByTier[Tier720p] != 1 {
		t.Errorf("ByTier = %v, want 2x1080p 1x720p", stats.ByTier)
	}
}

func TestTx_SaveRecord(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	tx, err := store.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	r := testRecord("/tv/a.mkv")
	if err := tx.SaveRecord(r); err != nil {
		t.Fatalf("tx.SaveRecord: %v", err)
	}

	// Should be visible within transaction
	if _, err := tx.GetRecord(r.Path); err != nil {
		t.Fatalf("tx.GetRecord: %v", err)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// Should be visible after commit
	if _, err := store.GetRecord(r.Path); err != nil {
		t.Fatalf("store.GetRecord after commit: %v", err)
	}
}

func TestTx_Rollback(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	tx, err := store.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	r := testRecord("/tv/a.mkv")
	if err := tx.SaveRecord(r); err != nil {
		t.Fatalf("tx.SaveRecord: %v", err)
	}

	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	// Should NOT be visible after rollback
	_, err = store.GetRecord(r.Path)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRecord after rollback: error = %v, want ErrNotFound", err)
	}
}
