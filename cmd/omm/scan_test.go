package main

import (
	"testing"

	"github.com/vmunix/omm/internal/media"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0.00 MB"},
		{"one MB", 1 << 20, "1.00 MB"},
		{"half GB", 512 << 20, "512.00 MB"},
		{"one GB", 1 << 30, "1.00 GB"},
		{"two and a half GB", 5 << 29, "2.50 GB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatBytes(tt.bytes); got != tt.want {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestScanSummary(t *testing.T) {
	records := []*media.Record{
		{Category: media.CategoryMovie, Status: media.StatusCompliant, FileSizeBytes: 100},
		{Category: media.CategoryMovie, Status: media.StatusNeedsReencoding, FileSizeBytes: 200},
		{Category: media.CategoryShow, Status: media.StatusNeedsReencoding, FileSizeBytes: 300},
		{Category: media.CategoryExtra, Status: media.StatusError, FileSizeBytes: 50},
	}

	s := scanSummary(records, 2)

	if s.Scanned != 4 {
		t.Errorf("Scanned = %d, want 4", s.Scanned)
	}
	if s.TotalBytes != 650 {
		t.Errorf("TotalBytes = %d, want 650", s.TotalBytes)
	}
	if s.ByStatus["needs_reencoding"] != 2 {
		t.Errorf("needs_reencoding = %d, want 2", s.ByStatus["needs_reencoding"])
	}
	if s.ByStatus["compliant"] != 1 || s.ByStatus["error"] != 1 {
		t.Errorf("unexpected status counts: %v", s.ByStatus)
	}
	if s.ByCategory["movie"] != 2 || s.ByCategory["show"] != 1 || s.ByCategory["extra"] != 1 {
		t.Errorf("unexpected category counts: %v", s.ByCategory)
	}
	if s.Pruned != 2 {
		t.Errorf("Pruned = %d, want 2", s.Pruned)
	}
}
