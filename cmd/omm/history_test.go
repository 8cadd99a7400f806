package main

import (
	"testing"
	"time"
)

func TestFormatTimeAgo(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		unix int64
		want string
	}{
		{"never", 0, "never"},
		{"just now", now.Add(-30 * time.Second).Unix(), "just now"},
		{"one minute", now.Add(-90 * time.Second).Unix(), "1m ago"},
		{"minutes", now.Add(-5 * time.Minute).Unix(), "5m ago"},
		{"one hour", now.Add(-90 * time.Minute).Unix(), "1h ago"},
		{"hours", now.Add(-3 * time.Hour).Unix(), "3h ago"},
		{"one day", now.Add(-26 * time.Hour).Unix(), "1d ago"},
		{"days", now.Add(-72 * time.Hour).Unix(), "3d ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTimeAgo(tt.unix); got != tt.want {
				t.Errorf("formatTimeAgo = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("3f2a9c81-6b7d-4e12-9a3f-000000000000"); got != "3f2a9c81" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q", got)
	}
}
