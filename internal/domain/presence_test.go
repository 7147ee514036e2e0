package domain

import (
	"testing"
	"time"
)

func TestStale(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 2 * time.Minute

	tests := []struct {
		name     string
		lastPing time.Time
		want     bool
	}{
		{"just pinged", now, false},
		{"one second ago", now.Add(-time.Second), false},
		{"just inside window", now.Add(-window + time.Millisecond), false},
		{"exactly at boundary", now.Add(-window), true},
		{"beyond window", now.Add(-3 * time.Minute), true},
		{"very old", now.Add(-24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stale(tt.lastPing, now, window); got != tt.want {
				t.Errorf("Stale(%v) = %v, want %v", now.Sub(tt.lastPing), got, tt.want)
			}
		})
	}
}
