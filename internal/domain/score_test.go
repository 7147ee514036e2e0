package domain

import "testing"

func TestBeatsRecord(t *testing.T) {
	tests := []struct {
		name      string
		candidate int64
		current   int64
		want      bool
	}{
		{"higher score wins", 120, 50, true},
		{"lower score loses", 50, 120, false},
		{"equal score never updates", 100, 100, false},
		{"zero against zero", 0, 0, false},
		{"first score beats zero record", 10, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BeatsRecord(tt.candidate, tt.current); got != tt.want {
				t.Errorf("BeatsRecord(%d, %d) = %v, want %v", tt.candidate, tt.current, got, tt.want)
			}
		})
	}
}
