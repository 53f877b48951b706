package scans

import (
	"testing"
	"time"
)

func TestComputeWindow(t *testing.T) {
	tests := []struct {
		name      string
		sm, sy    int
		em, ey    int
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			"single month",
			3, 2025, 3, 2025,
			time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			"multi month",
			1, 2025, 3, 2025,
			time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			"december rollover",
			11, 2024, 12, 2024,
			time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			"leap february",
			2, 2024, 2, 2024,
			time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC),
		},
		{
			"cross year",
			11, 2024, 2, 2025,
			time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 2, 28, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := ComputeWindow(tt.sm, tt.sy, tt.em, tt.ey)

			if !start.Equal(tt.wantStart) {
				t.Errorf("start: got %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("end: got %v, want %v", end, tt.wantEnd)
			}
			if !start.Before(end) {
				t.Errorf("start %v should precede end %v", start, end)
			}
		})
	}
}
