package campaign

import (
	"testing"
	"time"
)

func TestBanner(t *testing.T) {
	s := Season{
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:    SeasonActive,
	}
	tests := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2026, 3, 29, 18, 0, 0, 0, time.UTC), "Campaign running 2026-01-01 → 2026-03-31. 2 day(s) remaining."},
		{time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC), "Campaign running 2026-01-01 → 2026-03-31. 0 day(s) remaining."},
		{time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), "Campaign ended (ran 2026-01-01 → 2026-03-31)."},
	}
	for _, tt := range tests {
		if got := Banner(s, tt.now); got != tt.want {
			t.Errorf("Banner(%v) = %q, want %q", tt.now, got, tt.want)
		}
	}

	s.Status = SeasonEnded
	if got := Banner(s, tests[0].now); got != "Campaign ended (ran 2026-01-01 → 2026-03-31)." {
		t.Errorf("ended season banner = %q", got)
	}
}

func TestPastEnd(t *testing.T) {
	s := Season{EndDate: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)}
	if s.PastEnd(time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)) {
		t.Error("last day should not be past the end")
	}
	if !s.PastEnd(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("day after end should be past the end")
	}
	// The comparison is made in UTC.
	est := time.FixedZone("EST", -5*3600)
	if !s.PastEnd(time.Date(2026, 3, 31, 20, 0, 0, 0, est)) {
		t.Error("20:00 EST on the 31st is April 1st UTC")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-29")
	if err == nil {
		t.Errorf("ParseDate accepted an invalid day: %v", d)
	}
	d, err = ParseDate("2026-01-15")
	if err != nil || d.Location() != time.UTC || d.Day() != 15 {
		t.Errorf("ParseDate = %v, %v", d, err)
	}
}
