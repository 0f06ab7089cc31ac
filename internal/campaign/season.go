package campaign

import (
	"fmt"
	"time"

	"github.com/talgya/ashes-void/internal/control"
)

// SeasonStatus is the lifecycle state of a season.
type SeasonStatus string

const (
	SeasonActive   SeasonStatus = "active"
	SeasonEnded    SeasonStatus = "ended"
	SeasonArchived SeasonStatus = "archived"
)

// DateLayout is the calendar-date format seasons are stored and submitted in.
const DateLayout = "2006-01-02"

// Season is a time-boxed campaign. Battles are partitioned by season id;
// the territory set is shared.
type Season struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	StartDate   time.Time      `json:"start_date"`
	EndDate     time.Time      `json:"end_date"`
	Status      SeasonStatus   `json:"status"`
	ConcludedAt *time.Time     `json:"concluded_at,omitempty"`
	Final       *control.Tally `json:"final,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// PastEnd reports whether now (UTC) falls on a day after the end date.
func (s Season) PastEnd(now time.Time) bool {
	return civilDate(now).After(civilDate(s.EndDate))
}

// DaysRemaining counts whole days from now until the end date (negative once past).
func (s Season) DaysRemaining(now time.Time) int {
	return int(civilDate(s.EndDate).Sub(civilDate(now)).Hours() / 24)
}

// Banner describes the season window for display.
func Banner(s Season, now time.Time) string {
	start := s.StartDate.Format(DateLayout)
	end := s.EndDate.Format(DateLayout)
	remaining := s.DaysRemaining(now)
	if s.Status != SeasonActive || remaining < 0 {
		return fmt.Sprintf("Campaign ended (ran %s → %s).", start, end)
	}
	return fmt.Sprintf("Campaign running %s → %s. %d day(s) remaining.", start, end, remaining)
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
