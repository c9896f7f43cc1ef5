package report

import (
	"fmt"
	"time"

	"github.com/adlens/insight/internal/models"
)

// DateRange is an inclusive [Start, End] pair of UTC calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange builds a range from two timestamps, truncating both to UTC
// days. Start after End is allowed; such a range simply matches nothing.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: Day(start), End: Day(end)}
}

// ParseDateRange parses "2006-01-02" bounds. Malformed bounds are the
// caller's input-validation failure, reported as an error rather than being
// silently coerced.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	return NewDateRange(s, e), nil
}

// LastDays returns the trailing window ending today (UTC), n days back.
func LastDays(n int, now time.Time) DateRange {
	end := Day(now)
	return DateRange{Start: end.AddDate(0, 0, -n), End: end}
}

// Contains reports whether day d falls inside the range, comparing on
// calendar-day granularity.
func (r DateRange) Contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(r.Start) && !d.After(r.End)
}

// IsZero reports whether neither bound has been set.
func (r DateRange) IsZero() bool { return r.Start.IsZero() && r.End.IsZero() }

// FilterByDateRange selects the records whose date lies inside the range.
// An inverted range yields an empty result.
func FilterByDateRange(records []models.ReportRecord, r DateRange) []models.ReportRecord {
	out := make([]models.ReportRecord, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	return out
}
