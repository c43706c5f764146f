package shared

import (
	"fmt"
	"time"
)

// DateLayout is the ISO 8601 calendar date layout used on every boundary.
const DateLayout = "2006-01-02"

// Date truncates t to a UTC calendar date.
func Date(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidQuery, raw)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// DateRange is an inclusive calendar range. A zero From means "since inception".
type DateRange struct {
	From time.Time
	To   time.Time
}

// Through builds the range from inception through asOf.
func Through(asOf time.Time) DateRange {
	return DateRange{To: Date(asOf)}
}

// Normalize truncates both ends to calendar dates.
func (r DateRange) Normalize() DateRange {
	return DateRange{From: Date(r.From), To: Date(r.To)}
}

// Validate ensures To is set and not before From.
func (r DateRange) Validate() error {
	if r.To.IsZero() {
		return fmt.Errorf("%w: range end required", ErrInvalidQuery)
	}
	if !r.From.IsZero() && r.To.Before(r.From) {
		return fmt.Errorf("%w: range end before start", ErrInvalidQuery)
	}
	return nil
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d time.Time) bool {
	d = Date(d)
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	return !d.After(r.To)
}

// Before returns the range of everything strictly before From. ok is false when
// From is zero.
func (r DateRange) Before() (DateRange, bool) {
	if r.From.IsZero() {
		return DateRange{}, false
	}
	return DateRange{To: r.From.AddDate(0, 0, -1)}, true
}
