package periods

import "time"

// Lock records the last calendar date closed for posting in a company.
// A zero LockedThrough means every date is open.
type Lock struct {
	CompanyID     int64
	LockedThrough time.Time
	LockedBy      int64
	UpdatedAt     time.Time
}

// Allows reports whether date is strictly after the lock date.
func (l Lock) Allows(date time.Time) bool {
	if l.LockedThrough.IsZero() {
		return true
	}
	return date.After(l.LockedThrough)
}
