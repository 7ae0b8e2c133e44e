// Package availability decides whether a desk can be booked for a calendar
// date and period. It is pure: no clock, no network, no hidden state. The
// backend runs the same rule and wins on disagreement, so callers re-validate
// at submission time.
package availability

import (
	"time"

	"deskmap/internal/models"
)

// Result of a check. When Available is false Blocking carries every
// conflicting booking in input order; the first one is shown to the user.
type Result struct {
	Available bool
	Blocking  []models.Booking
}

// First returns the booking presented as "the" blocker, or nil.
func (r Result) First() *models.Booking {
	if len(r.Blocking) == 0 {
		return nil
	}
	return &r.Blocking[0]
}

// Conflicts is the core invariant of the domain: two bookings on the same
// date conflict iff either period is full or both periods are equal.
// Morning and afternoon never conflict with each other.
func Conflicts(existing, requested models.Period) bool {
	return existing == models.PeriodFull ||
		requested == models.PeriodFull ||
		existing == requested
}

// Check reports whether a desk with the given bookings is free on date for
// the requested period. Only active bookings block; canceled and completed
// ones are ignored. Dates are compared by calendar day only.
//
// More than one blocking booking for a single period is a data-integrity
// anomaly (the backend invariant forbids it); Check still returns them all
// so the caller can log the anomaly instead of crashing.
func Check(bookings []models.Booking, date time.Time, requested models.Period) Result {
	res := Result{Available: true}
	for _, b := range bookings {
		if b.Status != models.StatusActive {
			continue
		}
		if !models.SameDay(b.Date, date) {
			continue
		}
		if Conflicts(b.Period, requested) {
			res.Available = false
			res.Blocking = append(res.Blocking, b)
		}
	}
	return res
}

// CheckDesk is a convenience wrapper over the desk's booking window.
func CheckDesk(desk models.Desk, date time.Time, requested models.Period) Result {
	return Check(desk.Bookings, date, requested)
}

// FirstAvailable returns the first desk from the list that is free on date
// for the period, in input order. Used by the quick-reservation flow; the
// result is advisory and re-validated by the backend on submission.
func FirstAvailable(desks []models.Desk, date time.Time, requested models.Period) *models.Desk {
	for i := range desks {
		if Check(desks[i].Bookings, date, requested).Available {
			return &desks[i]
		}
	}
	return nil
}
