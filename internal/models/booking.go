package models

import "time"

// Period is the bookable slice of a working day. Morning and afternoon are
// disjoint halves; full spans both.
type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodFull      Period = "full"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodMorning, PeriodAfternoon, PeriodFull:
		return true
	}
	return false
}

// TimeRange returns the display hours for the period.
func (p Period) TimeRange() string {
	switch p {
	case PeriodMorning:
		return "08:00 - 13:00"
	case PeriodAfternoon:
		return "13:00 - 18:00"
	case PeriodFull:
		return "08:00 - 18:00"
	}
	return ""
}

type Booking struct {
	ID       string    `json:"id"`
	DeskID   string    `json:"desk_id"`
	DeskName string    `json:"desk_name,omitempty"`
	Date     time.Time `json:"date"`
	Period   Period    `json:"period"`
	Status   string    `json:"status"`
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
}

// IsActive reports whether the booking can block other bookings.
// Canceled bookings never block; a booking whose date is already past is
// completed regardless of its stored status.
func (b Booking) IsActive(today time.Time) bool {
	if b.Status != StatusActive {
		return false
	}
	return !DayOf(b.Date).Before(DayOf(today))
}

// EffectiveStatus derives completed from the calendar rather than storage.
func (b Booking) EffectiveStatus(today time.Time) string {
	if b.Status == StatusActive && DayOf(b.Date).Before(DayOf(today)) {
		return StatusCompleted
	}
	return b.Status
}
