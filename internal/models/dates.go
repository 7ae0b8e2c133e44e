package models

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the only date representation crossing external boundaries.
// Full timestamps shift the calendar day across timezones.
const DateFormat = "2006-01-02"

// DayOf strips the time-of-day component, keeping year/month/day in UTC.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay compares two instants by calendar day only.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// FormatDate renders a calendar date for the wire.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// ParseDate accepts a plain calendar date or a full timestamp and returns
// the calendar day. Backends are inconsistent about which they send.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if idx := strings.IndexByte(raw, 'T'); idx > 0 {
		raw = raw[:idx]
	}
	t, err := time.Parse(DateFormat, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected %s", raw, DateFormat)
	}
	return t, nil
}
