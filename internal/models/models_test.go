package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodValid(t *testing.T) {
	assert.True(t, PeriodMorning.Valid())
	assert.True(t, PeriodAfternoon.Valid())
	assert.True(t, PeriodFull.Valid())
	assert.False(t, Period("evening").Valid())
	assert.False(t, Period("").Valid())
}

func TestPeriodTimeRange(t *testing.T) {
	assert.Equal(t, "08:00 - 13:00", PeriodMorning.TimeRange())
	assert.Equal(t, "13:00 - 18:00", PeriodAfternoon.TimeRange())
	assert.Equal(t, "08:00 - 18:00", PeriodFull.TimeRange())
}

func TestParseDate(t *testing.T) {
	t.Run("PlainDate", func(t *testing.T) {
		d, err := ParseDate("2025-06-10")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC), d)
	})

	t.Run("TimestampTruncated", func(t *testing.T) {
		d, err := ParseDate("2025-06-10T22:15:04Z")
		require.NoError(t, err)
		assert.Equal(t, "2025-06-10", FormatDate(d))
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := ParseDate("10/06/2025")
		assert.Error(t, err)
		_, err = ParseDate("")
		assert.Error(t, err)
	})
}

func TestSameDay(t *testing.T) {
	a := time.Date(2025, time.June, 10, 23, 59, 0, 0, time.UTC)
	b := time.Date(2025, time.June, 10, 0, 1, 0, 0, time.UTC)
	c := time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, c))
}

func TestBookingEffectiveStatus(t *testing.T) {
	today := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

	past := Booking{Status: StatusActive, Date: time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, StatusCompleted, past.EffectiveStatus(today))
	assert.False(t, past.IsActive(today))

	upcoming := Booking{Status: StatusActive, Date: time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, StatusActive, upcoming.EffectiveStatus(today))
	assert.True(t, upcoming.IsActive(today))

	canceled := Booking{Status: StatusCanceled, Date: time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, StatusCanceled, canceled.EffectiveStatus(today))
	assert.False(t, canceled.IsActive(today))
}

func TestFlowStateReset(t *testing.T) {
	now := time.Date(2025, time.June, 10, 9, 30, 0, 0, time.UTC)
	state := NewFlowState("sess-1", now)

	assert.Equal(t, DayOf(now), state.SelectedDate)
	assert.Equal(t, PeriodFull, state.Period)
	assert.Equal(t, AvailUnknown, state.Availability)
	assert.Equal(t, SubmitIdle, state.Submission)
	assert.False(t, state.HasDesk())

	state.DeskID = "d1"
	state.Availability = AvailAvailable
	state.Submission = SubmitFailed
	state.FailureReason = "boom"

	state.Reset(now)
	assert.False(t, state.HasDesk())
	assert.Equal(t, AvailUnknown, state.Availability)
	assert.Equal(t, SubmitIdle, state.Submission)
	assert.Empty(t, state.FailureReason)
	assert.Equal(t, "sess-1", state.SessionID)
}

func TestRoomContains(t *testing.T) {
	room := Room{X: 100, Y: 200, Width: 50, Height: 80}

	assert.True(t, room.Contains(120, 240))
	assert.True(t, room.Contains(100, 200))
	assert.True(t, room.Contains(150, 280))
	assert.False(t, room.Contains(99, 240))
	assert.False(t, room.Contains(120, 281))
}

func TestUserCanBook(t *testing.T) {
	assert.True(t, User{FullName: "Alice Martin", Email: "alice@example.com"}.CanBook())
	assert.False(t, User{FullName: "Alice Martin"}.CanBook())
	assert.False(t, User{Email: "alice@example.com"}.CanBook())
}
