package availability

import (
	"testing"
	"time"

	"deskmap/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestConflicts(t *testing.T) {
	cases := []struct {
		existing  models.Period
		requested models.Period
		want      bool
	}{
		{models.PeriodMorning, models.PeriodMorning, true},
		{models.PeriodAfternoon, models.PeriodAfternoon, true},
		{models.PeriodFull, models.PeriodFull, true},
		{models.PeriodMorning, models.PeriodAfternoon, false},
		{models.PeriodAfternoon, models.PeriodMorning, false},
		{models.PeriodFull, models.PeriodMorning, true},
		{models.PeriodFull, models.PeriodAfternoon, true},
		{models.PeriodMorning, models.PeriodFull, true},
		{models.PeriodAfternoon, models.PeriodFull, true},
	}

	for _, tc := range cases {
		got := Conflicts(tc.existing, tc.requested)
		assert.Equal(t, tc.want, got, "existing=%s requested=%s", tc.existing, tc.requested)
	}
}

func TestCheckEmptyBookings(t *testing.T) {
	day := date(2025, time.June, 10)
	for _, p := range []models.Period{models.PeriodMorning, models.PeriodAfternoon, models.PeriodFull} {
		res := Check(nil, day, p)
		assert.True(t, res.Available, "period=%s", p)
		assert.Empty(t, res.Blocking)
	}
}

func TestCheckScenario(t *testing.T) {
	day := date(2025, time.June, 10)
	existing := models.Booking{
		ID:       "b1",
		DeskID:   "d1",
		Date:     day,
		Period:   models.PeriodMorning,
		Status:   models.StatusActive,
		UserName: "Alice Martin",
	}
	bookings := []models.Booking{existing}

	t.Run("AfternoonFree", func(t *testing.T) {
		res := Check(bookings, day, models.PeriodAfternoon)
		assert.True(t, res.Available)
		assert.Nil(t, res.First())
	})

	t.Run("MorningBlocked", func(t *testing.T) {
		res := Check(bookings, day, models.PeriodMorning)
		require.False(t, res.Available)
		require.NotNil(t, res.First())
		assert.Equal(t, "b1", res.First().ID)
		assert.Equal(t, "Alice Martin", res.First().UserName)
	})

	t.Run("FullBlocked", func(t *testing.T) {
		res := Check(bookings, day, models.PeriodFull)
		require.False(t, res.Available)
		assert.Equal(t, "b1", res.First().ID)
	})

	t.Run("OtherDayFree", func(t *testing.T) {
		res := Check(bookings, date(2025, time.June, 11), models.PeriodMorning)
		assert.True(t, res.Available)
	})
}

func TestCheckIgnoresInactive(t *testing.T) {
	day := date(2025, time.June, 10)
	bookings := []models.Booking{
		{ID: "c1", Date: day, Period: models.PeriodFull, Status: models.StatusCanceled},
		{ID: "c2", Date: day, Period: models.PeriodMorning, Status: models.StatusCompleted},
	}

	for _, p := range []models.Period{models.PeriodMorning, models.PeriodAfternoon, models.PeriodFull} {
		res := Check(bookings, day, p)
		assert.True(t, res.Available, "period=%s", p)
	}
}

func TestCheckComparesByCalendarDay(t *testing.T) {
	// Booking stored with a stray time-of-day must still block the same day.
	booked := time.Date(2025, time.June, 10, 23, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	bookings := []models.Booking{
		{ID: "b1", Date: booked, Period: models.PeriodFull, Status: models.StatusActive},
	}

	res := Check(bookings, date(2025, time.June, 10), models.PeriodMorning)
	assert.False(t, res.Available)
}

func TestCheckIdempotent(t *testing.T) {
	day := date(2025, time.June, 10)
	bookings := []models.Booking{
		{ID: "b1", Date: day, Period: models.PeriodMorning, Status: models.StatusActive},
	}

	first := Check(bookings, day, models.PeriodMorning)
	second := Check(bookings, day, models.PeriodMorning)
	assert.Equal(t, first, second)
}

func TestCheckMultipleConflictsAnomaly(t *testing.T) {
	// Two active bookings for the same period should never exist, but the
	// engine must report them all rather than panic.
	day := date(2025, time.June, 10)
	bookings := []models.Booking{
		{ID: "b1", Date: day, Period: models.PeriodMorning, Status: models.StatusActive},
		{ID: "b2", Date: day, Period: models.PeriodFull, Status: models.StatusActive},
	}

	res := Check(bookings, day, models.PeriodMorning)
	require.False(t, res.Available)
	require.Len(t, res.Blocking, 2)
	assert.Equal(t, "b1", res.First().ID)
}

func TestFirstAvailable(t *testing.T) {
	day := date(2025, time.June, 10)
	desks := []models.Desk{
		{ID: "d1", Name: "Desk 1", Bookings: []models.Booking{
			{ID: "b1", Date: day, Period: models.PeriodFull, Status: models.StatusActive},
		}},
		{ID: "d2", Name: "Desk 2", Bookings: []models.Booking{
			{ID: "b2", Date: day, Period: models.PeriodMorning, Status: models.StatusActive},
		}},
		{ID: "d3", Name: "Desk 3"},
	}

	t.Run("SkipsBlocked", func(t *testing.T) {
		got := FirstAvailable(desks, day, models.PeriodAfternoon)
		require.NotNil(t, got)
		assert.Equal(t, "d2", got.ID)
	})

	t.Run("FullDay", func(t *testing.T) {
		got := FirstAvailable(desks, day, models.PeriodFull)
		require.NotNil(t, got)
		assert.Equal(t, "d3", got.ID)
	})

	t.Run("NoneAvailable", func(t *testing.T) {
		got := FirstAvailable(desks[:1], day, models.PeriodMorning)
		assert.Nil(t, got)
	})
}
