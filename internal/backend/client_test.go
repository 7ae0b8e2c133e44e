package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"deskmap/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func TestListDesks(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/desks", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"id": "d1", "name": "Desk 12", "x": 120, "y": 340,
				"type": "standard", "roomId": "r1",
				"features": [{"name": "monitor"}, {"name": "docking"}],
				"reservations": [
					{"id": "b1", "date": "2025-06-10", "period": "morning", "userId": "u1", "user": {"fullName": "Alice Martin"}},
					{"id": "b2", "date": "not-a-date", "period": "full", "userId": "u2"}
				]
			}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, testLogger())
	desks, err := client.ListDesks(context.Background(), "token-1")
	require.NoError(t, err)
	require.Len(t, desks, 1)

	desk := desks[0]
	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.Equal(t, "Desk 12", desk.Name)
	assert.Equal(t, []string{"monitor", "docking"}, desk.Features)

	// malformed reservation is skipped, not fatal
	require.Len(t, desk.Bookings, 1)
	booking := desk.Bookings[0]
	assert.Equal(t, "Alice Martin", booking.UserName)
	assert.Equal(t, models.PeriodMorning, booking.Period)
	assert.Equal(t, models.StatusActive, booking.Status)
	assert.Equal(t, "2025-06-10", models.FormatDate(booking.Date))
}

func TestListDesksUsesCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": "d1", "name": "Desk 1", "features": []}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, testLogger())
	client.UseRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	ctx := context.Background()

	_, err = client.ListDesks(ctx, "token-1")
	require.NoError(t, err)
	_, err = client.ListDesks(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, 1, hits, "second call must be served from cache")

	client.InvalidateCache(ctx)
	_, err = client.ListDesks(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, 2, hits, "invalidation must force a refetch")
}

func TestCheckAvailability(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/desks/d1/availability", r.URL.Path)
		assert.Equal(t, "2025-06-10", r.URL.Query().Get("date"))
		assert.Equal(t, "afternoon", r.URL.Query().Get("period"))
		_ = json.NewEncoder(w).Encode(map[string]bool{"available": true})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, testLogger())
	date := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)

	available, err := client.CheckAvailability(context.Background(), "token-1", "d1", date, models.PeriodAfternoon)
	require.NoError(t, err)
	assert.True(t, available)
}

func TestCreateBooking(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/bookings", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "d1", body["deskId"])
		assert.Equal(t, "2025-06-10", body["date"])
		assert.Equal(t, "full", body["period"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "b9", "deskId": "d1", "date": "2025-06-10",
			"period": "full", "userId": "u1",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, testLogger())
	date := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)

	booking, err := client.CreateBooking(context.Background(), "token-1", "d1", date, models.PeriodFull)
	require.NoError(t, err)
	assert.Equal(t, "b9", booking.ID)
	assert.Equal(t, models.StatusActive, booking.Status)
}

func TestStatusErrorMapping(t *testing.T) {
	cases := []struct {
		status  int
		body    string
		wantErr error
	}{
		{http.StatusUnauthorized, "", ErrNotAuthenticated},
		{http.StatusForbidden, "", ErrNotAuthenticated},
		{http.StatusNotFound, "", ErrNotFound},
		{http.StatusConflict, `{"message": "desk already booked"}`, ErrConflict},
		{http.StatusBadRequest, `{"message": "name is required"}`, ErrValidation},
		{http.StatusUnprocessableEntity, "", ErrValidation},
		{http.StatusInternalServerError, "", ErrBackend},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))

		client := NewClient(server.URL, 5*time.Second, testLogger())
		_, err := client.ListDesks(context.Background(), "token-1")
		assert.ErrorIs(t, err, tc.wantErr, "status %d", tc.status)

		server.Close()
	}
}

func TestEmptyTokenRejectedLocally(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request must reach the backend without a token")
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, testLogger())
	_, err := client.ListDesks(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestCancelBooking(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, testLogger())
	err := client.CancelBooking(context.Background(), "token-1", "b7")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/bookings/b7", gotPath)
}

func TestListUserBookings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/bookings/u1", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id": "b1", "deskId": "d1", "date": "2025-06-10T00:00:00.000Z", "period": "morning",
			 "status": "active", "userId": "u1", "desk": {"name": "Desk 3"}}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, testLogger())
	bookings, err := client.ListUserBookings(context.Background(), "token-1", "u1")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "Desk 3", bookings[0].DeskName)
	assert.Equal(t, "2025-06-10", models.FormatDate(bookings[0].Date))
}
