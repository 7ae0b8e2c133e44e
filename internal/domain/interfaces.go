package domain

import (
	"context"
	"time"

	"deskmap/internal/models"
)

// BackendAPI is the remote desk-booking backend, the source of truth for
// all business data. Implementations carry the caller's bearer token on
// every request.
type BackendAPI interface {
	ListDesks(ctx context.Context, token string) ([]models.Desk, error)
	ListRooms(ctx context.Context, token string) ([]models.Room, error)
	CurrentUser(ctx context.Context, token string) (*models.User, error)
	CheckAvailability(ctx context.Context, token, deskID string, date time.Time, period models.Period) (bool, error)
	CreateBooking(ctx context.Context, token, deskID string, date time.Time, period models.Period) (*models.Booking, error)
	CancelBooking(ctx context.Context, token, bookingID string) error
	ListUserBookings(ctx context.Context, token, userID string) ([]models.Booking, error)
	DeskBookings(ctx context.Context, token, deskID string) ([]models.Booking, error)
	CreateDesk(ctx context.Context, token string, input models.DeskInput) (*models.Desk, error)
	UpdateDesk(ctx context.Context, token, deskID string, input models.DeskInput) (*models.Desk, error)
	DeleteDesk(ctx context.Context, token, deskID string) error
}

// FlowRepository stores per-session booking-flow state.
type FlowRepository interface {
	GetState(ctx context.Context, sessionID string) (*models.FlowState, error)
	SetState(ctx context.Context, state *models.FlowState) error
	ClearState(ctx context.Context, sessionID string) error
	CheckRateLimit(ctx context.Context, sessionID string, limit int, window time.Duration) (bool, error)
}

// EventPublisher fans mutation notifications out to observers.
type EventPublisher interface {
	PublishJSON(topic string, payload interface{}) error
}

// BookingFlow is the interaction controller for one UI session.
type BookingFlow interface {
	State(ctx context.Context, sessionID string) (*models.FlowState, error)
	SelectDesk(ctx context.Context, token, sessionID, deskID string) (*models.FlowState, error)
	SetDate(ctx context.Context, token, sessionID string, date time.Time) (*models.FlowState, error)
	SetPeriod(ctx context.Context, token, sessionID string, period models.Period) (*models.FlowState, error)
	Submit(ctx context.Context, token, sessionID string, user models.User) (*models.FlowState, error)
	CancelFlow(ctx context.Context, sessionID string) (*models.FlowState, error)
	QuickReserve(ctx context.Context, token string, user models.User, date time.Time, period models.Period) (*models.Booking, error)
	CancelBooking(ctx context.Context, token string, booking *models.Booking) error
}

// DeskManager covers the administrator operations on desks.
type DeskManager interface {
	CreateDesk(ctx context.Context, token string, input models.DeskInput) (*models.Desk, error)
	UpdateDesk(ctx context.Context, token, deskID string, input models.DeskInput) (*models.Desk, error)
	DeleteDesk(ctx context.Context, token, deskID string) error
}

// SessionUsers resolves and caches the current user for a session. The
// session object is explicit: populated on route entry, cleared on logout.
type SessionUsers interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
	Logout(token string)
}

// BookingSync pushes booking snapshots to an external reporting sheet.
type BookingSync interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	RemoveBooking(ctx context.Context, bookingID string) error
}
