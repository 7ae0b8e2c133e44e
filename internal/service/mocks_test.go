package service

import (
	"context"
	"time"

	"deskmap/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ListDesks(ctx context.Context, token string) ([]models.Desk, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Desk), args.Error(1)
}
func (m *mockBackend) ListRooms(ctx context.Context, token string) ([]models.Room, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Room), args.Error(1)
}
func (m *mockBackend) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockBackend) CheckAvailability(ctx context.Context, token, deskID string, date time.Time, period models.Period) (bool, error) {
	args := m.Called(ctx, token, deskID, date, period)
	return args.Bool(0), args.Error(1)
}
func (m *mockBackend) CreateBooking(ctx context.Context, token, deskID string, date time.Time, period models.Period) (*models.Booking, error) {
	args := m.Called(ctx, token, deskID, date, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockBackend) CancelBooking(ctx context.Context, token, bookingID string) error {
	return m.Called(ctx, token, bookingID).Error(0)
}
func (m *mockBackend) ListUserBookings(ctx context.Context, token, userID string) ([]models.Booking, error) {
	args := m.Called(ctx, token, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}
func (m *mockBackend) DeskBookings(ctx context.Context, token, deskID string) ([]models.Booking, error) {
	args := m.Called(ctx, token, deskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}
func (m *mockBackend) CreateDesk(ctx context.Context, token string, input models.DeskInput) (*models.Desk, error) {
	args := m.Called(ctx, token, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Desk), args.Error(1)
}
func (m *mockBackend) UpdateDesk(ctx context.Context, token, deskID string, input models.DeskInput) (*models.Desk, error) {
	args := m.Called(ctx, token, deskID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Desk), args.Error(1)
}
func (m *mockBackend) DeleteDesk(ctx context.Context, token, deskID string) error {
	return m.Called(ctx, token, deskID).Error(0)
}
