package service

import (
	"context"
	"sync"
	"time"

	"deskmap/internal/availability"
	"deskmap/internal/domain"
	"deskmap/internal/events"
	"deskmap/internal/metrics"
	"deskmap/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FlowService drives one booking attempt per UI session: desk selection,
// date and period changes, the availability check behind them and the
// final submission. Every mutation re-runs the availability check under
// a fresh token; a check result carrying an older token is discarded.
type FlowService struct {
	backend        domain.BackendAPI
	repo           domain.FlowRepository
	eventBus       domain.EventPublisher
	maxAdvanceDays int
	logger         *zerolog.Logger

	// Сериализация операций в рамках одной сессии
	locks sync.Map

	now func() time.Time
}

func NewFlowService(backend domain.BackendAPI, repo domain.FlowRepository, eventBus domain.EventPublisher, maxAdvanceDays int, logger *zerolog.Logger) *FlowService {
	if maxAdvanceDays <= 0 {
		maxAdvanceDays = 365
	}
	return &FlowService{
		backend:        backend,
		repo:           repo,
		eventBus:       eventBus,
		maxAdvanceDays: maxAdvanceDays,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *FlowService) lock(sessionID string) func() {
	val, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := val.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// State returns the current flow state, creating the initial one on first
// touch of a session.
func (s *FlowService) State(ctx context.Context, sessionID string) (*models.FlowState, error) {
	unlock := s.lock(sessionID)
	defer unlock()
	return s.loadOrInit(ctx, sessionID)
}

func (s *FlowService) loadOrInit(ctx context.Context, sessionID string) (*models.FlowState, error) {
	state, err := s.repo.GetState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = models.NewFlowState(sessionID, s.now())
		if err := s.repo.SetState(ctx, state); err != nil {
			return nil, err
		}
	}
	return state, nil
}

func (s *FlowService) ValidateDate(date time.Time) error {
	today := models.DayOf(s.now())
	if models.DayOf(date).Before(today) {
		return ErrPastDate
	}
	if models.DayOf(date).After(today.AddDate(0, 0, s.maxAdvanceDays)) {
		return ErrDateTooFar
	}
	return nil
}

// SelectDesk picks a desk and immediately re-checks availability for the
// currently selected date and period.
func (s *FlowService) SelectDesk(ctx context.Context, token, sessionID, deskID string) (*models.FlowState, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	state, err := s.loadOrInit(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	deskName := ""
	desks, err := s.backend.ListDesks(ctx, token)
	if err == nil {
		for _, d := range desks {
			if d.ID == deskID {
				deskName = d.Name
				break
			}
		}
	}

	state.DeskID = deskID
	state.DeskName = deskName
	state.Submission = models.SubmitIdle
	state.FailureReason = ""
	s.runCheck(ctx, token, state)

	if err := s.repo.SetState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// SetDate changes the selected date. An out-of-range date is rejected
// without touching the stored state.
func (s *FlowService) SetDate(ctx context.Context, token, sessionID string, date time.Time) (*models.FlowState, error) {
	if err := s.ValidateDate(date); err != nil {
		return nil, err
	}

	unlock := s.lock(sessionID)
	defer unlock()

	state, err := s.loadOrInit(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state.SelectedDate = models.DayOf(date)
	state.Submission = models.SubmitIdle
	state.FailureReason = ""
	s.runCheck(ctx, token, state)

	if err := s.repo.SetState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// SetPeriod changes the selected period and re-checks availability.
func (s *FlowService) SetPeriod(ctx context.Context, token, sessionID string, period models.Period) (*models.FlowState, error) {
	if !period.Valid() {
		return nil, ErrInvalidPeriod
	}

	unlock := s.lock(sessionID)
	defer unlock()

	state, err := s.loadOrInit(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state.Period = period
	state.Submission = models.SubmitIdle
	state.FailureReason = ""
	s.runCheck(ctx, token, state)

	if err := s.repo.SetState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// runCheck issues a fresh availability check for the state's desk, date
// and period. The caller holds the session lock and persists the state.
//
// Each check gets its own token. A slower concurrent check that finishes
// after the token moved on must not overwrite the newer result.
func (s *FlowService) runCheck(ctx context.Context, token string, state *models.FlowState) {
	state.Blocking = nil
	state.UpdatedAt = s.now()

	if !state.HasDesk() {
		state.Availability = models.AvailUnknown
		state.CheckToken = ""
		return
	}

	checkToken := uuid.New().String()
	state.CheckToken = checkToken
	state.Availability = models.AvailChecking
	s.saveState(ctx, state)

	bookings, err := s.backend.DeskBookings(ctx, token, state.DeskID)

	// Пока шел запрос, другая реплика могла выдать более новый токен.
	// Результат со старым токеном отбрасываем.
	latest, lerr := s.repo.GetState(ctx, state.SessionID)
	if lerr == nil && latest != nil && latest.CheckToken != checkToken {
		metrics.IncStaleCheckDiscarded()
		*state = *latest
		return
	}
	if err != nil {
		// При ошибке считаем стол недоступным
		s.logger.Error().Err(err).Str("desk_id", state.DeskID).Msg("availability check failed")
		state.Availability = models.AvailUnavailable
		state.FailureReason = "availability check failed"
		metrics.IncAvailabilityCheck("error")
		return
	}

	result := availability.Check(bookings, state.SelectedDate, state.Period)
	if result.Available {
		state.Availability = models.AvailAvailable
		metrics.IncAvailabilityCheck("available")
	} else {
		state.Availability = models.AvailUnavailable
		state.Blocking = result.First()
		if len(result.Blocking) > 1 {
			s.logger.Warn().Str("desk_id", state.DeskID).Int("conflicts", len(result.Blocking)).Msg("multiple bookings block one slot")
		}
		metrics.IncAvailabilityCheck("unavailable")
	}
}

// Submit creates the booking for the current selection. It refuses to
// submit unless the last check said available and the user profile is
// complete, and re-confirms availability with the backend right before
// creating.
func (s *FlowService) Submit(ctx context.Context, token, sessionID string, user models.User) (*models.FlowState, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	state, err := s.loadOrInit(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !state.HasDesk() {
		return state, ErrNoDeskSelected
	}
	if state.Submission == models.SubmitInProgress {
		return state, ErrSubmitInProgress
	}
	if state.Availability != models.AvailAvailable {
		return state, ErrNotAvailable
	}
	if !user.CanBook() {
		return state, ErrProfileIncomplete
	}
	if err := s.ValidateDate(state.SelectedDate); err != nil {
		return state, err
	}

	state.Submission = models.SubmitInProgress
	state.FailureReason = ""
	if err := s.repo.SetState(ctx, state); err != nil {
		return nil, err
	}

	// Контрольная проверка на бэкенде перед созданием
	available, err := s.backend.CheckAvailability(ctx, token, state.DeskID, state.SelectedDate, state.Period)
	if err != nil || !available {
		if err != nil {
			s.logger.Error().Err(err).Str("desk_id", state.DeskID).Msg("final availability check failed")
		}
		state.Submission = models.SubmitFailed
		state.Availability = models.AvailUnavailable
		state.FailureReason = "slot no longer available"
		metrics.IncBooking("rejected")
		s.saveState(ctx, state)
		return state, ErrNotAvailable
	}

	booking, err := s.backend.CreateBooking(ctx, token, state.DeskID, state.SelectedDate, state.Period)
	if err != nil {
		s.logger.Error().Err(err).Str("desk_id", state.DeskID).Msg("create booking failed")
		state.Submission = models.SubmitFailed
		state.FailureReason = err.Error()
		metrics.IncBooking("failed")
		s.saveState(ctx, state)
		return state, err
	}

	state.Submission = models.SubmitSucceeded
	state.UpdatedAt = s.now()
	metrics.IncBooking("created")

	// Попытка завершена, следующая начинается с чистого состояния.
	// Клиенту возвращаем снимок с результатом.
	next := *state
	next.Reset(s.now())
	s.saveState(ctx, &next)

	s.publishBookingEvent(booking, "created")
	return state, nil
}

// CancelFlow abandons the current attempt and returns the session to the
// initial state.
func (s *FlowService) CancelFlow(ctx context.Context, sessionID string) (*models.FlowState, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	state, err := s.loadOrInit(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state.Reset(s.now())
	if err := s.repo.SetState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// QuickReserve books the first free desk for the given slot without going
// through desk selection.
func (s *FlowService) QuickReserve(ctx context.Context, token string, user models.User, date time.Time, period models.Period) (*models.Booking, error) {
	if !period.Valid() {
		return nil, ErrInvalidPeriod
	}
	if err := s.ValidateDate(date); err != nil {
		return nil, err
	}
	if !user.CanBook() {
		return nil, ErrProfileIncomplete
	}

	desks, err := s.backend.ListDesks(ctx, token)
	if err != nil {
		return nil, err
	}

	desk := availability.FirstAvailable(desks, date, period)
	if desk == nil {
		return nil, ErrNoDeskFree
	}

	booking, err := s.backend.CreateBooking(ctx, token, desk.ID, date, period)
	if err != nil {
		metrics.IncBooking("failed")
		return nil, err
	}

	metrics.IncBooking("created")
	s.publishBookingEvent(booking, "created")
	return booking, nil
}

// CancelBooking cancels an existing booking and notifies observers.
func (s *FlowService) CancelBooking(ctx context.Context, token string, booking *models.Booking) error {
	if err := s.backend.CancelBooking(ctx, token, booking.ID); err != nil {
		return err
	}
	metrics.IncBooking("canceled")
	s.publishBookingEvent(booking, "canceled")
	return nil
}

func (s *FlowService) saveState(ctx context.Context, state *models.FlowState) {
	if err := s.repo.SetState(ctx, state); err != nil {
		s.logger.Error().Err(err).Str("session_id", state.SessionID).Msg("save flow state error")
	}
}

func (s *FlowService) publishBookingEvent(booking *models.Booking, action string) {
	if s.eventBus == nil || booking == nil {
		return
	}

	payload := events.BookingChangePayload{
		BookingID: booking.ID,
		DeskID:    booking.DeskID,
		DeskName:  booking.DeskName,
		UserID:    booking.UserID,
		UserName:  booking.UserName,
		Date:      models.FormatDate(booking.Date),
		Period:    string(booking.Period),
		Action:    action,
	}

	if err := s.eventBus.PublishJSON(events.TopicBookingsChanged, payload); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("publish event error")
	}
}
