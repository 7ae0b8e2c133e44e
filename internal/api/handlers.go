package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"deskmap/internal/export"
	"deskmap/internal/mapview"
	"deskmap/internal/models"
	"deskmap/internal/service"
)

func (s *HTTPServer) handleMap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	token := bearerToken(r)

	date := models.DayOf(time.Now())
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := models.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	period := models.PeriodFull
	if raw := r.URL.Query().Get("period"); raw != "" {
		period = models.Period(raw)
		if !period.Valid() {
			writeError(w, http.StatusBadRequest, "invalid period")
			return
		}
	}

	desks, err := s.backend.ListDesks(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rooms, err := s.backend.ListRooms(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	selectedDeskID := ""
	if state, err := s.flow.State(r.Context(), sessionID(token)); err == nil && state != nil {
		selectedDeskID = state.DeskID
	}

	view := mapview.Build(s.plan, rooms, desks, date, period, selectedDeskID)
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleFlow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	state, err := s.flow.State(r.Context(), sessionID(bearerToken(r)))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleSelectDesk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		DeskID string `json:"desk_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.DeskID == "" {
		writeError(w, http.StatusBadRequest, "desk_id is required")
		return
	}

	token := bearerToken(r)
	state, err := s.flow.SelectDesk(r.Context(), token, sessionID(token), body.DeskID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleSetDate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Date string `json:"date"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := models.ParseDate(body.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	token := bearerToken(r)
	state, err := s.flow.SetDate(r.Context(), token, sessionID(token), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleSetPeriod(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Period string `json:"period"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	token := bearerToken(r)
	state, err := s.flow.SetPeriod(r.Context(), token, sessionID(token), models.Period(body.Period))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	token := bearerToken(r)

	user, err := s.users.CurrentUser(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	state, err := s.flow.Submit(r.Context(), token, sessionID(token), *user)
	if err != nil {
		// Состояние содержит причину отказа, клиенту нужны оба
		if state != nil {
			writeJSON(w, statusForSubmitError(err), state)
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

func statusForSubmitError(err error) int {
	switch {
	case errors.Is(err, service.ErrNotAvailable),
		errors.Is(err, service.ErrSubmitInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrProfileIncomplete):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNoDeskSelected),
		errors.Is(err, service.ErrPastDate),
		errors.Is(err, service.ErrDateTooFar):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (s *HTTPServer) handleCancelFlow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	state, err := s.flow.CancelFlow(r.Context(), sessionID(bearerToken(r)))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleQuickReserve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Date   string `json:"date"`
		Period string `json:"period"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date := models.DayOf(time.Now())
	if body.Date != "" {
		parsed, err := models.ParseDate(body.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	period := models.PeriodFull
	if body.Period != "" {
		period = models.Period(body.Period)
	}

	token := bearerToken(r)
	user, err := s.users.CurrentUser(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	booking, err := s.flow.QuickReserve(r.Context(), token, *user, date, period)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// bookingsResponse splits the user's bookings around today.
type bookingsResponse struct {
	Upcoming []bookingItem `json:"upcoming"`
	Past     []bookingItem `json:"past"`
}

type bookingItem struct {
	ID       string `json:"id"`
	DeskID   string `json:"desk_id"`
	DeskName string `json:"desk_name,omitempty"`
	Date     string `json:"date"`
	Period   string `json:"period"`
	Hours    string `json:"hours"`
	Status   string `json:"status"`
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	token := bearerToken(r)

	user, err := s.users.CurrentUser(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	bookings, err := s.backend.ListUserBookings(r.Context(), token, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var filter *time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := models.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
		filter = &parsed
	}

	today := models.DayOf(time.Now())
	resp := bookingsResponse{Upcoming: []bookingItem{}, Past: []bookingItem{}}
	for _, b := range bookings {
		if filter != nil && !models.SameDay(b.Date, *filter) {
			continue
		}
		item := bookingItem{
			ID:       b.ID,
			DeskID:   b.DeskID,
			DeskName: b.DeskName,
			Date:     models.FormatDate(b.Date),
			Period:   string(b.Period),
			Hours:    b.Period.TimeRange(),
			Status:   b.EffectiveStatus(today),
		}
		if b.IsActive(today) {
			resp.Upcoming = append(resp.Upcoming, item)
		} else {
			resp.Past = append(resp.Past, item)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	bookingID := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/")
	if bookingID == "" || strings.Contains(bookingID, "/") {
		writeError(w, http.StatusBadRequest, "booking id is required")
		return
	}
	token := bearerToken(r)

	user, err := s.users.CurrentUser(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Отменять можно только собственные бронирования
	bookings, err := s.backend.ListUserBookings(r.Context(), token, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var target *models.Booking
	for i := range bookings {
		if bookings[i].ID == bookingID {
			target = &bookings[i]
			break
		}
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}

	if err := s.flow.CancelBooking(r.Context(), token, target); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "canceled"})
}

func (s *HTTPServer) handleDesks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var input models.DeskInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	desk, err := s.desks.CreateDesk(r.Context(), bearerToken(r), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, desk)
}

func (s *HTTPServer) handleDeskByID(w http.ResponseWriter, r *http.Request) {
	deskID := strings.TrimPrefix(r.URL.Path, "/api/v1/desks/")
	if deskID == "" || strings.Contains(deskID, "/") {
		writeError(w, http.StatusBadRequest, "desk id is required")
		return
	}
	token := bearerToken(r)

	switch r.Method {
	case http.MethodPut:
		var input models.DeskInput
		if err := decodeBody(r, &input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		desk, err := s.desks.UpdateDesk(r.Context(), token, deskID, input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, desk)
	case http.MethodDelete:
		if err := s.desks.DeleteDesk(r.Context(), token, deskID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	token := bearerToken(r)

	start := models.DayOf(time.Now())
	end := start.AddDate(0, 0, models.DefaultExportRangeDays-1)
	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := models.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start date")
			return
		}
		start = parsed
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		parsed, err := models.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end date")
			return
		}
		end = parsed
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end date before start date")
		return
	}

	desks, err := s.backend.ListDesks(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(start, end)+`"`)
	if err := export.WriteSchedule(w, desks, start, end); err != nil {
		s.logger.Error().Err(err).Msg("schedule export failed")
	}
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	token := bearerToken(r)

	s.users.Logout(token)
	if _, err := s.flow.CancelFlow(r.Context(), sessionID(token)); err != nil {
		s.logger.Warn().Err(err).Msg("flow reset on logout failed")
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func decodeBody(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}
