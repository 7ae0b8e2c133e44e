package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"deskmap/internal/backend"
	"deskmap/internal/config"
	"deskmap/internal/domain"
	"deskmap/internal/metrics"
	"deskmap/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer is the web front end's API surface. Every /api/v1 route
// requires a bearer token, which is forwarded to the booking backend.
type HTTPServer struct {
	cfg      *config.Config
	plan     *config.Floorplan
	backend  domain.BackendAPI
	flow     domain.BookingFlow
	desks    domain.DeskManager
	users    domain.SessionUsers
	sessions domain.FlowRepository
	limiter  *rateLimiter
	logger   *zerolog.Logger
	server   *http.Server
}

func NewHTTPServer(cfg *config.Config, plan *config.Floorplan, backendAPI domain.BackendAPI, flow domain.BookingFlow, desks domain.DeskManager, users domain.SessionUsers, sessions domain.FlowRepository, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		plan:     plan,
		backend:  backendAPI,
		flow:     flow,
		desks:    desks,
		users:    users,
		sessions: sessions,
		limiter:  newRateLimiter(cfg.RateLimit),
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/map", srv.requireAuth(srv.handleMap))
	mux.HandleFunc("/api/v1/flow", srv.requireAuth(srv.handleFlow))
	mux.HandleFunc("/api/v1/flow/select-desk", srv.requireAuth(srv.handleSelectDesk))
	mux.HandleFunc("/api/v1/flow/date", srv.requireAuth(srv.handleSetDate))
	mux.HandleFunc("/api/v1/flow/period", srv.requireAuth(srv.handleSetPeriod))
	mux.HandleFunc("/api/v1/flow/submit", srv.requireAuth(srv.handleSubmit))
	mux.HandleFunc("/api/v1/flow/cancel", srv.requireAuth(srv.handleCancelFlow))
	mux.HandleFunc("/api/v1/quick-reserve", srv.requireAuth(srv.handleQuickReserve))
	mux.HandleFunc("/api/v1/bookings", srv.requireAuth(srv.handleBookings))
	mux.HandleFunc("/api/v1/bookings/", srv.requireAuth(srv.handleBookingByID))
	mux.HandleFunc("/api/v1/desks", srv.requireAuth(srv.handleDesks))
	mux.HandleFunc("/api/v1/desks/", srv.requireAuth(srv.handleDeskByID))
	mux.HandleFunc("/api/v1/export/bookings.xlsx", srv.requireAuth(srv.handleExport))
	mux.HandleFunc("/api/v1/logout", srv.requireAuth(srv.handleLogout))
	mux.HandleFunc("/healthz", srv.handleHealth)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.loggingMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// requireAuth rejects anonymous requests and applies the per-session rate
// limits before handing off to the handler. The in-process token bucket
// smooths bursts per replica; the repository counter caps the session's
// total across replicas over a minute window.
func (s *HTTPServer) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		sid := sessionID(token)
		if !s.limiter.allow(sid) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		if !s.allowSession(r.Context(), sid) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

func (s *HTTPServer) allowSession(ctx context.Context, sid string) bool {
	perMinute := int(s.cfg.RateLimit.RPS * 60)
	if s.sessions == nil || perMinute <= 0 {
		return true
	}
	ok, err := s.sessions.CheckRateLimit(ctx, sid, perMinute, time.Minute)
	if err != nil {
		// Счетчик недоступен, запрос пропускаем
		s.logger.Warn().Err(err).Msg("session rate limit check failed")
		return true
	}
	return ok
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps domain errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, backend.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, backend.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, backend.ErrConflict),
		errors.Is(err, service.ErrNotAvailable),
		errors.Is(err, service.ErrNoDeskFree),
		errors.Is(err, service.ErrSubmitInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, backend.ErrValidation),
		errors.Is(err, service.ErrInvalidDeskInput):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrPastDate),
		errors.Is(err, service.ErrDateTooFar),
		errors.Is(err, service.ErrInvalidPeriod),
		errors.Is(err, service.ErrNoDeskSelected):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrProfileIncomplete):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, backend.ErrBackend):
		writeError(w, http.StatusBadGateway, "backend unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
