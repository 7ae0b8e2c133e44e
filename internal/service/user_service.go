package service

import (
	"context"
	"sync"
	"time"

	"deskmap/internal/domain"
	"deskmap/internal/models"

	"github.com/rs/zerolog"
)

// UserService resolves the current user for a session token and keeps a
// short-lived in-process cache so the map route does not hit the backend
// on every request. Logout drops the cached entry immediately.
type UserService struct {
	backend domain.BackendAPI
	ttl     time.Duration
	logger  *zerolog.Logger

	mu    sync.Mutex
	cache map[string]userEntry
}

type userEntry struct {
	user      *models.User
	expiresAt time.Time
}

func NewUserService(backend domain.BackendAPI, ttl time.Duration, logger *zerolog.Logger) *UserService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &UserService{
		backend: backend,
		ttl:     ttl,
		logger:  logger,
		cache:   make(map[string]userEntry),
	}
}

func (s *UserService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	s.mu.Lock()
	entry, ok := s.cache[token]
	s.mu.Unlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.user, nil
	}

	user, err := s.backend.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[token] = userEntry{user: user, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	return user, nil
}

func (s *UserService) Logout(token string) {
	s.mu.Lock()
	delete(s.cache, token)
	s.mu.Unlock()
}
