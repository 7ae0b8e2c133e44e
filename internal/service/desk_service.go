package service

import (
	"context"
	"fmt"
	"strings"

	"deskmap/internal/domain"
	"deskmap/internal/events"
	"deskmap/internal/models"

	"github.com/rs/zerolog"
)

// DeskService covers the administrator operations: placing, editing and
// removing desks on the floor plan. Input is validated per field before
// any network call.
type DeskService struct {
	backend  domain.BackendAPI
	eventBus domain.EventPublisher
	rooms    []models.Room
	logger   *zerolog.Logger
}

func NewDeskService(backend domain.BackendAPI, eventBus domain.EventPublisher, rooms []models.Room, logger *zerolog.Logger) *DeskService {
	return &DeskService{
		backend:  backend,
		eventBus: eventBus,
		rooms:    rooms,
		logger:   logger,
	}
}

// ValidateInput checks every field and returns all problems at once.
func (s *DeskService) ValidateInput(input models.DeskInput) error {
	var problems []string

	if strings.TrimSpace(input.Name) == "" {
		problems = append(problems, "name is required")
	}
	if input.Type == "" {
		problems = append(problems, "type is required")
	} else if !models.ValidDeskType(input.Type) {
		problems = append(problems, fmt.Sprintf("unknown desk type %q", input.Type))
	}
	if input.RoomID == "" {
		problems = append(problems, "room is required")
	} else if !s.roomExists(input.RoomID) {
		problems = append(problems, fmt.Sprintf("unknown room %q", input.RoomID))
	}
	for _, f := range input.Features {
		if !knownFeature(f) {
			problems = append(problems, fmt.Sprintf("unknown feature %q", f))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDeskInput, strings.Join(problems, "; "))
	}
	return nil
}

func (s *DeskService) roomExists(roomID string) bool {
	for _, r := range s.rooms {
		if r.ID == roomID {
			return true
		}
	}
	return false
}

func knownFeature(f string) bool {
	for _, known := range models.DeskFeatures {
		if known == f {
			return true
		}
	}
	return false
}

func (s *DeskService) CreateDesk(ctx context.Context, token string, input models.DeskInput) (*models.Desk, error) {
	if err := s.ValidateInput(input); err != nil {
		return nil, err
	}

	desk, err := s.backend.CreateDesk(ctx, token, input)
	if err != nil {
		return nil, err
	}

	s.publishDeskEvent(desk.ID, desk.Name, "created")
	return desk, nil
}

func (s *DeskService) UpdateDesk(ctx context.Context, token, deskID string, input models.DeskInput) (*models.Desk, error) {
	if err := s.ValidateInput(input); err != nil {
		return nil, err
	}

	desk, err := s.backend.UpdateDesk(ctx, token, deskID, input)
	if err != nil {
		return nil, err
	}

	s.publishDeskEvent(desk.ID, desk.Name, "updated")
	return desk, nil
}

func (s *DeskService) DeleteDesk(ctx context.Context, token, deskID string) error {
	if err := s.backend.DeleteDesk(ctx, token, deskID); err != nil {
		return err
	}

	s.publishDeskEvent(deskID, "", "deleted")
	return nil
}

func (s *DeskService) publishDeskEvent(deskID, deskName, action string) {
	if s.eventBus == nil {
		return
	}

	payload := events.DeskChangePayload{
		DeskID:   deskID,
		DeskName: deskName,
		Action:   action,
	}

	if err := s.eventBus.PublishJSON(events.TopicDesksChanged, payload); err != nil {
		s.logger.Error().Err(err).Str("desk_id", deskID).Msg("publish event error")
	}
}
