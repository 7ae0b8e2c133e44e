// Package backend is the HTTP client for the desk-booking backend API, the
// source of truth for desks, rooms, bookings and users. Every call carries
// the caller's bearer token; dates cross this boundary as YYYY-MM-DD only.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"deskmap/internal/metrics"
	"deskmap/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

func NewClient(baseURL string, timeout time.Duration, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// UseRedisCache enables read-through caching of the desks and rooms lists.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// InvalidateCache drops the cached desk and room lists. Called by the
// refresh worker when a mutation event arrives.
func (c *Client) InvalidateCache(ctx context.Context) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, cacheKeyDesks, cacheKeyRooms).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("invalidate backend cache")
	}
}

const (
	cacheKeyDesks = "backend:desks"
	cacheKeyRooms = "backend:rooms"
)

// deskDTO mirrors the backend's desk shape: features come as objects,
// bookings are nested under "reservations" with the owner denormalized.
type deskDTO struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Type         string  `json:"type"`
	Description  string  `json:"description"`
	Capacity     int     `json:"capacity"`
	RoomID       string  `json:"roomId"`
	Features     []struct {
		Name string `json:"name"`
	} `json:"features"`
	Reservations []bookingDTO `json:"reservations"`
}

type bookingDTO struct {
	ID     string `json:"id"`
	DeskID string `json:"deskId"`
	Date   string `json:"date"`
	Period string `json:"period"`
	Status string `json:"status"`
	UserID string `json:"userId"`
	User   *struct {
		FullName string `json:"fullName"`
	} `json:"user"`
	Desk *struct {
		Name string `json:"name"`
	} `json:"desk"`
}

func (d deskDTO) toModel(logger *zerolog.Logger) models.Desk {
	desk := models.Desk{
		ID:          d.ID,
		Name:        d.Name,
		X:           d.X,
		Y:           d.Y,
		Type:        d.Type,
		Description: d.Description,
		Capacity:    d.Capacity,
		RoomID:      d.RoomID,
		Features:    make([]string, 0, len(d.Features)),
	}
	for _, f := range d.Features {
		desk.Features = append(desk.Features, f.Name)
	}
	for _, r := range d.Reservations {
		booking, err := r.toModel()
		if err != nil {
			logger.Warn().Err(err).Str("booking_id", r.ID).Str("desk_id", d.ID).Msg("skip malformed reservation")
			continue
		}
		desk.Bookings = append(desk.Bookings, booking)
	}
	return desk
}

func (b bookingDTO) toModel() (models.Booking, error) {
	date, err := models.ParseDate(b.Date)
	if err != nil {
		return models.Booking{}, err
	}

	status := b.Status
	if status == "" {
		status = models.StatusActive
	}

	userName := "Utilisateur"
	if b.User != nil && b.User.FullName != "" {
		userName = b.User.FullName
	}

	booking := models.Booking{
		ID:       b.ID,
		DeskID:   b.DeskID,
		Date:     date,
		Period:   models.Period(b.Period),
		Status:   status,
		UserID:   b.UserID,
		UserName: userName,
	}
	if b.Desk != nil {
		booking.DeskName = b.Desk.Name
	}
	return booking, nil
}

// ListDesks fetches all desks with their active booking window.
func (c *Client) ListDesks(ctx context.Context, token string) ([]models.Desk, error) {
	var dtos []deskDTO
	if c.readCache(ctx, cacheKeyDesks, &dtos) {
		return c.desksFromDTOs(dtos), nil
	}

	endpoint := c.baseURL + "/api/desks"
	if err := c.doGet(ctx, token, endpoint, &dtos); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKeyDesks, dtos)
	return c.desksFromDTOs(dtos), nil
}

func (c *Client) desksFromDTOs(dtos []deskDTO) []models.Desk {
	desks := make([]models.Desk, 0, len(dtos))
	for _, d := range dtos {
		desks = append(desks, d.toModel(c.logger))
	}
	return desks
}

// ListRooms fetches the floor-plan rooms.
func (c *Client) ListRooms(ctx context.Context, token string) ([]models.Room, error) {
	var rooms []models.Room
	if c.readCache(ctx, cacheKeyRooms, &rooms) {
		return rooms, nil
	}

	endpoint := c.baseURL + "/api/rooms"
	if err := c.doGet(ctx, token, endpoint, &rooms); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKeyRooms, rooms)
	return rooms, nil
}

// CurrentUser resolves the token's owner.
func (c *Client) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	var dto struct {
		ID       string `json:"id"`
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Avatar   string `json:"avatar"`
	}
	endpoint := c.baseURL + "/api/me"
	if err := c.doGet(ctx, token, endpoint, &dto); err != nil {
		return nil, err
	}
	return &models.User{ID: dto.ID, FullName: dto.FullName, Email: dto.Email, Avatar: dto.Avatar}, nil
}

// CheckAvailability asks the backend whether the desk is free for the date
// and period. This is the authoritative check; the local engine is only a
// prediction. Callers treat any error as unavailable.
func (c *Client) CheckAvailability(ctx context.Context, token, deskID string, date time.Time, period models.Period) (bool, error) {
	endpoint := fmt.Sprintf("%s/api/desks/%s/availability?date=%s&period=%s",
		c.baseURL, url.PathEscape(deskID),
		url.QueryEscape(models.FormatDate(date)), url.QueryEscape(string(period)))

	var resp struct {
		Available bool `json:"available"`
	}
	if err := c.doGet(ctx, token, endpoint, &resp); err != nil {
		return false, err
	}
	return resp.Available, nil
}

// CreateBooking submits a booking. A 409 maps to ErrConflict: the desk was
// taken between the advisory check and this call.
func (c *Client) CreateBooking(ctx context.Context, token, deskID string, date time.Time, period models.Period) (*models.Booking, error) {
	body := map[string]string{
		"deskId": deskID,
		"date":   models.FormatDate(date),
		"period": string(period),
	}

	var dto bookingDTO
	endpoint := c.baseURL + "/api/bookings"
	if err := c.doJSON(ctx, token, http.MethodPost, endpoint, body, &dto); err != nil {
		return nil, err
	}

	booking, err := dto.toModel()
	if err != nil {
		return nil, fmt.Errorf("%w: decode booking: %v", ErrBackend, err)
	}
	return &booking, nil
}

// CancelBooking deletes a booking by id.
func (c *Client) CancelBooking(ctx context.Context, token, bookingID string) error {
	endpoint := c.baseURL + "/api/bookings/" + url.PathEscape(bookingID)
	return c.doJSON(ctx, token, http.MethodDelete, endpoint, nil, nil)
}

// ListUserBookings fetches all bookings owned by the user.
func (c *Client) ListUserBookings(ctx context.Context, token, userID string) ([]models.Booking, error) {
	endpoint := c.baseURL + "/api/bookings/" + url.PathEscape(userID)
	var dtos []bookingDTO
	if err := c.doGet(ctx, token, endpoint, &dtos); err != nil {
		return nil, err
	}

	bookings := make([]models.Booking, 0, len(dtos))
	for _, dto := range dtos {
		booking, err := dto.toModel()
		if err != nil {
			c.logger.Warn().Err(err).Str("booking_id", dto.ID).Msg("skip malformed booking")
			continue
		}
		bookings = append(bookings, booking)
	}
	return bookings, nil
}

// DeskBookings fetches the booking window for one desk.
func (c *Client) DeskBookings(ctx context.Context, token, deskID string) ([]models.Booking, error) {
	endpoint := c.baseURL + "/api/desks/" + url.PathEscape(deskID) + "/bookings"
	var dtos []bookingDTO
	if err := c.doGet(ctx, token, endpoint, &dtos); err != nil {
		return nil, err
	}

	bookings := make([]models.Booking, 0, len(dtos))
	for _, dto := range dtos {
		booking, err := dto.toModel()
		if err != nil {
			c.logger.Warn().Err(err).Str("booking_id", dto.ID).Msg("skip malformed booking")
			continue
		}
		bookings = append(bookings, booking)
	}
	return bookings, nil
}

// CreateDesk places a new desk on the map.
func (c *Client) CreateDesk(ctx context.Context, token string, input models.DeskInput) (*models.Desk, error) {
	var dto deskDTO
	endpoint := c.baseURL + "/api/desk"
	if err := c.doJSON(ctx, token, http.MethodPost, endpoint, deskInputBody(input), &dto); err != nil {
		return nil, err
	}
	desk := dto.toModel(c.logger)
	return &desk, nil
}

// UpdateDesk edits an existing desk.
func (c *Client) UpdateDesk(ctx context.Context, token, deskID string, input models.DeskInput) (*models.Desk, error) {
	var dto deskDTO
	endpoint := c.baseURL + "/api/desk/" + url.PathEscape(deskID)
	if err := c.doJSON(ctx, token, http.MethodPut, endpoint, deskInputBody(input), &dto); err != nil {
		return nil, err
	}
	desk := dto.toModel(c.logger)
	return &desk, nil
}

// DeleteDesk removes a desk from the map.
func (c *Client) DeleteDesk(ctx context.Context, token, deskID string) error {
	endpoint := c.baseURL + "/api/desk/" + url.PathEscape(deskID)
	return c.doJSON(ctx, token, http.MethodDelete, endpoint, nil, nil)
}

func deskInputBody(input models.DeskInput) map[string]any {
	return map[string]any{
		"name":        input.Name,
		"x":           input.X,
		"y":           input.Y,
		"type":        input.Type,
		"description": input.Description,
		"roomId":      input.RoomID,
		"features":    input.Features,
	}
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		metrics.IncCache("miss")
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		metrics.IncCache("miss")
		return false
	}
	metrics.IncCache("hit")
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, token, endpoint string, out any) error {
	return c.doJSON(ctx, token, http.MethodGet, endpoint, nil, out)
}

func (c *Client) doJSON(ctx context.Context, token, method, endpoint string, body, out any) error {
	if token == "" {
		return ErrNotAuthenticated
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode body: %v", ErrBackend, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	if err := statusToError(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrBackend, err)
	}
	return nil
}

func statusToError(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}

	msg := readErrorMessage(resp.Body)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: http %d", ErrNotAuthenticated, resp.StatusCode)
	case http.StatusNotFound:
		return fmt.Errorf("%w: http %d", ErrNotFound, resp.StatusCode)
	case http.StatusConflict:
		return conflictError(msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return validationError(msg)
	default:
		return fmt.Errorf("%w: http %d", ErrBackend, resp.StatusCode)
	}
}

func conflictError(msg string) error {
	if msg == "" {
		return ErrConflict
	}
	return fmt.Errorf("%w: %s", ErrConflict, msg)
}

func validationError(msg string) error {
	if msg == "" {
		return ErrValidation
	}
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// readErrorMessage pulls {"message": ...} or {"error": ...} from an error
// body, tolerating anything else.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
