package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"deskmap/internal/domain"
	"deskmap/internal/events"
	"deskmap/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskUpsert = "upsert"
	TaskRemove = "remove"
)

// Task is one unit of sheet sync work.
type Task struct {
	Type      string          `json:"type"`
	BookingID string          `json:"booking_id"`
	Booking   *models.Booking `json:"booking,omitempty"`
	Attempts  int             `json:"attempts"`
	CreatedAt time.Time       `json:"created_at"`
}

// CacheInvalidator drops read-through caches after a mutation.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context)
}

// RefreshWorker reacts to desk and booking mutations: it invalidates the
// backend read cache immediately and mirrors booking changes into the
// reporting sheet through a durable queue. Tasks go to Redis when it is
// reachable, otherwise to an in-memory channel; failed tasks are retried
// on the RetryPolicy schedule.
type RefreshWorker struct {
	cache         CacheInvalidator
	sheets        domain.BookingSync
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan Task
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	logger        *zerolog.Logger
}

func NewRefreshWorker(cache CacheInvalidator, sheets domain.BookingSync, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *RefreshWorker {
	return &RefreshWorker{
		cache:         cache,
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry.normalized(),
		queue:         make(chan Task, 128),
		redisQueueKey: "sheets:queue",
		deadLetterKey: "sheets:deadletter",
		pollInterval:  2 * time.Second,
		logger:        logger,
	}
}

// BindBus subscribes the worker to the mutation topics.
func (w *RefreshWorker) BindBus(bus *events.Bus) {
	bus.Subscribe(events.TopicDesksChanged, w.onDesksChanged)
	bus.Subscribe(events.TopicBookingsChanged, w.onBookingsChanged)
}

func (w *RefreshWorker) onDesksChanged(event *events.Event) error {
	if w.cache != nil {
		w.cache.InvalidateCache(context.Background())
	}
	return nil
}

func (w *RefreshWorker) onBookingsChanged(event *events.Event) error {
	if w.cache != nil {
		w.cache.InvalidateCache(context.Background())
	}
	if w.sheets == nil {
		return nil
	}

	var payload events.BookingChangePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		w.logger.Error().Err(err).Msg("decode booking change payload")
		return err
	}

	task := Task{
		BookingID: payload.BookingID,
		CreatedAt: time.Now(),
	}
	switch payload.Action {
	case "canceled":
		task.Type = TaskRemove
	default:
		task.Type = TaskUpsert
		date, err := models.ParseDate(payload.Date)
		if err != nil {
			w.logger.Error().Err(err).Str("booking_id", payload.BookingID).Msg("bad date in booking change payload")
			return err
		}
		task.Booking = &models.Booking{
			ID:       payload.BookingID,
			DeskID:   payload.DeskID,
			DeskName: payload.DeskName,
			UserID:   payload.UserID,
			UserName: payload.UserName,
			Date:     date,
			Period:   models.Period(payload.Period),
			Status:   models.StatusActive,
		}
	}

	return w.Enqueue(context.Background(), task)
}

// Enqueue schedules a task, preferring the Redis queue for durability.
func (w *RefreshWorker) Enqueue(ctx context.Context, task Task) error {
	if task.Type == "" {
		return errors.New("task type is required")
	}
	if task.BookingID == "" {
		return errors.New("booking id is required")
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Msg("redis push failed, falling back to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Error().Str("booking_id", task.BookingID).Msg("in-memory queue full, task dropped")
	}
	return nil
}

func (w *RefreshWorker) pushRedis(ctx context.Context, task Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.RPush(ctx, w.redisQueueKey, data).Err()
}

// Start launches the processing loop; it stops when ctx is done.
func (w *RefreshWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("refresh worker started")
	defer w.logger.Info().Msg("refresh worker stopped")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-w.queue:
			w.process(ctx, task)
		case <-ticker.C:
			w.drainRedis(ctx)
		}
	}
}

func (w *RefreshWorker) drainRedis(ctx context.Context) {
	if w.redis == nil {
		return
	}

	for {
		data, err := w.redis.LPop(ctx, w.redisQueueKey).Bytes()
		if err == redis.Nil {
			return
		}
		if err != nil {
			w.logger.Warn().Err(err).Msg("redis pop failed")
			return
		}

		var task Task
		if err := json.Unmarshal(data, &task); err != nil {
			w.logger.Error().Err(err).Msg("decode queued task")
			continue
		}
		w.process(ctx, task)
	}
}

func (w *RefreshWorker) process(ctx context.Context, task Task) {
	err := w.apply(ctx, task)
	if err == nil {
		return
	}

	task.Attempts++
	w.logger.Warn().Err(err).
		Str("booking_id", task.BookingID).
		Str("task", task.Type).
		Int("attempt", task.Attempts).
		Msg("sheet sync failed")

	if task.Attempts >= w.retryPolicy.MaxAttempts {
		w.deadLetter(ctx, task)
		return
	}

	delay := w.retryPolicy.Delay(task.Attempts)
	go func() {
		select {
		case <-ctx.Done():
		case <-time.After(delay):
			if err := w.Enqueue(ctx, task); err != nil {
				w.logger.Error().Err(err).Str("booking_id", task.BookingID).Msg("re-enqueue failed")
			}
		}
	}()
}

func (w *RefreshWorker) apply(ctx context.Context, task Task) error {
	switch task.Type {
	case TaskUpsert:
		return w.sheets.UpsertBooking(ctx, task.Booking)
	case TaskRemove:
		return w.sheets.RemoveBooking(ctx, task.BookingID)
	default:
		return errors.New("unknown task type: " + task.Type)
	}
}

func (w *RefreshWorker) deadLetter(ctx context.Context, task Task) {
	w.logger.Error().
		Str("booking_id", task.BookingID).
		Str("task", task.Type).
		Msg("giving up on sheet sync task")

	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		return
	}
	if err := w.redis.RPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Msg("dead letter push failed")
	}
}
