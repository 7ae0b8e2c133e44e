package events

import (
	"encoding/json"
	"sync"
	"time"
)

// Topics. Observers of the desk map and the booking tables do not know
// about each other; mutations fan out through the bus instead of direct
// calls between components.
const (
	TopicDesksChanged    = "desks-changed"
	TopicBookingsChanged = "bookings-changed"
)

// DeskChangePayload describes a desk mutation for event consumers.
type DeskChangePayload struct {
	DeskID   string `json:"desk_id"`
	DeskName string `json:"desk_name,omitempty"`
	Action   string `json:"action"` // created, updated, deleted
}

// BookingChangePayload describes the booking snapshot behind a refresh.
type BookingChangePayload struct {
	BookingID string    `json:"booking_id"`
	DeskID    string    `json:"desk_id"`
	DeskName  string    `json:"desk_name,omitempty"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Period    string    `json:"period"`
	Action    string    `json:"action"` // created, canceled
	At        time.Time `json:"at"`
}

// Event is a lightweight domain event with a JSON payload.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Handler reacts to an event.
type Handler func(event *Event) error

// Bus provides in-process pub/sub. Handlers run synchronously on the
// publisher's goroutine; subscribers decide their own concurrency.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[topic] = append(b.subscribers[topic], handler)
}

// Publish notifies subscribers of the topic.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event. A nil bus is
// a no-op so components can run without wiring one.
func (b *Bus) PublishJSON(topic string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: topic, Payload: raw, CreatedAt: time.Now()})
	return nil
}
