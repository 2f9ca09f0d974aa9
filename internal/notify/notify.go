// Package notify keeps the short-lived, dismissible notifications shown to
// dashboard users.
package notify

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-map-service/internal/observability"
)

// DefaultCapacity is the number of notifications kept when none is configured.
const DefaultCapacity = 50

// ErrNotFound is returned when dismissing an unknown notification.
var ErrNotFound = errors.New("notification not found")

// Level is the severity shown with a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one user-visible message.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier is the narrow interface producers depend on.
type Notifier interface {
	Notify(level Level, message string) Notification
}

// Feed is a bounded, concurrency-safe list of notifications. When full, the
// oldest notification is dropped.
type Feed struct {
	mu       sync.Mutex
	items    []Notification // oldest first
	capacity int
	clock    clockwork.Clock
	metrics  *observability.Metrics
}

// NewFeed creates a Feed holding at most capacity notifications.
func NewFeed(capacity int, clock clockwork.Clock, metrics *observability.Metrics) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Feed{capacity: capacity, clock: clock, metrics: metrics}
}

// Notify appends a notification and returns it.
func (f *Feed) Notify(level Level, message string) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: f.clock.Now().UTC(),
	}

	f.mu.Lock()
	f.items = append(f.items, n)
	if over := len(f.items) - f.capacity; over > 0 {
		f.items = append(f.items[:0:0], f.items[over:]...)
	}
	f.mu.Unlock()

	f.metrics.NotificationsSent.WithLabelValues(string(level)).Inc()
	return n
}

// List returns the current notifications, newest first.
func (f *Feed) List() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Notification, len(f.items))
	for i, n := range f.items {
		out[len(f.items)-1-i] = n
	}
	return out
}

// Dismiss removes the notification with the given ID.
func (f *Feed) Dismiss(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, n := range f.items {
		if n.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
