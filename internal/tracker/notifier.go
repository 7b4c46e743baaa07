package tracker

import (
	"log/slog"
	"sync"
	"time"
)

// Notifier receives short messages for the UI. Delivery is fire-and-forget.
type Notifier interface {
	Notify(message string)
}

// Notification is one queued message
type Notification struct {
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationFeed keeps the most recent notifications until the UI drains
// them. When full the oldest message is dropped.
type NotificationFeed struct {
	mu       sync.Mutex
	capacity int
	items    []Notification
	now      func() time.Time
}

// NewNotificationFeed creates a feed holding at most capacity messages
func NewNotificationFeed(capacity int) *NotificationFeed {
	if capacity <= 0 {
		capacity = 50
	}
	return &NotificationFeed{
		capacity: capacity,
		items:    make([]Notification, 0, capacity),
		now:      time.Now,
	}
}

// Notify logs and queues a message
func (f *NotificationFeed) Notify(message string) {
	slog.Info("Reward notification", "message", message)

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == f.capacity {
		copy(f.items, f.items[1:])
		f.items = f.items[:len(f.items)-1]
	}
	f.items = append(f.items, Notification{Message: message, CreatedAt: f.now()})
}

// Drain returns all queued messages, oldest first, and empties the feed
func (f *NotificationFeed) Drain() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notification, len(f.items))
	copy(out, f.items)
	f.items = f.items[:0]
	return out
}
