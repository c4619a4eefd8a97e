package store

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultNotificationCapacity bounds the notifications ring.
const DefaultNotificationCapacity = 50

// Level is a notification's severity.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
)

// Notification is a transient toast shown to the user.
type Notification struct {
	ID          string
	Level       Level
	Title       string
	Description string
	EventType   string
	CreatedAt   time.Time
}

// Notifications is a bounded ring of recent toasts. When full, the oldest
// notification is evicted.
type Notifications struct {
	mu       sync.RWMutex
	capacity int
	items    []Notification
	now      func() time.Time

	onChange []func()
}

// NewNotifications creates a ring holding up to capacity notifications. A
// non-positive capacity means DefaultNotificationCapacity.
func NewNotifications(capacity int) *Notifications {
	if capacity <= 0 {
		capacity = DefaultNotificationCapacity
	}
	return &Notifications{capacity: capacity, now: time.Now}
}

// Notify stores n and returns its ID. Missing ID and CreatedAt are filled in.
func (s *Notifications) Notify(n Notification) string {
	if n.ID == "" {
		n.ID = ulid.Make().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if n.Level == "" {
		n.Level = LevelInfo
	}

	s.mu.Lock()
	s.items = append(s.items, n)
	if over := len(s.items) - s.capacity; over > 0 {
		s.items = append([]Notification(nil), s.items[over:]...)
	}
	fns := s.onChange
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return n.ID
}

// Recent returns the stored notifications, newest first.
func (s *Notifications) Recent() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, 0, len(s.items))
	for i := len(s.items) - 1; i >= 0; i-- {
		out = append(out, s.items[i])
	}
	return out
}

// Len returns the number of stored notifications.
func (s *Notifications) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Dismiss removes the notification with id and reports whether it existed.
func (s *Notifications) Dismiss(id string) bool {
	s.mu.Lock()
	idx := -1
	for i, n := range s.items {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	fns := s.onChange
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return true
}

// OnChange registers fn to be called after Notify and Dismiss.
func (s *Notifications) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}
