// Package stream fans activity events out to live SSE and WebSocket clients.
package stream

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/metrics"
	"github.com/oklog/ulid/v2"
)

// DefaultBuffer is the per-subscriber event buffer.
const DefaultBuffer = 64

// Hub keeps per-tenant subscriber sets and delivers events without blocking
// the publisher: a subscriber whose buffer is full misses the event.
type Hub struct {
	buffer int
	logger *slog.Logger

	mu      sync.RWMutex
	tenants map[string]map[string]*Subscription
}

// Subscription receives the events broadcast for one tenant.
type Subscription struct {
	ID       string
	TenantID string

	ch chan activity.Event
}

// Events returns the delivery channel. It is closed once the subscription's
// context is done.
func (s *Subscription) Events() <-chan activity.Event {
	return s.ch
}

// NewHub creates a hub with the given per-subscriber buffer size.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{buffer: buffer, logger: logger, tenants: map[string]map[string]*Subscription{}}
}

// Subscribe registers a subscriber for tenantID until ctx is done.
func (h *Hub) Subscribe(ctx context.Context, tenantID string) *Subscription {
	sub := &Subscription{
		ID:       ulid.Make().String(),
		TenantID: tenantID,
		ch:       make(chan activity.Event, h.buffer),
	}

	h.mu.Lock()
	set, ok := h.tenants[tenantID]
	if !ok {
		set = map[string]*Subscription{}
		h.tenants[tenantID] = set
	}
	set[sub.ID] = sub
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(sub)
	}()

	return sub
}

// remove closes the channel under the write lock so it can never race a
// send from Broadcast, which holds the read lock.
func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.tenants[sub.TenantID]
	if _, ok := set[sub.ID]; !ok {
		return
	}
	delete(set, sub.ID)
	if len(set) == 0 {
		delete(h.tenants, sub.TenantID)
	}
	close(sub.ch)
}

// Broadcast delivers event to every subscriber of event.TenantID. It never
// blocks and never fails; it satisfies activity.Broadcaster.
func (h *Hub) Broadcast(_ context.Context, event activity.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.tenants[event.TenantID] {
		select {
		case sub.ch <- event:
			metrics.EventsDelivered.Inc()
		default:
			metrics.EventsDropped.Inc()
			h.logger.Warn("dropping activity for slow subscriber",
				"tenant_id", event.TenantID, "subscription", sub.ID, "id", event.ID)
		}
	}
	return nil
}

// Count returns the number of local subscribers for tenantID.
func (h *Hub) Count(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tenants[tenantID])
}
