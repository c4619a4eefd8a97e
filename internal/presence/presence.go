// Package presence records which activity streams are open for each tenant.
package presence

import (
	"context"
	"sync"
	"time"
)

// Tracker registers open streams. The stream handlers call Join when a
// client connects, Touch on every heartbeat and Leave on disconnect.
type Tracker interface {
	Join(ctx context.Context, tenantID, streamID string) error
	Touch(ctx context.Context, tenantID, streamID string) error
	Leave(ctx context.Context, tenantID, streamID string) error
	Count(ctx context.Context, tenantID string) (int, error)
}

// Local is an in-process Tracker used when no Redis is configured.
type Local struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	streams map[string]map[string]time.Time
}

// NewLocal creates a Local tracker. Streams not touched within ttl stop
// counting; a zero ttl never expires them.
func NewLocal(ttl time.Duration) *Local {
	return &Local{ttl: ttl, now: time.Now, streams: map[string]map[string]time.Time{}}
}

func (l *Local) Join(_ context.Context, tenantID, streamID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	set, ok := l.streams[tenantID]
	if !ok {
		set = map[string]time.Time{}
		l.streams[tenantID] = set
	}
	set[streamID] = l.now()
	return nil
}

func (l *Local) Touch(ctx context.Context, tenantID, streamID string) error {
	return l.Join(ctx, tenantID, streamID)
}

func (l *Local) Leave(_ context.Context, tenantID, streamID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	set := l.streams[tenantID]
	delete(set, streamID)
	if len(set) == 0 {
		delete(l.streams, tenantID)
	}
	return nil
}

func (l *Local) Count(_ context.Context, tenantID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	set := l.streams[tenantID]
	if l.ttl <= 0 {
		return len(set), nil
	}
	cutoff := l.now().Add(-l.ttl)
	n := 0
	for id, seen := range set {
		if seen.Before(cutoff) {
			delete(set, id)
			continue
		}
		n++
	}
	return n, nil
}
