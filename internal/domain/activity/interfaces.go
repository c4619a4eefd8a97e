package activity

import "context"

// Repository provides persistence operations for activity events.
type Repository interface {
	Log(ctx context.Context, tenantID string, event *Event) error
	List(ctx context.Context, tenantID string, opts ListOptions) ([]Event, error)
}

// Broadcaster delivers a persisted event to live subscribers.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event) error
}

// Publisher is implemented by Service and consumed by the domain services
// that emit events on mutation.
type Publisher interface {
	Publish(ctx context.Context, tenantID string, in Input) (*Event, error)
}
