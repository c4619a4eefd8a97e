package task

import "context"

// Repository provides persistence for tasks.
type Repository interface {
	Create(ctx context.Context, tenantID string, t *Task) error
	Get(ctx context.Context, tenantID, id string) (*Task, error)
	List(ctx context.Context, tenantID string, opts ListOptions) ([]Task, error)
	Update(ctx context.Context, tenantID string, t *Task) error
}
