package approval

import "context"

// Repository provides persistence for approvals.
type Repository interface {
	Create(ctx context.Context, tenantID string, a *Approval) error
	Get(ctx context.Context, tenantID, id string) (*Approval, error)
	List(ctx context.Context, tenantID string, opts ListOptions) ([]Approval, error)
	// Decide records a decision only if the approval is still pending.
	Decide(ctx context.Context, tenantID string, a *Approval) error
}
