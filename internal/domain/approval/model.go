package approval

import "time"

// Status represents the decision state of an approval request
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Approval is a request that a teammate must approve or reject
type Approval struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenantId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	RequesterID string     `json:"requesterId"`
	Status      Status     `json:"status"`
	DecidedBy   *string    `json:"decidedBy,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	DecidedAt   *time.Time `json:"decidedAt,omitempty"`
}

// ListOptions provides filtering options for listing approvals
type ListOptions struct {
	Status *Status
	Limit  int
	Offset int
}
