package task

import "time"

// Status represents the progress of a task
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Task is a unit of work assigned within a tenant
type Task struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenantId"`
	Title      string     `json:"title"`
	Status     Status     `json:"status"`
	AssigneeID *string    `json:"assigneeId,omitempty"`
	DueAt      *time.Time `json:"dueAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// ListOptions provides filtering options for listing tasks
type ListOptions struct {
	Status     *Status
	AssigneeID *string
	Limit      int
	Offset     int
}
