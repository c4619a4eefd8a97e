package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/repository"
	"github.com/google/uuid"
)

const (
	sourceTasks      = "tasks"
	defaultPageLimit = 100
)

// Service handles task operations.
type Service struct {
	repo      Repository
	publisher activity.Publisher
	logger    *slog.Logger
}

// NewService creates a new task service.
func NewService(repo Repository, publisher activity.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// CreateRequest defines task creation inputs.
type CreateRequest struct {
	Title      string
	AssigneeID *string
	DueAt      *time.Time
}

// UpdateRequest carries the fields to change; nil fields are left untouched.
// An empty AssigneeID clears the assignee.
type UpdateRequest struct {
	Title      *string
	Status     *Status
	AssigneeID *string
	DueAt      *time.Time
}

// Create adds a new task in the todo state.
func (s *Service) Create(ctx context.Context, tenantID string, req CreateRequest) (*Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrInvalidInput
	}

	now := time.Now().UTC()
	t := &Task{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		Title:      title,
		Status:     StatusTodo,
		AssigneeID: req.AssigneeID,
		DueAt:      req.DueAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, tenantID, t); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.publish(ctx, tenantID, activity.Input{
		Type:        activity.TypeTaskCreated,
		Source:      sourceTasks,
		Title:       "New task",
		Description: t.Title,
		Payload:     activity.TaskCreated{TaskID: t.ID},
	})
	return t, nil
}

// Get fetches a task by ID.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Task, error) {
	t, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return t, nil
}

// List returns tasks, most recently updated first.
func (s *Service) List(ctx context.Context, tenantID string, opts ListOptions) ([]Task, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultPageLimit
	}
	return s.repo.List(ctx, tenantID, opts)
}

// Update applies field changes and publishes them as task_updated.
func (s *Service) Update(ctx context.Context, tenantID, id string, req UpdateRequest) (*Task, error) {
	t, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	changes, err := applyUpdate(t, req)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return t, nil
	}

	t.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, tenantID, t); err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}

	title := "Task updated"
	if _, ok := changes["status"]; ok && t.Status == StatusDone {
		title = "Task completed"
	}
	s.publish(ctx, tenantID, activity.Input{
		Type:        activity.TypeTaskUpdated,
		Source:      sourceTasks,
		Title:       title,
		Description: t.Title,
		Payload:     activity.TaskUpdated{TaskID: t.ID, Changes: changes},
	})
	return t, nil
}

func (s *Service) publish(ctx context.Context, tenantID string, in activity.Input) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, tenantID, in); err != nil {
		s.logger.Warn("publishing task activity", "tenant_id", tenantID, "type", in.Type, "error", err)
	}
}

func applyUpdate(t *Task, req UpdateRequest) (map[string]any, error) {
	changes := map[string]any{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrInvalidInput
		}
		if title != t.Title {
			t.Title = title
			changes["title"] = title
		}
	}
	if req.Status != nil {
		if !validStatus(*req.Status) {
			return nil, ErrInvalidInput
		}
		if *req.Status != t.Status {
			t.Status = *req.Status
			changes["status"] = string(t.Status)
		}
	}
	if req.AssigneeID != nil {
		assignee := strings.TrimSpace(*req.AssigneeID)
		current := ""
		if t.AssigneeID != nil {
			current = *t.AssigneeID
		}
		if assignee != current {
			if assignee == "" {
				t.AssigneeID = nil
				changes["assigneeId"] = nil
			} else {
				t.AssigneeID = &assignee
				changes["assigneeId"] = assignee
			}
		}
	}
	if req.DueAt != nil {
		due := req.DueAt.UTC()
		if t.DueAt == nil || !t.DueAt.Equal(due) {
			t.DueAt = &due
			changes["dueAt"] = due.Format(time.RFC3339)
		}
	}
	return changes, nil
}

func validStatus(st Status) bool {
	switch st {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}
