package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/huddle/internal/domain/task"
	"github.com/ganot/huddle/internal/repository"
)

// TaskRepository implements task.Repository for SQLite
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, tenant_id, title, status, assignee_id, due_at, created_at, updated_at`

// Create inserts a new task
func (r *TaskRepository) Create(ctx context.Context, tenantID string, t *task.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		tenantID,
		t.Title,
		string(t.Status),
		nullString(t.AssigneeID),
		nullTime(t.DueAt),
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	t.TenantID = tenantID
	return nil
}

// Get retrieves a task by ID
func (r *TaskRepository) Get(ctx context.Context, tenantID, id string) (*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND tenant_id = ?`

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// List returns tasks ordered by most recent update
func (r *TaskRepository) List(ctx context.Context, tenantID string, opts task.ListOptions) ([]task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE tenant_id = ?`
	args := []any{tenantID}

	if opts.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*opts.Status))
	}
	if opts.AssigneeID != nil {
		query += " AND assignee_id = ?"
		args = append(args, *opts.AssigneeID)
	}

	query += " ORDER BY updated_at DESC"
	query, args = paginate(query, args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var list []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		list = append(list, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return list, nil
}

// Update persists the mutable fields of a task
func (r *TaskRepository) Update(ctx context.Context, tenantID string, t *task.Task) error {
	query := `
		UPDATE tasks
		SET title = ?, status = ?, assignee_id = ?, due_at = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		t.Title,
		string(t.Status),
		nullString(t.AssigneeID),
		nullTime(t.DueAt),
		t.UpdatedAt,
		t.ID,
		tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return requireAffected(result)
}

func scanTask(s scanner) (*task.Task, error) {
	var t task.Task
	var status string
	var assignee sql.NullString
	var dueAt sql.NullTime
	if err := s.Scan(
		&t.ID,
		&t.TenantID,
		&t.Title,
		&status,
		&assignee,
		&dueAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Status = task.Status(status)
	t.AssigneeID = stringPtr(assignee)
	t.DueAt = timePtr(dueAt)
	return &t, nil
}
