package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/repository"
)

// ActivityRepository implements activity.Repository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log inserts a new activity event
func (r *ActivityRepository) Log(ctx context.Context, tenantID string, event *activity.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	event.TenantID = tenantID

	query := `
		INSERT INTO activity_events (
			id, tenant_id, type, source, title, description, data, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var data sql.NullString
	if len(event.Data) > 0 {
		data = sql.NullString{String: string(event.Data), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		tenantID,
		string(event.Type),
		event.Source,
		event.Title,
		event.Description,
		data,
		event.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to log activity %s: %w", event.ID, repository.ErrConflict)
		}
		return fmt.Errorf("failed to log activity: %w", err)
	}
	return nil
}

// List returns activity events matching the given filters, newest first
func (r *ActivityRepository) List(ctx context.Context, tenantID string, opts activity.ListOptions) ([]activity.Event, error) {
	query := `
		SELECT id, tenant_id, type, source, title, description, data, created_at
		FROM activity_events
		WHERE tenant_id = ?
	`

	args := []any{tenantID}
	conditions := []string{}

	if opts.Type != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, string(*opts.Type))
	}
	if opts.Since != "" {
		conditions = append(conditions, "id > ?")
		args = append(args, opts.Since)
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var events []activity.Event
	for rows.Next() {
		var ev activity.Event
		var typ string
		var data sql.NullString
		if err := rows.Scan(
			&ev.ID,
			&ev.TenantID,
			&typ,
			&ev.Source,
			&ev.Title,
			&ev.Description,
			&data,
			&ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity event: %w", err)
		}
		ev.Type = activity.Type(typ)
		if data.Valid {
			ev.Data = []byte(data.String)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return events, nil
}
