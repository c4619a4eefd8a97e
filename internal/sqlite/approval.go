package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/huddle/internal/domain/approval"
	"github.com/ganot/huddle/internal/repository"
)

// ApprovalRepository implements approval.Repository for SQLite
type ApprovalRepository struct {
	db *DB
}

// NewApprovalRepository creates a new ApprovalRepository
func NewApprovalRepository(db *DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

const approvalColumns = `
	id, tenant_id, title, description, requester_id, status,
	decided_by, reason, created_at, decided_at
`

// Create inserts a new approval
func (r *ApprovalRepository) Create(ctx context.Context, tenantID string, a *approval.Approval) error {
	query := `INSERT INTO approvals (` + approvalColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		tenantID,
		a.Title,
		a.Description,
		a.RequesterID,
		string(a.Status),
		nullString(a.DecidedBy),
		a.Reason,
		a.CreatedAt,
		nullTime(a.DecidedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create approval: %w", err)
	}
	a.TenantID = tenantID
	return nil
}

// Get retrieves an approval by ID
func (r *ApprovalRepository) Get(ctx context.Context, tenantID, id string) (*approval.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE id = ? AND tenant_id = ?`

	a, err := scanApproval(r.db.QueryRowContext(ctx, query, id, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return a, nil
}

// List returns approvals, newest first
func (r *ApprovalRepository) List(ctx context.Context, tenantID string, opts approval.ListOptions) ([]approval.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE tenant_id = ?`
	args := []any{tenantID}

	if opts.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*opts.Status))
	}

	query += " ORDER BY created_at DESC"
	query, args = paginate(query, args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	defer rows.Close()

	var list []approval.Approval
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		list = append(list, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating approval rows: %w", err)
	}
	return list, nil
}

// Decide writes the decision fields only while the row is still pending.
// It returns repository.ErrConflict when the approval was already decided
// and repository.ErrNotFound when it does not exist.
func (r *ApprovalRepository) Decide(ctx context.Context, tenantID string, a *approval.Approval) error {
	query := `
		UPDATE approvals
		SET status = ?, decided_by = ?, reason = ?, decided_at = ?
		WHERE id = ? AND tenant_id = ? AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query,
		string(a.Status),
		nullString(a.DecidedBy),
		a.Reason,
		nullTime(a.DecidedAt),
		a.ID,
		tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to decide approval: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read decision result: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM approvals WHERE id = ? AND tenant_id = ?`, a.ID, tenantID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check approval: %w", err)
	}
	return repository.ErrConflict
}

func scanApproval(s scanner) (*approval.Approval, error) {
	var a approval.Approval
	var status string
	var decidedBy sql.NullString
	var decidedAt sql.NullTime
	if err := s.Scan(
		&a.ID,
		&a.TenantID,
		&a.Title,
		&a.Description,
		&a.RequesterID,
		&status,
		&decidedBy,
		&a.Reason,
		&a.CreatedAt,
		&decidedAt,
	); err != nil {
		return nil, err
	}
	a.Status = approval.Status(status)
	a.DecidedBy = stringPtr(decidedBy)
	a.DecidedAt = timePtr(decidedAt)
	return &a, nil
}
