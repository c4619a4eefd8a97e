package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/huddle/internal/domain/conversation"
	"github.com/ganot/huddle/internal/repository"
)

// ConversationRepository implements conversation.Repository for SQLite
type ConversationRepository struct {
	db *DB
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

const conversationColumns = `
	id, tenant_id, channel, subject, status, assignee_id, priority,
	unread_count, last_message_at, last_message_preview, created_at, updated_at
`

// Create inserts a new conversation
func (r *ConversationRepository) Create(ctx context.Context, tenantID string, conv *conversation.Conversation) error {
	query := `INSERT INTO conversations (` + conversationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		conv.ID,
		tenantID,
		string(conv.Channel),
		conv.Subject,
		string(conv.Status),
		nullString(conv.AssigneeID),
		string(conv.Priority),
		conv.UnreadCount,
		nullTime(conv.LastMessageAt),
		conv.LastMessagePreview,
		conv.CreatedAt,
		conv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	conv.TenantID = tenantID
	return nil
}

// Get retrieves a conversation by ID
func (r *ConversationRepository) Get(ctx context.Context, tenantID, id string) (*conversation.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = ? AND tenant_id = ?`

	conv, err := scanConversation(r.db.QueryRowContext(ctx, query, id, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

// List returns conversations ordered by most recent update
func (r *ConversationRepository) List(ctx context.Context, tenantID string, opts conversation.ListOptions) ([]conversation.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE tenant_id = ?`
	args := []any{tenantID}

	if opts.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*opts.Status))
	}

	query += " ORDER BY updated_at DESC"
	query, args = paginate(query, args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var convs []conversation.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, *conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation rows: %w", err)
	}
	return convs, nil
}

// Update persists the mutable fields of a conversation
func (r *ConversationRepository) Update(ctx context.Context, tenantID string, conv *conversation.Conversation) error {
	return updateConversation(ctx, r.db, tenantID, conv)
}

// AddMessage inserts a message into an existing conversation and saves conv
// in the same transaction.
func (r *ConversationRepository) AddMessage(ctx context.Context, tenantID string, msg *conversation.Message, conv *conversation.Conversation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO messages (id, tenant_id, conversation_id, author, body, created_at)
		SELECT ?, ?, id, ?, ?, ? FROM conversations WHERE id = ? AND tenant_id = ?
	`

	result, err := tx.ExecContext(ctx, query,
		msg.ID,
		tenantID,
		msg.Author,
		msg.Body,
		msg.CreatedAt,
		msg.ConversationID,
		tenantID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to add message: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}
	if err := updateConversation(ctx, tx, tenantID, conv); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit message: %w", err)
	}
	msg.TenantID = tenantID
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateConversation(ctx context.Context, db execer, tenantID string, conv *conversation.Conversation) error {
	query := `
		UPDATE conversations
		SET subject = ?, status = ?, assignee_id = ?, priority = ?, unread_count = ?,
			last_message_at = ?, last_message_preview = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`

	result, err := db.ExecContext(ctx, query,
		conv.Subject,
		string(conv.Status),
		nullString(conv.AssigneeID),
		string(conv.Priority),
		conv.UnreadCount,
		nullTime(conv.LastMessageAt),
		conv.LastMessagePreview,
		conv.UpdatedAt,
		conv.ID,
		tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	return requireAffected(result)
}

// ListMessages returns a conversation's messages, oldest first
func (r *ConversationRepository) ListMessages(ctx context.Context, tenantID, conversationID string) ([]conversation.Message, error) {
	query := `
		SELECT id, tenant_id, conversation_id, author, body, created_at
		FROM messages
		WHERE tenant_id = ? AND conversation_id = ?
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var msgs []conversation.Message
	for rows.Next() {
		var msg conversation.Message
		if err := rows.Scan(&msg.ID, &msg.TenantID, &msg.ConversationID, &msg.Author, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}
	return msgs, nil
}

func scanConversation(s scanner) (*conversation.Conversation, error) {
	var conv conversation.Conversation
	var channel, status, priority string
	var assignee sql.NullString
	var lastMessageAt sql.NullTime
	if err := s.Scan(
		&conv.ID,
		&conv.TenantID,
		&channel,
		&conv.Subject,
		&status,
		&assignee,
		&priority,
		&conv.UnreadCount,
		&lastMessageAt,
		&conv.LastMessagePreview,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	conv.Channel = conversation.Channel(channel)
	conv.Status = conversation.Status(status)
	conv.Priority = conversation.Priority(priority)
	conv.AssigneeID = stringPtr(assignee)
	conv.LastMessageAt = timePtr(lastMessageAt)
	return &conv, nil
}
