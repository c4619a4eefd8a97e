package conversation

import "context"

// Repository provides persistence for conversations and their messages.
type Repository interface {
	Create(ctx context.Context, tenantID string, conv *Conversation) error
	Get(ctx context.Context, tenantID, id string) (*Conversation, error)
	List(ctx context.Context, tenantID string, opts ListOptions) ([]Conversation, error)
	Update(ctx context.Context, tenantID string, conv *Conversation) error
	// AddMessage stores msg and saves conv atomically.
	AddMessage(ctx context.Context, tenantID string, msg *Message, conv *Conversation) error
	ListMessages(ctx context.Context, tenantID, conversationID string) ([]Message, error)
}
