package activity

import (
	"encoding/json"
	"time"
)

// Type identifies what kind of domain change an event describes. The set is
// open: unknown values are carried through and decode to Unknown.
type Type string

const (
	TypeConversationCreated   Type = "conversation_created"
	TypeMessageCreated        Type = "message_created"
	TypeConversationUpdated   Type = "conversation_updated"
	TypeConversationEscalated Type = "conversation_escalated"
	TypeApprovalCreated       Type = "approval_created"
	TypeApprovalApproved      Type = "approval_approved"
	TypeApprovalRejected      Type = "approval_rejected"
	TypeTaskCreated           Type = "task_created"
	TypeTaskUpdated           Type = "task_updated"
)

// Known reports whether t is one of the types this package can decode.
func (t Type) Known() bool {
	switch t {
	case TypeConversationCreated, TypeMessageCreated, TypeConversationUpdated,
		TypeConversationEscalated, TypeApprovalCreated, TypeApprovalApproved,
		TypeApprovalRejected, TypeTaskCreated, TypeTaskUpdated:
		return true
	}
	return false
}

// Event is a tenant-scoped notification of a domain state change as it
// travels over the stream and is stored in the activity log.
type Event struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenantId"`
	Type        Type            `json:"type"`
	Source      string          `json:"source,omitempty"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Input describes an event to publish. Payload is marshaled into Event.Data.
type Input struct {
	Type        Type
	Source      string
	Title       string
	Description string
	Payload     any
}
