package activity

import (
	"encoding/json"
	"fmt"
)

// Payload is the decoded, type-specific body of an Event. Each known Type
// maps to exactly one variant; everything else decodes to Unknown.
type Payload interface {
	EventType() Type
}

type ConversationCreated struct {
	ConversationID string `json:"conversationId"`
}

type MessageCreated struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
	Preview        string `json:"preview,omitempty"`
}

type ConversationUpdated struct {
	ConversationID string         `json:"conversationId"`
	Changes        map[string]any `json:"changes"`
}

type ConversationEscalated struct {
	ConversationID string `json:"conversationId"`
	Reason         string `json:"reason,omitempty"`
}

type ApprovalCreated struct {
	ApprovalID string `json:"approvalId"`
}

type ApprovalApproved struct {
	ApprovalID string `json:"approvalId"`
}

type ApprovalRejected struct {
	ApprovalID string `json:"approvalId"`
	Reason     string `json:"reason,omitempty"`
}

type TaskCreated struct {
	TaskID string `json:"taskId"`
}

type TaskUpdated struct {
	TaskID  string         `json:"taskId"`
	Changes map[string]any `json:"changes"`
}

// Unknown carries an event whose type this build does not understand.
type Unknown struct {
	Type Type
}

func (ConversationCreated) EventType() Type   { return TypeConversationCreated }
func (MessageCreated) EventType() Type        { return TypeMessageCreated }
func (ConversationUpdated) EventType() Type   { return TypeConversationUpdated }
func (ConversationEscalated) EventType() Type { return TypeConversationEscalated }
func (ApprovalCreated) EventType() Type       { return TypeApprovalCreated }
func (ApprovalApproved) EventType() Type      { return TypeApprovalApproved }
func (ApprovalRejected) EventType() Type      { return TypeApprovalRejected }
func (TaskCreated) EventType() Type           { return TypeTaskCreated }
func (TaskUpdated) EventType() Type           { return TypeTaskUpdated }
func (u Unknown) EventType() Type             { return u.Type }

// Decode returns the typed payload for e. An empty Data is decoded as an
// empty object so display-only events (no data at all) still yield a variant.
func Decode(e Event) (Payload, error) {
	var p Payload
	switch e.Type {
	case TypeConversationCreated:
		p = &ConversationCreated{}
	case TypeMessageCreated:
		p = &MessageCreated{}
	case TypeConversationUpdated:
		p = &ConversationUpdated{}
	case TypeConversationEscalated:
		p = &ConversationEscalated{}
	case TypeApprovalCreated:
		p = &ApprovalCreated{}
	case TypeApprovalApproved:
		p = &ApprovalApproved{}
	case TypeApprovalRejected:
		p = &ApprovalRejected{}
	case TypeTaskCreated:
		p = &TaskCreated{}
	case TypeTaskUpdated:
		p = &TaskUpdated{}
	default:
		return Unknown{Type: e.Type}, nil
	}

	if len(e.Data) > 0 && string(e.Data) != "null" {
		if err := json.Unmarshal(e.Data, p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", e.Type, err)
		}
	}
	return deref(p), nil
}

func deref(p Payload) Payload {
	switch v := p.(type) {
	case *ConversationCreated:
		return *v
	case *MessageCreated:
		return *v
	case *ConversationUpdated:
		return *v
	case *ConversationEscalated:
		return *v
	case *ApprovalCreated:
		return *v
	case *ApprovalApproved:
		return *v
	case *ApprovalRejected:
		return *v
	case *TaskCreated:
		return *v
	case *TaskUpdated:
		return *v
	}
	return p
}
