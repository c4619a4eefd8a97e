package conversation

import "time"

// Channel is the inbound medium a conversation arrived on.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelChat     Channel = "chat"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// Status represents the inbox state of a conversation
type Status string

const (
	StatusOpen      Status = "open"
	StatusPending   Status = "pending"
	StatusEscalated Status = "escalated"
	StatusClosed    Status = "closed"
)

// Priority orders conversations in the inbox
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Conversation is a thread in the shared inbox
type Conversation struct {
	ID                 string     `json:"id"`
	TenantID           string     `json:"tenantId"`
	Channel            Channel    `json:"channel"`
	Subject            string     `json:"subject"`
	Status             Status     `json:"status"`
	AssigneeID         *string    `json:"assigneeId,omitempty"`
	Priority           Priority   `json:"priority"`
	UnreadCount        int        `json:"unreadCount"`
	LastMessageAt      *time.Time `json:"lastMessageAt,omitempty"`
	LastMessagePreview string     `json:"lastMessagePreview,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// Message is a single entry in a conversation
type Message struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenantId"`
	ConversationID string    `json:"conversationId"`
	Author         string    `json:"author"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ListOptions provides filtering options for listing conversations
type ListOptions struct {
	Status *Status
	Limit  int
	Offset int
}
