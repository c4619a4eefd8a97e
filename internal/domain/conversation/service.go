package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/repository"
	"github.com/google/uuid"
)

const (
	sourceInbox      = "inbox"
	previewRuneLimit = 120
	defaultPageLimit = 100
)

// Service handles inbox conversation operations.
type Service struct {
	repo      Repository
	publisher activity.Publisher
	logger    *slog.Logger
}

// NewService creates a new conversation service.
func NewService(repo Repository, publisher activity.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// CreateRequest defines conversation creation inputs.
type CreateRequest struct {
	Channel    Channel
	Subject    string
	AssigneeID *string
	Priority   Priority
}

// UpdateRequest carries the fields to change; nil fields are left untouched.
type UpdateRequest struct {
	Subject     *string
	Status      *Status
	AssigneeID  *string
	Priority    *Priority
	UnreadCount *int
}

// MessageRequest defines a new message in a conversation.
type MessageRequest struct {
	ConversationID string
	Author         string
	Body           string
}

// Create opens a new conversation.
func (s *Service) Create(ctx context.Context, tenantID string, req CreateRequest) (*Conversation, error) {
	if !validChannel(req.Channel) || strings.TrimSpace(req.Subject) == "" {
		return nil, ErrInvalidInput
	}
	priority := req.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	if !validPriority(priority) {
		return nil, ErrInvalidInput
	}

	now := time.Now().UTC()
	conv := &Conversation{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		Channel:    req.Channel,
		Subject:    strings.TrimSpace(req.Subject),
		Status:     StatusOpen,
		AssigneeID: req.AssigneeID,
		Priority:   priority,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, tenantID, conv); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	s.publish(ctx, tenantID, activity.Input{
		Type:        activity.TypeConversationCreated,
		Source:      string(conv.Channel),
		Title:       "New conversation",
		Description: conv.Subject,
		Payload:     activity.ConversationCreated{ConversationID: conv.ID},
	})
	return conv, nil
}

// Get fetches a conversation by ID.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Conversation, error) {
	conv, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	return conv, nil
}

// List returns conversations, most recently updated first.
func (s *Service) List(ctx context.Context, tenantID string, opts ListOptions) ([]Conversation, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultPageLimit
	}
	return s.repo.List(ctx, tenantID, opts)
}

// Update applies field changes and publishes them as conversation_updated.
// A request that changes nothing is a no-op and publishes nothing.
func (s *Service) Update(ctx context.Context, tenantID, id string, req UpdateRequest) (*Conversation, error) {
	conv, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	changes, err := applyUpdate(conv, req)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return conv, nil
	}

	conv.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, tenantID, conv); err != nil {
		return nil, fmt.Errorf("updating conversation: %w", err)
	}

	s.publish(ctx, tenantID, activity.Input{
		Type:        activity.TypeConversationUpdated,
		Source:      sourceInbox,
		Title:       "Conversation updated",
		Description: conv.Subject,
		Payload:     activity.ConversationUpdated{ConversationID: conv.ID, Changes: changes},
	})
	return conv, nil
}

// Escalate marks the conversation escalated.
func (s *Service) Escalate(ctx context.Context, tenantID, id, reason string) (*Conversation, error) {
	conv, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if conv.Status == StatusClosed {
		return nil, ErrClosed
	}

	conv.Status = StatusEscalated
	conv.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, tenantID, conv); err != nil {
		return nil, fmt.Errorf("escalating conversation: %w", err)
	}

	description := conv.Subject
	if reason = strings.TrimSpace(reason); reason != "" {
		description = fmt.Sprintf("%s: %s", conv.Subject, reason)
	}
	s.publish(ctx, tenantID, activity.Input{
		Type:        activity.TypeConversationEscalated,
		Source:      sourceInbox,
		Title:       "Conversation escalated",
		Description: description,
		Payload:     activity.ConversationEscalated{ConversationID: conv.ID, Reason: reason},
	})
	return conv, nil
}

// AddMessage appends a message and bumps the conversation's preview and
// unread counter.
func (s *Service) AddMessage(ctx context.Context, tenantID string, req MessageRequest) (*Message, error) {
	if strings.TrimSpace(req.Author) == "" || strings.TrimSpace(req.Body) == "" {
		return nil, ErrInvalidInput
	}
	conv, err := s.Get(ctx, tenantID, req.ConversationID)
	if err != nil {
		return nil, err
	}
	if conv.Status == StatusClosed {
		return nil, ErrClosed
	}

	now := time.Now().UTC()
	msg := &Message{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		ConversationID: conv.ID,
		Author:         req.Author,
		Body:           req.Body,
		CreatedAt:      now,
	}
	preview := Preview(msg.Body)
	conv.LastMessageAt = &now
	conv.LastMessagePreview = preview
	conv.UnreadCount++
	conv.UpdatedAt = now
	if err := s.repo.AddMessage(ctx, tenantID, msg, conv); err != nil {
		return nil, fmt.Errorf("adding message: %w", err)
	}

	s.publish(ctx, tenantID, activity.Input{
		Type:        activity.TypeMessageCreated,
		Source:      string(conv.Channel),
		Title:       fmt.Sprintf("New message from %s", msg.Author),
		Description: preview,
		Payload: activity.MessageCreated{
			ConversationID: conv.ID,
			MessageID:      msg.ID,
			Preview:        preview,
		},
	})
	return msg, nil
}

// Messages lists a conversation's messages, oldest first.
func (s *Service) Messages(ctx context.Context, tenantID, conversationID string) ([]Message, error) {
	if _, err := s.Get(ctx, tenantID, conversationID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, tenantID, conversationID)
}

// Preview shortens a message body for inbox listings.
func Preview(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(body) <= previewRuneLimit {
		return body
	}
	runes := []rune(body)
	return string(runes[:previewRuneLimit]) + "…"
}

func (s *Service) publish(ctx context.Context, tenantID string, in activity.Input) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, tenantID, in); err != nil {
		s.logger.Warn("publishing conversation activity", "tenant_id", tenantID, "type", in.Type, "error", err)
	}
}

func applyUpdate(conv *Conversation, req UpdateRequest) (map[string]any, error) {
	changes := map[string]any{}
	if req.Subject != nil {
		subject := strings.TrimSpace(*req.Subject)
		if subject == "" {
			return nil, ErrInvalidInput
		}
		if subject != conv.Subject {
			conv.Subject = subject
			changes["subject"] = subject
		}
	}
	if req.Status != nil {
		if !validStatus(*req.Status) {
			return nil, ErrInvalidInput
		}
		if *req.Status != conv.Status {
			conv.Status = *req.Status
			changes["status"] = string(conv.Status)
		}
	}
	if req.Priority != nil {
		if !validPriority(*req.Priority) {
			return nil, ErrInvalidInput
		}
		if *req.Priority != conv.Priority {
			conv.Priority = *req.Priority
			changes["priority"] = string(conv.Priority)
		}
	}
	if req.AssigneeID != nil {
		assignee := strings.TrimSpace(*req.AssigneeID)
		current := ""
		if conv.AssigneeID != nil {
			current = *conv.AssigneeID
		}
		if assignee != current {
			if assignee == "" {
				conv.AssigneeID = nil
				changes["assigneeId"] = nil
			} else {
				conv.AssigneeID = &assignee
				changes["assigneeId"] = assignee
			}
		}
	}
	if req.UnreadCount != nil {
		if *req.UnreadCount < 0 {
			return nil, ErrInvalidInput
		}
		if *req.UnreadCount != conv.UnreadCount {
			conv.UnreadCount = *req.UnreadCount
			changes["unreadCount"] = conv.UnreadCount
		}
	}
	return changes, nil
}

func validChannel(c Channel) bool {
	switch c {
	case ChannelEmail, ChannelChat, ChannelSMS, ChannelWhatsApp:
		return true
	}
	return false
}

func validStatus(st Status) bool {
	switch st {
	case StatusOpen, StatusPending, StatusEscalated, StatusClosed:
		return true
	}
	return false
}

func validPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
