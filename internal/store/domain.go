package store

import (
	"context"
	"fmt"

	"github.com/ganot/huddle/internal/domain/approval"
	"github.com/ganot/huddle/internal/domain/conversation"
	"github.com/ganot/huddle/internal/domain/task"
)

// ConversationSource loads the current conversations.
type ConversationSource interface {
	ListConversations(ctx context.Context) ([]conversation.Conversation, error)
}

// ApprovalSource loads the current approvals. An empty status lists all.
type ApprovalSource interface {
	ListApprovals(ctx context.Context, status approval.Status) ([]approval.Approval, error)
}

// TaskSource loads the current tasks.
type TaskSource interface {
	ListTasks(ctx context.Context) ([]task.Task, error)
}

// Conversations caches the inbox.
type Conversations struct {
	*Collection[conversation.Conversation]
	w   *Writer[conversation.Conversation]
	src ConversationSource
}

// NewConversations returns the store and its writer. src may be nil when
// the store is only fed by events.
func NewConversations(src ConversationSource) (*Conversations, *Writer[conversation.Conversation]) {
	c, w := New(func(c conversation.Conversation) string { return c.ID })
	return &Conversations{Collection: c, w: w, src: src}, w
}

// Fetch replaces the contents with the source's current list.
func (s *Conversations) Fetch(ctx context.Context) error {
	if s.src == nil {
		return nil
	}
	items, err := s.src.ListConversations(ctx)
	if err != nil {
		return fmt.Errorf("fetching conversations: %w", err)
	}
	s.w.Replace(items)
	return nil
}

// Approvals caches approval requests.
type Approvals struct {
	*Collection[approval.Approval]
	w   *Writer[approval.Approval]
	src ApprovalSource
}

// NewApprovals returns the store and its writer.
func NewApprovals(src ApprovalSource) (*Approvals, *Writer[approval.Approval]) {
	c, w := New(func(a approval.Approval) string { return a.ID })
	return &Approvals{Collection: c, w: w, src: src}, w
}

// Fetch replaces the contents with all approvals from the source.
func (s *Approvals) Fetch(ctx context.Context) error {
	if s.src == nil {
		return nil
	}
	items, err := s.src.ListApprovals(ctx, "")
	if err != nil {
		return fmt.Errorf("fetching approvals: %w", err)
	}
	s.w.Replace(items)
	return nil
}

// Pending lists approvals still awaiting a decision.
func (s *Approvals) Pending() []approval.Approval {
	var out []approval.Approval
	for _, a := range s.List() {
		if a.Status == approval.StatusPending {
			out = append(out, a)
		}
	}
	return out
}

// Tasks caches the task list.
type Tasks struct {
	*Collection[task.Task]
	w   *Writer[task.Task]
	src TaskSource
}

// NewTasks returns the store and its writer.
func NewTasks(src TaskSource) (*Tasks, *Writer[task.Task]) {
	c, w := New(func(t task.Task) string { return t.ID })
	return &Tasks{Collection: c, w: w, src: src}, w
}

// Fetch replaces the contents with the source's current list.
func (s *Tasks) Fetch(ctx context.Context) error {
	if s.src == nil {
		return nil
	}
	items, err := s.src.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("fetching tasks: %w", err)
	}
	s.w.Replace(items)
	return nil
}
