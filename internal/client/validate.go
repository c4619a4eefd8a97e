package client

import (
	"fmt"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/domain/approval"
	"github.com/ganot/huddle/internal/domain/conversation"
	"github.com/ganot/huddle/internal/domain/task"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidResponse, fmt.Sprintf(format, args...))
}

func validateEvent(e activity.Event) error {
	if e.ID == "" || e.Type == "" {
		return invalid("activity event missing id or type")
	}
	return nil
}

func validateConversation(c conversation.Conversation) error {
	if c.ID == "" {
		return invalid("conversation missing id")
	}
	switch c.Status {
	case conversation.StatusOpen, conversation.StatusPending, conversation.StatusEscalated, conversation.StatusClosed:
	default:
		return invalid("conversation %s has status %q", c.ID, c.Status)
	}
	if c.UnreadCount < 0 {
		return invalid("conversation %s has negative unread count", c.ID)
	}
	return nil
}

func validateApproval(a approval.Approval) error {
	if a.ID == "" {
		return invalid("approval missing id")
	}
	switch a.Status {
	case approval.StatusPending:
	case approval.StatusApproved, approval.StatusRejected:
		if a.DecidedBy == nil || *a.DecidedBy == "" {
			return invalid("approval %s decided without decider", a.ID)
		}
	default:
		return invalid("approval %s has status %q", a.ID, a.Status)
	}
	return nil
}

func validateTask(t task.Task) error {
	if t.ID == "" {
		return invalid("task missing id")
	}
	switch t.Status {
	case task.StatusTodo, task.StatusInProgress, task.StatusDone:
	default:
		return invalid("task %s has status %q", t.ID, t.Status)
	}
	return nil
}
