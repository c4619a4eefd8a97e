// Package dispatch applies activity events to the client-side stores.
package dispatch

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/domain/conversation"
	"github.com/ganot/huddle/internal/domain/task"
	"github.com/ganot/huddle/internal/store"
)

// Action is what Dispatch did with an event.
type Action string

const (
	ActionPatched  Action = "patched"
	ActionNotified Action = "notified"
	ActionIgnored  Action = "ignored"
)

// Notifier receives transient notifications.
type Notifier interface {
	Notify(n store.Notification) string
}

// Config wires a Dispatcher. Nil writers or notifier turn the corresponding
// actions into no-ops.
type Config struct {
	Conversations *store.Writer[conversation.Conversation]
	Tasks         *store.Writer[task.Task]
	Notifier      Notifier
	Logger        *slog.Logger
}

// Dispatcher maps each event variant to one store mutation or one
// notification.
type Dispatcher struct {
	conversations *store.Writer[conversation.Conversation]
	tasks         *store.Writer[task.Task]
	notifier      Notifier
	logger        *slog.Logger
}

// New creates a Dispatcher.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		conversations: cfg.Conversations,
		tasks:         cfg.Tasks,
		notifier:      cfg.Notifier,
		logger:        logger,
	}
}

// Dispatch applies e. It never panics: a panic inside a store mutation or
// notifier is recovered, logged and reported as ActionIgnored.
func (d *Dispatcher) Dispatch(e activity.Event) (action Action) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("activity dispatch panicked", "type", e.Type, "id", e.ID, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			action = ActionIgnored
		}
	}()

	payload, err := activity.Decode(e)
	if err != nil {
		d.logger.Warn("dropping activity with malformed payload", "type", e.Type, "id", e.ID, "error", err)
		return ActionIgnored
	}

	switch p := payload.(type) {
	case activity.ConversationUpdated:
		return d.patchConversation(e, p.ConversationID, func(c *conversation.Conversation) bool {
			if err := store.Merge(c, p.Changes); err != nil {
				d.logger.Warn("conversation changes not applied", "conversation_id", p.ConversationID, "error", err)
				return false
			}
			return true
		})

	case activity.ConversationEscalated:
		return d.patchConversation(e, p.ConversationID, func(c *conversation.Conversation) bool {
			c.Status = conversation.StatusEscalated
			return true
		})

	case activity.MessageCreated:
		at := e.CreatedAt
		return d.patchConversation(e, p.ConversationID, func(c *conversation.Conversation) bool {
			c.LastMessagePreview = p.Preview
			if !at.IsZero() {
				c.LastMessageAt = &at
			}
			return true
		})

	case activity.TaskUpdated:
		if d.tasks == nil {
			return ActionIgnored
		}
		ok := d.tasks.Patch(p.TaskID, func(t *task.Task) bool {
			if err := store.Merge(t, p.Changes); err != nil {
				d.logger.Warn("task changes not applied", "task_id", p.TaskID, "error", err)
				return false
			}
			return true
		})
		if !ok {
			d.logger.Debug("task update for uncached task", "task_id", p.TaskID, "id", e.ID)
			return ActionIgnored
		}
		return ActionPatched

	case activity.ConversationCreated, activity.ApprovalCreated, activity.TaskCreated:
		return d.notify(e, store.LevelInfo)
	case activity.ApprovalApproved:
		return d.notify(e, store.LevelSuccess)
	case activity.ApprovalRejected:
		return d.notify(e, store.LevelWarning)

	default:
		d.logger.Info("ignoring activity of unknown type", "type", e.Type, "id", e.ID)
		return ActionIgnored
	}
}

func (d *Dispatcher) patchConversation(e activity.Event, id string, fn func(*conversation.Conversation) bool) Action {
	if d.conversations == nil {
		return ActionIgnored
	}
	if !d.conversations.Patch(id, fn) {
		d.logger.Debug("activity for uncached conversation", "type", e.Type, "conversation_id", id, "id", e.ID)
		return ActionIgnored
	}
	return ActionPatched
}

func (d *Dispatcher) notify(e activity.Event, level store.Level) Action {
	if d.notifier == nil {
		return ActionIgnored
	}
	d.notifier.Notify(store.Notification{
		Level:       level,
		Title:       e.Title,
		Description: e.Description,
		EventType:   string(e.Type),
		CreatedAt:   e.CreatedAt,
	})
	return ActionNotified
}
