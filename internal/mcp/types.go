package mcp

import (
	"encoding/json"
	"time"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/domain/approval"
	"github.com/ganot/huddle/internal/domain/conversation"
	"github.com/ganot/huddle/internal/domain/task"
)

type GetRecentActivityParams struct {
	Type  string `json:"type,omitempty" jsonschema:"only return events of this type"`
	Since string `json:"since,omitempty" jsonschema:"only return events newer than this event id"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of events, default 50"`
}

type PublishActivityParams struct {
	Type        string         `json:"type" jsonschema:"event type, for example deploy_finished"`
	Source      string         `json:"source,omitempty"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Data        map[string]any `json:"data,omitempty" jsonschema:"event payload"`
}

type ListParams struct {
	Status string `json:"status,omitempty" jsonschema:"filter by status"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

type EscalateConversationParams struct {
	ConversationID string `json:"conversation_id"`
	Reason         string `json:"reason,omitempty"`
}

type DecideApprovalParams struct {
	ApprovalID string `json:"approval_id"`
	DecidedBy  string `json:"decided_by" jsonschema:"who is making the decision"`
	Reason     string `json:"reason,omitempty" jsonschema:"rejection reason"`
}

type ListTasksParams struct {
	Status     string `json:"status,omitempty" jsonschema:"todo, in_progress or done"`
	AssigneeID string `json:"assignee_id,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

type CreateTaskParams struct {
	Title      string `json:"title"`
	AssigneeID string `json:"assignee_id,omitempty"`
	DueAt      string `json:"due_at,omitempty" jsonschema:"RFC3339 due date"`
}

type UpdateTaskParams struct {
	TaskID     string  `json:"task_id"`
	Title      *string `json:"title,omitempty"`
	Status     *string `json:"status,omitempty" jsonschema:"todo, in_progress or done"`
	AssigneeID *string `json:"assignee_id,omitempty" jsonschema:"empty string clears the assignee"`
	DueAt      *string `json:"due_at,omitempty" jsonschema:"RFC3339 due date"`
}

type EmptyParams struct{}

// Tool results use plain strings for timestamps and optional fields so that
// their inferred output schemas stay simple.

type EventView struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Source      string `json:"source,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Data        any    `json:"data,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type EventList struct {
	Events []EventView `json:"events"`
}

type ConversationView struct {
	ID                 string `json:"id"`
	Channel            string `json:"channel"`
	Subject            string `json:"subject"`
	Status             string `json:"status"`
	Priority           string `json:"priority"`
	AssigneeID         string `json:"assignee_id,omitempty"`
	UnreadCount        int    `json:"unread_count"`
	LastMessagePreview string `json:"last_message_preview,omitempty"`
	UpdatedAt          string `json:"updated_at"`
}

type ConversationList struct {
	Conversations []ConversationView `json:"conversations"`
}

type ApprovalView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	RequesterID string `json:"requester_id"`
	Status      string `json:"status"`
	DecidedBy   string `json:"decided_by,omitempty"`
	Reason      string `json:"reason,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type ApprovalList struct {
	Approvals []ApprovalView `json:"approvals"`
}

type TaskView struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	AssigneeID string `json:"assignee_id,omitempty"`
	DueAt      string `json:"due_at,omitempty"`
	UpdatedAt  string `json:"updated_at"`
}

type TaskList struct {
	Tasks []TaskView `json:"tasks"`
}

type PresenceView struct {
	Streams int `json:"streams"`
}

func eventView(e activity.Event) EventView {
	v := EventView{
		ID:          e.ID,
		Type:        string(e.Type),
		Source:      e.Source,
		Title:       e.Title,
		Description: e.Description,
		CreatedAt:   formatTime(e.CreatedAt),
	}
	if len(e.Data) > 0 {
		var data any
		if err := json.Unmarshal(e.Data, &data); err == nil {
			v.Data = data
		}
	}
	return v
}

func conversationView(c conversation.Conversation) ConversationView {
	return ConversationView{
		ID:                 c.ID,
		Channel:            string(c.Channel),
		Subject:            c.Subject,
		Status:             string(c.Status),
		Priority:           string(c.Priority),
		AssigneeID:         stringValue(c.AssigneeID),
		UnreadCount:        c.UnreadCount,
		LastMessagePreview: c.LastMessagePreview,
		UpdatedAt:          formatTime(c.UpdatedAt),
	}
}

func approvalView(a approval.Approval) ApprovalView {
	return ApprovalView{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		RequesterID: a.RequesterID,
		Status:      string(a.Status),
		DecidedBy:   stringValue(a.DecidedBy),
		Reason:      a.Reason,
		CreatedAt:   formatTime(a.CreatedAt),
	}
}

func taskView(t task.Task) TaskView {
	v := TaskView{
		ID:         t.ID,
		Title:      t.Title,
		Status:     string(t.Status),
		AssigneeID: stringValue(t.AssigneeID),
		UpdatedAt:  formatTime(t.UpdatedAt),
	}
	if t.DueAt != nil {
		v.DueAt = formatTime(*t.DueAt)
	}
	return v
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
