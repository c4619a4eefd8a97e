package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/domain/approval"
	"github.com/ganot/huddle/internal/domain/conversation"
	"github.com/ganot/huddle/internal/domain/task"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *sdkmcp.Server, svc Services) {
	t := &tools{svc: svc}

	if svc.Activity != nil {
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        "get_recent_activity",
			Description: "List the team's recent activity events, newest first",
		}, t.getRecentActivity)
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        "publish_activity",
			Description: "Publish an activity event to everyone watching the team's stream",
		}, t.publishActivity)
	}
	if svc.Conversations != nil {
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        "list_conversations",
			Description: "List inbox conversations, most recently updated first",
		}, t.listConversations)
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        "escalate_conversation",
			Description: "Escalate an inbox conversation with an optional reason",
		}, t.escalateConversation)
	}
	if svc.Approvals != nil {
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        "list_approvals",
			Description: "List approval requests, optionally filtered by status (pending, approved, rejected)",
		}, t.listApprovals)
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        "approve",
			Description: "Approve a pending approval request",
		}, t.approve)
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        "reject",
			Description: "Reject a pending approval request",
		}, t.reject)
	}
	if svc.Tasks != nil {
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        "list_tasks",
			Description: "List tasks, optionally filtered by status or assignee",
		}, t.listTasks)
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        "create_task",
			Description: "Create a task in the todo state",
		}, t.createTask)
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        "update_task",
			Description: "Change a task's title, status, assignee or due date",
		}, t.updateTask)
	}
	if svc.Presence != nil {
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        "stream_presence",
			Description: "Count teammates currently watching the activity stream",
		}, t.streamPresence)
	}
}

type tools struct {
	svc Services
}

func (t *tools) getRecentActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetRecentActivityParams) (*sdkmcp.CallToolResult, EventList, error) {
	opts := activity.ListOptions{Since: in.Since, Limit: in.Limit}
	if in.Type != "" {
		typ := activity.Type(in.Type)
		opts.Type = &typ
	}
	events, err := t.svc.Activity.Recent(ctx, getTenantID(ctx), opts)
	if err != nil {
		return nil, EventList{}, mapError(err)
	}
	out := EventList{Events: make([]EventView, 0, len(events))}
	for _, e := range events {
		out.Events = append(out.Events, eventView(e))
	}
	return nil, out, nil
}

func (t *tools) publishActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, in PublishActivityParams) (*sdkmcp.CallToolResult, EventView, error) {
	input := activity.Input{
		Type:        activity.Type(in.Type),
		Source:      in.Source,
		Title:       in.Title,
		Description: in.Description,
	}
	if in.Source == "" {
		input.Source = "mcp"
	}
	if len(in.Data) > 0 {
		input.Payload = in.Data
	}
	event, err := t.svc.Activity.Publish(ctx, getTenantID(ctx), input)
	if err != nil {
		return nil, EventView{}, mapError(err)
	}
	return nil, eventView(*event), nil
}

func (t *tools) listConversations(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListParams) (*sdkmcp.CallToolResult, ConversationList, error) {
	opts := conversation.ListOptions{Limit: in.Limit, Offset: in.Offset}
	if in.Status != "" {
		st := conversation.Status(in.Status)
		opts.Status = &st
	}
	items, err := t.svc.Conversations.List(ctx, getTenantID(ctx), opts)
	if err != nil {
		return nil, ConversationList{}, mapError(err)
	}
	out := ConversationList{Conversations: make([]ConversationView, 0, len(items))}
	for _, c := range items {
		out.Conversations = append(out.Conversations, conversationView(c))
	}
	return nil, out, nil
}

func (t *tools) escalateConversation(ctx context.Context, _ *sdkmcp.CallToolRequest, in EscalateConversationParams) (*sdkmcp.CallToolResult, ConversationView, error) {
	conv, err := t.svc.Conversations.Escalate(ctx, getTenantID(ctx), in.ConversationID, in.Reason)
	if err != nil {
		return nil, ConversationView{}, mapError(err)
	}
	return nil, conversationView(*conv), nil
}

func (t *tools) listApprovals(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListParams) (*sdkmcp.CallToolResult, ApprovalList, error) {
	opts := approval.ListOptions{Limit: in.Limit, Offset: in.Offset}
	if in.Status != "" {
		st := approval.Status(in.Status)
		opts.Status = &st
	}
	items, err := t.svc.Approvals.List(ctx, getTenantID(ctx), opts)
	if err != nil {
		return nil, ApprovalList{}, mapError(err)
	}
	out := ApprovalList{Approvals: make([]ApprovalView, 0, len(items))}
	for _, a := range items {
		out.Approvals = append(out.Approvals, approvalView(a))
	}
	return nil, out, nil
}

func (t *tools) approve(ctx context.Context, _ *sdkmcp.CallToolRequest, in DecideApprovalParams) (*sdkmcp.CallToolResult, ApprovalView, error) {
	a, err := t.svc.Approvals.Approve(ctx, getTenantID(ctx), in.ApprovalID, in.DecidedBy)
	if err != nil {
		return nil, ApprovalView{}, mapError(err)
	}
	return nil, approvalView(*a), nil
}

func (t *tools) reject(ctx context.Context, _ *sdkmcp.CallToolRequest, in DecideApprovalParams) (*sdkmcp.CallToolResult, ApprovalView, error) {
	a, err := t.svc.Approvals.Reject(ctx, getTenantID(ctx), in.ApprovalID, in.DecidedBy, in.Reason)
	if err != nil {
		return nil, ApprovalView{}, mapError(err)
	}
	return nil, approvalView(*a), nil
}

func (t *tools) listTasks(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListTasksParams) (*sdkmcp.CallToolResult, TaskList, error) {
	opts := task.ListOptions{Limit: in.Limit, Offset: in.Offset}
	if in.Status != "" {
		st := task.Status(in.Status)
		opts.Status = &st
	}
	if in.AssigneeID != "" {
		opts.AssigneeID = &in.AssigneeID
	}
	items, err := t.svc.Tasks.List(ctx, getTenantID(ctx), opts)
	if err != nil {
		return nil, TaskList{}, mapError(err)
	}
	out := TaskList{Tasks: make([]TaskView, 0, len(items))}
	for _, item := range items {
		out.Tasks = append(out.Tasks, taskView(item))
	}
	return nil, out, nil
}

func (t *tools) createTask(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateTaskParams) (*sdkmcp.CallToolResult, TaskView, error) {
	req := task.CreateRequest{Title: in.Title}
	if in.AssigneeID != "" {
		req.AssigneeID = &in.AssigneeID
	}
	if in.DueAt != "" {
		due, err := parseTime(in.DueAt)
		if err != nil {
			return nil, TaskView{}, err
		}
		req.DueAt = &due
	}
	created, err := t.svc.Tasks.Create(ctx, getTenantID(ctx), req)
	if err != nil {
		return nil, TaskView{}, mapError(err)
	}
	return nil, taskView(*created), nil
}

func (t *tools) updateTask(ctx context.Context, _ *sdkmcp.CallToolRequest, in UpdateTaskParams) (*sdkmcp.CallToolResult, TaskView, error) {
	req := task.UpdateRequest{Title: in.Title, AssigneeID: in.AssigneeID}
	if in.Status != nil {
		st := task.Status(*in.Status)
		req.Status = &st
	}
	if in.DueAt != nil {
		due, err := parseTime(*in.DueAt)
		if err != nil {
			return nil, TaskView{}, err
		}
		req.DueAt = &due
	}
	updated, err := t.svc.Tasks.Update(ctx, getTenantID(ctx), in.TaskID, req)
	if err != nil {
		return nil, TaskView{}, mapError(err)
	}
	return nil, taskView(*updated), nil
}

func (t *tools) streamPresence(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, PresenceView, error) {
	n, err := t.svc.Presence.Count(ctx, getTenantID(ctx))
	if err != nil {
		return nil, PresenceView{}, err
	}
	return nil, PresenceView{Streams: n}, nil
}

func parseTime(v string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, &ToolError{Code: "INVALID_INPUT", Message: fmt.Sprintf("invalid timestamp %q", v), RecoveryHint: "Use RFC3339, for example 2026-01-02T15:04:05Z"}
	}
	return ts, nil
}
