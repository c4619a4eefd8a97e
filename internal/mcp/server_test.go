package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/domain/approval"
	"github.com/ganot/huddle/internal/domain/conversation"
	"github.com/ganot/huddle/internal/domain/task"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type activityStub struct {
	publishFn func(context.Context, string, activity.Input) (*activity.Event, error)
	recentFn  func(context.Context, string, activity.ListOptions) ([]activity.Event, error)
}

func (a activityStub) Publish(ctx context.Context, tenantID string, in activity.Input) (*activity.Event, error) {
	return a.publishFn(ctx, tenantID, in)
}
func (a activityStub) Recent(ctx context.Context, tenantID string, opts activity.ListOptions) ([]activity.Event, error) {
	return a.recentFn(ctx, tenantID, opts)
}

type approvalStub struct {
	listFn    func(context.Context, string, approval.ListOptions) ([]approval.Approval, error)
	approveFn func(context.Context, string, string, string) (*approval.Approval, error)
	rejectFn  func(context.Context, string, string, string, string) (*approval.Approval, error)
}

func (a approvalStub) List(ctx context.Context, tenantID string, opts approval.ListOptions) ([]approval.Approval, error) {
	return a.listFn(ctx, tenantID, opts)
}
func (a approvalStub) Approve(ctx context.Context, tenantID, id, decidedBy string) (*approval.Approval, error) {
	return a.approveFn(ctx, tenantID, id, decidedBy)
}
func (a approvalStub) Reject(ctx context.Context, tenantID, id, decidedBy, reason string) (*approval.Approval, error) {
	return a.rejectFn(ctx, tenantID, id, decidedBy, reason)
}

type taskStub struct {
	createFn func(context.Context, string, task.CreateRequest) (*task.Task, error)
	listFn   func(context.Context, string, task.ListOptions) ([]task.Task, error)
	updateFn func(context.Context, string, string, task.UpdateRequest) (*task.Task, error)
}

func (s taskStub) Create(ctx context.Context, tenantID string, req task.CreateRequest) (*task.Task, error) {
	return s.createFn(ctx, tenantID, req)
}
func (s taskStub) List(ctx context.Context, tenantID string, opts task.ListOptions) ([]task.Task, error) {
	return s.listFn(ctx, tenantID, opts)
}
func (s taskStub) Update(ctx context.Context, tenantID, id string, req task.UpdateRequest) (*task.Task, error) {
	return s.updateFn(ctx, tenantID, id, req)
}

type conversationStub struct {
	listFn     func(context.Context, string, conversation.ListOptions) ([]conversation.Conversation, error)
	escalateFn func(context.Context, string, string, string) (*conversation.Conversation, error)
}

func (c conversationStub) List(ctx context.Context, tenantID string, opts conversation.ListOptions) ([]conversation.Conversation, error) {
	return c.listFn(ctx, tenantID, opts)
}
func (c conversationStub) Escalate(ctx context.Context, tenantID, id, reason string) (*conversation.Conversation, error) {
	return c.escalateFn(ctx, tenantID, id, reason)
}

type presenceStub int

func (p presenceStub) Count(context.Context, string) (int, error) { return int(p), nil }

func connect(t *testing.T, services Services, tenantID string) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := NewServer(Config{Services: services, TenantID: tenantID})
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any, out any) *sdkmcp.CallToolResult {
	t.Helper()
	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	if out != nil && !res.IsError {
		data, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, out))
	}
	return res
}

func TestServer_ListsOnlyConfiguredTools(t *testing.T) {
	session := connect(t, Services{Presence: presenceStub(0)}, "tenant1")

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Tools, 1)
	require.Equal(t, "stream_presence", res.Tools[0].Name)
}

func TestServer_RecentActivityScopedToTenant(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var gotTenant string
	var gotOpts activity.ListOptions

	session := connect(t, Services{Activity: activityStub{
		recentFn: func(_ context.Context, tenantID string, opts activity.ListOptions) ([]activity.Event, error) {
			gotTenant, gotOpts = tenantID, opts
			return []activity.Event{{
				ID:        "01HX",
				TenantID:  tenantID,
				Type:      activity.TypeApprovalApproved,
				Title:     "Budget Approval",
				Data:      json.RawMessage(`{"approvalId":"a1"}`),
				CreatedAt: created,
			}}, nil
		},
	}}, "tenant1")

	var out EventList
	res := callTool(t, session, "get_recent_activity", map[string]any{"type": "approval_approved", "limit": 5}, &out)
	require.False(t, res.IsError)
	require.Equal(t, "tenant1", gotTenant)
	require.Equal(t, 5, gotOpts.Limit)
	require.NotNil(t, gotOpts.Type)
	require.Equal(t, activity.TypeApprovalApproved, *gotOpts.Type)

	require.Len(t, out.Events, 1)
	require.Equal(t, "Budget Approval", out.Events[0].Title)
	require.Equal(t, "2026-03-01T09:00:00Z", out.Events[0].CreatedAt)
	require.Equal(t, map[string]any{"approvalId": "a1"}, out.Events[0].Data)
}

func TestServer_PublishActivity(t *testing.T) {
	var got activity.Input
	session := connect(t, Services{Activity: activityStub{
		publishFn: func(_ context.Context, tenantID string, in activity.Input) (*activity.Event, error) {
			got = in
			return &activity.Event{ID: "e1", TenantID: tenantID, Type: in.Type, Title: in.Title}, nil
		},
	}}, "tenant1")

	var out EventView
	res := callTool(t, session, "publish_activity", map[string]any{
		"type":  "deploy_finished",
		"title": "Deploy finished",
		"data":  map[string]any{"version": "1.2.3"},
	}, &out)
	require.False(t, res.IsError)
	require.Equal(t, activity.Type("deploy_finished"), got.Type)
	require.Equal(t, "mcp", got.Source)
	require.Equal(t, map[string]any{"version": "1.2.3"}, got.Payload)
	require.Equal(t, "e1", out.ID)
}

func TestServer_ApproveAndReject(t *testing.T) {
	decidedBy := "carol"
	session := connect(t, Services{Approvals: approvalStub{
		approveFn: func(_ context.Context, _ string, id, by string) (*approval.Approval, error) {
			return &approval.Approval{ID: id, Title: "Budget Approval", Status: approval.StatusApproved, DecidedBy: &by}, nil
		},
		rejectFn: func(_ context.Context, _ string, id, _, _ string) (*approval.Approval, error) {
			return nil, approval.ErrAlreadyDecided
		},
	}}, "tenant1")

	var out ApprovalView
	res := callTool(t, session, "approve", map[string]any{"approval_id": "a1", "decided_by": decidedBy}, &out)
	require.False(t, res.IsError)
	require.Equal(t, "approved", out.Status)
	require.Equal(t, "carol", out.DecidedBy)

	res = callTool(t, session, "reject", map[string]any{"approval_id": "a1", "decided_by": decidedBy, "reason": "late"}, nil)
	require.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	require.Contains(t, text.Text, "ALREADY_DECIDED")
}

func TestServer_TaskTools(t *testing.T) {
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	var create task.CreateRequest
	var update task.UpdateRequest

	session := connect(t, Services{Tasks: taskStub{
		createFn: func(_ context.Context, _ string, req task.CreateRequest) (*task.Task, error) {
			create = req
			return &task.Task{ID: "t1", Title: req.Title, Status: task.StatusTodo, DueAt: req.DueAt}, nil
		},
		updateFn: func(_ context.Context, _ string, id string, req task.UpdateRequest) (*task.Task, error) {
			update = req
			return &task.Task{ID: id, Title: "Ship", Status: *req.Status}, nil
		},
	}}, "tenant1")

	var created TaskView
	res := callTool(t, session, "create_task", map[string]any{"title": "Ship", "due_at": "2026-04-01T00:00:00Z"}, &created)
	require.False(t, res.IsError)
	require.Equal(t, "2026-04-01T00:00:00Z", created.DueAt)
	require.NotNil(t, create.DueAt)
	require.True(t, due.Equal(*create.DueAt))

	res = callTool(t, session, "create_task", map[string]any{"title": "Ship", "due_at": "tomorrow"}, nil)
	require.True(t, res.IsError)

	var updated TaskView
	res = callTool(t, session, "update_task", map[string]any{"task_id": "t1", "status": "done"}, &updated)
	require.False(t, res.IsError)
	require.Equal(t, "done", updated.Status)
	require.NotNil(t, update.Status)
	require.Nil(t, update.Title)
}

func TestServer_ConversationTools(t *testing.T) {
	var listOpts conversation.ListOptions
	session := connect(t, Services{Conversations: conversationStub{
		listFn: func(_ context.Context, _ string, opts conversation.ListOptions) ([]conversation.Conversation, error) {
			listOpts = opts
			return nil, nil
		},
		escalateFn: func(context.Context, string, string, string) (*conversation.Conversation, error) {
			return nil, conversation.ErrConversationNotFound
		},
	}}, "tenant1")

	var list ConversationList
	res := callTool(t, session, "list_conversations", map[string]any{"status": "open"}, &list)
	require.False(t, res.IsError)
	require.Empty(t, list.Conversations)
	require.NotNil(t, listOpts.Status)
	require.Equal(t, conversation.StatusOpen, *listOpts.Status)

	res = callTool(t, session, "escalate_conversation", map[string]any{"conversation_id": "missing"}, nil)
	require.True(t, res.IsError)
}

func TestServer_DocResource(t *testing.T) {
	session := connect(t, Services{}, "tenant1")

	res, err := session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "huddle://docs/activity-types"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "approval_rejected")
}

func TestHTTPHandler_RejectsMissingTenant(t *testing.T) {
	handler := NewHTTPHandler(Services{}, func(context.Context) (string, bool) { return "", false }, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	handler.ServeHTTP(rec, req)
	require.GreaterOrEqual(t, rec.Code, http.StatusBadRequest)
}
