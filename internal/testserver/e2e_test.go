package testserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/ganot/huddle/internal/client"
	"github.com/ganot/huddle/internal/consumer"
	"github.com/ganot/huddle/internal/dispatch"
	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/domain/approval"
	"github.com/ganot/huddle/internal/domain/conversation"
	"github.com/ganot/huddle/internal/store"
	"github.com/ganot/huddle/internal/testserver"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type clientSide struct {
	api           *client.Client
	consumer      *consumer.Consumer
	conversations *store.Conversations
	approvals     *store.Approvals
	tasks         *store.Tasks
	notifications *store.Notifications
}

func newClientSide(t *testing.T, ts *testserver.TestServer, token string) *clientSide {
	t.Helper()

	api := client.New(ts.URL(), token)
	conversations, convWriter := store.NewConversations(api)
	approvals, _ := store.NewApprovals(api)
	tasks, taskWriter := store.NewTasks(api)
	notifications := store.NewNotifications(0)

	d := dispatch.New(dispatch.Config{
		Conversations: convWriter,
		Tasks:         taskWriter,
		Notifier:      notifications,
	})
	c := consumer.New(consumer.Options{
		BaseURL:    ts.URL(),
		OnActivity: func(e activity.Event) { d.Dispatch(e) },
	})
	t.Cleanup(c.Close)

	return &clientSide{
		api:           api,
		consumer:      c,
		conversations: conversations,
		approvals:     approvals,
		tasks:         tasks,
		notifications: notifications,
	}
}

func (cs *clientSide) open(t *testing.T, tenantID string) {
	t.Helper()
	cs.consumer.Open(tenantID)
	require.Eventually(t, func() bool { return cs.consumer.Snapshot().Connected }, 2*time.Second, 5*time.Millisecond)
}

func TestEndToEnd_ConversationUpdatesReachStore(t *testing.T) {
	ts := testserver.New(t, "secret", "acme")
	ctx := context.Background()

	conv, err := ts.Conversations.Create(ctx, "acme", conversation.CreateRequest{
		Channel: conversation.ChannelEmail,
		Subject: "Invoice question",
	})
	require.NoError(t, err)

	cs := newClientSide(t, ts, "secret")
	require.NoError(t, cs.conversations.Fetch(ctx))
	require.Equal(t, 1, cs.conversations.Len())
	cs.open(t, "acme")
	require.Eventually(t, func() bool { return ts.Hub.Count("acme") == 1 }, 2*time.Second, 5*time.Millisecond)

	_, err = ts.Conversations.AddMessage(ctx, "acme", conversation.MessageRequest{
		ConversationID: conv.ID,
		Author:         "customer",
		Body:           "Where is my invoice?",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		c, ok := cs.conversations.Get(conv.ID)
		return ok && c.LastMessagePreview == "Where is my invoice?" && c.LastMessageAt != nil
	}, 2*time.Second, 5*time.Millisecond)

	_, err = ts.Conversations.Escalate(ctx, "acme", conv.ID, "angry customer")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		c, _ := cs.conversations.Get(conv.ID)
		return c.Status == conversation.StatusEscalated
	}, 2*time.Second, 5*time.Millisecond)

	for _, n := range cs.notifications.Recent() {
		require.NotEqual(t, string(activity.TypeConversationEscalated), n.EventType)
	}
}

func TestEndToEnd_ApprovalDecisionNotifies(t *testing.T) {
	ts := testserver.New(t, "secret", "acme")
	ctx := context.Background()

	a, err := ts.Approvals.Create(ctx, "acme", approval.CreateRequest{Title: "Budget Approval", RequesterID: "bob"})
	require.NoError(t, err)

	cs := newClientSide(t, ts, "secret")
	require.NoError(t, cs.approvals.Fetch(ctx))
	require.Len(t, cs.approvals.Pending(), 1)
	cs.open(t, "acme")

	decided, err := cs.api.Approve(ctx, a.ID, "carol")
	require.NoError(t, err)
	require.Equal(t, approval.StatusApproved, decided.Status)

	_, err = cs.api.Approve(ctx, a.ID, "carol")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.Status)

	require.Eventually(t, func() bool {
		for _, n := range cs.notifications.Recent() {
			if n.Level == store.LevelSuccess && n.Description == "Budget Approval" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, cs.approvals.Fetch(ctx))
	require.Empty(t, cs.approvals.Pending())
}

func TestEndToEnd_TenantsAreIsolated(t *testing.T) {
	ts := testserver.New(t, "secret", "acme")
	require.NoError(t, ts.AddAPIKey("other", "globex"))
	ctx := context.Background()

	acme := newClientSide(t, ts, "secret")
	globex := newClientSide(t, ts, "other")
	acme.open(t, "acme")
	globex.open(t, "globex")

	_, err := globex.api.PublishActivity(ctx, client.PublishRequest{
		Type:  "deploy_finished",
		Title: "Deploy finished",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s := globex.consumer.Snapshot()
		return s.Activity != nil && s.Activity.Type == "deploy_finished"
	}, 2*time.Second, 5*time.Millisecond)
	require.Nil(t, acme.consumer.Snapshot().Activity)

	events, err := acme.api.RecentActivity(ctx, "", 0)
	require.NoError(t, err)
	require.Empty(t, events)

	count, err := globex.api.Presence(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestEndToEnd_Heartbeats(t *testing.T) {
	ts := testserver.New(t, "secret", "acme", testserver.Options{Heartbeat: 20 * time.Millisecond})

	cs := newClientSide(t, ts, "secret")
	cs.open(t, "acme")

	require.Eventually(t, func() bool {
		return !cs.consumer.Snapshot().LastHeartbeat.IsZero()
	}, 2*time.Second, 5*time.Millisecond)
}

type bearer struct {
	token string
	next  http.RoundTripper
}

func (b bearer) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.RoundTrip(r)
}

func TestEndToEnd_MCPOverHTTP(t *testing.T) {
	ts := testserver.New(t, "secret", "acme")
	ctx := context.Background()

	a, err := ts.Approvals.Create(ctx, "acme", approval.CreateRequest{Title: "Budget Approval", RequesterID: "bob"})
	require.NoError(t, err)

	mcpClient := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "e2e", Version: "1.0.0"}, nil)
	session, err := mcpClient.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.URL() + "/mcp",
		HTTPClient: &http.Client{Transport: bearer{token: "secret", next: http.DefaultTransport}},
	}, nil)
	require.NoError(t, err)
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "approve",
		Arguments: map[string]any{"approval_id": a.ID, "decided_by": "carol"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	data, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out struct {
		Status    string `json:"status"`
		DecidedBy string `json:"decided_by"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, "approved", out.Status)

	stored, err := ts.Approvals.Get(ctx, "acme", a.ID)
	require.NoError(t, err)
	require.Equal(t, approval.StatusApproved, stored.Status)
}

func TestEndToEnd_MCPRequiresToken(t *testing.T) {
	ts := testserver.New(t, "secret", "acme")

	resp, err := http.Post(ts.URL()+"/mcp", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
