// Package testserver runs the full HTTP stack against an in-memory database
// for end-to-end tests.
package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/domain/approval"
	"github.com/ganot/huddle/internal/domain/conversation"
	"github.com/ganot/huddle/internal/domain/task"
	"github.com/ganot/huddle/internal/mcp"
	"github.com/ganot/huddle/internal/presence"
	"github.com/ganot/huddle/internal/sqlite"
	"github.com/ganot/huddle/internal/stream"
	"github.com/ganot/huddle/internal/transport"
	"github.com/stretchr/testify/require"
)

// TestServer is a running server with auth enabled.
type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Hub      *stream.Hub
	Presence *presence.Local
	Token    string
	TenantID string

	Activity      *activity.Service
	Conversations *conversation.Service
	Approvals     *approval.Service
	Tasks         *task.Service

	apiKeys *sqlite.APIKeyRepository
}

// Options tunes the server. The zero value is usable.
type Options struct {
	Heartbeat time.Duration
}

// New starts a server where token authenticates as tenantID.
func New(t *testing.T, token, tenantID string, opts ...Options) *TestServer {
	t.Helper()

	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Heartbeat <= 0 {
		o.Heartbeat = time.Second
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	hub := stream.NewHub(16, nil)
	tracker := presence.NewLocal(0)

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), hub, nil)
	conversationSvc := conversation.NewService(sqlite.NewConversationRepository(db), activitySvc, nil)
	approvalSvc := approval.NewService(sqlite.NewApprovalRepository(db), activitySvc, nil)
	taskSvc := task.NewService(sqlite.NewTaskRepository(db), activitySvc, nil)
	apiKeys := sqlite.NewAPIKeyRepository(db)

	router := transport.NewServer(transport.Config{
		Services: transport.Services{
			Activity:      activitySvc,
			Conversations: conversationSvc,
			Approvals:     approvalSvc,
			Tasks:         taskSvc,
			Presence:      tracker,
		},
		Stream: stream.NewHandler(hub, tracker, stream.Options{Heartbeat: o.Heartbeat}),
		Auth:   transport.AuthMiddleware(apiKeys),
		MCP: mcp.NewHTTPHandler(mcp.Services{
			Activity:      activitySvc,
			Conversations: conversationSvc,
			Approvals:     approvalSvc,
			Tasks:         taskSvc,
			Presence:      tracker,
		}, transport.TenantFromContext, nil),
	})
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:        server,
		DB:            db,
		Hub:           hub,
		Presence:      tracker,
		Token:         token,
		TenantID:      tenantID,
		Activity:      activitySvc,
		Conversations: conversationSvc,
		Approvals:     approvalSvc,
		Tasks:         taskSvc,
		apiKeys:       apiKeys,
	}

	require.NoError(t, ts.AddAPIKey(token, tenantID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddAPIKey lets token authenticate as tenantID.
func (ts *TestServer) AddAPIKey(token, tenantID string) error {
	return ts.apiKeys.Create(context.Background(), tenantID, token, "test")
}

// URL returns the server root.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}
