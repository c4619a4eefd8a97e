package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/domain/approval"
	"github.com/ganot/huddle/internal/domain/conversation"
	"github.com/ganot/huddle/internal/domain/task"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	Publish(ctx context.Context, tenantID string, in activity.Input) (*activity.Event, error)
	Recent(ctx context.Context, tenantID string, opts activity.ListOptions) ([]activity.Event, error)
}

// ConversationService defines inbox operations needed by MCP.
type ConversationService interface {
	List(ctx context.Context, tenantID string, opts conversation.ListOptions) ([]conversation.Conversation, error)
	Escalate(ctx context.Context, tenantID, id, reason string) (*conversation.Conversation, error)
}

// ApprovalService defines approval operations needed by MCP.
type ApprovalService interface {
	List(ctx context.Context, tenantID string, opts approval.ListOptions) ([]approval.Approval, error)
	Approve(ctx context.Context, tenantID, id, decidedBy string) (*approval.Approval, error)
	Reject(ctx context.Context, tenantID, id, decidedBy, reason string) (*approval.Approval, error)
}

// TaskService defines task operations needed by MCP.
type TaskService interface {
	Create(ctx context.Context, tenantID string, req task.CreateRequest) (*task.Task, error)
	List(ctx context.Context, tenantID string, opts task.ListOptions) ([]task.Task, error)
	Update(ctx context.Context, tenantID, id string, req task.UpdateRequest) (*task.Task, error)
}

// PresenceCounter reports open activity streams for a tenant.
type PresenceCounter interface {
	Count(ctx context.Context, tenantID string) (int, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Activity      ActivityService
	Conversations ConversationService
	Approvals     ApprovalService
	Tasks         TaskService
	Presence      PresenceCounter
}

// Config contains server configuration.
type Config struct {
	Services Services
	TenantID string
	Logger   *slog.Logger
}

// NewServer creates an MCP server bound to one tenant, with all tools and
// doc resources registered.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "huddle",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(tenantMiddleware(cfg.TenantID))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}

// NewHTTPHandler serves MCP over streamable HTTP. Each request gets a server
// bound to the tenant that tenantFrom extracts from it; requests without a
// tenant are rejected.
func NewHTTPHandler(services Services, tenantFrom func(context.Context) (string, bool), logger *slog.Logger) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(func(r *http.Request) *sdkmcp.Server {
		tenantID, ok := tenantFrom(r.Context())
		if !ok {
			return nil
		}
		return NewServer(Config{Services: services, TenantID: tenantID, Logger: logger})
	}, &sdkmcp.StreamableHTTPOptions{
		Stateless: true,
	})
}
