package transport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/domain/approval"
	"github.com/ganot/huddle/internal/domain/conversation"
	"github.com/ganot/huddle/internal/domain/task"
	"github.com/ganot/huddle/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ActivityService defines activity operations needed by the API.
type ActivityService interface {
	Publish(ctx context.Context, tenantID string, in activity.Input) (*activity.Event, error)
	Recent(ctx context.Context, tenantID string, opts activity.ListOptions) ([]activity.Event, error)
}

// ConversationService defines inbox operations needed by the API.
type ConversationService interface {
	Create(ctx context.Context, tenantID string, req conversation.CreateRequest) (*conversation.Conversation, error)
	Get(ctx context.Context, tenantID, id string) (*conversation.Conversation, error)
	List(ctx context.Context, tenantID string, opts conversation.ListOptions) ([]conversation.Conversation, error)
	Update(ctx context.Context, tenantID, id string, req conversation.UpdateRequest) (*conversation.Conversation, error)
	Escalate(ctx context.Context, tenantID, id, reason string) (*conversation.Conversation, error)
	AddMessage(ctx context.Context, tenantID string, req conversation.MessageRequest) (*conversation.Message, error)
	Messages(ctx context.Context, tenantID, conversationID string) ([]conversation.Message, error)
}

// ApprovalService defines approval operations needed by the API.
type ApprovalService interface {
	Create(ctx context.Context, tenantID string, req approval.CreateRequest) (*approval.Approval, error)
	Get(ctx context.Context, tenantID, id string) (*approval.Approval, error)
	List(ctx context.Context, tenantID string, opts approval.ListOptions) ([]approval.Approval, error)
	Approve(ctx context.Context, tenantID, id, decidedBy string) (*approval.Approval, error)
	Reject(ctx context.Context, tenantID, id, decidedBy, reason string) (*approval.Approval, error)
}

// TaskService defines task operations needed by the API.
type TaskService interface {
	Create(ctx context.Context, tenantID string, req task.CreateRequest) (*task.Task, error)
	Get(ctx context.Context, tenantID, id string) (*task.Task, error)
	List(ctx context.Context, tenantID string, opts task.ListOptions) ([]task.Task, error)
	Update(ctx context.Context, tenantID, id string, req task.UpdateRequest) (*task.Task, error)
}

// PresenceCounter reports open activity streams for a tenant.
type PresenceCounter interface {
	Count(ctx context.Context, tenantID string) (int, error)
}

// StreamHandler serves the live activity stream.
type StreamHandler interface {
	ServeSSE(w http.ResponseWriter, r *http.Request)
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// Services contains the domain services exposed over HTTP.
type Services struct {
	Activity      ActivityService
	Conversations ConversationService
	Approvals     ApprovalService
	Tasks         TaskService
	Presence      PresenceCounter
}

// Config wires the HTTP router.
type Config struct {
	Services Services
	Stream   StreamHandler
	// Auth resolves the tenant for API and MCP requests.
	Auth func(http.Handler) http.Handler
	// MCP and Metrics are mounted when non-nil.
	MCP     http.Handler
	Metrics http.Handler
	Logger  *slog.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	svc    Services
	logger *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{svc: cfg.Services, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	// The stream endpoints carry the tenant in the query string and take no
	// auth header.
	if cfg.Stream != nil {
		r.Get("/activity", cfg.Stream.ServeSSE)
		r.Get("/activity/ws", cfg.Stream.ServeWS)
	}

	r.Group(func(r chi.Router) {
		if cfg.Auth != nil {
			r.Use(cfg.Auth)
		}
		r.Use(requireTenant)

		if cfg.MCP != nil {
			r.Handle("/mcp", cfg.MCP)
			r.Handle("/mcp/*", cfg.MCP)
		}

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(countRequests)

			r.Get("/activity", srv.listActivity)
			r.Post("/activity", srv.publishActivity)

			r.Get("/conversations", srv.listConversations)
			r.Post("/conversations", srv.createConversation)
			r.Get("/conversations/{id}", srv.getConversation)
			r.Patch("/conversations/{id}", srv.updateConversation)
			r.Post("/conversations/{id}/escalate", srv.escalateConversation)
			r.Get("/conversations/{id}/messages", srv.listMessages)
			r.Post("/conversations/{id}/messages", srv.addMessage)

			r.Get("/approvals", srv.listApprovals)
			r.Post("/approvals", srv.createApproval)
			r.Get("/approvals/{id}", srv.getApproval)
			r.Post("/approvals/{id}/approve", srv.approveApproval)
			r.Post("/approvals/{id}/reject", srv.rejectApproval)

			r.Get("/tasks", srv.listTasks)
			r.Post("/tasks", srv.createTask)
			r.Get("/tasks/{id}", srv.getTask)
			r.Patch("/tasks/{id}", srv.updateTask)

			r.Get("/presence", srv.getPresence)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) getPresence(w http.ResponseWriter, r *http.Request) {
	tenantID := tenant(r)
	if s.svc.Presence == nil {
		writeJSON(w, http.StatusOK, map[string]any{"tenantId": tenantID, "streams": 0})
		return
	}
	n, err := s.svc.Presence.Count(r.Context(), tenantID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenantId": tenantID, "streams": n})
}

// fail writes the mapped error and logs anything the client did not cause.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := MapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, apiErr)
}

func requireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := TenantFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, &APIError{Code: "UNAUTHORIZED", Message: "missing tenant"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
	})
}

func tenant(r *http.Request) string {
	tenantID, _ := TenantFromContext(r.Context())
	return tenantID
}
