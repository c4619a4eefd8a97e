package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/ganot/huddle/internal/eventsource"
	"github.com/ganot/huddle/internal/metrics"
	"github.com/ganot/huddle/internal/presence"
)

// DefaultHeartbeat is the interval between heartbeat frames.
const DefaultHeartbeat = 30 * time.Second

const presenceTimeout = 2 * time.Second

// Options configures a Handler.
type Options struct {
	Heartbeat      time.Duration
	// OriginPatterns lists extra hosts allowed to open a WebSocket stream
	// from a browser. Same-origin requests are always accepted.
	OriginPatterns []string
	Logger         *slog.Logger
}

// Handler serves the tenant activity stream over SSE and WebSocket.
type Handler struct {
	hub       *Hub
	presence  presence.Tracker
	heartbeat time.Duration
	origins   []string
	logger    *slog.Logger
}

// NewHandler creates a stream handler. tracker may be nil.
func NewHandler(hub *Hub, tracker presence.Tracker, opts Options) *Handler {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = DefaultHeartbeat
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handler{
		hub:       hub,
		presence:  tracker,
		heartbeat: opts.Heartbeat,
		origins:   opts.OriginPatterns,
		logger:    opts.Logger,
	}
}

type connectedPayload struct {
	TenantID  string    `json:"tenantId"`
	StreamID  string    `json:"streamId"`
	Timestamp time.Time `json:"timestamp"`
}

type heartbeatPayload struct {
	Timestamp time.Time `json:"timestamp"`
}

// sink writes one named frame to the client.
type sink interface {
	Send(ctx context.Context, event string, data []byte) error
}

// ServeSSE handles GET /activity?tenantId=<id>.
func (h *Handler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	tenantID := strings.TrimSpace(r.URL.Query().Get("tenantId"))
	if tenantID == "" {
		http.Error(w, "tenantId is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_ = eventsource.WriteComment(w, "ok")
	flusher.Flush()

	h.serve(r.Context(), tenantID, "sse", &sseSink{w: w, flusher: flusher})
}

// ServeWS handles GET /activity/ws?tenantId=<id>. Frames are sent as JSON
// text messages of the form {"event": <name>, "data": <payload>}.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	tenantID := strings.TrimSpace(r.URL.Query().Get("tenantId"))
	if tenantID == "" {
		http.Error(w, "tenantId is required", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.logger.Debug("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	// Client messages are ignored; CloseRead cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())
	h.serve(ctx, tenantID, "ws", &wsSink{conn: conn})
	_ = conn.Close(websocket.StatusNormalClosure, "done")
}

func (h *Handler) serve(ctx context.Context, tenantID, transport string, out sink) {
	sub := h.hub.Subscribe(ctx, tenantID)
	logger := h.logger.With("tenant_id", tenantID, "stream_id", sub.ID, "transport", transport)

	metrics.StreamsOpen.WithLabelValues(transport).Inc()
	defer metrics.StreamsOpen.WithLabelValues(transport).Dec()

	h.trackPresence(ctx, logger, func(ctx context.Context) error {
		return h.presence.Join(ctx, tenantID, sub.ID)
	})
	defer h.trackPresence(context.Background(), logger, func(ctx context.Context) error {
		return h.presence.Leave(ctx, tenantID, sub.ID)
	})

	logger.Info("activity stream opened")
	defer logger.Info("activity stream closed")

	hello, _ := json.Marshal(connectedPayload{TenantID: tenantID, StreamID: sub.ID, Timestamp: time.Now().UTC()})
	if err := out.Send(ctx, eventsource.EventConnected, hello); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			beat, _ := json.Marshal(heartbeatPayload{Timestamp: now.UTC()})
			if err := out.Send(ctx, eventsource.EventHeartbeat, beat); err != nil {
				logger.Debug("heartbeat write failed", "error", err)
				return
			}
			h.trackPresence(ctx, logger, func(ctx context.Context) error {
				return h.presence.Touch(ctx, tenantID, sub.ID)
			})
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				logger.Error("encoding activity event", "id", ev.ID, "error", err)
				continue
			}
			if err := out.Send(ctx, eventsource.EventActivity, payload); err != nil {
				logger.Debug("activity write failed", "error", err)
				return
			}
		}
	}
}

func (h *Handler) trackPresence(ctx context.Context, logger *slog.Logger, op func(context.Context) error) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, presenceTimeout)
	defer cancel()
	if err := op(ctx); err != nil {
		logger.Warn("presence update failed", "error", err)
	}
}

type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseSink) Send(_ context.Context, event string, data []byte) error {
	if err := eventsource.WriteEvent(s.w, event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

type wsMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) Send(ctx context.Context, event string, data []byte) error {
	msg, err := json.Marshal(wsMessage{Event: event, Data: data})
	if err != nil {
		return err
	}
	return s.conn.Write(ctx, websocket.MessageText, msg)
}
