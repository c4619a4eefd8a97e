// Package messaging relays activity events between server instances over
// NATS so every instance's stream hub sees every tenant's events.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/nats-io/nats.go"
)

// SubjectActivity is the subject prefix; events go to activity.<tenant>.
const SubjectActivity = "activity"

// Config holds NATS connection settings.
type Config struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
}

// DefaultConfig returns the connection defaults.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Name:          "huddle",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	}
}

// Bridge publishes events to NATS and feeds every event received from NATS,
// including its own, into the local broadcaster.
type Bridge struct {
	conn   *nats.Conn
	sub    *nats.Subscription
	local  activity.Broadcaster
	logger *slog.Logger
}

// Subject returns the subject activity for tenantID is published on.
func Subject(tenantID string) string {
	return SubjectActivity + "." + subjectToken(tenantID)
}

func subjectToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}

// NewBridge connects to NATS and subscribes to all tenant subjects.
func NewBridge(config Config, local activity.Broadcaster, logger *slog.Logger) (*Bridge, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "nats")

	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("connection closed")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	b := &Bridge{conn: nc, local: local, logger: logger}
	sub, err := nc.Subscribe(SubjectActivity+".>", b.handle)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("nats subscribe %s.>: %w", SubjectActivity, err)
	}
	b.sub = sub

	logger.Info("connected", "url", nc.ConnectedUrl())
	return b, nil
}

// Broadcast publishes event to its tenant subject. Local subscribers receive
// it when it comes back from the server.
func (b *Bridge) Broadcast(_ context.Context, event activity.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding activity event: %w", err)
	}
	if err := b.conn.Publish(Subject(event.TenantID), data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

func (b *Bridge) handle(msg *nats.Msg) {
	var event activity.Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		b.logger.Warn("dropping malformed activity message", "subject", msg.Subject, "error", err)
		return
	}
	if event.TenantID == "" {
		b.logger.Warn("dropping activity message without tenant", "subject", msg.Subject)
		return
	}
	if err := b.local.Broadcast(context.Background(), event); err != nil {
		b.logger.Warn("local broadcast failed", "tenant_id", event.TenantID, "error", err)
	}
}

// Close drains the subscription and the connection.
func (b *Bridge) Close() {
	if err := b.sub.Drain(); err != nil {
		b.logger.Warn("subscription drain", "error", err)
	}
	if err := b.conn.Drain(); err != nil {
		b.logger.Warn("connection drain", "error", err)
	}
}
