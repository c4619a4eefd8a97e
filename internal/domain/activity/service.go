package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/huddle/internal/metrics"
	"github.com/oklog/ulid/v2"
)

const defaultListLimit = 50

// Service persists activity events and hands them to live subscribers.
type Service struct {
	repo        Repository
	broadcaster Broadcaster
	logger      *slog.Logger
	now         func() time.Time
}

// NewService creates a new activity service. broadcaster may be nil, in which
// case events are only persisted.
func NewService(repo Repository, broadcaster Broadcaster, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, broadcaster: broadcaster, logger: logger, now: time.Now}
}

// Publish stores an event for the tenant and broadcasts it. Delivery is best
// effort: a broadcast failure is logged and the stored event is still returned.
func (s *Service) Publish(ctx context.Context, tenantID string, in Input) (*Event, error) {
	if strings.TrimSpace(tenantID) == "" || strings.TrimSpace(string(in.Type)) == "" {
		return nil, ErrInvalidInput
	}

	start := time.Now()
	defer func() { metrics.PublishLatency.Observe(time.Since(start).Seconds()) }()

	var data json.RawMessage
	if in.Payload != nil {
		raw, err := json.Marshal(in.Payload)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding payload: %v", ErrInvalidInput, err)
		}
		data = raw
	}

	event := &Event{
		ID:          ulid.Make().String(),
		TenantID:    tenantID,
		Type:        in.Type,
		Source:      in.Source,
		Title:       in.Title,
		Description: in.Description,
		Data:        data,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.repo.Log(ctx, tenantID, event); err != nil {
		return nil, fmt.Errorf("logging activity: %w", err)
	}
	metrics.EventsPublished.WithLabelValues(metricLabel(event.Type)).Inc()

	if s.broadcaster != nil {
		if err := s.broadcaster.Broadcast(ctx, *event); err != nil {
			s.logger.Warn("activity broadcast failed", "tenant_id", tenantID, "type", event.Type, "id", event.ID, "error", err)
		}
	}

	s.logger.Debug("activity published", "tenant_id", tenantID, "type", event.Type, "id", event.ID)
	return event, nil
}

// Recent lists stored events for the tenant, newest first.
func (s *Service) Recent(ctx context.Context, tenantID string, opts ListOptions) ([]Event, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultListLimit
	}
	events, err := s.repo.List(ctx, tenantID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return events, nil
}

// metricLabel keeps the label set bounded for externally published types.
func metricLabel(t Type) string {
	if t.Known() {
		return string(t)
	}
	return "other"
}
