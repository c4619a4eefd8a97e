package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/repository"
	"github.com/google/uuid"
)

const (
	sourceApprovals  = "approvals"
	defaultPageLimit = 100
)

// Service handles approval requests and their decisions.
type Service struct {
	repo      Repository
	publisher activity.Publisher
	logger    *slog.Logger
}

// NewService creates a new approval service.
func NewService(repo Repository, publisher activity.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// CreateRequest defines approval creation inputs.
type CreateRequest struct {
	Title       string
	Description string
	RequesterID string
}

// Create files a new pending approval.
func (s *Service) Create(ctx context.Context, tenantID string, req CreateRequest) (*Approval, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || strings.TrimSpace(req.RequesterID) == "" {
		return nil, ErrInvalidInput
	}

	a := &Approval{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Title:       title,
		Description: req.Description,
		RequesterID: req.RequesterID,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, tenantID, a); err != nil {
		return nil, fmt.Errorf("creating approval: %w", err)
	}

	s.publish(ctx, tenantID, activity.Input{
		Type:        activity.TypeApprovalCreated,
		Source:      sourceApprovals,
		Title:       "Approval requested",
		Description: a.Title,
		Payload:     activity.ApprovalCreated{ApprovalID: a.ID},
	})
	return a, nil
}

// Get fetches an approval by ID.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Approval, error) {
	a, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrApprovalNotFound
		}
		return nil, fmt.Errorf("getting approval: %w", err)
	}
	return a, nil
}

// List returns approvals, newest first.
func (s *Service) List(ctx context.Context, tenantID string, opts ListOptions) ([]Approval, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultPageLimit
	}
	return s.repo.List(ctx, tenantID, opts)
}

// Approve records an approval decision.
func (s *Service) Approve(ctx context.Context, tenantID, id, decidedBy string) (*Approval, error) {
	a, err := s.decide(ctx, tenantID, id, decidedBy, StatusApproved, "")
	if err != nil {
		return nil, err
	}
	s.publish(ctx, tenantID, activity.Input{
		Type:        activity.TypeApprovalApproved,
		Source:      sourceApprovals,
		Title:       "Approval granted",
		Description: a.Title,
		Payload:     activity.ApprovalApproved{ApprovalID: a.ID},
	})
	return a, nil
}

// Reject records a rejection with an optional reason.
func (s *Service) Reject(ctx context.Context, tenantID, id, decidedBy, reason string) (*Approval, error) {
	a, err := s.decide(ctx, tenantID, id, decidedBy, StatusRejected, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}
	s.publish(ctx, tenantID, activity.Input{
		Type:        activity.TypeApprovalRejected,
		Source:      sourceApprovals,
		Title:       "Approval rejected",
		Description: a.Title,
		Payload:     activity.ApprovalRejected{ApprovalID: a.ID, Reason: a.Reason},
	})
	return a, nil
}

func (s *Service) decide(ctx context.Context, tenantID, id, decidedBy string, status Status, reason string) (*Approval, error) {
	if strings.TrimSpace(decidedBy) == "" {
		return nil, ErrInvalidInput
	}
	a, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusPending {
		return nil, ErrAlreadyDecided
	}

	now := time.Now().UTC()
	a.Status = status
	a.DecidedBy = &decidedBy
	a.DecidedAt = &now
	a.Reason = reason
	if err := s.repo.Decide(ctx, tenantID, a); err != nil {
		// Another decision landed between the read and the write.
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyDecided
		}
		return nil, fmt.Errorf("deciding approval: %w", err)
	}
	return a, nil
}

func (s *Service) publish(ctx context.Context, tenantID string, in activity.Input) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, tenantID, in); err != nil {
		s.logger.Warn("publishing approval activity", "tenant_id", tenantID, "type", in.Type, "error", err)
	}
}
