package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	portsrepo "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/repositories"
	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
)

var approvalTracer = otel.Tracer("Approval workflow")

// approvalService implements the ApprovalSvcFacade interface
type approvalService struct {
	BaseService
	approvalRepo portsrepo.ApprovalRepositoryFacade
}

// NewApprovalService creates an approval service.
func NewApprovalService(repo portsrepo.ApprovalRepositoryFacade, opts ...Option) portssvc.ApprovalSvcFacade {
	svc := &approvalService{BaseService: newBaseService(), approvalRepo: repo}
	svc.apply(opts)
	return svc
}

var _ portssvc.ApprovalSvcFacade = (*approvalService)(nil)

func (s *approvalService) GetApprovalByID(ctx context.Context, companyID, approvalID string) (*domain.Approval, error) {
	a, err := s.approvalRepo.FindApprovalByID(ctx, approvalID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find approval", slog.String("approval_id", approvalID))
		}
		return nil, err
	}
	if a.CompanyID != companyID {
		return nil, apperrors.NewNotFoundError("approval", approvalID)
	}
	return a, nil
}

func (s *approvalService) ListPending(ctx context.Context, companyID string, params dto.ListApprovalsParams) ([]*domain.Approval, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	approvals, err := s.approvalRepo.FindPendingByCompany(ctx, companyID, limit)
	if err != nil {
		s.LogError(ctx, err, "Failed to list pending approvals", slog.String("company_id", companyID))
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	return approvals, nil
}

func (s *approvalService) RequestApproval(ctx context.Context, req domain.ApprovalRequest) (*domain.Approval, error) {
	ctx, span := approvalTracer.Start(ctx, "Requesting approval")
	defer span.End()

	if req.ApprovalID == "" {
		req.ApprovalID = s.NewID()
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = s.Now()
	}
	a, err := domain.RequestApproval(req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.approvalRepo.SaveApproval(ctx, a); err != nil {
		span.RecordError(err)
		s.LogError(ctx, err, "Failed to save approval", slog.String("approval_id", a.ApprovalID))
		return nil, fmt.Errorf("failed to save approval: %w", err)
	}
	span.SetAttributes(attribute.String("approval.id", a.ApprovalID), attribute.String("approval.type", string(a.Type)))

	s.LogInfo(ctx, "Approval requested",
		slog.String("approval_id", a.ApprovalID),
		slog.String("approval_type", string(a.Type)),
		slog.String("entity_id", a.EntityID))
	s.publish(ctx, a.PullEvents())
	return a, nil
}

func (s *approvalService) Approve(ctx context.Context, companyID, approvalID string, req dto.ApproveRequest, approverID string) (*domain.Approval, error) {
	return s.transition(ctx, "Approving approval", companyID, approvalID, func(a *domain.Approval, now time.Time) error {
		proof := domain.NewApprovalProof(s.NewID(), a.EntityType, a.EntityID, a.Type, approverID, a.EntityContentHash, req.Notes, now)
		return a.Approve(approverID, req.Notes, proof, now)
	})
}

func (s *approvalService) Reject(ctx context.Context, companyID, approvalID string, req dto.RejectRequest, reviewerID string) (*domain.Approval, error) {
	return s.transition(ctx, "Rejecting approval", companyID, approvalID, func(a *domain.Approval, now time.Time) error {
		return a.Reject(reviewerID, req.Reason, now)
	})
}

func (s *approvalService) Cancel(ctx context.Context, companyID, approvalID string, req dto.CancelRequest, userID string) (*domain.Approval, error) {
	return s.transition(ctx, "Cancelling approval", companyID, approvalID, func(a *domain.Approval, now time.Time) error {
		return a.Cancel(userID, req.Reason, now)
	})
}

// transition loads an approval, applies fn and stores the result.
func (s *approvalService) transition(ctx context.Context, name, companyID, approvalID string, fn func(*domain.Approval, time.Time) error) (*domain.Approval, error) {
	ctx, span := approvalTracer.Start(ctx, name)
	defer span.End()
	span.SetAttributes(attribute.String("approval.id", approvalID))

	a, err := s.GetApprovalByID(ctx, companyID, approvalID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := fn(a, s.Now()); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.approvalRepo.SaveApproval(ctx, a); err != nil {
		span.RecordError(err)
		s.LogError(ctx, err, "Failed to save approval", slog.String("approval_id", approvalID))
		return nil, fmt.Errorf("failed to save approval: %w", err)
	}

	s.LogInfo(ctx, "Approval resolved",
		slog.String("approval_id", approvalID),
		slog.String("status", string(a.Status)),
		slog.String("reviewed_by", a.ReviewedBy))
	s.publish(ctx, a.PullEvents())
	return a, nil
}

func (s *approvalService) ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error) {
	ctx, span := approvalTracer.Start(ctx, "Expiring overdue approvals")
	defer span.End()

	overdue, err := s.approvalRepo.FindOverdue(ctx, now, limit)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to find overdue approvals: %w", err)
	}

	var errs []error
	expired := 0
	for _, a := range overdue {
		if err := a.Expire(now); err != nil {
			errs = append(errs, fmt.Errorf("approval %s: %w", a.ApprovalID, err))
			continue
		}
		if err := s.approvalRepo.SaveApproval(ctx, a); err != nil {
			s.LogError(ctx, err, "Failed to save expired approval", slog.String("approval_id", a.ApprovalID))
			errs = append(errs, fmt.Errorf("approval %s: %w", a.ApprovalID, err))
			continue
		}
		expired++
		s.publish(ctx, a.PullEvents())
	}

	span.SetAttributes(attribute.Int("approvals.expired", expired))
	s.LogInfo(ctx, "Overdue approvals expired", slog.Int("expired", expired), slog.Int("found", len(overdue)))
	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		return expired, err
	}
	return expired, nil
}
