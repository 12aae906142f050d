package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	portsrepo "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/repositories"
	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
)

type thresholdService struct {
	BaseService
	repo portsrepo.ThresholdRepositoryFacade
}

// NewThresholdService creates a threshold service.
func NewThresholdService(repo portsrepo.ThresholdRepositoryFacade, opts ...Option) portssvc.ThresholdSvc {
	svc := &thresholdService{BaseService: newBaseService(), repo: repo}
	svc.apply(opts)
	return svc
}

var _ portssvc.ThresholdSvc = (*thresholdService)(nil)

func (s *thresholdService) GetThresholds(ctx context.Context, companyID string) (domain.EdgeCaseThresholds, error) {
	th, err := s.repo.GetForCompany(ctx, companyID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load thresholds", slog.String("company_id", companyID))
		return domain.EdgeCaseThresholds{}, fmt.Errorf("failed to load thresholds: %w", err)
	}
	th.CompanyID = companyID
	return th, nil
}

func (s *thresholdService) UpdateThresholds(ctx context.Context, companyID string, req dto.UpdateThresholdsRequest, userID string) (domain.EdgeCaseThresholds, error) {
	th := domain.EdgeCaseThresholds{
		CompanyID:              companyID,
		LargeAmountCents:       req.LargeAmountCents,
		ApprovalThresholdCents: req.ApprovalThresholdCents,
		BackdatingWindowDays:   req.BackdatingWindowDays,
		FutureDatingWindowDays: req.FutureDatingWindowDays,
		MinDescriptionLength:   req.MinDescriptionLength,
		RequireVoidApproval:    req.RequireVoidApproval,
	}
	if err := th.Validate(); err != nil {
		return domain.EdgeCaseThresholds{}, err
	}
	if err := s.repo.SaveForCompany(ctx, th); err != nil {
		s.LogError(ctx, err, "Failed to save thresholds", slog.String("company_id", companyID))
		return domain.EdgeCaseThresholds{}, fmt.Errorf("failed to save thresholds: %w", err)
	}

	s.LogInfo(ctx, "Edge-case thresholds updated",
		slog.String("company_id", companyID),
		slog.String("user_id", userID),
		slog.Int64("approval_threshold_cents", th.ApprovalThresholdCents))
	return th, nil
}
