package services

import (
	"context"
	"log/slog"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/edgecase"
	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
)

// edgeCaseService implements the EdgeCaseDetectionSvc interface
type edgeCaseService struct {
	BaseService
	detectors []edgecase.Detector
}

// NewEdgeCaseService creates a detection service running the standard detector list.
func NewEdgeCaseService(opts ...Option) portssvc.EdgeCaseDetectionSvc {
	svc := &edgeCaseService{BaseService: newBaseService(), detectors: edgecase.Detectors}
	svc.apply(opts)
	return svc
}

var _ portssvc.EdgeCaseDetectionSvc = (*edgeCaseService)(nil)

func (s *edgeCaseService) Detect(ctx context.Context, tx *domain.Transaction, accounts map[string]domain.Account, projected map[string]int64, thresholds domain.EdgeCaseThresholds) domain.EdgeCaseDetectionResult {
	result := edgecase.Run(s.detectors, edgecase.Input{
		Lines:       tx.Lines(),
		Accounts:    accounts,
		Date:        tx.Date,
		Description: tx.Description,
		Projected:   projected,
		Now:         s.Now(),
	}, thresholds)

	if result.HasFlags() {
		flags := make([]string, len(result.Flags))
		for i, f := range result.Flags {
			flags[i] = string(f.Type)
		}
		s.LogDebug(ctx, "Edge cases detected",
			slog.String("transaction_id", tx.TransactionID),
			slog.Any("flags", flags))
	}
	return result
}
