package repositories

import (
	"context"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
)

// ThresholdReader defines the read-only lookup of edge-case thresholds
type ThresholdReader interface {
	// GetForCompany returns the company's stored thresholds, or the configured defaults.
	GetForCompany(ctx context.Context, companyID string) (domain.EdgeCaseThresholds, error)
}

// ThresholdWriter defines write operations for edge-case thresholds
type ThresholdWriter interface {
	// SaveForCompany inserts or replaces a company's thresholds.
	SaveForCompany(ctx context.Context, thresholds domain.EdgeCaseThresholds) error
}

// ThresholdRepositoryFacade combines all threshold-related repository interfaces
type ThresholdRepositoryFacade interface {
	ThresholdReader
	ThresholdWriter
}
