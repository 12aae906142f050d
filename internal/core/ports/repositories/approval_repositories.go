package repositories

import (
	"context"
	"time"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
)

// ApprovalReader defines read operations for approval data
type ApprovalReader interface {
	// FindApprovalByID retrieves an approval by its ID.
	FindApprovalByID(ctx context.Context, approvalID string) (*domain.Approval, error)

	// FindPendingByCompany lists a company's PENDING approvals, most urgent first.
	FindPendingByCompany(ctx context.Context, companyID string, limit int) ([]*domain.Approval, error)

	// FindLatestForEntity returns the most recently requested approval for an entity,
	// or ErrNotFound when none exists.
	FindLatestForEntity(ctx context.Context, entityType, entityID string) (*domain.Approval, error)

	// FindOverdue lists PENDING approvals whose expiry is before now, across all companies.
	FindOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.Approval, error)
}

// ApprovalWriter defines write operations for approval data
type ApprovalWriter interface {
	// SaveApproval inserts or updates an approval.
	SaveApproval(ctx context.Context, approval *domain.Approval) error
}

// ApprovalRepositoryFacade combines all approval-related repository interfaces
type ApprovalRepositoryFacade interface {
	ApprovalReader
	ApprovalWriter
}
