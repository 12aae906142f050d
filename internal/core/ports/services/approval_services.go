package services

import (
	"context"
	"time"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
)

// ApprovalReaderSvc defines read operations for approvals
type ApprovalReaderSvc interface {
	// GetApprovalByID retrieves an approval of the company.
	GetApprovalByID(ctx context.Context, companyID, approvalID string) (*domain.Approval, error)

	// ListPending lists the company's PENDING approvals, most urgent first.
	ListPending(ctx context.Context, companyID string, params dto.ListApprovalsParams) ([]*domain.Approval, error)
}

// ApprovalWriterSvc defines the approval state transitions
type ApprovalWriterSvc interface {
	// RequestApproval opens a PENDING approval.
	RequestApproval(ctx context.Context, req domain.ApprovalRequest) (*domain.Approval, error)

	// Approve grants an approval without executing anything. Transaction approvals are
	// normally granted through PostingSvc.ApproveAndExecute.
	Approve(ctx context.Context, companyID, approvalID string, req dto.ApproveRequest, approverID string) (*domain.Approval, error)

	// Reject denies an approval.
	Reject(ctx context.Context, companyID, approvalID string, req dto.RejectRequest, reviewerID string) (*domain.Approval, error)

	// Cancel withdraws an approval. Only the requester may cancel.
	Cancel(ctx context.Context, companyID, approvalID string, req dto.CancelRequest, userID string) (*domain.Approval, error)

	// ExpireOverdue expires up to limit overdue PENDING approvals and returns how many were expired.
	ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error)
}

// ApprovalSvcFacade combines all approval-related service interfaces
type ApprovalSvcFacade interface {
	ApprovalReaderSvc
	ApprovalWriterSvc
}
