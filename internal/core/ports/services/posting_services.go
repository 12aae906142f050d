package services

import (
	"context"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
)

// PostingSvc is the single write path that moves money.
type PostingSvc interface {
	// PostTransaction validates, projects and screens a DRAFT transaction, then either posts it
	// atomically or opens a PENDING approval.
	PostTransaction(ctx context.Context, companyID string, req dto.PostTransactionRequest) (*dto.PostingResult, error)

	// VoidTransaction reverses a POSTED transaction, or opens a void approval when the company requires one.
	VoidTransaction(ctx context.Context, companyID, transactionID string, req dto.VoidTransactionRequest, userID string) (*dto.PostingResult, error)

	// ApproveAndExecute grants a transaction approval and performs the gated post or void in the same commit.
	ApproveAndExecute(ctx context.Context, companyID, approvalID string, req dto.ApproveRequest, approverID string) (*dto.PostingResult, error)
}

// EdgeCaseDetectionSvc screens a transaction for non-blocking risk signals.
type EdgeCaseDetectionSvc interface {
	// Detect runs every detector against the transaction. projected holds each touched
	// account's balance after the transaction.
	Detect(ctx context.Context, tx *domain.Transaction, accounts map[string]domain.Account, projected map[string]int64, thresholds domain.EdgeCaseThresholds) domain.EdgeCaseDetectionResult
}

// ThresholdSvc manages per-company edge-case thresholds.
type ThresholdSvc interface {
	// GetThresholds returns the company's thresholds or the defaults.
	GetThresholds(ctx context.Context, companyID string) (domain.EdgeCaseThresholds, error)

	// UpdateThresholds validates and stores the company's thresholds.
	UpdateThresholds(ctx context.Context, companyID string, req dto.UpdateThresholdsRequest, userID string) (domain.EdgeCaseThresholds, error)
}
