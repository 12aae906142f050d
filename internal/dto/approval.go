package dto

import (
	"time"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
)

// ApproveRequest carries optional reviewer notes.
type ApproveRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

// RejectRequest carries the rejection reason; the aggregate enforces its minimum length.
type RejectRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// CancelRequest carries an optional cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// ListApprovalsParams defines query parameters for the pending queue.
type ListApprovalsParams struct {
	Limit int `form:"limit,default=50" binding:"min=1,max=200"`
}

// ApprovalResponse defines the data returned for an approval.
type ApprovalResponse struct {
	ApprovalID        string                `json:"approvalID"`
	Type              domain.ApprovalType   `json:"type"`
	EntityType        string                `json:"entityType"`
	EntityID          string                `json:"entityID"`
	EntityContentHash string                `json:"entityContentHash"`
	Reason            domain.ApprovalReason `json:"reason"`
	RequestedBy       string                `json:"requestedBy"`
	RequestedAt       time.Time             `json:"requestedAt"`
	AmountCents       int64                 `json:"amountCents"`
	CurrencyCode      string                `json:"currencyCode"`
	Priority          int                   `json:"priority"`
	ExpiresAt         time.Time             `json:"expiresAt"`
	Status            domain.ApprovalStatus `json:"status"`
	ReviewedBy        string                `json:"reviewedBy,omitempty"`
	ReviewNotes       string                `json:"reviewNotes,omitempty"`
	ReviewedAt        *time.Time            `json:"reviewedAt,omitempty"`
	Proof             *domain.ApprovalProof `json:"proof,omitempty"`
}

// ToApprovalResponse converts a domain.Approval to ApprovalResponse DTO.
func ToApprovalResponse(a *domain.Approval) ApprovalResponse {
	return ApprovalResponse{
		ApprovalID:        a.ApprovalID,
		Type:              a.Type,
		EntityType:        a.EntityType,
		EntityID:          a.EntityID,
		EntityContentHash: a.EntityContentHash,
		Reason:            a.Reason,
		RequestedBy:       a.RequestedBy,
		RequestedAt:       a.RequestedAt,
		AmountCents:       a.Amount.Cents,
		CurrencyCode:      a.Amount.Currency,
		Priority:          a.Priority,
		ExpiresAt:         a.ExpiresAt,
		Status:            a.Status,
		ReviewedBy:        a.ReviewedBy,
		ReviewNotes:       a.ReviewNotes,
		ReviewedAt:        a.ReviewedAt,
		Proof:             a.Proof,
	}
}

// ToApprovalResponses converts a slice of approvals.
func ToApprovalResponses(approvals []*domain.Approval) []ApprovalResponse {
	out := make([]ApprovalResponse, len(approvals))
	for i, a := range approvals {
		out[i] = ToApprovalResponse(a)
	}
	return out
}
