package dto

import (
	"time"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
)

// Posting result statuses.
const (
	StatusPosted          = "posted"
	StatusVoided          = "voided"
	StatusPendingApproval = "pending_approval"
)

// PostTransactionRequest is the input of the post operation. The handler fills ActorUserID
// from the authenticated caller.
type PostTransactionRequest struct {
	TransactionID string `json:"transactionId"`
	ActorUserID   string `json:"actorUserId"`
}

// VoidTransactionRequest carries the mandatory void reason.
type VoidTransactionRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// PostingResult is either a completed ledger write or a pending approval.
type PostingResult struct {
	Status         string                 `json:"status"`
	PostedAt       *time.Time             `json:"postedAt,omitempty"`
	VoidedAt       *time.Time             `json:"voidedAt,omitempty"`
	JournalEntryID string                 `json:"journalEntryId,omitempty"`
	ContentHash    string                 `json:"contentHash,omitempty"`
	ChainHash      string                 `json:"chainHash,omitempty"`
	ApprovalID     string                 `json:"approvalId,omitempty"`
	Reason         *domain.ApprovalReason `json:"reason,omitempty"`
}

// NewPostedResult reports a committed POSTING entry.
func NewPostedResult(tx *domain.Transaction, entry *domain.JournalEntry) *PostingResult {
	return &PostingResult{
		Status:         StatusPosted,
		PostedAt:       tx.PostedAt,
		JournalEntryID: entry.EntryID,
		ContentHash:    entry.ContentHash,
		ChainHash:      entry.ChainHash,
	}
}

// NewVoidedResult reports a committed REVERSAL entry.
func NewVoidedResult(tx *domain.Transaction, entry *domain.JournalEntry) *PostingResult {
	return &PostingResult{
		Status:         StatusVoided,
		VoidedAt:       tx.VoidedAt,
		JournalEntryID: entry.EntryID,
		ContentHash:    entry.ContentHash,
		ChainHash:      entry.ChainHash,
	}
}

// NewPendingResult reports that the operation waits for approval.
func NewPendingResult(a *domain.Approval) *PostingResult {
	reason := a.Reason
	return &PostingResult{
		Status:     StatusPendingApproval,
		ApprovalID: a.ApprovalID,
		Reason:     &reason,
	}
}

// ErrorsResponse is the failure body of every ledger operation. Rule names the broken
// business rule; Retryable marks concurrency conflicts.
type ErrorsResponse struct {
	Errors    []string `json:"errors"`
	Rule      string   `json:"rule,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
}
