package services

import (
	"context"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/hashchain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
)

// AuditSvc appends to and verifies the hash chains.
type AuditSvc interface {
	// RecordEvent appends a domain event to its company's activity chain,
	// or to the system chain when it carries no company.
	RecordEvent(ctx context.Context, event domain.DomainEvent) (*domain.ActivityLog, error)

	// VerifyJournalChain walks a company's journal chain.
	VerifyJournalChain(ctx context.Context, companyID string) (hashchain.IntegrityResult, error)

	// VerifyActivityChain walks a company's activity chain; an empty company verifies the system chain.
	VerifyActivityChain(ctx context.Context, companyID string) (hashchain.IntegrityResult, error)

	// ProveJournalEntry builds a Merkle inclusion proof of one entry in the company's journal.
	ProveJournalEntry(ctx context.Context, companyID, entryID string) (*dto.JournalProofResponse, error)
}
