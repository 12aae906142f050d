package services

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/hashchain"
	portsrepo "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/repositories"
	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
)

var auditTracer = otel.Tracer("Audit trail")

type auditService struct {
	BaseService
	journal  portsrepo.JournalReader
	activity portsrepo.ActivityRepositoryFacade
}

// NewAuditService creates the service that appends to and verifies the hash chains.
func NewAuditService(journal portsrepo.JournalReader, activity portsrepo.ActivityRepositoryFacade, opts ...Option) portssvc.AuditSvc {
	svc := &auditService{BaseService: newBaseService(), journal: journal, activity: activity}
	svc.apply(opts)
	return svc
}

var _ portssvc.AuditSvc = (*auditService)(nil)

func (s *auditService) RecordEvent(ctx context.Context, event domain.DomainEvent) (*domain.ActivityLog, error) {
	ctx, span := auditTracer.Start(ctx, "Recording activity")
	defer span.End()

	activity := domain.NewActivityFromEvent(s.NewID(), event)
	if err := s.activity.AppendActivity(ctx, activity); err != nil {
		span.RecordError(err)
		s.LogError(ctx, err, "Failed to append activity",
			slog.String("chain_id", activity.ChainID),
			slog.String("action", activity.Action))
		return nil, fmt.Errorf("failed to append activity: %w", err)
	}
	span.SetAttributes(attribute.String("chain.id", activity.ChainID), attribute.Int64("chain.sequence", activity.Sequence))
	return activity, nil
}

func (s *auditService) VerifyJournalChain(ctx context.Context, companyID string) (hashchain.IntegrityResult, error) {
	ctx, span := auditTracer.Start(ctx, "Verifying journal chain")
	defer span.End()

	entries, err := s.journal.ListJournalEntries(ctx, companyID)
	if err != nil {
		span.RecordError(err)
		return hashchain.IntegrityResult{}, fmt.Errorf("failed to load journal: %w", err)
	}
	links := make([]hashchain.Link, len(entries))
	for i := range entries {
		links[i] = entries[i].ToLink()
	}
	return s.report(ctx, hashchain.Verify(hashchain.JournalChainID(companyID), links)), nil
}

func (s *auditService) VerifyActivityChain(ctx context.Context, companyID string) (hashchain.IntegrityResult, error) {
	ctx, span := auditTracer.Start(ctx, "Verifying activity chain")
	defer span.End()

	chainID := hashchain.ActivityChainID(companyID)
	records, err := s.activity.ListActivities(ctx, chainID)
	if err != nil {
		span.RecordError(err)
		return hashchain.IntegrityResult{}, fmt.Errorf("failed to load activity chain: %w", err)
	}
	links := make([]hashchain.Link, len(records))
	for i := range records {
		links[i] = records[i].ToLink()
	}
	return s.report(ctx, hashchain.Verify(chainID, links)), nil
}

// report logs a broken chain as an audit alert. The chain itself is never repaired.
func (s *auditService) report(ctx context.Context, result hashchain.IntegrityResult) hashchain.IntegrityResult {
	if result.Valid {
		s.LogDebug(ctx, "Hash chain verified",
			slog.String("chain_id", result.ChainID),
			slog.Int("verified", result.VerifiedCount))
		return result
	}
	s.LogError(ctx, result.Err(), "Hash chain integrity violation",
		slog.String("chain_id", result.ChainID),
		slog.String("broken_entry_id", result.BrokenEntryID),
		slog.String("reason", result.Reason),
		slog.Int("verified", result.VerifiedCount))
	return result
}

func (s *auditService) ProveJournalEntry(ctx context.Context, companyID, entryID string) (*dto.JournalProofResponse, error) {
	ctx, span := auditTracer.Start(ctx, "Proving journal entry")
	defer span.End()

	entries, err := s.journal.ListJournalEntries(ctx, companyID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load journal: %w", err)
	}

	index := -1
	leaves := make([]string, len(entries))
	for i, e := range entries {
		leaves[i] = e.ChainHash
		if e.EntryID == entryID {
			index = i
		}
	}
	if index < 0 {
		return nil, apperrors.NewNotFoundError("journal entry", entryID)
	}

	tree, err := hashchain.NewMerkleTree(leaves)
	if err != nil {
		return nil, err
	}
	proof, err := tree.Proof(index)
	if err != nil {
		return nil, err
	}

	root := tree.Root()
	return &dto.JournalProofResponse{
		EntryID:   entryID,
		Sequence:  entries[index].Sequence,
		Leaf:      leaves[index],
		Root:      root,
		BatchSize: proof.BatchSize,
		LeafIndex: proof.LeafIndex,
		Steps:     proof.Steps,
		Verified:  proof.Verify(leaves[index], root),
	}, nil
}
