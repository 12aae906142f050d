package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/edgecase"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/hashchain"
	portsrepo "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/repositories"
	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
)

var postingTracer = otel.Tracer("Ledger posting")

// PostingDeps are the collaborators of the posting orchestrator. Locker is optional.
type PostingDeps struct {
	Transactions portsrepo.TransactionReader
	Accounts     portsrepo.AccountReader
	Ledger       portsrepo.LedgerRepositoryFacade
	Approvals    portsrepo.ApprovalRepositoryFacade
	Thresholds   portssvc.ThresholdSvc
	Validator    portssvc.TransactionValidationSvc
	EdgeCases    portssvc.EdgeCaseDetectionSvc
	Locker       portssvc.ChainLocker
}

// PostingConfig tunes conflict retries and the chain lock.
type PostingConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	LockTTL         time.Duration
}

// DefaultPostingConfig retries a conflicting commit three times.
func DefaultPostingConfig() PostingConfig {
	return PostingConfig{MaxRetries: 3, InitialInterval: 10 * time.Millisecond, LockTTL: 10 * time.Second}
}

type postingService struct {
	BaseService
	deps PostingDeps
	cfg  PostingConfig
	calc *BalanceCalculator
}

// NewPostingService creates the posting orchestrator.
func NewPostingService(deps PostingDeps, cfg PostingConfig, opts ...Option) portssvc.PostingSvc {
	svc := &postingService{BaseService: newBaseService(), deps: deps, cfg: cfg}
	svc.apply(opts)
	svc.calc = NewBalanceCalculator(svc.NewID)
	return svc
}

var _ portssvc.PostingSvc = (*postingService)(nil)

// outcome is what one successful attempt produced. Events are published only after the
// attempt that committed.
type outcome struct {
	result *dto.PostingResult
	events []domain.DomainEvent
}

// postingPlan is the state read by one attempt.
type postingPlan struct {
	tx        *domain.Transaction
	accounts  map[string]domain.Account
	balances  map[string]domain.AccountBalance
	changes   []domain.BalanceChange
	projected map[string]int64
}

func (s *postingService) PostTransaction(ctx context.Context, companyID string, req dto.PostTransactionRequest) (*dto.PostingResult, error) {
	ctx, span := postingTracer.Start(ctx, "Posting transaction")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", companyID), attribute.String("transaction.id", req.TransactionID))

	if req.ActorUserID == "" {
		err := apperrors.NewBusinessRuleError(domain.RuleTransactionActor, "posting requires an actor")
		span.RecordError(err)
		return nil, err
	}

	out, err := s.run(ctx, companyID, func(ctx context.Context) (*outcome, error) {
		return s.postAttempt(ctx, companyID, req.TransactionID, req.ActorUserID)
	})
	if err != nil {
		return nil, s.fail(ctx, span, err, "Failed to post transaction", slog.String("transaction_id", req.TransactionID))
	}

	span.SetAttributes(attribute.String("posting.status", out.result.Status))
	s.LogInfo(ctx, "Transaction posting finished",
		slog.String("transaction_id", req.TransactionID),
		slog.String("company_id", companyID),
		slog.String("status", out.result.Status))
	s.publish(ctx, out.events)
	return out.result, nil
}

func (s *postingService) VoidTransaction(ctx context.Context, companyID, transactionID string, req dto.VoidTransactionRequest, userID string) (*dto.PostingResult, error) {
	ctx, span := postingTracer.Start(ctx, "Voiding transaction")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", companyID), attribute.String("transaction.id", transactionID))

	out, err := s.run(ctx, companyID, func(ctx context.Context) (*outcome, error) {
		return s.voidAttempt(ctx, companyID, transactionID, req.Reason, userID)
	})
	if err != nil {
		return nil, s.fail(ctx, span, err, "Failed to void transaction", slog.String("transaction_id", transactionID))
	}

	s.LogInfo(ctx, "Transaction void finished",
		slog.String("transaction_id", transactionID),
		slog.String("company_id", companyID),
		slog.String("status", out.result.Status))
	s.publish(ctx, out.events)
	return out.result, nil
}

func (s *postingService) ApproveAndExecute(ctx context.Context, companyID, approvalID string, req dto.ApproveRequest, approverID string) (*dto.PostingResult, error) {
	ctx, span := postingTracer.Start(ctx, "Approving and executing")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", companyID), attribute.String("approval.id", approvalID))

	out, err := s.run(ctx, companyID, func(ctx context.Context) (*outcome, error) {
		return s.approveAttempt(ctx, companyID, approvalID, req.Notes, approverID)
	})
	if err != nil {
		return nil, s.fail(ctx, span, err, "Failed to execute approval", slog.String("approval_id", approvalID))
	}

	s.LogInfo(ctx, "Approval granted and executed",
		slog.String("approval_id", approvalID),
		slog.String("approved_by", approverID),
		slog.String("status", out.result.Status))
	s.publish(ctx, out.events)
	return out.result, nil
}

// run serializes writers of the company journal chain and retries attempts that lost an
// optimistic concurrency race. Every attempt reads fresh state.
func (s *postingService) run(ctx context.Context, companyID string, attempt func(context.Context) (*outcome, error)) (*outcome, error) {
	if s.deps.Locker != nil {
		release, err := s.deps.Locker.Acquire(ctx, hashchain.JournalChainID(companyID), s.cfg.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to lock journal chain: %w", err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.LogError(ctx, err, "Failed to release journal chain lock", slog.String("company_id", companyID))
			}
		}()
	}

	b := backoff.NewExponentialBackOff()
	if s.cfg.InitialInterval > 0 {
		b.InitialInterval = s.cfg.InitialInterval
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, s.cfg.MaxRetries), ctx)

	var out *outcome
	tries := 0
	err := backoff.Retry(func() error {
		tries++
		o, err := attempt(ctx)
		if err == nil {
			out = o
			return nil
		}
		if apperrors.IsRetryable(err) {
			s.LogDebug(ctx, "Ledger commit conflicted, retrying",
				slog.String("company_id", companyID),
				slog.Int("attempt", tries),
				slog.String("error", err.Error()))
			return err
		}
		return backoff.Permanent(err)
	}, policy)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *postingService) fail(ctx context.Context, span trace.Span, err error, msg string, attrs ...any) error {
	span.RecordError(err)
	if apperrors.IsClientError(err) {
		s.LogDebug(ctx, msg, append(attrs, slog.String("error", err.Error()))...)
	} else {
		s.LogError(ctx, err, msg, attrs...)
	}
	return err
}

func (s *postingService) postAttempt(ctx context.Context, companyID, transactionID, actor string) (*outcome, error) {
	tx, err := s.loadTransaction(ctx, companyID, transactionID)
	if err != nil {
		return nil, err
	}
	plan, err := s.preparePost(ctx, tx)
	if err != nil {
		return nil, err
	}

	existing, err := s.latestApproval(ctx, transactionID, false)
	if err != nil {
		return nil, err
	}
	contentHash := tx.ContentHash()
	// stale is a PENDING request opened before the draft was edited. It can never be approved,
	// so it is closed by whatever this attempt does instead.
	var stale *domain.Approval
	if existing != nil {
		switch {
		case existing.Status == domain.ApprovalPending && existing.EntityContentHash == contentHash:
			return &outcome{result: dto.NewPendingResult(existing)}, nil
		case existing.Status == domain.ApprovalPending:
			stale = existing
		case existing.Status == domain.ApprovalApproved && existing.Proof != nil && existing.Proof.Verify(contentHash):
			return s.commitPost(ctx, plan, actor, nil)
		}
	}

	thresholds, err := s.deps.Thresholds.GetThresholds(ctx, companyID)
	if err != nil {
		return nil, err
	}
	detection := s.deps.EdgeCases.Detect(ctx, tx, plan.accounts, plan.projected, thresholds)
	exceeds := thresholds.ExceedsApprovalThreshold(tx.Amount().Cents)
	if reason, needed := edgecase.ResolveApproval(detection, exceeds); needed {
		return s.requestApproval(ctx, tx, reason.Type, reason, actor, stale)
	}
	if stale != nil {
		if err := stale.Supersede(actor, "", s.Now()); err != nil {
			return nil, err
		}
	}
	return s.commitPost(ctx, plan, actor, stale)
}

func (s *postingService) voidAttempt(ctx context.Context, companyID, transactionID, reason, actor string) (*outcome, error) {
	tx, err := s.loadTransaction(ctx, companyID, transactionID)
	if err != nil {
		return nil, err
	}
	if !tx.IsPosted() {
		return nil, apperrors.NewBusinessRuleError(domain.RuleTransactionNotPosted, fmt.Sprintf("cannot void a %s transaction", tx.Status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewBusinessRuleError(domain.RuleTransactionVoidReason, "a void reason is required")
	}

	thresholds, err := s.deps.Thresholds.GetThresholds(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if thresholds.RequireVoidApproval {
		existing, err := s.latestApproval(ctx, transactionID, true)
		if err != nil {
			return nil, err
		}
		approved := existing != nil && existing.Status == domain.ApprovalApproved && existing.Proof != nil && existing.Proof.Verify(tx.ContentHash())
		if existing != nil && existing.Status == domain.ApprovalPending {
			return &outcome{result: dto.NewPendingResult(existing)}, nil
		}
		if !approved {
			return s.requestApproval(ctx, tx, domain.ApprovalVoidTransaction, domain.ApprovalReason{
				Type:    domain.ApprovalVoidTransaction,
				Summary: "Void requested: " + reason,
				Details: map[string]any{"voidReason": reason},
			}, actor, nil)
		}
	}

	plan, err := s.prepareVoid(ctx, tx)
	if err != nil {
		return nil, err
	}
	return s.commitVoid(ctx, plan, reason, actor, nil)
}

func (s *postingService) approveAttempt(ctx context.Context, companyID, approvalID, notes, approverID string) (*outcome, error) {
	a, err := s.deps.Approvals.FindApprovalByID(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	if a.CompanyID != companyID {
		return nil, apperrors.NewNotFoundError("approval", approvalID)
	}
	if a.EntityType != domain.EntityTypeTransaction {
		return nil, apperrors.NewBusinessRuleError(domain.RuleApprovalInvalid, fmt.Sprintf("approval %s does not gate a transaction", approvalID))
	}

	tx, err := s.loadTransaction(ctx, companyID, a.EntityID)
	if err != nil {
		return nil, err
	}
	contentHash := tx.ContentHash()
	if a.Status == domain.ApprovalPending && contentHash != a.EntityContentHash {
		return nil, apperrors.NewBusinessRuleError(domain.RuleApprovalProofMismatch, "transaction changed after the approval was requested")
	}

	now := s.Now()
	proof := domain.NewApprovalProof(s.NewID(), a.EntityType, a.EntityID, a.Type, approverID, contentHash, notes, now)
	if err := a.Approve(approverID, notes, proof, now); err != nil {
		return nil, err
	}

	if a.Type == domain.ApprovalVoidTransaction {
		reason, _ := a.Reason.Details["voidReason"].(string)
		plan, err := s.prepareVoid(ctx, tx)
		if err != nil {
			return nil, err
		}
		return s.commitVoid(ctx, plan, reason, a.RequestedBy, a)
	}

	plan, err := s.preparePost(ctx, tx)
	if err != nil {
		return nil, err
	}
	return s.commitPost(ctx, plan, a.RequestedBy, a)
}

// preparePost validates a DRAFT transaction and projects its balance changes.
func (s *postingService) preparePost(ctx context.Context, tx *domain.Transaction) (*postingPlan, error) {
	if !tx.IsDraft() {
		return nil, apperrors.NewBusinessRuleError(domain.RuleTransactionNotDraft, fmt.Sprintf("cannot post a %s transaction", tx.Status))
	}
	result, err := s.deps.Validator.ValidateTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	if !result.IsValid() {
		return nil, result.Err()
	}
	if err := tx.CheckDoubleEntry(); err != nil {
		return nil, err
	}

	plan, err := s.loadPlan(ctx, tx, tx.AccountIDs())
	if err != nil {
		return nil, err
	}
	plan.changes, plan.projected, err = s.calc.BuildChanges(tx, plan.accounts, plan.balances, s.Now())
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// prepareVoid inverts the balance changes recorded when tx was posted.
func (s *postingService) prepareVoid(ctx context.Context, tx *domain.Transaction) (*postingPlan, error) {
	if !tx.IsPosted() {
		return nil, apperrors.NewBusinessRuleError(domain.RuleTransactionNotPosted, fmt.Sprintf("cannot void a %s transaction", tx.Status))
	}
	original, err := s.deps.Ledger.FindBalanceChangesByTransaction(ctx, tx.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load balance changes: %w", err)
	}

	plan, err := s.loadPlan(ctx, tx, tx.AccountIDs())
	if err != nil {
		return nil, err
	}
	plan.changes, plan.projected, err = s.calc.BuildReversals(original, plan.balances, s.Now())
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *postingService) loadPlan(ctx context.Context, tx *domain.Transaction, accountIDs []string) (*postingPlan, error) {
	accounts, err := s.deps.Accounts.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	balances, err := s.deps.Ledger.GetAccountBalances(ctx, tx.CompanyID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load balances: %w", err)
	}
	return &postingPlan{tx: tx, accounts: accounts, balances: balances}, nil
}

func (s *postingService) commitPost(ctx context.Context, plan *postingPlan, actor string, resolved *domain.Approval) (*outcome, error) {
	now := s.Now()
	if err := plan.tx.Post(actor, now); err != nil {
		return nil, err
	}
	entry, err := s.commit(ctx, plan, domain.EntryPosting, actor, resolved, now)
	if err != nil {
		return nil, err
	}
	return &outcome{result: dto.NewPostedResult(plan.tx, entry), events: collectEvents(plan.tx, resolved)}, nil
}

func (s *postingService) commitVoid(ctx context.Context, plan *postingPlan, reason, actor string, resolved *domain.Approval) (*outcome, error) {
	now := s.Now()
	if err := plan.tx.Void(reason, actor, now); err != nil {
		return nil, err
	}
	entry, err := s.commit(ctx, plan, domain.EntryReversal, actor, resolved, now)
	if err != nil {
		return nil, err
	}
	return &outcome{result: dto.NewVoidedResult(plan.tx, entry), events: collectEvents(plan.tx, resolved)}, nil
}

// commit applies the planned changes and hands everything to the ledger writer as one unit.
func (s *postingService) commit(ctx context.Context, plan *postingPlan, entryType domain.JournalEntryType, actor string, resolved *domain.Approval, now time.Time) (*domain.JournalEntry, error) {
	updates, err := s.calc.ApplyChanges(plan.tx.CompanyID, plan.accounts, plan.balances, plan.changes, now)
	if err != nil {
		return nil, err
	}
	entry := domain.NewJournalEntry(s.NewID(), entryType, plan.tx, actor, now)

	err = s.deps.Ledger.CommitPosting(ctx, domain.LedgerCommit{
		Transaction: plan.tx,
		Updates:     updates,
		Changes:     plan.changes,
		Entry:       entry,
		Approval:    resolved,
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// requestApproval opens a new request for tx. A stale request, when given, is superseded by it.
func (s *postingService) requestApproval(ctx context.Context, tx *domain.Transaction, typ domain.ApprovalType, reason domain.ApprovalReason, actor string, stale *domain.Approval) (*outcome, error) {
	a, err := domain.RequestApproval(domain.ApprovalRequest{
		ApprovalID:        s.NewID(),
		CompanyID:         tx.CompanyID,
		Type:              typ,
		EntityType:        domain.EntityTypeTransaction,
		EntityID:          tx.TransactionID,
		EntityContentHash: tx.ContentHash(),
		Reason:            reason,
		RequestedBy:       actor,
		Amount:            tx.Amount(),
		RequestedAt:       s.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.deps.Approvals.SaveApproval(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to save approval: %w", err)
	}
	events := a.PullEvents()

	if stale != nil {
		if err := stale.Supersede(actor, a.ApprovalID, s.Now()); err != nil {
			return nil, err
		}
		if err := s.deps.Approvals.SaveApproval(ctx, stale); err != nil {
			return nil, fmt.Errorf("failed to supersede approval %s: %w", stale.ApprovalID, err)
		}
		events = append(events, stale.PullEvents()...)
		s.LogInfo(ctx, "Stale approval superseded",
			slog.String("approval_id", stale.ApprovalID),
			slog.String("superseded_by", a.ApprovalID))
	}

	s.LogInfo(ctx, "Transaction held for approval",
		slog.String("transaction_id", tx.TransactionID),
		slog.String("approval_id", a.ApprovalID),
		slog.String("approval_type", string(a.Type)))
	return &outcome{result: dto.NewPendingResult(a), events: events}, nil
}

func (s *postingService) loadTransaction(ctx context.Context, companyID, transactionID string) (*domain.Transaction, error) {
	tx, err := s.deps.Transactions.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.CompanyID != companyID {
		return nil, apperrors.NewNotFoundError("transaction", transactionID)
	}
	return tx, nil
}

// latestApproval returns the newest approval of the requested kind for a transaction, or nil.
// Void approvals and posting approvals are tracked separately.
func (s *postingService) latestApproval(ctx context.Context, transactionID string, void bool) (*domain.Approval, error) {
	a, err := s.deps.Approvals.FindLatestForEntity(ctx, domain.EntityTypeTransaction, transactionID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load approvals: %w", err)
	}
	if (a.Type == domain.ApprovalVoidTransaction) != void {
		return nil, nil
	}
	return a, nil
}

// collectEvents gathers the events raised by one commit.
func collectEvents(tx *domain.Transaction, resolved *domain.Approval) []domain.DomainEvent {
	var events []domain.DomainEvent
	if resolved != nil {
		events = append(events, resolved.PullEvents()...)
	}
	return append(events, tx.PullEvents()...)
}
