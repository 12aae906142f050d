package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/hashchain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/repositories/memory"
)

type PostingServiceTestSuite struct {
	suite.Suite
	f       *ledgerFixture
	ctx     context.Context
	cash    string
	revenue string
	expense string
}

func (suite *PostingServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.f = newLedgerFixture(suite.T())
	suite.cash = suite.f.createAccount(suite.T(), "1000", domain.Asset, "bank", 0)
	suite.revenue = suite.f.createAccount(suite.T(), "4000", domain.Revenue, "", 0)
	suite.expense = suite.f.createAccount(suite.T(), "6000", domain.Expense, "", 0)
}

func (suite *PostingServiceTestSuite) post(txID string) (*dto.PostingResult, error) {
	return suite.f.svc.Posting.PostTransaction(suite.ctx, companyID, dto.PostTransactionRequest{TransactionID: txID, ActorUserID: clerkID})
}

func (suite *PostingServiceTestSuite) requireRule(err error, rule string) {
	suite.Require().Error(err)
	var br *apperrors.BusinessRuleError
	suite.Require().True(errors.As(err, &br), "expected BusinessRuleError, got %T: %v", err, err)
	suite.Equal(rule, br.Rule)
}

func (suite *PostingServiceTestSuite) journal() []domain.JournalEntry {
	entries, err := suite.f.store.ListJournalEntries(suite.ctx, companyID)
	suite.Require().NoError(err)
	return entries
}

func (suite *PostingServiceTestSuite) TestPostWithoutFlagsCommitsImmediately() {
	tx := suite.f.draft(suite.T(), "Consulting revenue for May", debit(suite.cash, 10000), credit(suite.revenue, 10000))

	result, err := suite.post(tx.TransactionID)

	suite.Require().NoError(err)
	suite.Equal(dto.StatusPosted, result.Status)
	suite.NotEmpty(result.JournalEntryID)
	suite.NotEmpty(result.ContentHash)
	suite.NotEmpty(result.ChainHash)
	suite.Require().NotNil(result.PostedAt)
	suite.Equal(fixedNow, *result.PostedAt)

	suite.Equal(int64(10000), suite.f.balance(suite.T(), suite.cash))
	suite.Equal(int64(10000), suite.f.balance(suite.T(), suite.revenue))

	entries, err := suite.f.store.FindJournalEntriesByTransaction(suite.ctx, tx.TransactionID)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.Equal(domain.EntryPosting, entries[0].EntryType)
	suite.Equal(result.ChainHash, entries[0].ChainHash)
	suite.Equal(hashchain.Genesis(hashchain.JournalChainID(companyID)), entries[0].PreviousHash)

	stored, err := suite.f.svc.Transaction.GetTransactionByID(suite.ctx, companyID, tx.TransactionID)
	suite.Require().NoError(err)
	suite.Equal(domain.StatusPosted, stored.Status)
	suite.Equal(clerkID, stored.PostedBy)

	suite.Equal([]domain.EventName{domain.EventTransactionCreated, domain.EventTransactionPosted}, suite.f.publisher.names())
}

func (suite *PostingServiceTestSuite) TestSecondPostingLinksToFirst() {
	first := suite.f.draft(suite.T(), "Consulting revenue for May", debit(suite.cash, 10000), credit(suite.revenue, 10000))
	second := suite.f.draft(suite.T(), "Consulting revenue for June", debit(suite.cash, 2500), credit(suite.revenue, 2500))

	r1, err := suite.post(first.TransactionID)
	suite.Require().NoError(err)
	r2, err := suite.post(second.TransactionID)
	suite.Require().NoError(err)

	entries := suite.journal()
	suite.Require().Len(entries, 2)
	suite.Equal(r1.ChainHash, entries[1].PreviousHash)
	suite.Equal(r2.ChainHash, entries[1].ChainHash)
	suite.Equal(int64(2), entries[1].Sequence)

	integrity, err := suite.f.svc.Audit.VerifyJournalChain(suite.ctx, companyID)
	suite.Require().NoError(err)
	suite.True(integrity.Valid)
	suite.Equal(2, integrity.VerifiedCount)
}

func (suite *PostingServiceTestSuite) TestPostAboveApprovalThresholdIsHeld() {
	suite.f.setThresholds(suite.T(), func(r *dto.UpdateThresholdsRequest) { r.ApprovalThresholdCents = 50_000 })
	tx := suite.f.draft(suite.T(), "Annual software licence", debit(suite.cash, 75_000), credit(suite.revenue, 75_000))

	result, err := suite.post(tx.TransactionID)

	suite.Require().NoError(err)
	suite.Equal(dto.StatusPendingApproval, result.Status)
	suite.NotEmpty(result.ApprovalID)
	suite.Require().NotNil(result.Reason)
	suite.Equal(domain.ApprovalHighValue, result.Reason.Type)

	a, err := suite.f.svc.Approval.GetApprovalByID(suite.ctx, companyID, result.ApprovalID)
	suite.Require().NoError(err)
	suite.Equal(domain.ApprovalPending, a.Status)
	suite.Equal(domain.ApprovalHighValue, a.Type)
	suite.Equal(tx.ContentHash(), a.EntityContentHash)
	suite.Equal(int64(75_000), a.Amount.Cents)

	suite.Equal(int64(0), suite.f.balance(suite.T(), suite.cash))
	suite.Equal(int64(0), suite.f.balance(suite.T(), suite.revenue))
	suite.Empty(suite.journal())

	stored, err := suite.f.svc.Transaction.GetTransactionByID(suite.ctx, companyID, tx.TransactionID)
	suite.Require().NoError(err)
	suite.Equal(domain.StatusDraft, stored.Status)
}

func (suite *PostingServiceTestSuite) TestRepeatedPostReturnsSamePendingApproval() {
	suite.f.setThresholds(suite.T(), func(r *dto.UpdateThresholdsRequest) { r.ApprovalThresholdCents = 50_000 })
	tx := suite.f.draft(suite.T(), "Annual software licence", debit(suite.cash, 75_000), credit(suite.revenue, 75_000))

	first, err := suite.post(tx.TransactionID)
	suite.Require().NoError(err)
	second, err := suite.post(tx.TransactionID)
	suite.Require().NoError(err)

	suite.Equal(first.ApprovalID, second.ApprovalID)
	pending, err := suite.f.svc.Approval.ListPending(suite.ctx, companyID, dto.ListApprovalsParams{})
	suite.Require().NoError(err)
	suite.Len(pending, 1)
}

func (suite *PostingServiceTestSuite) TestNegativeProjectedBalanceIsHeld() {
	tx := suite.f.draft(suite.T(), "Office rent for May", debit(suite.expense, 500), credit(suite.cash, 500))

	result, err := suite.post(tx.TransactionID)

	suite.Require().NoError(err)
	suite.Equal(dto.StatusPendingApproval, result.Status)
	suite.Equal(domain.ApprovalNegativeBalance, result.Reason.Type)
	suite.Contains(result.Reason.Details["flagTypes"], string(domain.FlagNegativeBalance))
}

func (suite *PostingServiceTestSuite) TestApproveAndExecutePostsHeldTransaction() {
	suite.f.setThresholds(suite.T(), func(r *dto.UpdateThresholdsRequest) { r.ApprovalThresholdCents = 50_000 })
	tx := suite.f.draft(suite.T(), "Annual software licence", debit(suite.cash, 75_000), credit(suite.revenue, 75_000))
	pending, err := suite.post(tx.TransactionID)
	suite.Require().NoError(err)

	result, err := suite.f.svc.Posting.ApproveAndExecute(suite.ctx, companyID, pending.ApprovalID, dto.ApproveRequest{Notes: "Contract on file"}, managerID)

	suite.Require().NoError(err)
	suite.Equal(dto.StatusPosted, result.Status)
	suite.Equal(int64(75_000), suite.f.balance(suite.T(), suite.cash))

	a, err := suite.f.svc.Approval.GetApprovalByID(suite.ctx, companyID, pending.ApprovalID)
	suite.Require().NoError(err)
	suite.Equal(domain.ApprovalApproved, a.Status)
	suite.Equal(managerID, a.ReviewedBy)
	suite.Require().NotNil(a.Proof)
	suite.True(a.Proof.Verify(tx.ContentHash()))

	stored, err := suite.f.svc.Transaction.GetTransactionByID(suite.ctx, companyID, tx.TransactionID)
	suite.Require().NoError(err)
	suite.Equal(domain.StatusPosted, stored.Status)
	suite.Equal(clerkID, stored.PostedBy, "the requester posts; the approver only grants")

	names := suite.f.publisher.names()
	suite.Equal([]domain.EventName{domain.EventApprovalGranted, domain.EventTransactionPosted}, names[len(names)-2:])
}

func (suite *PostingServiceTestSuite) TestApproveAndExecuteRejectsSelfApproval() {
	suite.f.setThresholds(suite.T(), func(r *dto.UpdateThresholdsRequest) { r.ApprovalThresholdCents = 50_000 })
	tx := suite.f.draft(suite.T(), "Annual software licence", debit(suite.cash, 75_000), credit(suite.revenue, 75_000))
	pending, err := suite.post(tx.TransactionID)
	suite.Require().NoError(err)

	_, err = suite.f.svc.Posting.ApproveAndExecute(suite.ctx, companyID, pending.ApprovalID, dto.ApproveRequest{}, clerkID)

	suite.requireRule(err, domain.RuleApprovalSelfApproval)
	suite.Equal(int64(0), suite.f.balance(suite.T(), suite.cash))
}

func (suite *PostingServiceTestSuite) TestApprovalGoesStaleWhenDraftChanges() {
	suite.f.setThresholds(suite.T(), func(r *dto.UpdateThresholdsRequest) { r.ApprovalThresholdCents = 50_000 })
	bank2 := suite.f.createAccount(suite.T(), "1010", domain.Asset, "bank", 0)
	deferred := suite.f.createAccount(suite.T(), "2100", domain.Liability, "", 0)
	tx := suite.f.draft(suite.T(), "Annual software licence", debit(suite.cash, 75_000), credit(suite.revenue, 75_000))
	pending, err := suite.post(tx.TransactionID)
	suite.Require().NoError(err)

	_, err = suite.f.svc.Transaction.AddLine(suite.ctx, companyID, tx.TransactionID, debit(bank2, 100), clerkID)
	suite.Require().NoError(err)
	_, err = suite.f.svc.Transaction.AddLine(suite.ctx, companyID, tx.TransactionID, credit(deferred, 100), clerkID)
	suite.Require().NoError(err)

	_, err = suite.f.svc.Posting.ApproveAndExecute(suite.ctx, companyID, pending.ApprovalID, dto.ApproveRequest{}, managerID)
	suite.requireRule(err, domain.RuleApprovalProofMismatch)

	again, err := suite.post(tx.TransactionID)
	suite.Require().NoError(err)
	suite.Equal(dto.StatusPendingApproval, again.Status)
	suite.NotEqual(pending.ApprovalID, again.ApprovalID)

	stale, err := suite.f.svc.Approval.GetApprovalByID(suite.ctx, companyID, pending.ApprovalID)
	suite.Require().NoError(err)
	suite.Equal(domain.ApprovalCancelled, stale.Status)
	suite.Equal(clerkID, stale.ReviewedBy)

	open, err := suite.f.svc.Approval.ListPending(suite.ctx, companyID, dto.ListApprovalsParams{})
	suite.Require().NoError(err)
	suite.Require().Len(open, 1)
	suite.Equal(again.ApprovalID, open[0].ApprovalID)
}

func (suite *PostingServiceTestSuite) TestStaleApprovalIsClosedWhenEditedDraftPostsDirectly() {
	suite.f.setThresholds(suite.T(), func(r *dto.UpdateThresholdsRequest) { r.ApprovalThresholdCents = 50_000 })
	bank2 := suite.f.createAccount(suite.T(), "1010", domain.Asset, "bank", 0)
	deferred := suite.f.createAccount(suite.T(), "2100", domain.Liability, "", 0)
	tx := suite.f.draft(suite.T(), "Annual software licence", debit(suite.cash, 75_000), credit(suite.revenue, 75_000))
	pending, err := suite.post(tx.TransactionID)
	suite.Require().NoError(err)
	suite.Require().Equal(dto.StatusPendingApproval, pending.Status)

	suite.f.setThresholds(suite.T(), func(r *dto.UpdateThresholdsRequest) {})
	_, err = suite.f.svc.Transaction.AddLine(suite.ctx, companyID, tx.TransactionID, debit(bank2, 100), clerkID)
	suite.Require().NoError(err)
	_, err = suite.f.svc.Transaction.AddLine(suite.ctx, companyID, tx.TransactionID, credit(deferred, 100), clerkID)
	suite.Require().NoError(err)

	posted, err := suite.post(tx.TransactionID)
	suite.Require().NoError(err)
	suite.Equal(dto.StatusPosted, posted.Status)

	stale, err := suite.f.svc.Approval.GetApprovalByID(suite.ctx, companyID, pending.ApprovalID)
	suite.Require().NoError(err)
	suite.Equal(domain.ApprovalCancelled, stale.Status)

	open, err := suite.f.svc.Approval.ListPending(suite.ctx, companyID, dto.ListApprovalsParams{})
	suite.Require().NoError(err)
	suite.Empty(open)
	suite.Contains(suite.f.publisher.names(), domain.EventApprovalCancelled)
}

func (suite *PostingServiceTestSuite) TestVoidRestoresBalancesAndAppendsReversal() {
	tx := suite.f.draft(suite.T(), "Consulting revenue for May", debit(suite.cash, 10000), credit(suite.revenue, 10000))
	posted, err := suite.post(tx.TransactionID)
	suite.Require().NoError(err)
	original := suite.journal()[0]

	result, err := suite.f.svc.Posting.VoidTransaction(suite.ctx, companyID, tx.TransactionID, dto.VoidTransactionRequest{Reason: "Duplicate invoice"}, clerkID)

	suite.Require().NoError(err)
	suite.Equal(dto.StatusVoided, result.Status)
	suite.Require().NotNil(result.VoidedAt)

	suite.Equal(int64(0), suite.f.balance(suite.T(), suite.cash))
	suite.Equal(int64(0), suite.f.balance(suite.T(), suite.revenue))

	entries := suite.journal()
	suite.Require().Len(entries, 2)
	suite.Equal(original, entries[0])
	suite.Equal(domain.EntryReversal, entries[1].EntryType)
	suite.Equal(posted.ChainHash, entries[1].PreviousHash)
	suite.Equal("Duplicate invoice", entries[1].Payload["voidReason"])

	stored, err := suite.f.svc.Transaction.GetTransactionByID(suite.ctx, companyID, tx.TransactionID)
	suite.Require().NoError(err)
	suite.Equal(domain.StatusVoided, stored.Status)
	suite.Equal("Duplicate invoice", stored.VoidReason)

	changes, err := suite.f.store.FindBalanceChangesByTransaction(suite.ctx, tx.TransactionID)
	suite.Require().NoError(err)
	suite.Len(changes, 4)

	integrity, err := suite.f.svc.Audit.VerifyJournalChain(suite.ctx, companyID)
	suite.Require().NoError(err)
	suite.True(integrity.Valid)
}

func (suite *PostingServiceTestSuite) TestVoidRequiresApprovalWhenConfigured() {
	tx := suite.f.draft(suite.T(), "Consulting revenue for May", debit(suite.cash, 10000), credit(suite.revenue, 10000))
	_, err := suite.post(tx.TransactionID)
	suite.Require().NoError(err)
	suite.f.setThresholds(suite.T(), func(r *dto.UpdateThresholdsRequest) { r.RequireVoidApproval = true })

	pending, err := suite.f.svc.Posting.VoidTransaction(suite.ctx, companyID, tx.TransactionID, dto.VoidTransactionRequest{Reason: "Customer disputed"}, clerkID)
	suite.Require().NoError(err)
	suite.Equal(dto.StatusPendingApproval, pending.Status)
	suite.Equal(domain.ApprovalVoidTransaction, pending.Reason.Type)
	suite.Equal(int64(10000), suite.f.balance(suite.T(), suite.cash))

	result, err := suite.f.svc.Posting.ApproveAndExecute(suite.ctx, companyID, pending.ApprovalID, dto.ApproveRequest{}, managerID)
	suite.Require().NoError(err)
	suite.Equal(dto.StatusVoided, result.Status)
	suite.Equal(int64(0), suite.f.balance(suite.T(), suite.cash))

	stored, err := suite.f.svc.Transaction.GetTransactionByID(suite.ctx, companyID, tx.TransactionID)
	suite.Require().NoError(err)
	suite.Equal("Customer disputed", stored.VoidReason)
	suite.Equal(clerkID, stored.VoidedBy)
}

func (suite *PostingServiceTestSuite) TestRuleViolations() {
	draft := suite.f.draft(suite.T(), "Consulting revenue for May", debit(suite.cash, 10000), credit(suite.revenue, 10000))

	_, err := suite.f.svc.Posting.VoidTransaction(suite.ctx, companyID, draft.TransactionID, dto.VoidTransactionRequest{Reason: "Not needed"}, clerkID)
	suite.requireRule(err, domain.RuleTransactionNotPosted)

	_, err = suite.f.svc.Posting.PostTransaction(suite.ctx, companyID, dto.PostTransactionRequest{TransactionID: draft.TransactionID})
	suite.requireRule(err, domain.RuleTransactionActor)

	_, err = suite.post(draft.TransactionID)
	suite.Require().NoError(err)
	_, err = suite.post(draft.TransactionID)
	suite.requireRule(err, domain.RuleTransactionNotDraft)

	_, err = suite.f.svc.Posting.VoidTransaction(suite.ctx, companyID, draft.TransactionID, dto.VoidTransactionRequest{Reason: "   "}, clerkID)
	suite.requireRule(err, domain.RuleTransactionVoidReason)

	_, err = suite.f.svc.Posting.PostTransaction(suite.ctx, "co-2", dto.PostTransactionRequest{TransactionID: draft.TransactionID, ActorUserID: clerkID})
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *PostingServiceTestSuite) TestInvalidDraftIsRejectedWithAllViolations() {
	tx := suite.f.draft(suite.T(), "Consulting revenue for May")
	_, err := suite.f.svc.Transaction.AddLine(suite.ctx, companyID, tx.TransactionID, debit(suite.cash, 10000), clerkID)
	suite.Require().NoError(err)

	_, err = suite.post(tx.TransactionID)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	msgs := apperrors.ValidationMessages(err)
	suite.Require().NotEmpty(msgs)
	suite.Contains(msgs[0], "transaction is unbalanced")
	suite.Empty(suite.journal())
}

func TestPostingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PostingServiceTestSuite))
}

// conflictingLedger fails the first failures commits with a version conflict.
type conflictingLedger struct {
	*memory.Store
	mu       sync.Mutex
	failures int
	calls    int
}

func (l *conflictingLedger) CommitPosting(ctx context.Context, commit domain.LedgerCommit) error {
	l.mu.Lock()
	l.calls++
	fail := l.calls <= l.failures
	l.mu.Unlock()
	if fail {
		return &apperrors.ConflictError{Resource: "account balance", ID: "acc", Expected: 0, Actual: 1}
	}
	return l.Store.CommitPosting(ctx, commit)
}

// mockChainLocker is a mock type for the ChainLocker interface
type mockChainLocker struct {
	mock.Mock
}

func (m *mockChainLocker) Acquire(ctx context.Context, chainID string, ttl time.Duration) (func(context.Context) error, error) {
	args := m.Called(ctx, chainID, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func(context.Context) error), args.Error(1)
}

func newPostingWith(f *ledgerFixture, ledger *conflictingLedger, locker *mockChainLocker, cfg services.PostingConfig) *ledgerFixture {
	opts := []services.Option{services.WithClock(func() time.Time { return fixedNow })}
	deps := services.PostingDeps{
		Transactions: f.store,
		Accounts:     f.store,
		Ledger:       ledger,
		Approvals:    f.store,
		Thresholds:   f.svc.Threshold,
		Validator:    f.svc.Validation,
		EdgeCases:    f.svc.EdgeCase,
	}
	if locker != nil {
		deps.Locker = locker
	}
	f.svc.Posting = services.NewPostingService(deps, cfg, opts...)
	return f
}

func TestPostingRetriesVersionConflicts(t *testing.T) {
	f := newLedgerFixture(t)
	cash := f.createAccount(t, "1000", domain.Asset, "bank", 0)
	revenue := f.createAccount(t, "4000", domain.Revenue, "", 0)
	ledger := &conflictingLedger{Store: f.store, failures: 2}
	newPostingWith(f, ledger, nil, services.PostingConfig{MaxRetries: 3, InitialInterval: time.Millisecond})
	tx := f.draft(t, "Consulting revenue for May", debit(cash, 10000), credit(revenue, 10000))

	result, err := f.svc.Posting.PostTransaction(context.Background(), companyID, dto.PostTransactionRequest{TransactionID: tx.TransactionID, ActorUserID: clerkID})

	if err != nil {
		t.Fatalf("expected posting to succeed after retries: %v", err)
	}
	if result.Status != dto.StatusPosted || ledger.calls != 3 {
		t.Fatalf("status %s after %d commits", result.Status, ledger.calls)
	}
	if got := f.balance(t, cash); got != 10000 {
		t.Fatalf("cash balance = %d", got)
	}
}

func TestPostingGivesUpAfterMaxRetries(t *testing.T) {
	f := newLedgerFixture(t)
	cash := f.createAccount(t, "1000", domain.Asset, "bank", 0)
	revenue := f.createAccount(t, "4000", domain.Revenue, "", 0)
	ledger := &conflictingLedger{Store: f.store, failures: 100}
	newPostingWith(f, ledger, nil, services.PostingConfig{MaxRetries: 2, InitialInterval: time.Millisecond})
	tx := f.draft(t, "Consulting revenue for May", debit(cash, 10000), credit(revenue, 10000))

	_, err := f.svc.Posting.PostTransaction(context.Background(), companyID, dto.PostTransactionRequest{TransactionID: tx.TransactionID, ActorUserID: clerkID})

	if !apperrors.IsRetryable(err) {
		t.Fatalf("expected a conflict error, got %v", err)
	}
	if ledger.calls != 3 {
		t.Fatalf("expected 3 commit attempts, got %d", ledger.calls)
	}
	if got := f.balance(t, cash); got != 0 {
		t.Fatalf("cash balance = %d", got)
	}
}

func TestPostingHoldsJournalChainLock(t *testing.T) {
	f := newLedgerFixture(t)
	cash := f.createAccount(t, "1000", domain.Asset, "bank", 0)
	revenue := f.createAccount(t, "4000", domain.Revenue, "", 0)
	released := false
	locker := new(mockChainLocker)
	locker.On("Acquire", mock.Anything, hashchain.JournalChainID(companyID), 5*time.Second).
		Return(func(context.Context) error { released = true; return nil }, nil).Once()
	newPostingWith(f, &conflictingLedger{Store: f.store}, locker, services.PostingConfig{MaxRetries: 1, LockTTL: 5 * time.Second})
	tx := f.draft(t, "Consulting revenue for May", debit(cash, 10000), credit(revenue, 10000))

	_, err := f.svc.Posting.PostTransaction(context.Background(), companyID, dto.PostTransactionRequest{TransactionID: tx.TransactionID, ActorUserID: clerkID})

	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	locker.AssertExpectations(t)
	if !released {
		t.Fatal("chain lock was not released")
	}
}

func TestPostingFailsWhenLockUnavailable(t *testing.T) {
	f := newLedgerFixture(t)
	locker := new(mockChainLocker)
	locker.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded).Once()
	newPostingWith(f, &conflictingLedger{Store: f.store}, locker, services.DefaultPostingConfig())

	_, err := f.svc.Posting.PostTransaction(context.Background(), companyID, dto.PostTransactionRequest{TransactionID: "tx-any", ActorUserID: clerkID})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestConcurrentPostingsKeepBalancesConsistent(t *testing.T) {
	f := newLedgerFixture(t)
	cash := f.createAccount(t, "1000", domain.Asset, "bank", 0)
	revenue := f.createAccount(t, "4000", domain.Revenue, "", 0)
	newPostingWith(f, &conflictingLedger{Store: f.store}, nil, services.PostingConfig{MaxRetries: 50, InitialInterval: time.Millisecond})

	const workers = 8
	ids := make([]string, workers)
	for i := range ids {
		ids[i] = f.draft(t, fmt.Sprintf("Consulting revenue batch %d", i), debit(cash, 1000), credit(revenue, 1000)).TransactionID
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.Posting.PostTransaction(context.Background(), companyID, dto.PostTransactionRequest{TransactionID: id, ActorUserID: clerkID})
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent post failed: %v", err)
		}
	}

	if got := f.balance(t, cash); got != workers*1000 {
		t.Fatalf("cash balance = %d, want %d", got, workers*1000)
	}
	integrity, err := f.svc.Audit.VerifyJournalChain(context.Background(), companyID)
	if err != nil || !integrity.Valid || integrity.VerifiedCount != workers {
		t.Fatalf("journal chain not intact: %+v %v", integrity, err)
	}
}
