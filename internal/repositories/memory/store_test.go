package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/hashchain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/repositories/memory"
)

var testNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func newAccount(id, code string, typ domain.AccountType) domain.Account {
	return domain.Account{
		AccountID:    id,
		CompanyID:    "co-1",
		Code:         code,
		Name:         "Account " + code,
		AccountType:  typ,
		CurrencyCode: "USD",
		IsActive:     true,
		AuditFields:  domain.NewAuditFields("user-1", testNow),
	}
}

func seedAccounts(t *testing.T, s *memory.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SaveAccount(ctx, newAccount("acc-cash", "1000", domain.Asset), domain.NewAccountBalance("co-1", "acc-cash", "USD", 0)))
	require.NoError(t, s.SaveAccount(ctx, newAccount("acc-rev", "4000", domain.Revenue), domain.NewAccountBalance("co-1", "acc-rev", "USD", 0)))
}

func newPostedCommit(t *testing.T, s *memory.Store, txID string, cents int64) domain.LedgerCommit {
	t.Helper()
	ctx := context.Background()

	tx, err := domain.NewTransaction(domain.NewTransactionParams{
		TransactionID: txID,
		CompanyID:     "co-1",
		Date:          testNow,
		Description:   "Invoice payment",
		CurrencyCode:  "USD",
		CreatedBy:     "user-1",
		Now:           testNow,
	})
	require.NoError(t, err)
	for i, side := range []domain.Side{domain.Debit, domain.Credit} {
		account := "acc-cash"
		if side == domain.Credit {
			account = "acc-rev"
		}
		line, err := domain.NewTransactionLine(txID+"-l"+string(rune('0'+i)), account, side, domain.Money{Cents: cents, Currency: "USD"}, "")
		require.NoError(t, err)
		require.NoError(t, tx.AddLine(line))
	}
	require.NoError(t, s.SaveTransaction(ctx, tx))
	require.NoError(t, tx.Post("user-1", testNow))

	balances, err := s.GetAccountBalances(ctx, "co-1", []string{"acc-cash", "acc-rev"})
	require.NoError(t, err)

	var updates []domain.BalanceUpdate
	var changes []domain.BalanceChange
	for _, id := range []string{"acc-cash", "acc-rev"} {
		bal := balances[id]
		side := domain.Debit
		if id == "acc-rev" {
			side = domain.Credit
		}
		change := domain.BalanceChange{
			ChangeID:           txID + "-" + id,
			CompanyID:          "co-1",
			AccountID:          id,
			TransactionID:      txID,
			Side:               side,
			AmountCents:        cents,
			BalanceBeforeCents: bal.CurrentBalanceCents,
			NormalSide:         side,
			CreatedAt:          testNow,
		}
		expected := bal.Version
		require.NoError(t, bal.Apply(change, testNow))
		updates = append(updates, domain.BalanceUpdate{Balance: bal, ExpectedVersion: expected})
		changes = append(changes, change)
	}

	return domain.LedgerCommit{
		Transaction: tx,
		Updates:     updates,
		Changes:     changes,
		Entry:       domain.NewJournalEntry("je-"+txID, domain.EntryPosting, tx, "user-1", testNow),
	}
}

func TestStore_SaveAccountRejectsDuplicateCode(t *testing.T) {
	s := memory.New(domain.DefaultEdgeCaseThresholds())
	seedAccounts(t, s)

	err := s.SaveAccount(context.Background(), newAccount("acc-other", "1000", domain.Asset), domain.NewAccountBalance("co-1", "acc-other", "USD", 0))
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestStore_ListAccountsPaginates(t *testing.T) {
	ctx := context.Background()
	s := memory.New(domain.DefaultEdgeCaseThresholds())
	seedAccounts(t, s)
	require.NoError(t, s.SaveAccount(ctx, newAccount("acc-ap", "2000", domain.Liability), domain.NewAccountBalance("co-1", "acc-ap", "USD", 0)))

	page, next, err := s.ListAccounts(ctx, "co-1", 2, nil)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	assert.Equal(t, "1000", page[0].Code)
	assert.Equal(t, "2000", page[1].Code)

	page, next, err = s.ListAccounts(ctx, "co-1", 2, next)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Nil(t, next)
	assert.Equal(t, "4000", page[0].Code)

	other, _, err := s.ListAccounts(ctx, "co-2", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_TransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := memory.New(domain.DefaultEdgeCaseThresholds())
	seedAccounts(t, s)

	commit := newPostedCommit(t, s, "tx-1", 500)
	stored, err := s.FindTransactionByID(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, stored.Status)
	assert.Len(t, stored.Lines(), 2)
	assert.Empty(t, stored.PendingEvents())

	err = s.SaveTransaction(ctx, commit.Transaction)
	assert.Error(t, err, "posted transactions are only written through CommitPosting")

	_, err = s.FindTransactionByID(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_CommitPostingLinksChain(t *testing.T) {
	ctx := context.Background()
	s := memory.New(domain.DefaultEdgeCaseThresholds())
	seedAccounts(t, s)

	first := newPostedCommit(t, s, "tx-1", 500)
	require.NoError(t, s.CommitPosting(ctx, first))
	second := newPostedCommit(t, s, "tx-2", 250)
	require.NoError(t, s.CommitPosting(ctx, second))

	entries, err := s.ListJournalEntries(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].Sequence)
	assert.Equal(t, hashchain.Genesis(hashchain.JournalChainID("co-1")), entries[0].PreviousHash)
	assert.Equal(t, entries[0].ChainHash, entries[1].PreviousHash)

	links := []hashchain.Link{entries[0].ToLink(), entries[1].ToLink()}
	assert.True(t, hashchain.Verify(hashchain.JournalChainID("co-1"), links).Valid)

	cash, err := s.GetAccountBalance(ctx, "co-1", "acc-cash")
	require.NoError(t, err)
	assert.Equal(t, int64(750), cash.CurrentBalanceCents)
	assert.Equal(t, int64(2), cash.Version)

	tx, err := s.FindTransactionByID(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPosted, tx.Status)

	changes, err := s.FindBalanceChangesByTransaction(ctx, "tx-2")
	require.NoError(t, err)
	assert.Len(t, changes, 2)
}

func TestStore_CommitPostingConflictLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	s := memory.New(domain.DefaultEdgeCaseThresholds())
	seedAccounts(t, s)

	stale := newPostedCommit(t, s, "tx-1", 500)
	winner := newPostedCommit(t, s, "tx-2", 100)
	require.NoError(t, s.CommitPosting(ctx, winner))

	err := s.CommitPosting(ctx, stale)
	var conflict *apperrors.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "acc-cash", conflict.ID)
	assert.Equal(t, int64(0), conflict.Expected)
	assert.Equal(t, int64(1), conflict.Actual)

	tx, err := s.FindTransactionByID(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, tx.Status)
	entries, err := s.ListJournalEntries(ctx, "co-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	changes, err := s.FindBalanceChangesByTransaction(ctx, "tx-1")
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestStore_CommitPostingRejectsDoublePost(t *testing.T) {
	ctx := context.Background()
	s := memory.New(domain.DefaultEdgeCaseThresholds())
	seedAccounts(t, s)

	commit := newPostedCommit(t, s, "tx-1", 500)
	require.NoError(t, s.CommitPosting(ctx, commit))

	err := s.CommitPosting(ctx, commit)
	var conflict *apperrors.ConflictError
	assert.True(t, errors.As(err, &conflict))
}

func TestStore_SaveBalanceChecksVersion(t *testing.T) {
	ctx := context.Background()
	s := memory.New(domain.DefaultEdgeCaseThresholds())

	bal := domain.NewAccountBalance("co-1", "acc-new", "USD", 0)
	bal.Version = 1
	require.NoError(t, s.SaveBalance(ctx, bal, 0), "a missing row is version 0")

	bal.Version = 2
	err := s.SaveBalance(ctx, bal, 0)
	var conflict *apperrors.ConflictError
	assert.True(t, errors.As(err, &conflict))
}

func TestStore_Approvals(t *testing.T) {
	ctx := context.Background()
	s := memory.New(domain.DefaultEdgeCaseThresholds())

	request := func(id string, typ domain.ApprovalType, at time.Time) *domain.Approval {
		a, err := domain.RequestApproval(domain.ApprovalRequest{
			ApprovalID:  id,
			CompanyID:   "co-1",
			Type:        typ,
			EntityType:  domain.EntityTypeTransaction,
			EntityID:    "tx-1",
			RequestedBy: "user-1",
			RequestedAt: at,
		})
		require.NoError(t, err)
		require.NoError(t, s.SaveApproval(ctx, a))
		return a
	}
	request("ap-1", domain.ApprovalHighValue, testNow)
	request("ap-2", domain.ApprovalNegativeBalance, testNow)

	latest, err := s.FindLatestForEntity(ctx, domain.EntityTypeTransaction, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "ap-2", latest.ApprovalID)

	pending, err := s.FindPendingByCompany(ctx, "co-1", 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "ap-2", pending[0].ApprovalID, "priority 1 sorts first")

	overdue, err := s.FindOverdue(ctx, testNow.Add(13*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "ap-2", overdue[0].ApprovalID)

	_, err = s.FindLatestForEntity(ctx, domain.EntityTypeTransaction, "tx-unknown")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_AppendActivityLinksPerChain(t *testing.T) {
	ctx := context.Background()
	s := memory.New(domain.DefaultEdgeCaseThresholds())

	for i := 0; i < 3; i++ {
		a := domain.NewActivityLog("act-"+string(rune('a'+i)), "co-1", "user-1", "transaction.created", domain.EntityTypeTransaction, "tx-1", nil, testNow)
		require.NoError(t, s.AppendActivity(ctx, a))
		assert.Equal(t, int64(i+1), a.Sequence)
	}
	sys := domain.NewActivityLog("act-sys", "", domain.SystemActor, "system.started", "system", "boot", nil, testNow)
	require.NoError(t, s.AppendActivity(ctx, sys))
	assert.Equal(t, int64(1), sys.Sequence)

	records, err := s.ListActivities(ctx, hashchain.ActivityChainID("co-1"))
	require.NoError(t, err)
	require.Len(t, records, 3)
	links := make([]hashchain.Link, len(records))
	for i := range records {
		links[i] = records[i].ToLink()
	}
	assert.True(t, hashchain.Verify(hashchain.ActivityChainID("co-1"), links).Valid)
}

func TestStore_ThresholdsFallBackToDefaults(t *testing.T) {
	ctx := context.Background()
	s := memory.New(domain.DefaultEdgeCaseThresholds())

	th, err := s.GetForCompany(ctx, "co-1")
	require.NoError(t, err)
	assert.Equal(t, "co-1", th.CompanyID)
	assert.Equal(t, int64(1_000_000), th.LargeAmountCents)

	th.ApprovalThresholdCents = 50_000
	require.NoError(t, s.SaveForCompany(ctx, th))
	th, err = s.GetForCompany(ctx, "co-1")
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), th.ApprovalThresholdCents)
}
