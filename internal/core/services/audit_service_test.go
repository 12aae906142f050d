package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/hashchain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/repositories/memory"
)

// tamperedJournal serves the stored journal with one entry rewritten by tamper.
type tamperedJournal struct {
	*memory.Store
	entryID string
	tamper  func(e *domain.JournalEntry)
}

func (j tamperedJournal) ListJournalEntries(ctx context.Context, companyID string) ([]domain.JournalEntry, error) {
	entries, err := j.Store.ListJournalEntries(ctx, companyID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].EntryID == j.entryID {
			j.tamper(&entries[i])
		}
	}
	return entries, nil
}

func postThree(t *testing.T, f *ledgerFixture) []string {
	t.Helper()
	cash := f.createAccount(t, "1000", domain.Asset, "bank", 0)
	revenue := f.createAccount(t, "4000", domain.Revenue, "", 0)
	var ids []string
	for _, desc := range []string{"Consulting revenue for May", "Consulting revenue for June", "Consulting revenue for July"} {
		tx := f.draft(t, desc, debit(cash, 1000), credit(revenue, 1000))
		res, err := f.svc.Posting.PostTransaction(context.Background(), companyID, dto.PostTransactionRequest{TransactionID: tx.TransactionID, ActorUserID: clerkID})
		require.NoError(t, err)
		ids = append(ids, res.JournalEntryID)
	}
	return ids
}

func TestAuditService_DetectsTamperedJournalEntry(t *testing.T) {
	tests := map[string]func(e *domain.JournalEntry){
		"payload": func(e *domain.JournalEntry) {
			e.Payload = map[string]any{"entryType": "POSTING", "transaction": "rewritten"}
		},
		"entry type":     func(e *domain.JournalEntry) { e.EntryType = domain.EntryReversal },
		"transaction id": func(e *domain.JournalEntry) { e.TransactionID = "tx-someone-else" },
		"company id":     func(e *domain.JournalEntry) { e.CompanyID = "co-other" },
		"created by":     func(e *domain.JournalEntry) { e.CreatedBy = "mallory" },
	}

	for name, tamper := range tests {
		t.Run(name, func(t *testing.T) {
			f := newLedgerFixture(t)
			ids := postThree(t, f)
			audit := services.NewAuditService(tamperedJournal{Store: f.store, entryID: ids[1], tamper: tamper}, f.store)

			result, err := audit.VerifyJournalChain(context.Background(), companyID)

			require.NoError(t, err)
			assert.False(t, result.Valid)
			assert.Equal(t, ids[1], result.BrokenEntryID)
			assert.Equal(t, 1, result.VerifiedCount)
			assert.Equal(t, "content hash mismatch", result.Reason)
			assert.ErrorIs(t, result.Err(), apperrors.ErrIntegrity)
		})
	}
}

func TestAuditService_UntamperedJournalVerifies(t *testing.T) {
	f := newLedgerFixture(t)
	postThree(t, f)

	result, err := f.svc.Audit.VerifyJournalChain(context.Background(), companyID)

	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 3, result.VerifiedCount)
}

func TestAuditService_ProveJournalEntry(t *testing.T) {
	f := newLedgerFixture(t)
	ids := postThree(t, f)

	proof, err := f.svc.Audit.ProveJournalEntry(context.Background(), companyID, ids[2])

	require.NoError(t, err)
	assert.True(t, proof.Verified)
	assert.Equal(t, int64(3), proof.Sequence)
	assert.Equal(t, 3, proof.BatchSize)
	assert.Equal(t, 2, proof.LeafIndex)
	assert.NotEmpty(t, proof.Root)

	_, err = f.svc.Audit.ProveJournalEntry(context.Background(), companyID, "je-missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAuditService_RecordEventBuildsActivityChains(t *testing.T) {
	store := memory.New(domain.DefaultEdgeCaseThresholds())
	audit := services.NewAuditService(store, store)
	recorder := services.NewActivityRecorder(audit)
	ctx := context.Background()

	for _, name := range []domain.EventName{domain.EventTransactionCreated, domain.EventTransactionPosted} {
		e := domain.NewDomainEvent(name, fixedNow, companyID, clerkID, domain.EntityTypeTransaction, "tx-1", map[string]any{"transactionId": "tx-1"})
		require.NoError(t, recorder.Handle(ctx, e))
	}
	system := domain.NewDomainEvent(domain.EventApprovalExpired, fixedNow, "", domain.SystemActor, "approval", "ap-1", nil)
	logged, err := audit.RecordEvent(ctx, system)
	require.NoError(t, err)
	assert.Equal(t, hashchain.ActivityChainID(""), logged.ChainID)
	assert.Equal(t, int64(1), logged.Sequence)

	result, err := audit.VerifyActivityChain(ctx, companyID)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 2, result.VerifiedCount)

	records, err := store.ListActivities(ctx, hashchain.ActivityChainID(companyID))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, string(domain.EventTransactionPosted), records[1].Action)
	assert.Equal(t, clerkID, records[1].ActorID)

	sysResult, err := audit.VerifyActivityChain(ctx, "")
	require.NoError(t, err)
	assert.True(t, sysResult.Valid)
	assert.Equal(t, 1, sysResult.VerifiedCount)
}
