package repositories

import (
	"context"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
)

// BalanceReader defines read operations for running account balances
type BalanceReader interface {
	// GetAccountBalance retrieves one account's balance.
	GetAccountBalance(ctx context.Context, companyID, accountID string) (*domain.AccountBalance, error)

	// GetAccountBalances retrieves the balances of several accounts. Accounts without a row are absent.
	GetAccountBalances(ctx context.Context, companyID string, accountIDs []string) (map[string]domain.AccountBalance, error)

	// FindBalanceChangesByTransaction lists the balance changes recorded for a transaction, in creation order.
	FindBalanceChangesByTransaction(ctx context.Context, transactionID string) ([]domain.BalanceChange, error)
}

// JournalReader defines read operations for the append-only journal
type JournalReader interface {
	// FindJournalEntryByID retrieves one journal entry.
	FindJournalEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// FindJournalEntriesByTransaction lists the POSTING and REVERSAL entries of a transaction.
	FindJournalEntriesByTransaction(ctx context.Context, transactionID string) ([]domain.JournalEntry, error)

	// ListJournalEntries returns a company's whole journal chain in sequence order.
	ListJournalEntries(ctx context.Context, companyID string) ([]domain.JournalEntry, error)
}

// LedgerWriter defines the write operations that move money
type LedgerWriter interface {
	// SaveBalance stores balance if the stored version still equals expectedVersion.
	// A mismatch returns *apperrors.ConflictError.
	SaveBalance(ctx context.Context, balance domain.AccountBalance, expectedVersion int64) error

	// CommitPosting makes the transaction status, every balance update, the balance change
	// history, the journal entry and the optional approval durable in one database transaction.
	// The entry is linked to its chain head inside that transaction. Any version mismatch
	// rolls everything back and returns *apperrors.ConflictError.
	CommitPosting(ctx context.Context, commit domain.LedgerCommit) error
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces
// This is a facade for clients that need access to all operations
type LedgerRepositoryFacade interface {
	BalanceReader
	JournalReader
	LedgerWriter
}
