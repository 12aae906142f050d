package repositories

import (
	"context"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
)

// TransactionReader defines read operations for transaction data
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction with its full line list.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactions retrieves a page of a company's transactions, newest date first.
	// An empty status lists every status.
	ListTransactions(ctx context.Context, companyID string, status domain.TransactionStatus, limit int, nextToken *string) ([]*domain.Transaction, *string, error)
}

// TransactionWriter defines write operations for transaction data
type TransactionWriter interface {
	// SaveTransaction inserts or replaces a DRAFT transaction and its lines.
	// Status changes to POSTED or VOIDED only happen through LedgerWriter.CommitPosting.
	SaveTransaction(ctx context.Context, tx *domain.Transaction) error
}

// TransactionRepositoryFacade combines all transaction-related repository interfaces
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}
