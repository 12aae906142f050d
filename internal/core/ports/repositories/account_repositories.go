package repositories

import (
	"context"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs. Missing IDs are simply absent from the map.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts retrieves a page of a company's accounts ordered by code.
	// It returns the accounts, a token for the next page, and an error.
	ListAccounts(ctx context.Context, companyID string, limit int, nextToken *string) ([]domain.Account, *string, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account together with its opening balance row.
	SaveAccount(ctx context.Context, account domain.Account, opening domain.AccountBalance) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
// This is a facade for clients that need access to all operations
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
