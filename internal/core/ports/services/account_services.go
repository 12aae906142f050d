package services

import (
	"context"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// GetAccountByID retrieves an account of the company.
	GetAccountByID(ctx context.Context, companyID, accountID string) (*domain.Account, error)

	// ListAccounts retrieves a page of the company's chart of accounts.
	ListAccounts(ctx context.Context, companyID string, params dto.ListAccountsParams) (*dto.ListAccountsResponse, error)

	// GetAccountBalance retrieves the running balance of an account.
	GetAccountBalance(ctx context.Context, companyID, accountID string) (*domain.AccountBalance, error)
}

// AccountWriterSvc defines write operations for account data
type AccountWriterSvc interface {
	// CreateAccount creates an account and its opening balance at version 0.
	CreateAccount(ctx context.Context, companyID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
