package services

import (
	"context"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
)

// TransactionValidationSvc runs the hard-block structural rules. Rule violations are returned
// in the result; the error is reserved for infrastructure failures.
type TransactionValidationSvc interface {
	// Validate checks raw line input for a company.
	Validate(ctx context.Context, companyID string, lines []dto.LineInput) (*domain.ValidationResult, error)

	// ValidateTransaction checks the lines of an existing aggregate.
	ValidateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.ValidationResult, error)
}

// TransactionReaderSvc defines read operations for transaction data
type TransactionReaderSvc interface {
	// GetTransactionByID retrieves a transaction of the company.
	GetTransactionByID(ctx context.Context, companyID, transactionID string) (*domain.Transaction, error)

	// ListTransactions retrieves a page of the company's transactions.
	ListTransactions(ctx context.Context, companyID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// TransactionWriterSvc defines write operations on DRAFT transactions
type TransactionWriterSvc interface {
	// CreateTransaction validates the lines and opens a DRAFT transaction.
	CreateTransaction(ctx context.Context, companyID string, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error)

	// AddLine appends a line to a DRAFT transaction.
	AddLine(ctx context.Context, companyID, transactionID string, line dto.LineInput, userID string) (*domain.Transaction, error)
}

// TransactionSvcFacade combines all transaction-related service interfaces
type TransactionSvcFacade interface {
	TransactionReaderSvc
	TransactionWriterSvc
}
