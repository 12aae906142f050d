package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/utils/accounting"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Code                string             `json:"code" binding:"required,max=32"`
	Name                string             `json:"name" binding:"required,max=255"`
	AccountType         domain.AccountType `json:"accountType" binding:"required,accounttype"`
	SubType             string             `json:"subType" binding:"max=64"`
	CurrencyCode        string             `json:"currencyCode" binding:"required,iso4217"`
	Description         string             `json:"description"`
	OpeningBalanceCents int64              `json:"openingBalanceCents" binding:"omitempty,min=0"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID     string             `json:"accountID"`
	Code          string             `json:"code"`
	Name          string             `json:"name"`
	AccountType   domain.AccountType `json:"accountType"`
	SubType       string             `json:"subType"`
	NormalBalance domain.Side        `json:"normalBalance"`
	CurrencyCode  string             `json:"currencyCode"`
	Description   string             `json:"description"`
	IsActive      bool               `json:"isActive"`
	CreatedAt     time.Time          `json:"createdAt"`
	CreatedBy     string             `json:"createdBy"`
	LastUpdatedAt time.Time          `json:"lastUpdatedAt"`
	LastUpdatedBy string             `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:     acc.AccountID,
		Code:          acc.Code,
		Name:          acc.Name,
		AccountType:   acc.AccountType,
		SubType:       acc.SubType,
		NormalBalance: acc.NormalBalance(),
		CurrencyCode:  acc.CurrencyCode,
		Description:   acc.Description,
		IsActive:      acc.IsActive,
		CreatedAt:     acc.CreatedAt,
		CreatedBy:     acc.CreatedBy,
		LastUpdatedAt: acc.LastUpdatedAt,
		LastUpdatedBy: acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return res
}

// AccountBalanceResponse defines the data returned for an account balance query.
type AccountBalanceResponse struct {
	AccountID           string          `json:"accountID"`
	CurrencyCode        string          `json:"currencyCode"`
	Balance             decimal.Decimal `json:"balance"`
	CurrentBalanceCents int64           `json:"currentBalanceCents"`
	OpeningBalanceCents int64           `json:"openingBalanceCents"`
	TotalDebitsCents    int64           `json:"totalDebitsCents"`
	TotalCreditsCents   int64           `json:"totalCreditsCents"`
	TransactionCount    int64           `json:"transactionCount"`
	LastActivityAt      *time.Time      `json:"lastActivityAt,omitempty"`
	Version             int64           `json:"version"`
}

// ToAccountBalanceResponse converts a domain.AccountBalance to its DTO.
func ToAccountBalanceResponse(b *domain.AccountBalance) AccountBalanceResponse {
	return AccountBalanceResponse{
		AccountID:           b.AccountID,
		CurrencyCode:        b.CurrencyCode,
		Balance:             accounting.CentsToDecimal(b.CurrentBalanceCents),
		CurrentBalanceCents: b.CurrentBalanceCents,
		OpeningBalanceCents: b.OpeningBalanceCents,
		TotalDebitsCents:    b.TotalDebitsCents,
		TotalCreditsCents:   b.TotalCreditsCents,
		TransactionCount:    b.TransactionCount,
		LastActivityAt:      b.LastActivityAt,
		Version:             b.Version,
	}
}

// GetAccountResponse combines an account with its running balance.
type GetAccountResponse struct {
	Account AccountResponse        `json:"account"`
	Balance AccountBalanceResponse `json:"balance"`
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	Limit     int     `form:"limit,default=50" binding:"min=1,max=200"`
	NextToken *string `form:"nextToken"`
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts  []AccountResponse `json:"accounts"`
	NextToken *string           `json:"nextToken,omitempty"`
}
