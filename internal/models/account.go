package models

import "time"

// AuditFields holds the creation and last-update stamps stored on every mutable row.
type AuditFields struct {
	CreatedAt     time.Time `db:"created_at"`
	CreatedBy     string    `db:"created_by"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
	LastUpdatedBy string    `db:"last_updated_by"`
}

// Account represents a row of the accounts table.
type Account struct {
	AccountID    string `db:"account_id"`
	CompanyID    string `db:"company_id"`
	Code         string `db:"code"`
	Name         string `db:"name"`
	AccountType  string `db:"account_type"`
	SubType      string `db:"sub_type"`
	CurrencyCode string `db:"currency_code"`
	Description  string `db:"description"`
	IsActive     bool   `db:"is_active"`
	AuditFields
}

// AccountBalance represents a row of the account_balances table.
// Version is compared on every update.
type AccountBalance struct {
	AccountID           string     `db:"account_id"`
	CompanyID           string     `db:"company_id"`
	CurrencyCode        string     `db:"currency_code"`
	CurrentBalanceCents int64      `db:"current_balance_cents"`
	OpeningBalanceCents int64      `db:"opening_balance_cents"`
	TotalDebitsCents    int64      `db:"total_debits_cents"`
	TotalCreditsCents   int64      `db:"total_credits_cents"`
	TransactionCount    int64      `db:"transaction_count"`
	LastActivityAt      *time.Time `db:"last_activity_at"` // Nullable
	Version             int64      `db:"version"`
}
