package models

import "time"

// Transaction represents a row of the transactions table. Lines live in transaction_lines.
type Transaction struct {
	TransactionID   string     `db:"transaction_id"`
	CompanyID       string     `db:"company_id"`
	TransactionDate time.Time  `db:"transaction_date"`
	Description     string     `db:"description"`
	CurrencyCode    string     `db:"currency_code"`
	Status          string     `db:"status"`
	PostedAt        *time.Time `db:"posted_at"` // Nullable
	PostedBy        string     `db:"posted_by"`
	VoidedAt        *time.Time `db:"voided_at"` // Nullable
	VoidedBy        string     `db:"voided_by"`
	VoidReason      string     `db:"void_reason"`
	AuditFields
}

// TransactionLine represents one debit or credit row. LineNo keeps insertion order.
type TransactionLine struct {
	LineID        string `db:"line_id"`
	TransactionID string `db:"transaction_id"`
	LineNo        int    `db:"line_no"`
	AccountID     string `db:"account_id"`
	Side          string `db:"side"`
	AmountCents   int64  `db:"amount_cents"`
	CurrencyCode  string `db:"currency_code"`
	Memo          string `db:"memo"`
}

// BalanceChange represents a row of the append-only balance_changes table.
type BalanceChange struct {
	ChangeID           string    `db:"change_id"`
	CompanyID          string    `db:"company_id"`
	AccountID          string    `db:"account_id"`
	TransactionID      string    `db:"transaction_id"`
	Side               string    `db:"side"`
	AmountCents        int64     `db:"amount_cents"`
	BalanceBeforeCents int64     `db:"balance_before_cents"`
	NormalSide         string    `db:"normal_side"`
	ReversalOf         *string   `db:"reversal_of"` // Nullable
	CreatedAt          time.Time `db:"created_at"`
}
