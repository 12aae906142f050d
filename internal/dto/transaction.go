package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/utils/accounting"
)

// LineInput is one raw line as submitted. Exactly one of DebitCents and CreditCents
// must be positive; the validation service reports every violation at once.
type LineInput struct {
	AccountID   string `json:"accountID"`
	DebitCents  int64  `json:"debitCents"`
	CreditCents int64  `json:"creditCents"`
	Memo        string `json:"memo" binding:"max=500"`
}

// Side returns the side carrying an amount, and that amount.
func (l LineInput) Side() (domain.Side, int64) {
	if l.DebitCents > 0 {
		return domain.Debit, l.DebitCents
	}
	return domain.Credit, l.CreditCents
}

// CreateTransactionRequest opens a draft transaction with its lines.
type CreateTransactionRequest struct {
	Date         string      `json:"date" binding:"required,datetime=2006-01-02"`
	Description  string      `json:"description" binding:"max=1000"`
	CurrencyCode string      `json:"currencyCode" binding:"required,iso4217"`
	Lines        []LineInput `json:"lines" binding:"dive"`
}

// ParsedDate returns Date as a UTC calendar date.
func (r CreateTransactionRequest) ParsedDate() (time.Time, error) {
	return time.Parse(domain.DateLayout, r.Date)
}

// TransactionLineResponse is one line of a transaction.
type TransactionLineResponse struct {
	LineID    string          `json:"lineID"`
	AccountID string          `json:"accountID"`
	Side      domain.Side     `json:"side"`
	Cents     int64           `json:"amountCents"`
	Amount    decimal.Decimal `json:"amount"`
	Memo      string          `json:"memo,omitempty"`
}

// TransactionResponse defines the data returned for a transaction.
type TransactionResponse struct {
	TransactionID string                    `json:"transactionID"`
	CompanyID     string                    `json:"companyID"`
	Date          string                    `json:"date"`
	Description   string                    `json:"description"`
	CurrencyCode  string                    `json:"currencyCode"`
	Status        domain.TransactionStatus  `json:"status"`
	TotalCents    int64                     `json:"totalCents"`
	ContentHash   string                    `json:"contentHash"`
	Lines         []TransactionLineResponse `json:"lines"`
	PostedAt      *time.Time                `json:"postedAt,omitempty"`
	PostedBy      string                    `json:"postedBy,omitempty"`
	VoidedAt      *time.Time                `json:"voidedAt,omitempty"`
	VoidedBy      string                    `json:"voidedBy,omitempty"`
	VoidReason    string                    `json:"voidReason,omitempty"`
	CreatedAt     time.Time                 `json:"createdAt"`
	CreatedBy     string                    `json:"createdBy"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(tx *domain.Transaction) TransactionResponse {
	lines := tx.Lines()
	out := make([]TransactionLineResponse, len(lines))
	for i, l := range lines {
		out[i] = TransactionLineResponse{
			LineID:    l.LineID,
			AccountID: l.AccountID,
			Side:      l.Side,
			Cents:     l.Amount.Cents,
			Amount:    accounting.CentsToDecimal(l.Amount.Cents),
			Memo:      l.Memo,
		}
	}
	return TransactionResponse{
		TransactionID: tx.TransactionID,
		CompanyID:     tx.CompanyID,
		Date:          tx.Date.Format(domain.DateLayout),
		Description:   tx.Description,
		CurrencyCode:  tx.CurrencyCode,
		Status:        tx.Status,
		TotalCents:    tx.Amount().Cents,
		ContentHash:   tx.ContentHash(),
		Lines:         out,
		PostedAt:      tx.PostedAt,
		PostedBy:      tx.PostedBy,
		VoidedAt:      tx.VoidedAt,
		VoidedBy:      tx.VoidedBy,
		VoidReason:    tx.VoidReason,
		CreatedAt:     tx.CreatedAt,
		CreatedBy:     tx.CreatedBy,
	}
}

// ListTransactionsParams defines query parameters for listing transactions.
type ListTransactionsParams struct {
	Limit     int     `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken *string `form:"nextToken"`
	Status    string  `form:"status" binding:"omitempty,oneof=DRAFT POSTED VOIDED"`
}

// ListTransactionsResponse wraps a page of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}
