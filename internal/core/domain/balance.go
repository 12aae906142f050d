package domain

import (
	"fmt"
	"time"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
)

// AccountBalance is the running total of one account, guarded by Version for optimistic concurrency.
// CurrentBalanceCents is expressed in the account's normal terms and may go negative.
type AccountBalance struct {
	CompanyID           string     `json:"companyID"`
	AccountID           string     `json:"accountID"`
	CurrencyCode        string     `json:"currencyCode"`
	CurrentBalanceCents int64      `json:"currentBalanceCents"`
	OpeningBalanceCents int64      `json:"openingBalanceCents"`
	TotalDebitsCents    int64      `json:"totalDebitsCents"`
	TotalCreditsCents   int64      `json:"totalCreditsCents"`
	TransactionCount    int64      `json:"transactionCount"`
	LastActivityAt      *time.Time `json:"lastActivityAt,omitempty"`
	Version             int64      `json:"version"`
}

// NewAccountBalance starts a balance at its opening amount with version 0.
func NewAccountBalance(companyID, accountID, currency string, openingCents int64) AccountBalance {
	return AccountBalance{
		CompanyID:           companyID,
		AccountID:           accountID,
		CurrencyCode:        currency,
		CurrentBalanceCents: openingCents,
		OpeningBalanceCents: openingCents,
	}
}

// Apply adds the change's delta and increments Version. The change must have been computed
// against the current balance; otherwise another writer got there first.
func (b *AccountBalance) Apply(change BalanceChange, at time.Time) error {
	if change.AccountID != b.AccountID {
		return fmt.Errorf("balance change for account %s applied to account %s", change.AccountID, b.AccountID)
	}
	if change.BalanceBeforeCents != b.CurrentBalanceCents {
		return &apperrors.ConflictError{
			Resource: "account balance",
			ID:       b.AccountID,
			Expected: change.BalanceBeforeCents,
			Actual:   b.CurrentBalanceCents,
		}
	}

	b.CurrentBalanceCents += change.Delta()
	if change.Side == Debit {
		b.TotalDebitsCents += change.AmountCents
	} else {
		b.TotalCreditsCents += change.AmountCents
	}
	b.TransactionCount++
	ts := at.UTC()
	b.LastActivityAt = &ts
	b.Version++
	return nil
}

// BalanceChange captures one delta against one account. It is never mutated;
// a reversal is a new change on the opposite side.
type BalanceChange struct {
	ChangeID           string    `json:"changeID"`
	CompanyID          string    `json:"companyID"`
	AccountID          string    `json:"accountID"`
	TransactionID      string    `json:"transactionID"`
	Side               Side      `json:"side"`
	AmountCents        int64     `json:"amountCents"`
	BalanceBeforeCents int64     `json:"balanceBeforeCents"`
	NormalSide         Side      `json:"normalSide"`
	ReversalOf         string    `json:"reversalOf,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Delta is the signed effect on the balance in normal terms.
func (c BalanceChange) Delta() int64 {
	return SignedDelta(c.NormalSide, c.Side, c.AmountCents)
}

// BalanceAfter is the balance once this change is applied.
func (c BalanceChange) BalanceAfter() int64 {
	return c.BalanceBeforeCents + c.Delta()
}

// IsIncrease reports whether the change grows the balance in normal terms.
func (c BalanceChange) IsIncrease() bool {
	return c.Delta() > 0
}

// IsReversal reports whether this change undoes an earlier one.
func (c BalanceChange) IsReversal() bool {
	return c.ReversalOf != ""
}

// Reverse returns the change that undoes c, computed against balanceBefore.
func (c BalanceChange) Reverse(changeID string, balanceBefore int64, at time.Time) BalanceChange {
	return BalanceChange{
		ChangeID:           changeID,
		CompanyID:          c.CompanyID,
		AccountID:          c.AccountID,
		TransactionID:      c.TransactionID,
		Side:               c.Side.Opposite(),
		AmountCents:        c.AmountCents,
		BalanceBeforeCents: balanceBefore,
		NormalSide:         c.NormalSide,
		ReversalOf:         c.ChangeID,
		CreatedAt:          at.UTC(),
	}
}

// BalanceUpdate pairs a mutated balance with the version it was read at,
// which the store compares before writing.
type BalanceUpdate struct {
	Balance         AccountBalance
	ExpectedVersion int64
}

// LedgerCommit is everything that must become durable together when a transaction is posted or voided.
type LedgerCommit struct {
	Transaction *Transaction
	Updates     []BalanceUpdate
	Changes     []BalanceChange
	Entry       *JournalEntry // linked to the chain head by the writer
	Approval    *Approval     // optional, resolved in the same commit
}
