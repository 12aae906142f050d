package domain

import "strings"

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the five account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// NormalBalance is the side on which the account type naturally increases.
func (t AccountType) NormalBalance() Side {
	switch t {
	case Asset, Expense:
		return Debit
	default:
		return Credit
	}
}

// Side indicates whether a line is a Debit or a Credit.
type Side string

const (
	Debit  Side = "DEBIT"
	Credit Side = "CREDIT"
)

func (s Side) IsValid() bool {
	return s == Debit || s == Credit
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Debit {
		return Credit
	}
	return Debit
}

// SignedDelta is the effect of a line on an account balance expressed in the
// account's normal terms: same side as the normal balance increases it.
func SignedDelta(normal, side Side, amountCents int64) int64 {
	if normal == side {
		return amountCents
	}
	return -amountCents
}

// Sub types that hold liquid funds. Credits to these are ordinary payments, not write-downs.
var cashLikeSubTypes = map[string]bool{
	"cash":            true,
	"bank":            true,
	"petty_cash":      true,
	"cash_in_transit": true,
}

// Account represents a company-scoped chart-of-accounts entry.
type Account struct {
	AccountID    string      `json:"accountID"`
	CompanyID    string      `json:"companyID"`
	Code         string      `json:"code"`
	Name         string      `json:"name"`
	AccountType  AccountType `json:"accountType"`
	SubType      string      `json:"subType"` // e.g. cash, bank, receivable, inventory, fixed_asset
	CurrencyCode string      `json:"currencyCode"`
	Description  string      `json:"description"`
	IsActive     bool        `json:"isActive"`
	AuditFields
}

// NormalBalance returns the side on which this account increases.
func (a Account) NormalBalance() Side {
	return a.AccountType.NormalBalance()
}

// IsCashLike reports whether the account holds liquid funds.
func (a Account) IsCashLike() bool {
	return cashLikeSubTypes[strings.ToLower(a.SubType)]
}

// ApplyDebit returns balance after debiting amountCents.
func (a Account) ApplyDebit(balance, amountCents int64) int64 {
	return balance + SignedDelta(a.NormalBalance(), Debit, amountCents)
}

// ApplyCredit returns balance after crediting amountCents.
func (a Account) ApplyCredit(balance, amountCents int64) int64 {
	return balance + SignedDelta(a.NormalBalance(), Credit, amountCents)
}
