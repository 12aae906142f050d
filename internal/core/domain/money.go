package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeAmount   = errors.New("money: amount must not be negative")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrMissingCurrency  = errors.New("money: currency is required")
	ErrInsufficient     = errors.New("money: result would be negative")
)

// Money is a non-negative amount in the smallest currency unit (cents).
// Signed balance deltas are plain int64 cents, not Money.
type Money struct {
	Cents    int64  `json:"cents"`
	Currency string `json:"currency"`
}

// NewMoney validates and returns a Money value.
func NewMoney(cents int64, currency string) (Money, error) {
	if currency == "" {
		return Money{}, ErrMissingCurrency
	}
	if cents < 0 {
		return Money{}, fmt.Errorf("%w: %d", ErrNegativeAmount, cents)
	}
	return Money{Cents: cents, Currency: currency}, nil
}

// Zero returns a zero amount in currency.
func Zero(currency string) Money {
	return Money{Currency: currency}
}

// Add returns m + other.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Cents: m.Cents + other.Cents, Currency: m.Currency}, nil
}

// Subtract returns m - other. The result must stay non-negative.
func (m Money) Subtract(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	if other.Cents > m.Cents {
		return Money{}, fmt.Errorf("%w: %d - %d", ErrInsufficient, m.Cents, other.Cents)
	}
	return Money{Cents: m.Cents - other.Cents, Currency: m.Currency}, nil
}

// Equals reports whether both amount and currency match.
func (m Money) Equals(other Money) bool {
	return m.Currency == other.Currency && m.Cents == other.Cents
}

// GreaterThan compares amounts of the same currency.
func (m Money) GreaterThan(other Money) (bool, error) {
	if m.Currency != other.Currency {
		return false, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return m.Cents > other.Cents, nil
}

func (m Money) IsZero() bool     { return m.Cents == 0 }
func (m Money) IsPositive() bool { return m.Cents > 0 }

// Decimal returns the amount in major units, e.g. 12345 cents -> 123.45.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Currency, m.Decimal().StringFixed(2))
}
