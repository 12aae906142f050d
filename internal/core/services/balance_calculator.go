package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
)

// BalanceCalculator turns transaction lines into balance changes. It is pure: it reads the
// balances it is given and never touches storage.
type BalanceCalculator struct {
	newID func() string
}

// NewBalanceCalculator creates a calculator. A nil newID uses uuid.NewString.
func NewBalanceCalculator(newID func() string) *BalanceCalculator {
	if newID == nil {
		newID = uuid.NewString
	}
	return &BalanceCalculator{newID: newID}
}

// Delta is the signed effect of amountCents on side for an account with the given normal balance.
func (c *BalanceCalculator) Delta(normal, side domain.Side, amountCents int64) int64 {
	return domain.SignedDelta(normal, side, amountCents)
}

// Project returns current moved by delta. The result may be negative.
func (c *BalanceCalculator) Project(current, delta int64) int64 {
	return current + delta
}

// BuildChanges produces one change per line, threading BalanceBefore through repeated accounts.
// It returns the changes and every touched account's projected balance. An account with no
// stored balance row starts from zero at version 0.
func (c *BalanceCalculator) BuildChanges(tx *domain.Transaction, accounts map[string]domain.Account, balances map[string]domain.AccountBalance, at time.Time) ([]domain.BalanceChange, map[string]int64, error) {
	lines := tx.Lines()
	projected := make(map[string]int64, len(lines))
	changes := make([]domain.BalanceChange, 0, len(lines))

	for _, line := range lines {
		acc, ok := accounts[line.AccountID]
		if !ok {
			return nil, nil, apperrors.NewNotFoundError("account", line.AccountID)
		}
		current, seen := projected[line.AccountID]
		if !seen {
			current = balanceOrZero(balances, tx.CompanyID, acc).CurrentBalanceCents
		}

		change := domain.BalanceChange{
			ChangeID:           c.newID(),
			CompanyID:          tx.CompanyID,
			AccountID:          line.AccountID,
			TransactionID:      tx.TransactionID,
			Side:               line.Side,
			AmountCents:        line.Amount.Cents,
			BalanceBeforeCents: current,
			NormalSide:         acc.NormalBalance(),
			CreatedAt:          at.UTC(),
		}
		changes = append(changes, change)
		projected[line.AccountID] = c.Project(current, change.Delta())
	}
	return changes, projected, nil
}

// BuildReversals inverts each original change against the current balances. Changes that
// are themselves reversals are skipped.
func (c *BalanceCalculator) BuildReversals(original []domain.BalanceChange, balances map[string]domain.AccountBalance, at time.Time) ([]domain.BalanceChange, map[string]int64, error) {
	projected := make(map[string]int64, len(original))
	reversals := make([]domain.BalanceChange, 0, len(original))

	for _, change := range original {
		if change.IsReversal() {
			continue
		}
		current, seen := projected[change.AccountID]
		if !seen {
			bal, ok := balances[change.AccountID]
			if !ok {
				return nil, nil, apperrors.NewNotFoundError("account balance", change.AccountID)
			}
			current = bal.CurrentBalanceCents
		}
		reversal := change.Reverse(c.newID(), current, at)
		reversals = append(reversals, reversal)
		projected[change.AccountID] = c.Project(current, reversal.Delta())
	}
	return reversals, projected, nil
}

// ApplyChanges applies changes to copies of the balances and returns one update per touched
// account, ordered by account id, each carrying the version it was read at.
func (c *BalanceCalculator) ApplyChanges(companyID string, accounts map[string]domain.Account, balances map[string]domain.AccountBalance, changes []domain.BalanceChange, at time.Time) ([]domain.BalanceUpdate, error) {
	working := make(map[string]*domain.AccountBalance, len(changes))
	expected := make(map[string]int64, len(changes))

	for _, change := range changes {
		bal, ok := working[change.AccountID]
		if !ok {
			acc, found := accounts[change.AccountID]
			if !found {
				return nil, apperrors.NewNotFoundError("account", change.AccountID)
			}
			b := balanceOrZero(balances, companyID, acc)
			expected[change.AccountID] = b.Version
			bal = &b
			working[change.AccountID] = bal
		}
		if err := bal.Apply(change, at); err != nil {
			return nil, fmt.Errorf("applying change %s: %w", change.ChangeID, err)
		}
	}

	ids := make([]string, 0, len(working))
	for id := range working {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	updates := make([]domain.BalanceUpdate, len(ids))
	for i, id := range ids {
		updates[i] = domain.BalanceUpdate{Balance: *working[id], ExpectedVersion: expected[id]}
	}
	return updates, nil
}

func balanceOrZero(balances map[string]domain.AccountBalance, companyID string, acc domain.Account) domain.AccountBalance {
	if b, ok := balances[acc.AccountID]; ok {
		return b
	}
	return domain.NewAccountBalance(companyID, acc.AccountID, acc.CurrencyCode, 0)
}
