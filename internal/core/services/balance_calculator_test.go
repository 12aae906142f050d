package services_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/services"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("chg-%d", n)
	}
}

func TestBalanceCalculator_Delta(t *testing.T) {
	calc := services.NewBalanceCalculator(nil)

	tests := []struct {
		name   string
		normal domain.Side
		side   domain.Side
		want   int64
	}{
		{"asset debit increases", domain.Debit, domain.Debit, 100},
		{"asset credit decreases", domain.Debit, domain.Credit, -100},
		{"revenue credit increases", domain.Credit, domain.Credit, 100},
		{"revenue debit decreases", domain.Credit, domain.Debit, -100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, calc.Delta(tc.normal, tc.side, 100))
		})
	}
	assert.Equal(t, int64(-40), calc.Project(60, -100))
}

func calcTransaction(t *testing.T, lines ...domain.TransactionLine) *domain.Transaction {
	t.Helper()
	tx, err := domain.NewTransaction(domain.NewTransactionParams{
		TransactionID: "tx-1", CompanyID: companyID, Date: fixedNow, Description: "Split payment",
		CurrencyCode: "USD", CreatedBy: clerkID, Now: fixedNow,
	})
	require.NoError(t, err)
	for _, l := range lines {
		require.NoError(t, tx.AddLine(l))
	}
	return tx
}

func calcLine(t *testing.T, id, account string, side domain.Side, cents int64) domain.TransactionLine {
	t.Helper()
	l, err := domain.NewTransactionLine(id, account, side, domain.Money{Cents: cents, Currency: "USD"}, "")
	require.NoError(t, err)
	return l
}

func TestBalanceCalculator_BuildChangesThreadsRepeatedAccounts(t *testing.T) {
	calc := services.NewBalanceCalculator(sequentialIDs())
	accounts := map[string]domain.Account{
		"cash":    {AccountID: "cash", AccountType: domain.Asset, CurrencyCode: "USD"},
		"revenue": {AccountID: "revenue", AccountType: domain.Revenue, CurrencyCode: "USD"},
	}
	balances := map[string]domain.AccountBalance{
		"cash": domain.NewAccountBalance(companyID, "cash", "USD", 1000),
	}
	tx := calcTransaction(t,
		calcLine(t, "l1", "cash", domain.Debit, 300),
		calcLine(t, "l2", "cash", domain.Debit, 200),
		calcLine(t, "l3", "revenue", domain.Credit, 500),
	)

	changes, projected, err := calc.BuildChanges(tx, accounts, balances, fixedNow)

	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, int64(1000), changes[0].BalanceBeforeCents)
	assert.Equal(t, int64(1300), changes[1].BalanceBeforeCents)
	assert.Equal(t, int64(0), changes[2].BalanceBeforeCents, "missing balance row starts at zero")
	assert.Equal(t, "chg-1", changes[0].ChangeID)
	assert.Equal(t, map[string]int64{"cash": 1500, "revenue": 500}, projected)

	updates, err := calc.ApplyChanges(companyID, accounts, balances, changes, fixedNow)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, "cash", updates[0].Balance.AccountID)
	assert.Equal(t, int64(1500), updates[0].Balance.CurrentBalanceCents)
	assert.Equal(t, int64(0), updates[0].ExpectedVersion)
	assert.Equal(t, int64(2), updates[0].Balance.Version)
	assert.Equal(t, int64(500), updates[0].Balance.TotalDebitsCents)
	assert.Equal(t, "revenue", updates[1].Balance.AccountID)
	assert.Equal(t, int64(500), updates[1].Balance.TotalCreditsCents)
	assert.Equal(t, int64(1), updates[1].Balance.Version)

	assert.Equal(t, int64(1000), balances["cash"].CurrentBalanceCents, "inputs are not mutated")
}

func TestBalanceCalculator_BuildChangesUnknownAccount(t *testing.T) {
	calc := services.NewBalanceCalculator(nil)
	tx := calcTransaction(t, calcLine(t, "l1", "ghost", domain.Debit, 100))

	_, _, err := calc.BuildChanges(tx, map[string]domain.Account{}, nil, fixedNow)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBalanceCalculator_BuildReversalsRestoresBalances(t *testing.T) {
	calc := services.NewBalanceCalculator(sequentialIDs())
	accounts := map[string]domain.Account{
		"cash":    {AccountID: "cash", AccountType: domain.Asset, CurrencyCode: "USD"},
		"revenue": {AccountID: "revenue", AccountType: domain.Revenue, CurrencyCode: "USD"},
	}
	tx := calcTransaction(t,
		calcLine(t, "l1", "cash", domain.Debit, 800),
		calcLine(t, "l2", "revenue", domain.Credit, 800),
	)
	changes, _, err := calc.BuildChanges(tx, accounts, nil, fixedNow)
	require.NoError(t, err)
	updates, err := calc.ApplyChanges(companyID, accounts, nil, changes, fixedNow)
	require.NoError(t, err)

	current := make(map[string]domain.AccountBalance, len(updates))
	for _, u := range updates {
		current[u.Balance.AccountID] = u.Balance
	}
	alreadyReversed := changes[0].Reverse("old-rev", 800, fixedNow)

	reversals, projected, err := calc.BuildReversals(append(changes, alreadyReversed), current, fixedNow)

	require.NoError(t, err)
	require.Len(t, reversals, 2)
	assert.Equal(t, map[string]int64{"cash": 0, "revenue": 0}, projected)
	for i, r := range reversals {
		assert.True(t, r.IsReversal())
		assert.Equal(t, changes[i].ChangeID, r.ReversalOf)
		assert.Equal(t, changes[i].Side.Opposite(), r.Side)
	}

	restored, err := calc.ApplyChanges(companyID, accounts, current, reversals, fixedNow)
	require.NoError(t, err)
	for _, u := range restored {
		assert.Equal(t, int64(0), u.Balance.CurrentBalanceCents)
		assert.Equal(t, int64(1), u.ExpectedVersion)
		assert.Equal(t, int64(2), u.Balance.Version)
	}
}

func TestBalanceCalculator_BuildReversalsMissingBalance(t *testing.T) {
	calc := services.NewBalanceCalculator(nil)
	original := []domain.BalanceChange{{ChangeID: "c1", AccountID: "cash", Side: domain.Debit, AmountCents: 10, NormalSide: domain.Debit}}

	_, _, err := calc.BuildReversals(original, map[string]domain.AccountBalance{}, fixedNow)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
