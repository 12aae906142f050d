package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
)

func validationAccounts() map[string]domain.Account {
	return map[string]domain.Account{
		"cash":    {AccountID: "cash", CompanyID: companyID, AccountType: domain.Asset, CurrencyCode: "USD", IsActive: true},
		"revenue": {AccountID: "revenue", CompanyID: companyID, AccountType: domain.Revenue, CurrencyCode: "USD", IsActive: true},
		"closed":  {AccountID: "closed", CompanyID: companyID, AccountType: domain.Expense, CurrencyCode: "USD", IsActive: false},
		"foreign": {AccountID: "foreign", CompanyID: "co-other", AccountType: domain.Asset, CurrencyCode: "USD", IsActive: true},
		"euro":    {AccountID: "euro", CompanyID: companyID, AccountType: domain.Asset, CurrencyCode: "EUR", IsActive: true},
	}
}

func TestValidationService_Validate(t *testing.T) {
	all := validationAccounts()

	tests := []struct {
		name  string
		lines []dto.LineInput
		want  []string
	}{
		{
			name:  "balanced lines",
			lines: []dto.LineInput{debit("cash", 10000), credit("revenue", 10000)},
			want:  []string{},
		},
		{
			name:  "no lines",
			lines: nil,
			want:  []string{"transaction must have at least one line"},
		},
		{
			name:  "unbalanced",
			lines: []dto.LineInput{debit("cash", 10000), credit("revenue", 9000)},
			want:  []string{"transaction is unbalanced: debits 100.00, credits 90.00, difference 10.00"},
		},
		{
			name:  "line with both sides and a negative amount",
			lines: []dto.LineInput{{AccountID: "cash", DebitCents: 500, CreditCents: -500}, credit("revenue", 500)},
			want: []string{
				"line 1: credit amount must not be negative",
				"line 1: line carries both a debit and a credit amount",
			},
		},
		{
			name:  "zero amount and missing account",
			lines: []dto.LineInput{{}, credit("revenue", 0)},
			want: []string{
				"line 1: account reference is required",
				"line 1: line amount must not be zero",
				"line 2: line amount must not be zero",
			},
		},
		{
			name:  "duplicate account",
			lines: []dto.LineInput{debit("cash", 100), debit("cash", 100), credit("revenue", 200)},
			want:  []string{"account cash appears on more than one line"},
		},
		{
			name:  "unknown, inactive and other-company accounts",
			lines: []dto.LineInput{debit("ghost", 100), debit("closed", 100), credit("foreign", 200)},
			want: []string{
				"account ghost does not exist",
				"account closed is inactive",
				"account foreign does not exist",
			},
		},
		{
			name:  "every violation is reported at once",
			lines: []dto.LineInput{debit("cash", 100), debit("cash", 50), credit("closed", 100)},
			want: []string{
				"transaction is unbalanced: debits 1.50, credits 1.00, difference 0.50",
				"account cash appears on more than one line",
				"account closed is inactive",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockAccountRepository)
			repo.On("FindAccountsByIDs", mock.Anything, mock.Anything).Return(all, nil).Maybe()
			svc := services.NewValidationService(repo)

			result, err := svc.Validate(context.Background(), companyID, tc.lines)

			require.NoError(t, err)
			assert.Equal(t, tc.want, result.Errors)
			assert.Equal(t, len(tc.want) == 0, result.IsValid())
		})
	}
}

func TestValidationService_ValidateTransactionChecksCurrency(t *testing.T) {
	repo := new(MockAccountRepository)
	repo.On("FindAccountsByIDs", mock.Anything, []string{"euro", "revenue"}).Return(validationAccounts(), nil).Once()
	svc := services.NewValidationService(repo)

	tx, err := domain.NewTransaction(domain.NewTransactionParams{
		TransactionID: "tx-1", CompanyID: companyID, Date: fixedNow, Description: "Cross-currency sale",
		CurrencyCode: "USD", CreatedBy: clerkID, Now: fixedNow,
	})
	require.NoError(t, err)
	for i, in := range []dto.LineInput{debit("euro", 100), credit("revenue", 100)} {
		side, cents := in.Side()
		line, err := domain.NewTransactionLine(string(rune('a'+i)), in.AccountID, side, domain.Money{Cents: cents, Currency: "USD"}, "")
		require.NoError(t, err)
		require.NoError(t, tx.AddLine(line))
	}

	result, err := svc.ValidateTransaction(context.Background(), tx)

	require.NoError(t, err)
	assert.Equal(t, []string{"account euro is held in EUR, not USD"}, result.Errors)
	repo.AssertExpectations(t)
}

func TestValidationService_RepositoryFailure(t *testing.T) {
	repo := new(MockAccountRepository)
	repo.On("FindAccountsByIDs", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()
	svc := services.NewValidationService(repo)

	result, err := svc.Validate(context.Background(), companyID, []dto.LineInput{debit("cash", 1), credit("revenue", 1)})

	assert.Nil(t, result)
	assert.ErrorContains(t, err, "connection reset")
}
