package mapping

import (
	"time"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:    d.AccountID,
		CompanyID:    d.CompanyID,
		Code:         d.Code,
		Name:         d.Name,
		AccountType:  string(d.AccountType),
		SubType:      d.SubType,
		CurrencyCode: d.CurrencyCode,
		Description:  d.Description,
		IsActive:     d.IsActive,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:    m.AccountID,
		CompanyID:    m.CompanyID,
		Code:         m.Code,
		Name:         m.Name,
		AccountType:  domain.AccountType(m.AccountType),
		SubType:      m.SubType,
		CurrencyCode: m.CurrencyCode,
		Description:  m.Description,
		IsActive:     m.IsActive,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainAccountSlice converts a slice of model Accounts to a slice of domain Accounts
func ToDomainAccountSlice(ms []models.Account) []domain.Account {
	ds := make([]domain.Account, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAccount(m)
	}
	return ds
}

// ToModelAccountBalance converts a domain AccountBalance to a model AccountBalance
func ToModelAccountBalance(d domain.AccountBalance) models.AccountBalance {
	return models.AccountBalance{
		AccountID:           d.AccountID,
		CompanyID:           d.CompanyID,
		CurrencyCode:        d.CurrencyCode,
		CurrentBalanceCents: d.CurrentBalanceCents,
		OpeningBalanceCents: d.OpeningBalanceCents,
		TotalDebitsCents:    d.TotalDebitsCents,
		TotalCreditsCents:   d.TotalCreditsCents,
		TransactionCount:    d.TransactionCount,
		LastActivityAt:      d.LastActivityAt,
		Version:             d.Version,
	}
}

// ToDomainAccountBalance converts a model AccountBalance to a domain AccountBalance
func ToDomainAccountBalance(m models.AccountBalance) domain.AccountBalance {
	return domain.AccountBalance{
		AccountID:           m.AccountID,
		CompanyID:           m.CompanyID,
		CurrencyCode:        m.CurrencyCode,
		CurrentBalanceCents: m.CurrentBalanceCents,
		OpeningBalanceCents: m.OpeningBalanceCents,
		TotalDebitsCents:    m.TotalDebitsCents,
		TotalCreditsCents:   m.TotalCreditsCents,
		TransactionCount:    m.TransactionCount,
		LastActivityAt:      utcPtr(m.LastActivityAt),
		Version:             m.Version,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
