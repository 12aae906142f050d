package mapping

import (
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/models"
)

// ToModelTransaction converts a domain Transaction header to a model Transaction
func ToModelTransaction(d *domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID:   d.TransactionID,
		CompanyID:       d.CompanyID,
		TransactionDate: d.Date,
		Description:     d.Description,
		CurrencyCode:    d.CurrencyCode,
		Status:          string(d.Status),
		PostedAt:        d.PostedAt,
		PostedBy:        d.PostedBy,
		VoidedAt:        d.VoidedAt,
		VoidedBy:        d.VoidedBy,
		VoidReason:      d.VoidReason,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToModelTransactionLines converts the lines of a domain Transaction, numbering them in order
func ToModelTransactionLines(d *domain.Transaction) []models.TransactionLine {
	lines := d.Lines()
	ms := make([]models.TransactionLine, len(lines))
	for i, l := range lines {
		ms[i] = models.TransactionLine{
			LineID:        l.LineID,
			TransactionID: d.TransactionID,
			LineNo:        i + 1,
			AccountID:     l.AccountID,
			Side:          string(l.Side),
			AmountCents:   l.Amount.Cents,
			CurrencyCode:  l.Amount.Currency,
			Memo:          l.Memo,
		}
	}
	return ms
}

// ToDomainTransaction rebuilds a domain Transaction from its header and lines.
// Lines must already be in LineNo order.
func ToDomainTransaction(m models.Transaction, lines []models.TransactionLine) *domain.Transaction {
	state := domain.Transaction{
		TransactionID: m.TransactionID,
		CompanyID:     m.CompanyID,
		Date:          domain.TruncateToDate(m.TransactionDate),
		Description:   m.Description,
		CurrencyCode:  m.CurrencyCode,
		Status:        domain.TransactionStatus(m.Status),
		PostedAt:      utcPtr(m.PostedAt),
		PostedBy:      m.PostedBy,
		VoidedAt:      utcPtr(m.VoidedAt),
		VoidedBy:      m.VoidedBy,
		VoidReason:    m.VoidReason,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}

	ds := make([]domain.TransactionLine, len(lines))
	for i, l := range lines {
		ds[i] = domain.TransactionLine{
			LineID:    l.LineID,
			AccountID: l.AccountID,
			Side:      domain.Side(l.Side),
			Amount:    domain.Money{Cents: l.AmountCents, Currency: l.CurrencyCode},
			Memo:      l.Memo,
		}
	}
	return domain.RehydrateTransaction(state, ds)
}

// ToModelBalanceChange converts a domain BalanceChange to a model BalanceChange
func ToModelBalanceChange(d domain.BalanceChange) models.BalanceChange {
	var reversalOf *string
	if d.ReversalOf != "" {
		r := d.ReversalOf
		reversalOf = &r
	}
	return models.BalanceChange{
		ChangeID:           d.ChangeID,
		CompanyID:          d.CompanyID,
		AccountID:          d.AccountID,
		TransactionID:      d.TransactionID,
		Side:               string(d.Side),
		AmountCents:        d.AmountCents,
		BalanceBeforeCents: d.BalanceBeforeCents,
		NormalSide:         string(d.NormalSide),
		ReversalOf:         reversalOf,
		CreatedAt:          d.CreatedAt,
	}
}

// ToDomainBalanceChange converts a model BalanceChange to a domain BalanceChange
func ToDomainBalanceChange(m models.BalanceChange) domain.BalanceChange {
	d := domain.BalanceChange{
		ChangeID:           m.ChangeID,
		CompanyID:          m.CompanyID,
		AccountID:          m.AccountID,
		TransactionID:      m.TransactionID,
		Side:               domain.Side(m.Side),
		AmountCents:        m.AmountCents,
		BalanceBeforeCents: m.BalanceBeforeCents,
		NormalSide:         domain.Side(m.NormalSide),
		CreatedAt:          m.CreatedAt.UTC(),
	}
	if m.ReversalOf != nil {
		d.ReversalOf = *m.ReversalOf
	}
	return d
}
