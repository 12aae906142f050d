package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	portsrepo "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/repositories"
	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/utils/accounting"
)

// validationService implements the TransactionValidationSvc interface
type validationService struct {
	BaseService
	accountRepo portsrepo.AccountReader
}

// NewValidationService creates a validation service reading accounts from repo.
func NewValidationService(repo portsrepo.AccountReader, opts ...Option) portssvc.TransactionValidationSvc {
	svc := &validationService{BaseService: newBaseService(), accountRepo: repo}
	svc.apply(opts)
	return svc
}

var _ portssvc.TransactionValidationSvc = (*validationService)(nil)

func (s *validationService) Validate(ctx context.Context, companyID string, lines []dto.LineInput) (*domain.ValidationResult, error) {
	return s.validate(ctx, companyID, "", lines)
}

func (s *validationService) ValidateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.ValidationResult, error) {
	lines := tx.Lines()
	inputs := make([]dto.LineInput, len(lines))
	for i, l := range lines {
		in := dto.LineInput{AccountID: l.AccountID, Memo: l.Memo}
		if l.Side == domain.Debit {
			in.DebitCents = l.Amount.Cents
		} else {
			in.CreditCents = l.Amount.Cents
		}
		inputs[i] = in
	}
	return s.validate(ctx, tx.CompanyID, tx.CurrencyCode, inputs)
}

// validate collects every violation. currency, when set, must match each referenced account.
func (s *validationService) validate(ctx context.Context, companyID, currency string, lines []dto.LineInput) (*domain.ValidationResult, error) {
	result := &domain.ValidationResult{Errors: []string{}}
	if len(lines) == 0 {
		result.Addf("transaction must have at least one line")
		return result, nil
	}

	var debits, credits int64
	seen := make(map[string]int, len(lines))
	var duplicates, referenced []string

	for i, line := range lines {
		for _, msg := range lineViolations(line) {
			result.Addf("line %d: %s", i+1, msg)
		}
		if line.DebitCents > 0 {
			debits += line.DebitCents
		}
		if line.CreditCents > 0 {
			credits += line.CreditCents
		}
		if line.AccountID == "" {
			continue
		}
		seen[line.AccountID]++
		switch seen[line.AccountID] {
		case 1:
			referenced = append(referenced, line.AccountID)
		case 2:
			duplicates = append(duplicates, line.AccountID)
		}
	}

	if debits != credits {
		result.Addf("transaction is unbalanced: debits %s, credits %s, difference %s",
			accounting.FormatCents(debits), accounting.FormatCents(credits), accounting.FormatCents(debits-credits))
	}
	for _, id := range duplicates {
		result.Addf("account %s appears on more than one line", id)
	}

	if len(referenced) == 0 {
		return result, nil
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, referenced)
	if err != nil {
		s.LogError(ctx, err, "Failed to load accounts for validation", slog.String("company_id", companyID))
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	for _, id := range referenced {
		acc, ok := accounts[id]
		switch {
		case !ok || acc.CompanyID != companyID:
			result.Addf("account %s does not exist", id)
		case !acc.IsActive:
			result.Addf("account %s is inactive", id)
		case currency != "" && acc.CurrencyCode != currency:
			result.Addf("account %s is held in %s, not %s", id, acc.CurrencyCode, currency)
		}
	}
	return result, nil
}

// lineViolations applies the single-line rules.
func lineViolations(line dto.LineInput) []string {
	err := validation.ValidateStruct(&line,
		validation.Field(&line.AccountID,
			validation.Required.Error("account reference is required")),
		validation.Field(&line.DebitCents,
			validation.Min(int64(0)).Error("debit amount must not be negative"),
			validation.When(line.CreditCents != 0, validation.Empty.Error("line carries both a debit and a credit amount")),
			validation.When(line.CreditCents == 0, validation.Required.Error("line amount must not be zero"))),
		validation.Field(&line.CreditCents,
			validation.Min(int64(0)).Error("credit amount must not be negative")),
	)
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return []string{err.Error()}
	}

	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, errs[k].Error())
	}
	return msgs
}
