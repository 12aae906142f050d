package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	portsrepo "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/repositories"
	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	balanceRepo portsrepo.BalanceReader
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, balanceRepo portsrepo.BalanceReader, opts ...Option) portssvc.AccountSvcFacade {
	svc := &accountService{
		BaseService: newBaseService(),
		accountRepo: accountRepo,
		balanceRepo: balanceRepo,
	}
	svc.apply(opts)
	return svc
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, companyID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	if !req.AccountType.IsValid() {
		return nil, apperrors.NewValidationErrors([]string{fmt.Sprintf("accountType: %q is not a valid account type", req.AccountType)})
	}
	if req.OpeningBalanceCents < 0 {
		return nil, apperrors.NewValidationErrors([]string{"openingBalanceCents: must not be negative"})
	}

	now := s.Now()
	account := domain.Account{
		AccountID:    s.NewID(),
		CompanyID:    companyID,
		Code:         strings.TrimSpace(req.Code),
		Name:         strings.TrimSpace(req.Name),
		AccountType:  req.AccountType,
		SubType:      strings.ToLower(strings.TrimSpace(req.SubType)),
		CurrencyCode: req.CurrencyCode,
		Description:  req.Description,
		IsActive:     true,
		AuditFields:  domain.NewAuditFields(userID, now),
	}
	opening := domain.NewAccountBalance(companyID, account.AccountID, account.CurrencyCode, req.OpeningBalanceCents)

	if err := s.accountRepo.SaveAccount(ctx, account, opening); err != nil {
		s.LogError(ctx, err, "Failed to save account",
			slog.String("account_id", account.AccountID),
			slog.String("company_id", companyID))
		return nil, err
	}

	s.LogInfo(ctx, "Account created successfully",
		slog.String("account_id", account.AccountID),
		slog.String("company_id", companyID))
	return &account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, companyID, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by ID",
				slog.String("account_id", accountID))
		}
		return nil, err
	}

	// Accounts of other companies are reported as missing.
	if account.CompanyID != companyID {
		s.LogDebug(ctx, "Account found but belongs to different company",
			slog.String("account_id", accountID),
			slog.String("requested_company", companyID))
		return nil, apperrors.NewNotFoundError("account", accountID)
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, companyID string, params dto.ListAccountsParams) (*dto.ListAccountsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	accounts, next, err := s.accountRepo.ListAccounts(ctx, companyID, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts",
			slog.String("company_id", companyID),
			slog.Int("limit", limit))
		return nil, fmt.Errorf("failed to list accounts for company %s: %w", companyID, err)
	}

	s.LogDebug(ctx, "Accounts listed successfully",
		slog.Int("count", len(accounts)),
		slog.String("company_id", companyID))
	return &dto.ListAccountsResponse{Accounts: dto.ToListAccountResponse(accounts), NextToken: next}, nil
}

func (s *accountService) GetAccountBalance(ctx context.Context, companyID, accountID string) (*domain.AccountBalance, error) {
	account, err := s.GetAccountByID(ctx, companyID, accountID)
	if err != nil {
		return nil, err
	}
	bal, err := s.balanceRepo.GetAccountBalance(ctx, companyID, accountID)
	if errors.Is(err, apperrors.ErrNotFound) {
		zero := domain.NewAccountBalance(companyID, accountID, account.CurrencyCode, 0)
		return &zero, nil
	}
	if err != nil {
		s.LogError(ctx, err, "Failed to load account balance", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to load balance: %w", err)
	}
	return bal, nil
}
