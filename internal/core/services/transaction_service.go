package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	portsrepo "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/repositories"
	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
)

// transactionService implements the TransactionSvcFacade interface
type transactionService struct {
	BaseService
	txRepo      portsrepo.TransactionRepositoryFacade
	accountRepo portsrepo.AccountReader
	validator   portssvc.TransactionValidationSvc
}

// NewTransactionService creates a transaction service. Raw lines are checked with validator
// before a draft is stored.
func NewTransactionService(txRepo portsrepo.TransactionRepositoryFacade, accountRepo portsrepo.AccountReader, validator portssvc.TransactionValidationSvc, opts ...Option) portssvc.TransactionSvcFacade {
	svc := &transactionService{
		BaseService: newBaseService(),
		txRepo:      txRepo,
		accountRepo: accountRepo,
		validator:   validator,
	}
	svc.apply(opts)
	return svc
}

var _ portssvc.TransactionSvcFacade = (*transactionService)(nil)

func (s *transactionService) CreateTransaction(ctx context.Context, companyID string, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error) {
	date, err := req.ParsedDate()
	if err != nil {
		return nil, apperrors.NewValidationErrors([]string{fmt.Sprintf("date: %q is not a YYYY-MM-DD date", req.Date)})
	}

	// A draft may be opened empty and filled through AddLine; submitted lines must form a valid set.
	if len(req.Lines) > 0 {
		result, err := s.validator.Validate(ctx, companyID, req.Lines)
		if err != nil {
			return nil, err
		}
		if !result.IsValid() {
			s.LogDebug(ctx, "Transaction rejected by validation",
				slog.String("company_id", companyID),
				slog.Int("violations", len(result.Errors)))
			return nil, result.Err()
		}
	}

	now := s.Now()
	tx, err := domain.NewTransaction(domain.NewTransactionParams{
		TransactionID: s.NewID(),
		CompanyID:     companyID,
		Date:          date,
		Description:   req.Description,
		CurrencyCode:  req.CurrencyCode,
		CreatedBy:     userID,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}
	for _, in := range req.Lines {
		if err := s.appendLine(tx, in); err != nil {
			return nil, err
		}
	}

	if err := s.txRepo.SaveTransaction(ctx, tx); err != nil {
		s.LogError(ctx, err, "Failed to save transaction", slog.String("transaction_id", tx.TransactionID))
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	s.LogInfo(ctx, "Transaction draft created",
		slog.String("transaction_id", tx.TransactionID),
		slog.String("company_id", companyID),
		slog.Int("line_count", len(req.Lines)))
	s.publish(ctx, tx.PullEvents())
	return tx, nil
}

func (s *transactionService) AddLine(ctx context.Context, companyID, transactionID string, line dto.LineInput, userID string) (*domain.Transaction, error) {
	tx, err := s.GetTransactionByID(ctx, companyID, transactionID)
	if err != nil {
		return nil, err
	}

	msgs := lineViolations(line)
	if line.AccountID != "" {
		acc, err := s.accountRepo.FindAccountByID(ctx, line.AccountID)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			msgs = append(msgs, fmt.Sprintf("account %s does not exist", line.AccountID))
		case err != nil:
			s.LogError(ctx, err, "Failed to load account", slog.String("account_id", line.AccountID))
			return nil, fmt.Errorf("failed to load account: %w", err)
		case acc.CompanyID != companyID:
			msgs = append(msgs, fmt.Sprintf("account %s does not exist", line.AccountID))
		case !acc.IsActive:
			msgs = append(msgs, fmt.Sprintf("account %s is inactive", line.AccountID))
		}
	}
	if len(msgs) > 0 {
		return nil, apperrors.NewValidationErrors(msgs)
	}

	if err := s.appendLine(tx, line); err != nil {
		return nil, err
	}
	if err := s.txRepo.SaveTransaction(ctx, tx); err != nil {
		s.LogError(ctx, err, "Failed to save transaction line", slog.String("transaction_id", transactionID))
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	s.LogDebug(ctx, "Line added to transaction",
		slog.String("transaction_id", transactionID),
		slog.String("account_id", line.AccountID),
		slog.String("user_id", userID))
	return tx, nil
}

func (s *transactionService) appendLine(tx *domain.Transaction, in dto.LineInput) error {
	side, cents := in.Side()
	line, err := domain.NewTransactionLine(s.NewID(), in.AccountID, side, domain.Money{Cents: cents, Currency: tx.CurrencyCode}, in.Memo)
	if err != nil {
		return err
	}
	return tx.AddLine(line)
}

func (s *transactionService) GetTransactionByID(ctx context.Context, companyID, transactionID string) (*domain.Transaction, error) {
	tx, err := s.txRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find transaction", slog.String("transaction_id", transactionID))
		}
		return nil, err
	}
	if tx.CompanyID != companyID {
		return nil, apperrors.NewNotFoundError("transaction", transactionID)
	}
	return tx, nil
}

func (s *transactionService) ListTransactions(ctx context.Context, companyID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	txs, next, err := s.txRepo.ListTransactions(ctx, companyID, domain.TransactionStatus(params.Status), limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions", slog.String("company_id", companyID))
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	out := make([]dto.TransactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = dto.ToTransactionResponse(tx)
	}
	return &dto.ListTransactionsResponse{Transactions: out, NextToken: next}, nil
}
