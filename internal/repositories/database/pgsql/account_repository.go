package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	portsrepo "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/repositories"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/models"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/utils/mapping"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `account_id, company_id, code, name, account_type, sub_type, currency_code, description, is_active, created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.CompanyID,
		&m.Code,
		&m.Name,
		&m.AccountType,
		&m.SubType,
		&m.CurrencyCode,
		&m.Description,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveAccount inserts a new account and its opening balance row in one transaction.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account, opening domain.AccountBalance) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelAccount(account)
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = tx.Exec(ctx, query,
		m.AccountID,
		m.CompanyID,
		m.Code,
		m.Name,
		m.AccountType,
		m.SubType,
		m.CurrencyCode,
		m.Description,
		m.IsActive,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account %s or code %s already exists", apperrors.ErrDuplicate, m.AccountID, m.Code)
		}
		return fmt.Errorf("failed to save account %s: %w", m.AccountID, err)
	}

	if err := insertBalance(ctx, tx, mapping.ToModelAccountBalance(opening)); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`

	m, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("account", accountID)
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}
	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

// FindAccountsByIDs retrieves multiple accounts by their IDs.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by IDs: %w", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts[m.AccountID] = mapping.ToDomainAccount(m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

// ListAccounts retrieves a company's accounts ordered by code, using a (code, id) cursor.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, companyID string, limit int, nextToken *string) ([]domain.Account, *string, error) {
	args := []any{companyID}
	cursorClause := ""
	if nextToken != nil && *nextToken != "" {
		parts, err := pagination.DecodeMultiFieldToken(*nextToken, 2)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		cursorClause = `AND (code, account_id) > ($2, $3)`
		args = append(args, parts[0], parts[1])
	}
	args = append(args, limitArg(limit))

	query := fmt.Sprintf(`
		SELECT %s FROM accounts
		WHERE company_id = $1 %s
		ORDER BY code, account_id
		LIMIT $%d;
	`, accountColumns, cursorClause, len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list accounts for company %s: %w", companyID, err)
	}
	defer rows.Close()

	ms := make([]models.Account, 0)
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating account rows: %w", err)
	}

	var next *string
	if limit > 0 && len(ms) > limit {
		ms = ms[:limit]
		last := ms[limit-1]
		token := pagination.EncodeMultiFieldToken(last.Code, last.AccountID)
		next = &token
	}
	return mapping.ToDomainAccountSlice(ms), next, nil
}
