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

const (
	transactionColumns = `transaction_id, company_id, transaction_date, description, currency_code, status, posted_at, posted_by, voided_at, voided_by, void_reason, created_at, created_by, last_updated_at, last_updated_by`
	lineColumns        = `line_id, transaction_id, line_no, account_id, side, amount_cents, currency_code, memo`
)

type PgxTransactionRepository struct {
	BaseRepository
}

// newPgxTransactionRepository creates a new repository for transactions and their lines.
func newPgxTransactionRepository(pool *pgxpool.Pool) *PgxTransactionRepository {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.CompanyID,
		&m.TransactionDate,
		&m.Description,
		&m.CurrencyCode,
		&m.Status,
		&m.PostedAt,
		&m.PostedBy,
		&m.VoidedAt,
		&m.VoidedBy,
		&m.VoidReason,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveTransaction inserts or replaces a DRAFT transaction together with its lines.
func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn *domain.Transaction) error {
	if !txn.IsDraft() {
		return fmt.Errorf("only DRAFT transactions are saved directly, got %s", txn.Status)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	var stored string
	err = tx.QueryRow(ctx, `SELECT status FROM transactions WHERE transaction_id = $1 FOR UPDATE;`, txn.TransactionID).Scan(&stored)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return apperrors.NewAppError(500, "failed to lock transaction "+txn.TransactionID, err)
	case domain.TransactionStatus(stored) != domain.StatusDraft:
		return &apperrors.ConflictError{Resource: "transaction", ID: txn.TransactionID}
	}

	m := mapping.ToModelTransaction(txn)
	headerQuery := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (transaction_id) DO UPDATE
		SET transaction_date = EXCLUDED.transaction_date,
			description = EXCLUDED.description,
			currency_code = EXCLUDED.currency_code,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err = tx.Exec(ctx, headerQuery,
		m.TransactionID,
		m.CompanyID,
		m.TransactionDate,
		m.Description,
		m.CurrencyCode,
		m.Status,
		m.PostedAt,
		m.PostedBy,
		m.VoidedAt,
		m.VoidedBy,
		m.VoidReason,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save transaction "+m.TransactionID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM transaction_lines WHERE transaction_id = $1;`, m.TransactionID); err != nil {
		return apperrors.NewAppError(500, "failed to replace lines of transaction "+m.TransactionID, err)
	}

	lines := mapping.ToModelTransactionLines(txn)
	if len(lines) > 0 {
		batch := &pgx.Batch{}
		lineQuery := `INSERT INTO transaction_lines (` + lineColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
		for _, l := range lines {
			batch.Queue(lineQuery, l.LineID, l.TransactionID, l.LineNo, l.AccountID, l.Side, l.AmountCents, l.CurrencyCode, l.Memo)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: duplicate line in transaction %s", apperrors.ErrDuplicate, m.TransactionID)
			}
			return apperrors.NewAppError(500, "failed to insert lines of transaction "+m.TransactionID, err)
		}
	}

	return r.Commit(ctx, tx)
}

// FindTransactionByID retrieves a transaction with its lines in insertion order.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`

	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transaction", transactionID)
		}
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}

	lines, err := r.findLines(ctx, []string{transactionID})
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainTransaction(m, lines[transactionID]), nil
}

// ListTransactions retrieves a page of a company's transactions, newest date first.
func (r *PgxTransactionRepository) ListTransactions(ctx context.Context, companyID string, status domain.TransactionStatus, limit int, nextToken *string) ([]*domain.Transaction, *string, error) {
	args := []any{companyID}
	filterClause := ""
	if status != "" {
		args = append(args, string(status))
		filterClause = fmt.Sprintf("AND status = $%d", len(args))
	}
	cursorClause := ""
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		args = append(args, c.Date, c.CreatedAt, c.ID)
		n := len(args)
		cursorClause = fmt.Sprintf("AND (transaction_date, created_at, transaction_id) < ($%d, $%d, $%d)", n-2, n-1, n)
	}
	args = append(args, limitArg(limit))

	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE company_id = $1 %s %s
		ORDER BY transaction_date DESC, created_at DESC, transaction_id DESC
		LIMIT $%d;
	`, transactionColumns, filterClause, cursorClause, len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list transactions for company %s: %w", companyID, err)
	}
	defer rows.Close()

	headers := make([]models.Transaction, 0)
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		headers = append(headers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	var next *string
	if limit > 0 && len(headers) > limit {
		headers = headers[:limit]
		last := headers[limit-1]
		token := pagination.EncodeToken(pagination.Cursor{Date: last.TransactionDate, CreatedAt: last.CreatedAt, ID: last.TransactionID})
		next = &token
	}

	ids := make([]string, len(headers))
	for i, h := range headers {
		ids[i] = h.TransactionID
	}
	lines, err := r.findLines(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	out := make([]*domain.Transaction, len(headers))
	for i, h := range headers {
		out[i] = mapping.ToDomainTransaction(h, lines[h.TransactionID])
	}
	return out, next, nil
}

// findLines loads the lines of several transactions, grouped by transaction and ordered by line number.
func (r *PgxTransactionRepository) findLines(ctx context.Context, transactionIDs []string) (map[string][]models.TransactionLine, error) {
	out := make(map[string][]models.TransactionLine, len(transactionIDs))
	if len(transactionIDs) == 0 {
		return out, nil
	}

	query := `SELECT ` + lineColumns + ` FROM transaction_lines WHERE transaction_id = ANY($1) ORDER BY transaction_id, line_no;`
	rows, err := r.Pool.Query(ctx, query, transactionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l models.TransactionLine
		if err := rows.Scan(
			&l.LineID,
			&l.TransactionID,
			&l.LineNo,
			&l.AccountID,
			&l.Side,
			&l.AmountCents,
			&l.CurrencyCode,
			&l.Memo,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction line row: %w", err)
		}
		out[l.TransactionID] = append(out[l.TransactionID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction line rows: %w", err)
	}
	return out, nil
}
