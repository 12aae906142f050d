package pgsql

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/hashchain"
	portsrepo "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/repositories"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/models"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	balanceColumns = `account_id, company_id, currency_code, current_balance_cents, opening_balance_cents, total_debits_cents, total_credits_cents, transaction_count, last_activity_at, version`
	changeColumns  = `change_id, company_id, account_id, transaction_id, side, amount_cents, balance_before_cents, normal_side, reversal_of, created_at`
	entryColumns   = `entry_id, company_id, transaction_id, entry_type, sequence, payload, content_hash, previous_hash, chain_hash, created_at, created_by`
)

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for balances, balance changes and the journal.
func newPgxLedgerRepository(pool *pgxpool.Pool) *PgxLedgerRepository {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

func scanBalance(row pgx.Row) (models.AccountBalance, error) {
	var m models.AccountBalance
	err := row.Scan(
		&m.AccountID,
		&m.CompanyID,
		&m.CurrencyCode,
		&m.CurrentBalanceCents,
		&m.OpeningBalanceCents,
		&m.TotalDebitsCents,
		&m.TotalCreditsCents,
		&m.TransactionCount,
		&m.LastActivityAt,
		&m.Version,
	)
	return m, err
}

func scanEntry(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.CompanyID,
		&m.TransactionID,
		&m.EntryType,
		&m.Sequence,
		&m.Payload,
		&m.ContentHash,
		&m.PreviousHash,
		&m.ChainHash,
		&m.CreatedAt,
		&m.CreatedBy,
	)
	return m, err
}

// GetAccountBalance retrieves one account's balance.
func (r *PgxLedgerRepository) GetAccountBalance(ctx context.Context, companyID, accountID string) (*domain.AccountBalance, error) {
	query := `SELECT ` + balanceColumns + ` FROM account_balances WHERE company_id = $1 AND account_id = $2;`

	m, err := scanBalance(r.Pool.QueryRow(ctx, query, companyID, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("account balance", accountID)
		}
		return nil, fmt.Errorf("failed to get balance of account %s: %w", accountID, err)
	}
	bal := mapping.ToDomainAccountBalance(m)
	return &bal, nil
}

// GetAccountBalances retrieves the balances of several accounts of one company.
func (r *PgxLedgerRepository) GetAccountBalances(ctx context.Context, companyID string, accountIDs []string) (map[string]domain.AccountBalance, error) {
	out := make(map[string]domain.AccountBalance, len(accountIDs))
	if len(accountIDs) == 0 {
		return out, nil
	}

	query := `SELECT ` + balanceColumns + ` FROM account_balances WHERE company_id = $1 AND account_id = ANY($2);`
	rows, err := r.Pool.Query(ctx, query, companyID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		out[m.AccountID] = mapping.ToDomainAccountBalance(m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balance rows: %w", err)
	}
	return out, nil
}

// FindBalanceChangesByTransaction lists a transaction's balance changes in the order they were written.
func (r *PgxLedgerRepository) FindBalanceChangesByTransaction(ctx context.Context, transactionID string) ([]domain.BalanceChange, error) {
	query := `SELECT ` + changeColumns + ` FROM balance_changes WHERE transaction_id = $1 ORDER BY seq;`
	rows, err := r.Pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance changes of transaction %s: %w", transactionID, err)
	}
	defer rows.Close()

	out := make([]domain.BalanceChange, 0)
	for rows.Next() {
		var m models.BalanceChange
		if err := rows.Scan(
			&m.ChangeID,
			&m.CompanyID,
			&m.AccountID,
			&m.TransactionID,
			&m.Side,
			&m.AmountCents,
			&m.BalanceBeforeCents,
			&m.NormalSide,
			&m.ReversalOf,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan balance change row: %w", err)
		}
		out = append(out, mapping.ToDomainBalanceChange(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balance change rows: %w", err)
	}
	return out, nil
}

// FindJournalEntryByID retrieves one journal entry.
func (r *PgxLedgerRepository) FindJournalEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE entry_id = $1;`

	m, err := scanEntry(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("journal entry", entryID)
		}
		return nil, fmt.Errorf("failed to find journal entry %s: %w", entryID, err)
	}
	entry, err := mapping.ToDomainJournalEntry(m)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindJournalEntriesByTransaction lists the POSTING and REVERSAL entries of a transaction.
func (r *PgxLedgerRepository) FindJournalEntriesByTransaction(ctx context.Context, transactionID string) ([]domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE transaction_id = $1 ORDER BY sequence;`
	return r.queryEntries(ctx, query, transactionID)
}

// ListJournalEntries returns a company's whole journal chain in sequence order.
func (r *PgxLedgerRepository) ListJournalEntries(ctx context.Context, companyID string) ([]domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE company_id = $1 ORDER BY sequence;`
	return r.queryEntries(ctx, query, companyID)
}

func (r *PgxLedgerRepository) queryEntries(ctx context.Context, query string, arg string) ([]domain.JournalEntry, error) {
	rows, err := r.Pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	out := make([]domain.JournalEntry, 0)
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry row: %w", err)
		}
		entry, err := mapping.ToDomainJournalEntry(m)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal entry rows: %w", err)
	}
	return out, nil
}

// SaveBalance stores balance if the stored version still equals expectedVersion.
func (r *PgxLedgerRepository) SaveBalance(ctx context.Context, balance domain.AccountBalance, expectedVersion int64) error {
	return casBalance(ctx, r.Pool, mapping.ToModelAccountBalance(balance), expectedVersion)
}

// CommitPosting writes the whole effect of a post or void in one database transaction.
// The transaction row and the chain head are locked first, so concurrent commits against
// the same transaction or the same journal serialize.
func (r *PgxLedgerRepository) CommitPosting(ctx context.Context, commit domain.LedgerCommit) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	txn := commit.Transaction
	if err := lockTransactionStatus(ctx, tx, txn.TransactionID, previousStatus(txn.Status)); err != nil {
		return err
	}

	// Lock balance rows in a stable order so two commits touching the same accounts cannot deadlock.
	updates := make([]domain.BalanceUpdate, len(commit.Updates))
	copy(updates, commit.Updates)
	sort.Slice(updates, func(i, j int) bool { return updates[i].Balance.AccountID < updates[j].Balance.AccountID })
	for _, u := range updates {
		if err := casBalance(ctx, tx, mapping.ToModelAccountBalance(u.Balance), u.ExpectedVersion); err != nil {
			return err
		}
	}

	if a := commit.Approval; a != nil {
		if err := lockPendingApproval(ctx, tx, a.ApprovalID); err != nil {
			return err
		}
	}

	if err := updateTransactionStatus(ctx, tx, mapping.ToModelTransaction(txn)); err != nil {
		return err
	}
	if err := insertBalanceChanges(ctx, tx, commit.Changes); err != nil {
		return err
	}

	chainID := commit.Entry.ChainID()
	head, err := lockChainHead(ctx, tx, chainID)
	if err != nil {
		return err
	}
	commit.Entry.Link(head.HeadHash, head.Sequence+1)
	if err := insertJournalEntry(ctx, tx, commit.Entry); err != nil {
		return err
	}
	if err := advanceChainHead(ctx, tx, chainID, commit.Entry.Sequence, commit.Entry.ChainHash); err != nil {
		return err
	}

	if commit.Approval != nil {
		if err := upsertApproval(ctx, tx, commit.Approval); err != nil {
			return err
		}
	}
	return r.Commit(ctx, tx)
}

// previousStatus is the status a transaction must hold in storage for a commit moving it to next.
func previousStatus(next domain.TransactionStatus) domain.TransactionStatus {
	if next == domain.StatusVoided {
		return domain.StatusPosted
	}
	return domain.StatusDraft
}

func lockTransactionStatus(ctx context.Context, q querier, transactionID string, want domain.TransactionStatus) error {
	var status string
	err := q.QueryRow(ctx, `SELECT status FROM transactions WHERE transaction_id = $1 FOR UPDATE;`, transactionID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFoundError("transaction", transactionID)
		}
		return apperrors.NewAppError(500, "failed to lock transaction "+transactionID, err)
	}
	if domain.TransactionStatus(status) != want {
		return &apperrors.ConflictError{Resource: "transaction " + string(want), ID: transactionID}
	}
	return nil
}

func updateTransactionStatus(ctx context.Context, q querier, m models.Transaction) error {
	query := `
		UPDATE transactions
		SET status = $2, posted_at = $3, posted_by = $4, voided_at = $5, voided_by = $6, void_reason = $7,
			last_updated_at = $8, last_updated_by = $9
		WHERE transaction_id = $1;
	`
	_, err := q.Exec(ctx, query,
		m.TransactionID,
		m.Status,
		m.PostedAt,
		m.PostedBy,
		m.VoidedAt,
		m.VoidedBy,
		m.VoidReason,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status of transaction "+m.TransactionID, err)
	}
	return nil
}

func insertBalance(ctx context.Context, q querier, m models.AccountBalance) error {
	query := `
		INSERT INTO account_balances (` + balanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := q.Exec(ctx, query,
		m.AccountID,
		m.CompanyID,
		m.CurrencyCode,
		m.CurrentBalanceCents,
		m.OpeningBalanceCents,
		m.TotalDebitsCents,
		m.TotalCreditsCents,
		m.TransactionCount,
		m.LastActivityAt,
		m.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: balance of account %s already exists", apperrors.ErrDuplicate, m.AccountID)
		}
		return apperrors.NewAppError(500, "failed to insert balance of account "+m.AccountID, err)
	}
	return nil
}

// casBalance writes m only if the stored row is still at expected. A missing row counts as
// version 0, in which case the row is inserted.
func casBalance(ctx context.Context, q querier, m models.AccountBalance, expected int64) error {
	query := `
		UPDATE account_balances
		SET current_balance_cents = $3, opening_balance_cents = $4, total_debits_cents = $5, total_credits_cents = $6,
			transaction_count = $7, last_activity_at = $8, version = $9
		WHERE account_id = $1 AND version = $2;
	`
	tag, err := q.Exec(ctx, query,
		m.AccountID,
		expected,
		m.CurrentBalanceCents,
		m.OpeningBalanceCents,
		m.TotalDebitsCents,
		m.TotalCreditsCents,
		m.TransactionCount,
		m.LastActivityAt,
		m.Version,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update balance of account "+m.AccountID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var actual int64
	err = q.QueryRow(ctx, `SELECT version FROM account_balances WHERE account_id = $1;`, m.AccountID).Scan(&actual)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if expected == 0 {
			return insertBalance(ctx, q, m)
		}
	case err != nil:
		return apperrors.NewAppError(500, "failed to read version of account "+m.AccountID, err)
	}
	return &apperrors.ConflictError{Resource: "account balance", ID: m.AccountID, Expected: expected, Actual: actual}
}

func insertBalanceChanges(ctx context.Context, q querier, changes []domain.BalanceChange) error {
	if len(changes) == 0 {
		return nil
	}
	query := `
		INSERT INTO balance_changes (` + changeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	for _, c := range changes {
		m := mapping.ToModelBalanceChange(c)
		if _, err := q.Exec(ctx, query,
			m.ChangeID,
			m.CompanyID,
			m.AccountID,
			m.TransactionID,
			m.Side,
			m.AmountCents,
			m.BalanceBeforeCents,
			m.NormalSide,
			m.ReversalOf,
			m.CreatedAt,
		); err != nil {
			return apperrors.NewAppError(500, "failed to insert balance change "+m.ChangeID, err)
		}
	}
	return nil
}

func insertJournalEntry(ctx context.Context, q querier, entry *domain.JournalEntry) error {
	m, err := mapping.ToModelJournalEntry(entry)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err = q.Exec(ctx, query,
		m.EntryID,
		m.CompanyID,
		m.TransactionID,
		m.EntryType,
		m.Sequence,
		m.Payload,
		m.ContentHash,
		m.PreviousHash,
		m.ChainHash,
		m.CreatedAt,
		m.CreatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &apperrors.ConflictError{Resource: "journal chain", ID: m.CompanyID, Expected: m.Sequence}
		}
		return apperrors.NewAppError(500, "failed to insert journal entry "+m.EntryID, err)
	}
	return nil
}

// lockChainHead returns the head of a chain with its row locked until the transaction ends.
// A chain seen for the first time starts at its genesis hash with sequence 0.
func lockChainHead(ctx context.Context, q querier, chainID string) (models.ChainHead, error) {
	_, err := q.Exec(ctx, `
		INSERT INTO chain_heads (chain_id, sequence, head_hash) VALUES ($1, 0, $2)
		ON CONFLICT (chain_id) DO NOTHING;
	`, chainID, hashchain.Genesis(chainID))
	if err != nil {
		return models.ChainHead{}, apperrors.NewAppError(500, "failed to initialise chain head "+chainID, err)
	}

	head := models.ChainHead{ChainID: chainID}
	err = q.QueryRow(ctx, `SELECT sequence, head_hash FROM chain_heads WHERE chain_id = $1 FOR UPDATE;`, chainID).
		Scan(&head.Sequence, &head.HeadHash)
	if err != nil {
		return models.ChainHead{}, apperrors.NewAppError(500, "failed to lock chain head "+chainID, err)
	}
	return head, nil
}

func advanceChainHead(ctx context.Context, q querier, chainID string, sequence int64, hash string) error {
	_, err := q.Exec(ctx, `UPDATE chain_heads SET sequence = $2, head_hash = $3 WHERE chain_id = $1;`, chainID, sequence, hash)
	if err != nil {
		return apperrors.NewAppError(500, "failed to advance chain head "+chainID, err)
	}
	return nil
}
