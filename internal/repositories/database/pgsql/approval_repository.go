package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	portsrepo "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/repositories"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/models"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const approvalColumns = `approval_id, company_id, approval_type, entity_type, entity_id, entity_content_hash, reason, requested_by, requested_at, amount_cents, currency_code, priority, expires_at, status, reviewed_by, review_notes, reviewed_at, proof`

type PgxApprovalRepository struct {
	BaseRepository
}

// newPgxApprovalRepository creates a new repository for approval requests.
func newPgxApprovalRepository(pool *pgxpool.Pool) *PgxApprovalRepository {
	return &PgxApprovalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ApprovalRepositoryFacade = (*PgxApprovalRepository)(nil)

func scanApproval(row pgx.Row) (*domain.Approval, error) {
	var m models.Approval
	if err := row.Scan(
		&m.ApprovalID,
		&m.CompanyID,
		&m.ApprovalType,
		&m.EntityType,
		&m.EntityID,
		&m.EntityContentHash,
		&m.Reason,
		&m.RequestedBy,
		&m.RequestedAt,
		&m.AmountCents,
		&m.CurrencyCode,
		&m.Priority,
		&m.ExpiresAt,
		&m.Status,
		&m.ReviewedBy,
		&m.ReviewNotes,
		&m.ReviewedAt,
		&m.Proof,
	); err != nil {
		return nil, err
	}
	return mapping.ToDomainApproval(m)
}

// SaveApproval inserts or updates an approval.
func (r *PgxApprovalRepository) SaveApproval(ctx context.Context, approval *domain.Approval) error {
	return upsertApproval(ctx, r.Pool, approval)
}

// FindApprovalByID retrieves an approval by its ID.
func (r *PgxApprovalRepository) FindApprovalByID(ctx context.Context, approvalID string) (*domain.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE approval_id = $1;`

	a, err := scanApproval(r.Pool.QueryRow(ctx, query, approvalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("approval", approvalID)
		}
		return nil, fmt.Errorf("failed to find approval %s: %w", approvalID, err)
	}
	return a, nil
}

// FindPendingByCompany lists a company's PENDING approvals, most urgent first.
func (r *PgxApprovalRepository) FindPendingByCompany(ctx context.Context, companyID string, limit int) ([]*domain.Approval, error) {
	query := `
		SELECT ` + approvalColumns + ` FROM approvals
		WHERE company_id = $1 AND status = 'PENDING'
		ORDER BY priority, expires_at
		LIMIT $2;
	`
	return r.queryApprovals(ctx, query, companyID, pageLimit(limit))
}

// FindLatestForEntity returns the most recently requested approval for an entity.
func (r *PgxApprovalRepository) FindLatestForEntity(ctx context.Context, entityType, entityID string) (*domain.Approval, error) {
	query := `
		SELECT ` + approvalColumns + ` FROM approvals
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY seq DESC
		LIMIT 1;
	`
	a, err := scanApproval(r.Pool.QueryRow(ctx, query, entityType, entityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("approval for "+entityType, entityID)
		}
		return nil, fmt.Errorf("failed to find approval for %s %s: %w", entityType, entityID, err)
	}
	return a, nil
}

// FindOverdue lists PENDING approvals that expired before now, across all companies.
func (r *PgxApprovalRepository) FindOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.Approval, error) {
	query := `
		SELECT ` + approvalColumns + ` FROM approvals
		WHERE status = 'PENDING' AND expires_at < $1
		ORDER BY expires_at
		LIMIT $2;
	`
	return r.queryApprovals(ctx, query, now.UTC(), pageLimit(limit))
}

func (r *PgxApprovalRepository) queryApprovals(ctx context.Context, query string, args ...any) ([]*domain.Approval, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query approvals: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Approval, 0)
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating approval rows: %w", err)
	}
	return out, nil
}

// pageLimit binds NULL for a non-positive limit so the query returns every row.
func pageLimit(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

// lockPendingApproval locks a stored approval and checks it is still PENDING. An approval
// that has never been stored passes.
func lockPendingApproval(ctx context.Context, q querier, approvalID string) error {
	var status string
	err := q.QueryRow(ctx, `SELECT status FROM approvals WHERE approval_id = $1 FOR UPDATE;`, approvalID).Scan(&status)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	case err != nil:
		return apperrors.NewAppError(500, "failed to lock approval "+approvalID, err)
	case domain.ApprovalStatus(status) != domain.ApprovalPending:
		return &apperrors.ConflictError{Resource: "approval", ID: approvalID}
	}
	return nil
}

func upsertApproval(ctx context.Context, q querier, approval *domain.Approval) error {
	m, err := mapping.ToModelApproval(approval)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO approvals (` + approvalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (approval_id) DO UPDATE
		SET status = EXCLUDED.status,
			reviewed_by = EXCLUDED.reviewed_by,
			review_notes = EXCLUDED.review_notes,
			reviewed_at = EXCLUDED.reviewed_at,
			proof = EXCLUDED.proof;
	`
	_, err = q.Exec(ctx, query,
		m.ApprovalID,
		m.CompanyID,
		m.ApprovalType,
		m.EntityType,
		m.EntityID,
		m.EntityContentHash,
		m.Reason,
		m.RequestedBy,
		m.RequestedAt,
		m.AmountCents,
		m.CurrencyCode,
		m.Priority,
		m.ExpiresAt,
		m.Status,
		m.ReviewedBy,
		m.ReviewNotes,
		m.ReviewedAt,
		m.Proof,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save approval "+m.ApprovalID, err)
	}
	return nil
}
