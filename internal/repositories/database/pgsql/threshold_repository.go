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

type PgxThresholdRepository struct {
	BaseRepository
	defaults domain.EdgeCaseThresholds
}

// newPgxThresholdRepository creates a repository that falls back to defaults for companies without a row.
func newPgxThresholdRepository(pool *pgxpool.Pool, defaults domain.EdgeCaseThresholds) *PgxThresholdRepository {
	return &PgxThresholdRepository{BaseRepository: BaseRepository{Pool: pool}, defaults: defaults}
}

var _ portsrepo.ThresholdRepositoryFacade = (*PgxThresholdRepository)(nil)

// GetForCompany returns the company's stored thresholds, or the configured defaults.
func (r *PgxThresholdRepository) GetForCompany(ctx context.Context, companyID string) (domain.EdgeCaseThresholds, error) {
	query := `
		SELECT company_id, large_amount_cents, approval_threshold_cents, backdating_window_days,
			future_dating_window_days, min_description_length, require_void_approval, updated_at
		FROM edge_case_thresholds
		WHERE company_id = $1;
	`
	var m models.EdgeCaseThresholds
	err := r.Pool.QueryRow(ctx, query, companyID).Scan(
		&m.CompanyID,
		&m.LargeAmountCents,
		&m.ApprovalThresholdCents,
		&m.BackdatingWindowDays,
		&m.FutureDatingWindowDays,
		&m.MinDescriptionLength,
		&m.RequireVoidApproval,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			th := r.defaults
			th.CompanyID = companyID
			return th, nil
		}
		return domain.EdgeCaseThresholds{}, fmt.Errorf("failed to load thresholds of company %s: %w", companyID, err)
	}
	return mapping.ToDomainThresholds(m), nil
}

// SaveForCompany inserts or replaces a company's thresholds.
func (r *PgxThresholdRepository) SaveForCompany(ctx context.Context, thresholds domain.EdgeCaseThresholds) error {
	m := mapping.ToModelThresholds(thresholds)
	m.UpdatedAt = time.Now().UTC()
	query := `
		INSERT INTO edge_case_thresholds (company_id, large_amount_cents, approval_threshold_cents, backdating_window_days,
			future_dating_window_days, min_description_length, require_void_approval, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (company_id) DO UPDATE
		SET large_amount_cents = EXCLUDED.large_amount_cents,
			approval_threshold_cents = EXCLUDED.approval_threshold_cents,
			backdating_window_days = EXCLUDED.backdating_window_days,
			future_dating_window_days = EXCLUDED.future_dating_window_days,
			min_description_length = EXCLUDED.min_description_length,
			require_void_approval = EXCLUDED.require_void_approval,
			updated_at = EXCLUDED.updated_at;
	`
	_, err := r.Pool.Exec(ctx, query,
		m.CompanyID,
		m.LargeAmountCents,
		m.ApprovalThresholdCents,
		m.BackdatingWindowDays,
		m.FutureDatingWindowDays,
		m.MinDescriptionLength,
		m.RequireVoidApproval,
		m.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save thresholds of company "+m.CompanyID, err)
	}
	return nil
}
