package pgsql

import (
	"context"
	"fmt"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	portsrepo "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/repositories"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/models"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

const activityColumns = `activity_id, chain_id, company_id, actor_id, action, entity_type, entity_id, payload, sequence, content_hash, previous_hash, chain_hash, occurred_at`

type PgxActivityRepository struct {
	BaseRepository
}

// newPgxActivityRepository creates a new repository for the activity hash chains.
func newPgxActivityRepository(pool *pgxpool.Pool) *PgxActivityRepository {
	return &PgxActivityRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ActivityRepositoryFacade = (*PgxActivityRepository)(nil)

// AppendActivity links the record to the locked chain head and stores it.
func (r *PgxActivityRepository) AppendActivity(ctx context.Context, activity *domain.ActivityLog) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	head, err := lockChainHead(ctx, tx, activity.ChainID)
	if err != nil {
		return err
	}
	activity.Link(head.HeadHash, head.Sequence+1)

	m, err := mapping.ToModelActivityLog(activity)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO activity_logs (` + activityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = tx.Exec(ctx, query,
		m.ActivityID,
		m.ChainID,
		m.CompanyID,
		m.ActorID,
		m.Action,
		m.EntityType,
		m.EntityID,
		m.Payload,
		m.Sequence,
		m.ContentHash,
		m.PreviousHash,
		m.ChainHash,
		m.OccurredAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: activity %s already recorded", apperrors.ErrDuplicate, m.ActivityID)
		}
		return apperrors.NewAppError(500, "failed to insert activity "+m.ActivityID, err)
	}
	if err := advanceChainHead(ctx, tx, m.ChainID, m.Sequence, m.ChainHash); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// ListActivities returns every record of a chain in sequence order.
func (r *PgxActivityRepository) ListActivities(ctx context.Context, chainID string) ([]domain.ActivityLog, error) {
	query := `SELECT ` + activityColumns + ` FROM activity_logs WHERE chain_id = $1 ORDER BY sequence;`
	rows, err := r.Pool.Query(ctx, query, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity chain %s: %w", chainID, err)
	}
	defer rows.Close()

	out := make([]domain.ActivityLog, 0)
	for rows.Next() {
		var m models.ActivityLog
		if err := rows.Scan(
			&m.ActivityID,
			&m.ChainID,
			&m.CompanyID,
			&m.ActorID,
			&m.Action,
			&m.EntityType,
			&m.EntityID,
			&m.Payload,
			&m.Sequence,
			&m.ContentHash,
			&m.PreviousHash,
			&m.ChainHash,
			&m.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		a, err := mapping.ToDomainActivityLog(m)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return out, nil
}
