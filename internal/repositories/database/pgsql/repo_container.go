package pgsql

import (
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	portsrepo "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires every Postgres repository onto one pool.
// defaults are served to companies that never stored their own thresholds.
func NewRepositoryProvider(dbPool *pgxpool.Pool, defaults domain.EdgeCaseThresholds) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:     newPgxAccountRepository(dbPool),
		TransactionRepo: newPgxTransactionRepository(dbPool),
		ApprovalRepo:    newPgxApprovalRepository(dbPool),
		LedgerRepo:      newPgxLedgerRepository(dbPool),
		ActivityRepo:    newPgxActivityRepository(dbPool),
		ThresholdRepo:   newPgxThresholdRepository(dbPool, defaults),
	}
}
