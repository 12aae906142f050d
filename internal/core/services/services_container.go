package services

import (
	portsrepo "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/repositories"
	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// locker may be nil, in which case writers rely on the store's row locks alone.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, locker portssvc.ChainLocker, opts ...Option) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Validation = NewValidationService(repos.AccountRepo, opts...)
	container.EdgeCase = NewEdgeCaseService(opts...)
	container.Threshold = NewThresholdService(repos.ThresholdRepo, opts...)
	container.Account = NewAccountService(repos.AccountRepo, repos.LedgerRepo, opts...)
	container.Transaction = NewTransactionService(repos.TransactionRepo, repos.AccountRepo, container.Validation, opts...)
	container.Approval = NewApprovalService(repos.ApprovalRepo, opts...)
	container.Audit = NewAuditService(repos.LedgerRepo, repos.ActivityRepo, opts...)

	postingCfg := DefaultPostingConfig()
	if cfg != nil {
		postingCfg.MaxRetries = cfg.PostingMaxRetries
		postingCfg.LockTTL = cfg.ChainLockTTL
	}
	container.Posting = NewPostingService(PostingDeps{
		Transactions: repos.TransactionRepo,
		Accounts:     repos.AccountRepo,
		Ledger:       repos.LedgerRepo,
		Approvals:    repos.ApprovalRepo,
		Thresholds:   container.Threshold,
		Validator:    container.Validation,
		EdgeCases:    container.EdgeCase,
		Locker:       locker,
	}, postingCfg, opts...)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountSvcFacade     = (*accountService)(nil)
	_ portssvc.TransactionSvcFacade = (*transactionService)(nil)
	_ portssvc.ApprovalSvcFacade    = (*approvalService)(nil)
	_ portssvc.PostingSvc           = (*postingService)(nil)
	_ portssvc.AuditSvc             = (*auditService)(nil)
)
