// Package memory keeps every repository in process memory behind one mutex. It backs tests and
// local runs; a commit is atomic because it happens under a single lock.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/hashchain"
	portsrepo "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/repositories"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/utils/pagination"
)

type storedTransaction struct {
	state domain.Transaction
	lines []domain.TransactionLine
}

type storedApproval struct {
	approval domain.Approval
	seq      int
}

// Store implements every repository port.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]domain.Account
	balances     map[string]domain.AccountBalance
	transactions map[string]storedTransaction
	approvals    map[string]storedApproval
	changes      []domain.BalanceChange
	journal      map[string][]domain.JournalEntry
	activities   map[string][]domain.ActivityLog
	thresholds   map[string]domain.EdgeCaseThresholds

	defaults    domain.EdgeCaseThresholds
	approvalSeq int
}

// New creates an empty store. Companies without stored thresholds get defaults.
func New(defaults domain.EdgeCaseThresholds) *Store {
	return &Store{
		accounts:     make(map[string]domain.Account),
		balances:     make(map[string]domain.AccountBalance),
		transactions: make(map[string]storedTransaction),
		approvals:    make(map[string]storedApproval),
		journal:      make(map[string][]domain.JournalEntry),
		activities:   make(map[string][]domain.ActivityLog),
		thresholds:   make(map[string]domain.EdgeCaseThresholds),
		defaults:     defaults,
	}
}

// Repositories exposes the store through every port.
func (s *Store) Repositories() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:     s,
		TransactionRepo: s,
		ApprovalRepo:    s,
		LedgerRepo:      s,
		ActivityRepo:    s,
		ThresholdRepo:   s,
	}
}

var (
	_ portsrepo.AccountRepositoryFacade     = (*Store)(nil)
	_ portsrepo.TransactionRepositoryFacade = (*Store)(nil)
	_ portsrepo.ApprovalRepositoryFacade    = (*Store)(nil)
	_ portsrepo.LedgerRepositoryFacade      = (*Store)(nil)
	_ portsrepo.ActivityRepositoryFacade    = (*Store)(nil)
	_ portsrepo.ThresholdRepositoryFacade   = (*Store)(nil)
)

// --- accounts ---

func (s *Store) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return nil, apperrors.NewNotFoundError("account", accountID)
	}
	return &acc, nil
}

func (s *Store) FindAccountsByIDs(_ context.Context, accountIDs []string) (map[string]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if acc, ok := s.accounts[id]; ok {
			out[id] = acc
		}
	}
	return out, nil
}

func (s *Store) ListAccounts(_ context.Context, companyID string, limit int, nextToken *string) ([]domain.Account, *string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var afterCode, afterID string
	if nextToken != nil && *nextToken != "" {
		parts, err := pagination.DecodeMultiFieldToken(*nextToken, 2)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		afterCode, afterID = parts[0], parts[1]
	}

	rows := make([]domain.Account, 0)
	for _, acc := range s.accounts {
		if acc.CompanyID != companyID {
			continue
		}
		if nextToken != nil && *nextToken != "" && !(acc.Code > afterCode || (acc.Code == afterCode && acc.AccountID > afterID)) {
			continue
		}
		rows = append(rows, acc)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Code != rows[j].Code {
			return rows[i].Code < rows[j].Code
		}
		return rows[i].AccountID < rows[j].AccountID
	})

	if limit <= 0 || len(rows) <= limit {
		return rows, nil, nil
	}
	rows = rows[:limit]
	last := rows[limit-1]
	token := pagination.EncodeMultiFieldToken(last.Code, last.AccountID)
	return rows, &token, nil
}

func (s *Store) SaveAccount(_ context.Context, account domain.Account, opening domain.AccountBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.AccountID]; exists {
		return fmt.Errorf("account %s: %w", account.AccountID, apperrors.ErrDuplicate)
	}
	for _, acc := range s.accounts {
		if acc.CompanyID == account.CompanyID && strings.EqualFold(acc.Code, account.Code) {
			return fmt.Errorf("account code %s: %w", account.Code, apperrors.ErrDuplicate)
		}
	}
	s.accounts[account.AccountID] = account
	s.balances[account.AccountID] = opening
	return nil
}

// --- transactions ---

func (s *Store) FindTransactionByID(_ context.Context, transactionID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.transactions[transactionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("transaction", transactionID)
	}
	return domain.RehydrateTransaction(rec.state, rec.lines), nil
}

func (s *Store) ListTransactions(_ context.Context, companyID string, status domain.TransactionStatus, limit int, nextToken *string) ([]*domain.Transaction, *string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cursor *pagination.Cursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &c
	}

	rows := make([]storedTransaction, 0)
	for _, rec := range s.transactions {
		if rec.state.CompanyID != companyID || (status != "" && rec.state.Status != status) {
			continue
		}
		if cursor != nil && !afterCursor(rec.state, *cursor) {
			continue
		}
		rows = append(rows, rec)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].state, rows[j].state
		return afterCursor(b, pagination.Cursor{Date: a.Date, CreatedAt: a.CreatedAt, ID: a.TransactionID})
	})

	var next *string
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
		last := rows[limit-1].state
		token := pagination.EncodeToken(pagination.Cursor{Date: last.Date, CreatedAt: last.CreatedAt, ID: last.TransactionID})
		next = &token
	}
	out := make([]*domain.Transaction, len(rows))
	for i, rec := range rows {
		out[i] = domain.RehydrateTransaction(rec.state, rec.lines)
	}
	return out, next, nil
}

// afterCursor reports whether t sorts after c in newest-first order.
func afterCursor(t domain.Transaction, c pagination.Cursor) bool {
	if !t.Date.Equal(c.Date) {
		return t.Date.Before(c.Date)
	}
	if !t.CreatedAt.Equal(c.CreatedAt) {
		return t.CreatedAt.Before(c.CreatedAt)
	}
	return t.TransactionID < c.ID
}

func (s *Store) SaveTransaction(_ context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !tx.IsDraft() {
		return fmt.Errorf("only DRAFT transactions are saved directly, got %s", tx.Status)
	}
	if rec, ok := s.transactions[tx.TransactionID]; ok && rec.state.Status != domain.StatusDraft {
		return &apperrors.ConflictError{Resource: "transaction", ID: tx.TransactionID}
	}
	s.putTransaction(tx)
	return nil
}

func (s *Store) putTransaction(tx *domain.Transaction) {
	state := *domain.RehydrateTransaction(*tx, nil)
	s.transactions[tx.TransactionID] = storedTransaction{state: state, lines: tx.Lines()}
}

// --- approvals ---

func (s *Store) FindApprovalByID(_ context.Context, approvalID string) (*domain.Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.approvals[approvalID]
	if !ok {
		return nil, apperrors.NewNotFoundError("approval", approvalID)
	}
	return domain.RehydrateApproval(rec.approval), nil
}

func (s *Store) FindPendingByCompany(_ context.Context, companyID string, limit int) ([]*domain.Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.filterApprovals(func(a domain.Approval) bool {
		return a.CompanyID == companyID && a.Status == domain.ApprovalPending
	})
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Priority != rows[j].Priority {
			return rows[i].Priority < rows[j].Priority
		}
		return rows[i].ExpiresAt.Before(rows[j].ExpiresAt)
	})
	return limitApprovals(rows, limit), nil
}

func (s *Store) FindLatestForEntity(_ context.Context, entityType, entityID string) (*domain.Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *storedApproval
	for _, rec := range s.approvals {
		if rec.approval.EntityType != entityType || rec.approval.EntityID != entityID {
			continue
		}
		if latest == nil || rec.seq > latest.seq {
			r := rec
			latest = &r
		}
	}
	if latest == nil {
		return nil, apperrors.NewNotFoundError("approval for "+entityType, entityID)
	}
	return domain.RehydrateApproval(latest.approval), nil
}

func (s *Store) FindOverdue(_ context.Context, now time.Time, limit int) ([]*domain.Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.filterApprovals(func(a domain.Approval) bool {
		return a.Status == domain.ApprovalPending && now.After(a.ExpiresAt)
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].ExpiresAt.Before(rows[j].ExpiresAt) })
	return limitApprovals(rows, limit), nil
}

func (s *Store) filterApprovals(keep func(domain.Approval) bool) []*domain.Approval {
	rows := make([]*domain.Approval, 0)
	for _, rec := range s.approvals {
		if keep(rec.approval) {
			rows = append(rows, domain.RehydrateApproval(rec.approval))
		}
	}
	return rows
}

func limitApprovals(rows []*domain.Approval, limit int) []*domain.Approval {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

func (s *Store) SaveApproval(_ context.Context, approval *domain.Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.putApproval(approval)
	return nil
}

func (s *Store) putApproval(a *domain.Approval) {
	rec, ok := s.approvals[a.ApprovalID]
	if !ok {
		s.approvalSeq++
		rec.seq = s.approvalSeq
	}
	rec.approval = *domain.RehydrateApproval(*a)
	s.approvals[a.ApprovalID] = rec
}

// --- ledger ---

func (s *Store) GetAccountBalance(_ context.Context, companyID, accountID string) (*domain.AccountBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bal, ok := s.balances[accountID]
	if !ok || bal.CompanyID != companyID {
		return nil, apperrors.NewNotFoundError("account balance", accountID)
	}
	return &bal, nil
}

func (s *Store) GetAccountBalances(_ context.Context, companyID string, accountIDs []string) (map[string]domain.AccountBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.AccountBalance, len(accountIDs))
	for _, id := range accountIDs {
		if bal, ok := s.balances[id]; ok && bal.CompanyID == companyID {
			out[id] = bal
		}
	}
	return out, nil
}

func (s *Store) FindBalanceChangesByTransaction(_ context.Context, transactionID string) ([]domain.BalanceChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.BalanceChange, 0)
	for _, c := range s.changes {
		if c.TransactionID == transactionID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) FindJournalEntryByID(_ context.Context, entryID string) (*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entries := range s.journal {
		for _, e := range entries {
			if e.EntryID == entryID {
				return &e, nil
			}
		}
	}
	return nil, apperrors.NewNotFoundError("journal entry", entryID)
}

func (s *Store) FindJournalEntriesByTransaction(_ context.Context, transactionID string) ([]domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.JournalEntry, 0)
	for _, entries := range s.journal {
		for _, e := range entries {
			if e.TransactionID == transactionID {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (s *Store) ListJournalEntries(_ context.Context, companyID string) ([]domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.journal[companyID]
	out := make([]domain.JournalEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *Store) SaveBalance(_ context.Context, balance domain.AccountBalance, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkVersion(balance.AccountID, expectedVersion); err != nil {
		return err
	}
	s.balances[balance.AccountID] = balance
	return nil
}

func (s *Store) checkVersion(accountID string, expected int64) error {
	var current int64
	if bal, ok := s.balances[accountID]; ok {
		current = bal.Version
	}
	if current != expected {
		return &apperrors.ConflictError{Resource: "account balance", ID: accountID, Expected: expected, Actual: current}
	}
	return nil
}

// previousStatus is the status a transaction must hold in storage for a commit moving it to next.
func previousStatus(next domain.TransactionStatus) domain.TransactionStatus {
	if next == domain.StatusVoided {
		return domain.StatusPosted
	}
	return domain.StatusDraft
}

func (s *Store) CommitPosting(_ context.Context, commit domain.LedgerCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := commit.Transaction
	rec, ok := s.transactions[tx.TransactionID]
	if !ok {
		return apperrors.NewNotFoundError("transaction", tx.TransactionID)
	}
	if want := previousStatus(tx.Status); rec.state.Status != want {
		return &apperrors.ConflictError{Resource: "transaction " + string(want), ID: tx.TransactionID}
	}
	for _, u := range commit.Updates {
		if err := s.checkVersion(u.Balance.AccountID, u.ExpectedVersion); err != nil {
			return err
		}
	}
	if a := commit.Approval; a != nil {
		if stored, ok := s.approvals[a.ApprovalID]; ok && stored.approval.Status != domain.ApprovalPending {
			return &apperrors.ConflictError{Resource: "approval", ID: a.ApprovalID}
		}
	}

	entries := s.journal[tx.CompanyID]
	previous := hashchain.Genesis(commit.Entry.ChainID())
	if n := len(entries); n > 0 {
		previous = entries[n-1].ChainHash
	}
	commit.Entry.Link(previous, int64(len(entries)+1))

	s.putTransaction(tx)
	for _, u := range commit.Updates {
		s.balances[u.Balance.AccountID] = u.Balance
	}
	s.changes = append(s.changes, commit.Changes...)
	s.journal[tx.CompanyID] = append(entries, *commit.Entry)
	if commit.Approval != nil {
		s.putApproval(commit.Approval)
	}
	return nil
}

// --- activity ---

func (s *Store) ListActivities(_ context.Context, chainID string) ([]domain.ActivityLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.activities[chainID]
	out := make([]domain.ActivityLog, len(records))
	copy(out, records)
	return out, nil
}

func (s *Store) AppendActivity(_ context.Context, activity *domain.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.activities[activity.ChainID]
	previous := hashchain.Genesis(activity.ChainID)
	if n := len(records); n > 0 {
		previous = records[n-1].ChainHash
	}
	activity.Link(previous, int64(len(records)+1))
	s.activities[activity.ChainID] = append(records, *activity)
	return nil
}

// --- thresholds ---

func (s *Store) GetForCompany(_ context.Context, companyID string) (domain.EdgeCaseThresholds, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if th, ok := s.thresholds[companyID]; ok {
		return th, nil
	}
	th := s.defaults
	th.CompanyID = companyID
	return th, nil
}

func (s *Store) SaveForCompany(_ context.Context, thresholds domain.EdgeCaseThresholds) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.thresholds[thresholds.CompanyID] = thresholds
	return nil
}
