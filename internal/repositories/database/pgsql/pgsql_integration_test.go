package pgsql_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	portsrepo "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/repositories"
	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/repositories/database/pgsql"
	"github.com/Rust-Frog/Accounting-System-sub002/pkg/database"
)

var migrateOnce sync.Once

// setupPostgres connects to TEST_PGSQL_URL and migrates it. Tests are skipped when it is unset.
func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_PGSQL_URL")
	if url == "" {
		t.Skip("TEST_PGSQL_URL not set")
	}

	var migrateErr error
	migrateOnce.Do(func() {
		_, migrateErr = database.RunMigrations(url, "file://../../../../migrations", database.MigrateUp)
	})
	require.NoError(t, migrateErr)

	pool, err := database.NewPgxPool(context.Background(), url, true)
	require.NoError(t, err)
	t.Cleanup(func() { database.ClosePgxPool(pool) })
	return pool
}

type pgFixture struct {
	repos   portsrepo.RepositoryProvider
	svc     *portssvc.ServiceContainer
	company string
	clerk   string
}

func newPgFixture(t *testing.T) *pgFixture {
	pool := setupPostgres(t)
	repos := pgsql.NewRepositoryProvider(pool, domain.DefaultEdgeCaseThresholds())
	return &pgFixture{
		repos:   repos,
		svc:     services.NewServiceContainer(nil, repos, nil),
		company: gofakeit.UUID(),
		clerk:   gofakeit.UUID(),
	}
}

func (f *pgFixture) account(t *testing.T, typ domain.AccountType, opening int64) string {
	t.Helper()
	acc, err := f.svc.Account.CreateAccount(context.Background(), f.company, dto.CreateAccountRequest{
		Code:                gofakeit.DigitN(6),
		Name:                gofakeit.Company(),
		AccountType:         typ,
		SubType:             "bank",
		CurrencyCode:        "USD",
		OpeningBalanceCents: opening,
	}, f.clerk)
	require.NoError(t, err)
	return acc.AccountID
}

func TestPostgres_PostVoidAndVerifyChain(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()
	cash := f.account(t, domain.Asset, 0)
	revenue := f.account(t, domain.Revenue, 0)

	tx, err := f.svc.Transaction.CreateTransaction(ctx, f.company, dto.CreateTransactionRequest{
		Date:         time.Now().UTC().Format(domain.DateLayout),
		Description:  gofakeit.Sentence(6),
		CurrencyCode: "USD",
		Lines: []dto.LineInput{
			{AccountID: cash, DebitCents: 12345},
			{AccountID: revenue, CreditCents: 12345},
		},
	}, f.clerk)
	require.NoError(t, err)

	stored, err := f.repos.TransactionRepo.FindTransactionByID(ctx, tx.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, tx.ContentHash(), stored.ContentHash())

	posted, err := f.svc.Posting.PostTransaction(ctx, f.company, dto.PostTransactionRequest{TransactionID: tx.TransactionID, ActorUserID: f.clerk})
	require.NoError(t, err)
	require.Equal(t, dto.StatusPosted, posted.Status)

	bal, err := f.repos.LedgerRepo.GetAccountBalance(ctx, f.company, cash)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), bal.CurrentBalanceCents)
	assert.Equal(t, int64(1), bal.Version)

	voided, err := f.svc.Posting.VoidTransaction(ctx, f.company, tx.TransactionID, dto.VoidTransactionRequest{Reason: "entered twice"}, f.clerk)
	require.NoError(t, err)
	require.Equal(t, dto.StatusVoided, voided.Status)

	bal, err = f.repos.LedgerRepo.GetAccountBalance(ctx, f.company, cash)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal.CurrentBalanceCents)

	changes, err := f.repos.LedgerRepo.FindBalanceChangesByTransaction(ctx, tx.TransactionID)
	require.NoError(t, err)
	assert.Len(t, changes, 4)

	result, err := f.svc.Audit.VerifyJournalChain(ctx, f.company)
	require.NoError(t, err)
	assert.True(t, result.Valid, result.Reason)
	assert.Equal(t, 2, result.VerifiedCount)
}

func TestPostgres_SaveBalanceRejectsStaleVersion(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()
	cash := f.account(t, domain.Asset, 500)

	bal, err := f.repos.LedgerRepo.GetAccountBalance(ctx, f.company, cash)
	require.NoError(t, err)

	next := *bal
	next.CurrentBalanceCents = 700
	next.Version = bal.Version + 1
	require.NoError(t, f.repos.LedgerRepo.SaveBalance(ctx, next, bal.Version))

	err = f.repos.LedgerRepo.SaveBalance(ctx, next, bal.Version)
	var conflict *apperrors.ConflictError
	require.True(t, errors.As(err, &conflict), "expected conflict, got %v", err)
	assert.Equal(t, bal.Version+1, conflict.Actual)
}

func TestPostgres_DuplicateAccountCode(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		Code:         gofakeit.DigitN(6),
		Name:         gofakeit.Company(),
		AccountType:  domain.Expense,
		CurrencyCode: "USD",
	}
	_, err := f.svc.Account.CreateAccount(ctx, f.company, req, f.clerk)
	require.NoError(t, err)

	_, err = f.svc.Account.CreateAccount(ctx, f.company, req, f.clerk)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestPostgres_ThresholdsFallBackToDefaults(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()

	th, err := f.repos.ThresholdRepo.GetForCompany(ctx, f.company)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultEdgeCaseThresholds().LargeAmountCents, th.LargeAmountCents)
	assert.Equal(t, f.company, th.CompanyID)

	th.LargeAmountCents = 42
	require.NoError(t, f.repos.ThresholdRepo.SaveForCompany(ctx, th))

	th, err = f.repos.ThresholdRepo.GetForCompany(ctx, f.company)
	require.NoError(t, err)
	assert.Equal(t, int64(42), th.LargeAmountCents)
}

func TestPostgres_ActivityChainAppends(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		event := domain.NewDomainEvent(domain.EventTransactionCreated, time.Now(), f.company, f.clerk,
			domain.EntityTypeTransaction, gofakeit.UUID(), map[string]any{"amount": int64(i * 100)})
		_, err := f.svc.Audit.RecordEvent(ctx, event)
		require.NoError(t, err)
	}

	result, err := f.svc.Audit.VerifyActivityChain(ctx, f.company)
	require.NoError(t, err)
	assert.True(t, result.Valid, result.Reason)
	assert.Equal(t, 3, result.VerifiedCount)
}
