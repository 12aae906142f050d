package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/dto"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/repositories/memory"
)

const (
	companyID = "co-1"
	clerkID   = "user-clerk"
	managerID = "user-manager"
)

var fixedNow = time.Date(2025, 5, 20, 14, 0, 0, 0, time.UTC)

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...domain.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) names() []domain.EventName {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventName, len(p.events))
	for i, e := range p.events {
		out[i] = e.Name
	}
	return out
}

// ledgerFixture wires every service over one in-memory store with a fixed clock.
type ledgerFixture struct {
	store     *memory.Store
	publisher *recordingPublisher
	svc       *portssvc.ServiceContainer
	seq       int
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	f := &ledgerFixture{
		store:     memory.New(domain.DefaultEdgeCaseThresholds()),
		publisher: &recordingPublisher{},
	}
	var mu sync.Mutex
	opts := []services.Option{
		services.WithClock(func() time.Time { return fixedNow }),
		services.WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			f.seq++
			return fmt.Sprintf("id-%04d", f.seq)
		}),
		services.WithPublisher(f.publisher),
	}
	f.svc = services.NewServiceContainer(nil, f.store.Repositories(), nil, opts...)
	return f
}

func (f *ledgerFixture) createAccount(t *testing.T, code string, typ domain.AccountType, subType string, opening int64) string {
	t.Helper()
	acc, err := f.svc.Account.CreateAccount(context.Background(), companyID, dto.CreateAccountRequest{
		Code:                code,
		Name:                "Account " + code,
		AccountType:         typ,
		SubType:             subType,
		CurrencyCode:        "USD",
		OpeningBalanceCents: opening,
	}, clerkID)
	require.NoError(t, err)
	return acc.AccountID
}

func (f *ledgerFixture) draft(t *testing.T, description string, lines ...dto.LineInput) *domain.Transaction {
	t.Helper()
	tx, err := f.svc.Transaction.CreateTransaction(context.Background(), companyID, dto.CreateTransactionRequest{
		Date:         fixedNow.Format(domain.DateLayout),
		Description:  description,
		CurrencyCode: "USD",
		Lines:        lines,
	}, clerkID)
	require.NoError(t, err)
	return tx
}

func (f *ledgerFixture) balance(t *testing.T, accountID string) int64 {
	t.Helper()
	bal, err := f.svc.Account.GetAccountBalance(context.Background(), companyID, accountID)
	require.NoError(t, err)
	return bal.CurrentBalanceCents
}

func (f *ledgerFixture) setThresholds(t *testing.T, mutate func(*dto.UpdateThresholdsRequest)) {
	t.Helper()
	def := domain.DefaultEdgeCaseThresholds()
	req := dto.UpdateThresholdsRequest{
		LargeAmountCents:       def.LargeAmountCents,
		ApprovalThresholdCents: def.ApprovalThresholdCents,
		BackdatingWindowDays:   def.BackdatingWindowDays,
		FutureDatingWindowDays: def.FutureDatingWindowDays,
		MinDescriptionLength:   def.MinDescriptionLength,
		RequireVoidApproval:    def.RequireVoidApproval,
	}
	mutate(&req)
	_, err := f.svc.Threshold.UpdateThresholds(context.Background(), companyID, req, managerID)
	require.NoError(t, err)
}

func debit(accountID string, cents int64) dto.LineInput {
	return dto.LineInput{AccountID: accountID, DebitCents: cents}
}

func credit(accountID string, cents int64) dto.LineInput {
	return dto.LineInput{AccountID: accountID, CreditCents: cents}
}
