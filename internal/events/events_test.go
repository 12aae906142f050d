package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
)

var occurred = time.Date(2025, 5, 20, 14, 0, 0, 0, time.UTC)

func postedEvent(txID string) domain.DomainEvent {
	return domain.NewDomainEvent(domain.EventTransactionPosted, occurred, "co-1", "user-1", domain.EntityTypeTransaction, txID,
		map[string]any{"amountCents": int64(10000)})
}

type recorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorder) handler(tag string) func(context.Context, domain.DomainEvent) error {
	return func(_ context.Context, e domain.DomainEvent) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.seen = append(r.seen, tag+":"+e.EntityID())
		return nil
	}
}

func TestBus_DispatchesToNamedAndWildcardSubscribers(t *testing.T) {
	bus := NewBus()
	rec := &recorder{}
	bus.SubscribeAll(rec.handler("all"))
	bus.Subscribe(domain.EventTransactionPosted, rec.handler("posted"))
	bus.Subscribe(domain.EventTransactionVoided, rec.handler("voided"))

	err := bus.Publish(context.Background(), postedEvent("tx-1"), postedEvent("tx-2"))
	require.NoError(t, err)

	assert.Equal(t, []string{"all:tx-1", "posted:tx-1", "all:tx-2", "posted:tx-2"}, rec.seen)
}

func TestBus_FailingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewBus()
	rec := &recorder{}
	boom := errors.New("boom")
	bus.Subscribe(domain.EventTransactionPosted, func(context.Context, domain.DomainEvent) error { return boom })
	bus.Subscribe(domain.EventTransactionPosted, rec.handler("second"))

	err := bus.Dispatch(context.Background(), postedEvent("tx-1"))

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"second:tx-1"}, rec.seen)
}

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	info, _ := args.Get(0).(*asynq.TaskInfo)
	return info, args.Error(1)
}

func TestAsynqPublisher_EnqueuesOneTaskPerEvent(t *testing.T) {
	enq := &mockEnqueuer{}
	enq.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		return task.Type() == "ledger:event:TransactionPosted"
	}), mock.Anything).Return(&asynq.TaskInfo{ID: "task-1", Queue: "ledger-events"}, nil).Twice()

	pub := NewAsynqPublisher(enq, "ledger-events")
	err := pub.Publish(context.Background(), postedEvent("tx-1"), postedEvent("tx-2"))

	require.NoError(t, err)
	enq.AssertExpectations(t)

	task := enq.Calls[0].Arguments.Get(1).(*asynq.Task)
	var decoded domain.DomainEvent
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, domain.EventTransactionPosted, decoded.Name)
	assert.Equal(t, "tx-1", decoded.EntityID())
	assert.True(t, occurred.Equal(decoded.OccurredAt))
}

func TestAsynqPublisher_JoinsEnqueueFailures(t *testing.T) {
	enq := &mockEnqueuer{}
	down := errors.New("redis down")
	enq.On("EnqueueContext", mock.Anything, mock.Anything, mock.Anything).Return(nil, down).Once()
	enq.On("EnqueueContext", mock.Anything, mock.Anything, mock.Anything).Return(&asynq.TaskInfo{ID: "task-2"}, nil).Once()

	err := NewAsynqPublisher(enq, "q").Publish(context.Background(), postedEvent("tx-1"), postedEvent("tx-2"))

	require.Error(t, err)
	assert.ErrorIs(t, err, down)
	assert.Contains(t, err.Error(), "enqueue TransactionPosted")
	enq.AssertNumberOfCalls(t, "EnqueueContext", 2)
}

func TestWorkerMux_DecodesAndDispatches(t *testing.T) {
	bus := NewBus()
	rec := &recorder{}
	bus.Subscribe(domain.EventTransactionPosted, rec.handler("worker"))
	mux := NewWorkerMux(bus)

	payload, err := json.Marshal(postedEvent("tx-9"))
	require.NoError(t, err)

	err = mux.ProcessTask(context.Background(), asynq.NewTask(TaskType(domain.EventTransactionPosted), payload))
	require.NoError(t, err)
	assert.Equal(t, []string{"worker:tx-9"}, rec.seen)
}

func TestWorkerMux_BadPayloadSkipsRetry(t *testing.T) {
	mux := NewWorkerMux(NewBus())

	err := mux.ProcessTask(context.Background(), asynq.NewTask(TaskType(domain.EventApprovalRequested), []byte("{not json")))

	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
