package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/middleware"
)

// TaskPrefix prefixes the asynq task type of every domain event, e.g. "ledger:event:TransactionPosted".
const TaskPrefix = "ledger:event:"

const maxDeliveryRetries = 5

var tracer = otel.Tracer("ledger.events")

// TaskType is the asynq task type carrying events named name.
func TaskType(name domain.EventName) string {
	return TaskPrefix + string(name)
}

// Enqueuer is the part of *asynq.Client used by the publisher.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqPublisher enqueues domain events to redis for the worker process.
type AsynqPublisher struct {
	client Enqueuer
	queue  string
}

// NewAsynqPublisher creates a publisher that enqueues onto queue.
func NewAsynqPublisher(client Enqueuer, queue string) *AsynqPublisher {
	return &AsynqPublisher{client: client, queue: queue}
}

var _ portssvc.EventPublisher = (*AsynqPublisher)(nil)

// Publish enqueues every event and joins the failures. Events that were enqueued stay enqueued.
func (p *AsynqPublisher) Publish(ctx context.Context, events ...domain.DomainEvent) error {
	ctx, span := tracer.Start(ctx, "Enqueueing domain events")
	defer span.End()
	span.SetAttributes(attribute.Int("events.count", len(events)))

	var errs []error
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			errs = append(errs, fmt.Errorf("encode %s: %w", e.Name, err))
			continue
		}
		task := asynq.NewTask(TaskType(e.Name), payload)
		info, err := p.client.EnqueueContext(ctx, task, asynq.Queue(p.queue), asynq.MaxRetry(maxDeliveryRetries))
		if err != nil {
			errs = append(errs, fmt.Errorf("enqueue %s: %w", e.Name, err))
			continue
		}
		middleware.GetLoggerFromCtx(ctx).Debug("Domain event enqueued",
			slog.String("event", string(e.Name)),
			slog.String("task_id", info.ID),
			slog.String("queue", info.Queue))
	}

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// NewWorkerMux routes every domain event task to bus. Undecodable payloads are not retried.
func NewWorkerMux(bus *Bus) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskPrefix, func(ctx context.Context, t *asynq.Task) error {
		ctx, span := tracer.Start(ctx, "Handling domain event")
		defer span.End()

		var event domain.DomainEvent
		if err := json.Unmarshal(t.Payload(), &event); err != nil {
			span.RecordError(err)
			return fmt.Errorf("decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
		}
		span.SetAttributes(attribute.String("event.name", string(event.Name)))
		return bus.Dispatch(ctx, event)
	})
	return mux
}
