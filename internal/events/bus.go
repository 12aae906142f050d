package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/middleware"
)

// Bus delivers events to in-process subscribers. Handlers run synchronously in
// subscription order; one failing handler does not stop the others.
type Bus struct {
	mu       sync.RWMutex
	handlers map[domain.EventName][]portssvc.EventHandler
	all      []portssvc.EventHandler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[domain.EventName][]portssvc.EventHandler)}
}

var _ portssvc.EventPublisher = (*Bus)(nil)

// Subscribe registers h for events named name.
func (b *Bus) Subscribe(name domain.EventName, h portssvc.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// SubscribeAll registers h for every event.
func (b *Bus) SubscribeAll(h portssvc.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish dispatches each event in order.
func (b *Bus) Publish(ctx context.Context, events ...domain.DomainEvent) error {
	var errs []error
	for _, e := range events {
		if err := b.Dispatch(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatch runs every handler subscribed to the event and joins their errors.
func (b *Bus) Dispatch(ctx context.Context, event domain.DomainEvent) error {
	b.mu.RLock()
	targets := make([]portssvc.EventHandler, 0, len(b.all)+len(b.handlers[event.Name]))
	targets = append(targets, b.all...)
	targets = append(targets, b.handlers[event.Name]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range targets {
		if err := h(ctx, event); err != nil {
			middleware.GetLoggerFromCtx(ctx).Error("Event handler failed",
				slog.String("error", err.Error()),
				slog.String("event", string(event.Name)),
				slog.String("entity_id", event.EntityID()))
			errs = append(errs, fmt.Errorf("handle %s: %w", event.Name, err))
		}
	}
	return errors.Join(errs...)
}
