package services

import (
	"context"
	"time"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
)

// EventPublisher delivers domain events after the state that raised them is committed.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.DomainEvent) error
}

// EventHandler reacts to one delivered event.
type EventHandler func(ctx context.Context, event domain.DomainEvent) error

// ChainLocker serializes writers of one hash chain across processes.
type ChainLocker interface {
	// Acquire blocks until the chain is locked or ctx is done. The returned func releases it.
	Acquire(ctx context.Context, chainID string, ttl time.Duration) (release func(context.Context) error, err error)
}
