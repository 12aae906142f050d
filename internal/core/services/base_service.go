package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct {
	now       func() time.Time
	newID     func() string
	publisher portssvc.EventPublisher
}

func newBaseService() BaseService {
	return BaseService{now: time.Now, newID: uuid.NewString}
}

// Now returns the service clock reading in UTC.
func (s *BaseService) Now() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

// NewID generates an identifier for a new entity.
func (s *BaseService) NewID() string {
	if s.newID == nil {
		return uuid.NewString()
	}
	return s.newID()
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	logger := middleware.GetLoggerFromCtx(ctx)
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// publish hands committed events to the publisher. Delivery failures are logged and never undo the commit.
func (s *BaseService) publish(ctx context.Context, events []domain.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.LogError(ctx, err, "Failed to publish domain events", slog.Int("event_count", len(events)))
	}
}

// Option configures the clock and id generator shared by every service.
type Option func(*BaseService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *BaseService) {
		s.now = now
	}
}

// WithIDGenerator replaces uuid.NewString.
func WithIDGenerator(gen func() string) Option {
	return func(s *BaseService) {
		s.newID = gen
	}
}

// WithPublisher sets where committed domain events are delivered.
func WithPublisher(pub portssvc.EventPublisher) Option {
	return func(s *BaseService) {
		s.publisher = pub
	}
}

func (s *BaseService) apply(opts []Option) {
	for _, opt := range opts {
		opt(s)
	}
}
