package services

import (
	"context"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
)

// ActivityRecorder appends every delivered domain event to the activity hash chain.
type ActivityRecorder struct {
	audit portssvc.AuditSvc
}

// NewActivityRecorder creates a recorder writing through audit.
func NewActivityRecorder(audit portssvc.AuditSvc) *ActivityRecorder {
	return &ActivityRecorder{audit: audit}
}

// Handle records one event. It has the shape of portssvc.EventHandler.
func (r *ActivityRecorder) Handle(ctx context.Context, event domain.DomainEvent) error {
	_, err := r.audit.RecordEvent(ctx, event)
	return err
}
