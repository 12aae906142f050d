package repositories

import (
	"context"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
)

// ActivityReader defines read operations for the activity hash chains
type ActivityReader interface {
	// ListActivities returns every record of a chain in sequence order.
	ListActivities(ctx context.Context, chainID string) ([]domain.ActivityLog, error)
}

// ActivityWriter defines the append-only write of activity records
type ActivityWriter interface {
	// AppendActivity links the record to its chain head and stores it. Appends to one chain are
	// strictly serialized, so two writers never link to the same head.
	AppendActivity(ctx context.Context, activity *domain.ActivityLog) error
}

// ActivityRepositoryFacade combines all activity-related repository interfaces
type ActivityRepositoryFacade interface {
	ActivityReader
	ActivityWriter
}
