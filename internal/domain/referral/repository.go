package referral

import (
	"context"
	"time"
)

// Repository persists referral records.
type Repository interface {
	// BulkUpsert executes ops as one batch. Per-op failures are counted in the
	// result; the error is reserved for failures of the batch as a whole.
	BulkUpsert(ctx context.Context, ops []UpsertOp) (*BatchResult, error)
	FindByTransactionID(ctx context.Context, transactionID string) ([]*Record, error)
	// ListByOwner returns records of owner finalized within [start, until).
	ListByOwner(ctx context.Context, owner string, start, until time.Time) ([]*Record, error)
}

// GroupRepository reads payout groups.
type GroupRepository interface {
	List(ctx context.Context) ([]*Group, error)
}
