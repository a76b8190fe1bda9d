package transfer

import (
	"context"

	"github.com/equiptrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines persistence operations for the Transfer aggregate
type Repository interface {
	// FindByID loads a transfer with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Transfer, error)
	// FindScoped lists transfers visible to the given scope, newest first,
	// applying the optional admin filter
	FindScoped(ctx context.Context, scope AccessScope, filter ListFilter) ([]Transfer, error)
	// Create persists a new transfer with its items
	Create(ctx context.Context, t *Transfer) error
	// SaveWithLock persists the aggregate only if the stored version matches
	// Version-1; returns shared.ErrConcurrencyConflict otherwise. Outbox
	// entries, if any, are committed in the same transaction as the save so
	// a persisted scan can never lose its relocation task.
	SaveWithLock(ctx context.Context, t *Transfer, outbox ...*shared.OutboxEntry) error
	// Delete removes the transfer and its items. Hard delete, no audit trail.
	Delete(ctx context.Context, id uuid.UUID) error
}
