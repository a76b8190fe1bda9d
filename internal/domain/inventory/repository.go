package inventory

import (
	"context"

	"github.com/google/uuid"
)

// EquipmentRepository defines persistence operations for equipment records
type EquipmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Equipment, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Equipment, error)
	FindByIMEI(ctx context.Context, imei string) (*Equipment, error)
	Save(ctx context.Context, equipment *Equipment) error
	// SaveWithLock persists the equipment only if the stored version matches
	// Version-1, protecting concurrent relocations.
	SaveWithLock(ctx context.Context, equipment *Equipment) error
}
