package inventory

import (
	"github.com/equiptrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types for the equipment aggregate
const (
	EventTypeEquipmentRelocated = "inventory.equipment.relocated"
)

// AggregateTypeEquipment is the aggregate type name used in events
const AggregateTypeEquipment = "Equipment"

// EquipmentRelocatedEvent is emitted when a unit changes branch
type EquipmentRelocatedEvent struct {
	shared.BaseDomainEvent
	IMEI         string    `json:"imei"`
	FromBranchID uuid.UUID `json:"from_branch_id"`
	ToBranchID   uuid.UUID `json:"to_branch_id"`
}

// NewEquipmentRelocatedEvent creates a new EquipmentRelocatedEvent
func NewEquipmentRelocatedEvent(e *Equipment, from, to uuid.UUID) *EquipmentRelocatedEvent {
	return &EquipmentRelocatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEquipmentRelocated, AggregateTypeEquipment, e.ID),
		IMEI:            e.IMEI,
		FromBranchID:    from,
		ToBranchID:      to,
	}
}
