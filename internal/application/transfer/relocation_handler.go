package transfer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/equiptrack/backend/internal/domain/inventory"
	"github.com/equiptrack/backend/internal/domain/shared"
	"github.com/equiptrack/backend/internal/domain/transfer"
	"go.uber.org/zap"
)

// RelocationHandler applies the inventory side-effect of a store
// acceptance: it consumes relocation tasks from the outbox and moves
// the confirmed equipment unit to the transfer's destination branch.
type RelocationHandler struct {
	equipment inventory.EquipmentRepository
	logger    *zap.Logger
}

// NewRelocationHandler creates a new RelocationHandler
func NewRelocationHandler(equipment inventory.EquipmentRepository, logger *zap.Logger) *RelocationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelocationHandler{equipment: equipment, logger: logger}
}

// EventType returns the outbox event type this handler consumes
func (h *RelocationHandler) EventType() string {
	return transfer.EventTypeRelocationRequested
}

// Handle decodes one relocation task and relocates the unit. Errors are
// returned so the outbox processor can retry with backoff; a unit that no
// longer exists is a permanent failure and dead-letters after the retry
// budget is spent.
func (h *RelocationHandler) Handle(ctx context.Context, entry *shared.OutboxEntry) error {
	var event transfer.RelocationRequestedEvent
	if err := json.Unmarshal(entry.Payload, &event); err != nil {
		return fmt.Errorf("decode relocation task %s: %w", entry.ID, err)
	}

	unit, err := h.equipment.FindByID(ctx, event.EquipmentID)
	if err != nil {
		return fmt.Errorf("load equipment %s: %w", event.EquipmentID, err)
	}

	if unit.BranchID == event.ToBranchID {
		// Already at the destination, e.g. a redelivered task. Nothing to do.
		h.logger.Debug("equipment already at destination",
			zap.String("equipment_id", unit.ID.String()),
			zap.String("branch_id", event.ToBranchID.String()),
		)
		return nil
	}

	if err := unit.Relocate(event.ToBranchID); err != nil {
		return fmt.Errorf("relocate equipment %s: %w", unit.ID, err)
	}
	if err := h.equipment.SaveWithLock(ctx, unit); err != nil {
		return fmt.Errorf("relocate equipment %s: %w", unit.ID, err)
	}

	h.logger.Info("equipment relocated",
		zap.String("transfer_id", event.TransferID.String()),
		zap.String("equipment_id", unit.ID.String()),
		zap.String("imei", event.IMEI),
		zap.String("to_branch_id", event.ToBranchID.String()),
	)
	return nil
}
