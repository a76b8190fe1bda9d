package transfer

import (
	"github.com/equiptrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types for the transfer aggregate
const (
	EventTypeTransferCreated     = "transfer.created"
	EventTypeScanRecorded        = "transfer.scan.recorded"
	EventTypeStatusChanged       = "transfer.status.changed"
	EventTypeRelocationRequested = "transfer.relocation.requested"
)

// AggregateTypeTransfer is the aggregate type name used in events
const AggregateTypeTransfer = "Transfer"

// TransferCreatedEvent is emitted when a transfer is created
type TransferCreatedEvent struct {
	shared.BaseDomainEvent
	Code         string    `json:"code"`
	FromBranchID uuid.UUID `json:"from_branch_id"`
	ToBranchID   uuid.UUID `json:"to_branch_id"`
	ItemCount    int       `json:"item_count"`
}

// NewTransferCreatedEvent creates a new TransferCreatedEvent
func NewTransferCreatedEvent(t *Transfer) *TransferCreatedEvent {
	return &TransferCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferCreated, AggregateTypeTransfer, t.ID),
		Code:            t.Code,
		FromBranchID:    t.FromBranchID,
		ToBranchID:      t.ToBranchID,
		ItemCount:       len(t.Items),
	}
}

// ScanRecordedEvent is emitted when a scan command mutated at least one item
type ScanRecordedEvent struct {
	shared.BaseDomainEvent
	Side         Side `json:"side"`
	AppliedCount int  `json:"applied_count"`
}

// NewScanRecordedEvent creates a new ScanRecordedEvent
func NewScanRecordedEvent(t *Transfer, side Side, appliedCount int) *ScanRecordedEvent {
	return &ScanRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeScanRecorded, AggregateTypeTransfer, t.ID),
		Side:            side,
		AppliedCount:    appliedCount,
	}
}

// StatusChangedEvent is emitted when the derived status changes
type StatusChangedEvent struct {
	shared.BaseDomainEvent
	From Status `json:"from"`
	To   Status `json:"to"`
}

// NewStatusChangedEvent creates a new StatusChangedEvent
func NewStatusChangedEvent(t *Transfer, from, to Status) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStatusChanged, AggregateTypeTransfer, t.ID),
		From:            from,
		To:              to,
	}
}

// RelocationRequestedEvent is the outbox payload for the inventory
// side-effect of a store acceptance: move one equipment unit to the
// transfer's destination branch.
type RelocationRequestedEvent struct {
	shared.BaseDomainEvent
	TransferID  uuid.UUID `json:"transfer_id"`
	ItemID      uuid.UUID `json:"item_id"`
	EquipmentID uuid.UUID `json:"equipment_id"`
	IMEI        string    `json:"imei"`
	ToBranchID  uuid.UUID `json:"to_branch_id"`
}

// NewRelocationRequestedEvent creates a new RelocationRequestedEvent
func NewRelocationRequestedEvent(t *Transfer, applied AppliedScan) *RelocationRequestedEvent {
	return &RelocationRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRelocationRequested, AggregateTypeTransfer, t.ID),
		TransferID:      t.ID,
		ItemID:          applied.ItemID,
		EquipmentID:     applied.EquipmentID,
		IMEI:            applied.IMEI,
		ToBranchID:      t.ToBranchID,
	}
}
