package transfer

import (
	"fmt"
	"strings"
	"time"

	"github.com/equiptrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Side identifies which half of the dual confirmation workflow a scan
// belongs to
type Side string

const (
	SideCourier Side = "courier"
	SideStore   Side = "store"
)

// ScanInfo records one side's confirmation for a single item
type ScanInfo struct {
	Status      ScanStatus `gorm:"size:20;not null;default:PENDING"`
	Observation string     `gorm:"size:500"`
	At          *time.Time
	By          *uuid.UUID `gorm:"type:uuid"`
}

// TransferItem is a child of the Transfer aggregate; it has no identity
// outside its parent. IMEI is denormalized from the equipment record so
// scans can match without a directory round trip.
type TransferItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransferID  uuid.UUID `gorm:"type:uuid;not null;index"`
	EquipmentID uuid.UUID `gorm:"type:uuid;not null"`
	IMEI        string    `gorm:"size:32;not null"`
	Position    int       `gorm:"not null"`
	Courier     ScanInfo  `gorm:"embedded;embeddedPrefix:courier_"`
	Store       ScanInfo  `gorm:"embedded;embeddedPrefix:store_"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (TransferItem) TableName() string {
	return "transfer_items"
}

// Scan returns the ScanInfo for the given side
func (i *TransferItem) Scan(side Side) *ScanInfo {
	if side == SideStore {
		return &i.Store
	}
	return &i.Courier
}

// Transfer is the aggregate root of the inter-branch equipment transfer
// workflow. Status is always derived from the item list and never set
// independently.
type Transfer struct {
	shared.BaseAggregateRoot
	Code                 string     `gorm:"size:30;not null;uniqueIndex"`
	FromBranchID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	FromBranchName       string     `gorm:"size:200;not null"`
	ToBranchID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	ToBranchName         string     `gorm:"size:200;not null"`
	Status               Status     `gorm:"size:30;not null;index"`
	RequestedBy          uuid.UUID  `gorm:"type:uuid;not null"`
	AssignedDeliveryUser *uuid.UUID `gorm:"type:uuid;index"`
	ReceivedBy           *uuid.UUID `gorm:"type:uuid"`
	Reason               string     `gorm:"size:500"`
	CourierReceivedCount int        `gorm:"not null;default:0"`

	Items []TransferItem `gorm:"foreignKey:TransferID;references:ID"`
}

// TableName returns the table name for GORM
func (Transfer) TableName() string {
	return "transfers"
}

// ItemSeed describes one equipment unit at transfer creation time
type ItemSeed struct {
	EquipmentID uuid.UUID
	IMEI        string
}

// NewTransfer creates a transfer with every item initialized to
// pending/pending on both sides. Origin-branch consistency across the seeds
// is the caller's responsibility (the application service validates it
// against the equipment records before calling this).
func NewTransfer(code string, fromBranchID uuid.UUID, fromBranchName string, toBranchID uuid.UUID, toBranchName string, requestedBy uuid.UUID, assignedDeliveryUser *uuid.UUID, reason string, seeds []ItemSeed) (*Transfer, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Transfer code cannot be empty")
	}
	if len(seeds) == 0 {
		return nil, shared.NewDomainError("EMPTY_ITEMS", "A transfer requires at least one equipment unit")
	}
	if fromBranchID == uuid.Nil || toBranchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Origin and destination branches are required")
	}
	if fromBranchID == toBranchID {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Origin and destination branches must differ")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REQUESTER", "Requesting user is required")
	}

	t := &Transfer{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		Code:                 code,
		FromBranchID:         fromBranchID,
		FromBranchName:       fromBranchName,
		ToBranchID:           toBranchID,
		ToBranchName:         toBranchName,
		Status:               StatusPending,
		RequestedBy:          requestedBy,
		AssignedDeliveryUser: assignedDeliveryUser,
		Reason:               reason,
		Items:                make([]TransferItem, 0, len(seeds)),
	}

	now := time.Now()
	for pos, seed := range seeds {
		if seed.EquipmentID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_EQUIPMENT", fmt.Sprintf("Equipment reference missing at position %d", pos))
		}
		t.Items = append(t.Items, TransferItem{
			ID:          uuid.New(),
			TransferID:  t.ID,
			EquipmentID: seed.EquipmentID,
			IMEI:        seed.IMEI,
			Position:    pos,
			Courier:     ScanInfo{Status: ScanPending},
			Store:       ScanInfo{Status: ScanPending},
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	t.AddDomainEvent(NewTransferCreatedEvent(t))
	return t, nil
}

// ScanAction is one per-IMEI entry of a batch scan request
type ScanAction struct {
	IMEI        string
	Status      ScanStatus
	Observation string
}

// ScanCommand carries every input shape a scan request may combine: bulk
// flags, a per-IMEI batch, and single-item shortcuts.
type ScanCommand struct {
	Actions           []ScanAction
	ReceivedItemID    *uuid.UUID
	NotReceivedItemID *uuid.UUID
	AllReceived       bool
	AllNotReceived    bool
	Observation       string
	ActorID           uuid.UUID
	At                time.Time
}

// AppliedScan reports one item mutation that a scan command produced
type AppliedScan struct {
	ItemID        uuid.UUID
	EquipmentID   uuid.UUID
	IMEI          string
	Status        ScanStatus
	NewlyReceived bool
}

// ApplyScans mutates the given side's ScanInfo per the command and
// recomputes the aggregate status. Application is deliberately lenient:
// unknown IMEIs, unknown item IDs and invalid status values are skipped
// without failing the rest of the batch. Bulk flags apply first, then the
// per-IMEI batch, then the single-item shortcuts, so more specific entries
// win. Returns the mutations that were actually applied.
func (t *Transfer) ApplyScans(side Side, cmd ScanCommand) []AppliedScan {
	at := cmd.At
	if at.IsZero() {
		at = time.Now()
	}

	applied := make([]AppliedScan, 0)
	apply := func(item *TransferItem, status ScanStatus, observation string) {
		if !status.IsValid() || status == ScanPending {
			return
		}
		scan := item.Scan(side)
		prev := scan.Status
		scan.Status = status
		scan.Observation = observation
		ts := at
		scan.At = &ts
		if cmd.ActorID != uuid.Nil {
			actor := cmd.ActorID
			scan.By = &actor
		}
		item.UpdatedAt = time.Now()
		applied = append(applied, AppliedScan{
			ItemID:        item.ID,
			EquipmentID:   item.EquipmentID,
			IMEI:          item.IMEI,
			Status:        status,
			NewlyReceived: status == ScanReceived && prev != ScanReceived,
		})
	}

	if cmd.AllReceived || cmd.AllNotReceived {
		bulk := ScanReceived
		if cmd.AllNotReceived {
			bulk = ScanNotReceived
		}
		for i := range t.Items {
			apply(&t.Items[i], bulk, cmd.Observation)
		}
	}

	for _, action := range cmd.Actions {
		item := t.findItemByIMEI(action.IMEI)
		if item == nil {
			continue
		}
		apply(item, action.Status, action.Observation)
	}

	if cmd.ReceivedItemID != nil {
		if item := t.findItemByID(*cmd.ReceivedItemID); item != nil {
			apply(item, ScanReceived, cmd.Observation)
		}
	}
	if cmd.NotReceivedItemID != nil {
		if item := t.findItemByID(*cmd.NotReceivedItemID); item != nil {
			apply(item, ScanNotReceived, cmd.Observation)
		}
	}

	t.recompute(side, cmd.ActorID)
	if len(applied) > 0 {
		t.AddDomainEvent(NewScanRecordedEvent(t, side, len(applied)))
	}

	return applied
}

// recompute re-derives the aggregate status and counters from the current
// item list. Called after every mutation, whether or not anything changed.
func (t *Transfer) recompute(side Side, actorID uuid.UUID) {
	previous := t.Status
	t.Status = DeriveStatus(t.Items)
	t.CourierReceivedCount = countSide(t.Items, SideCourier).received

	if side == SideStore && actorID != uuid.Nil && t.ReceivedBy == nil {
		actor := actorID
		t.ReceivedBy = &actor
	}

	t.Touch()
	t.IncrementVersion()

	if previous != t.Status {
		t.AddDomainEvent(NewStatusChangedEvent(t, previous, t.Status))
	}
}

func (t *Transfer) findItemByIMEI(imei string) *TransferItem {
	imei = strings.TrimSpace(imei)
	for i := range t.Items {
		if t.Items[i].IMEI == imei {
			return &t.Items[i]
		}
	}
	return nil
}

func (t *Transfer) findItemByID(id uuid.UUID) *TransferItem {
	for i := range t.Items {
		if t.Items[i].ID == id {
			return &t.Items[i]
		}
	}
	return nil
}

// ItemCount returns the number of items in the transfer
func (t *Transfer) ItemCount() int {
	return len(t.Items)
}
