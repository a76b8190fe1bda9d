package inventory

import (
	"strings"

	"github.com/equiptrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LifecycleState represents the condition of a serialized stock unit.
// Relocation between branches never changes it.
type LifecycleState string

const (
	StateNew         LifecycleState = "NEW"
	StateUsed        LifecycleState = "USED"
	StateUnderRepair LifecycleState = "UNDER_REPAIR"
	StateDefective   LifecycleState = "DEFECTIVE"
)

// IsValid checks if the state is a known LifecycleState
func (s LifecycleState) IsValid() bool {
	switch s {
	case StateNew, StateUsed, StateUnderRepair, StateDefective:
		return true
	}
	return false
}

// String returns the string representation of LifecycleState
func (s LifecycleState) String() string {
	return string(s)
}

// Equipment is a serialized, individually tracked stock unit (phone or
// similar IMEI-tracked device). The transfer subsystem relocates it between
// branches but does not otherwise own its lifecycle.
type Equipment struct {
	shared.BaseAggregateRoot
	IMEI            string          `gorm:"size:32;not null;uniqueIndex"`
	Model           string          `gorm:"size:200;not null"`
	Brand           string          `gorm:"size:100"`
	State           LifecycleState  `gorm:"size:30;not null"`
	BranchID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	AcquisitionCost decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Equipment) TableName() string {
	return "equipment"
}

// NewEquipment creates a new equipment record at a branch
func NewEquipment(imei, model, brand string, state LifecycleState, branchID uuid.UUID, cost decimal.Decimal) (*Equipment, error) {
	imei = strings.TrimSpace(imei)
	if imei == "" {
		return nil, shared.NewDomainError("INVALID_IMEI", "IMEI cannot be empty")
	}
	if model == "" {
		return nil, shared.NewDomainError("INVALID_MODEL", "Model cannot be empty")
	}
	if !state.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATE", "Unknown lifecycle state: "+string(state))
	}
	if branchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Branch ID cannot be empty")
	}
	if cost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Acquisition cost cannot be negative")
	}

	return &Equipment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		IMEI:              imei,
		Model:             model,
		Brand:             brand,
		State:             state,
		BranchID:          branchID,
		AcquisitionCost:   cost,
	}, nil
}

// Relocate moves the unit to another branch. The lifecycle state is
// preserved unchanged: a unit under repair arrives under repair.
func (e *Equipment) Relocate(toBranchID uuid.UUID) error {
	if toBranchID == uuid.Nil {
		return shared.NewDomainError("INVALID_BRANCH", "Destination branch ID cannot be empty")
	}
	if e.BranchID == toBranchID {
		return nil
	}

	from := e.BranchID
	e.BranchID = toBranchID
	e.Touch()
	e.IncrementVersion()
	e.AddDomainEvent(NewEquipmentRelocatedEvent(e, from, toBranchID))

	return nil
}
