package directory

import (
	"strings"

	"github.com/equiptrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Branch is a physical store/office in the location directory. Transfers
// reference branches by canonical ID and carry the display name only for
// presentation.
type Branch struct {
	shared.BaseEntity
	Name   string `gorm:"size:200;not null;uniqueIndex"`
	Active bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Branch) TableName() string {
	return "branches"
}

// NewBranch creates a new branch
func NewBranch(name string) (*Branch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Branch name cannot be empty")
	}
	return &Branch{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Active:     true,
	}, nil
}

// branchAliases maps legacy and colloquial branch spellings to the canonical
// display name. Applied symmetrically on write and read so that both sides
// of a transfer agree on the same directory entry.
var branchAliases = map[string]string{
	"central":     "Casa Matriz",
	"matriz":      "Casa Matriz",
	"casa matriz": "Casa Matriz",
	"bodega":      "Bodega Central",
	"warehouse":   "Bodega Central",
}

// NormalizeBranchName resolves aliases and trims/cases the display name.
// Unknown names pass through trimmed, preserving their original casing.
func NormalizeBranchName(name string) string {
	trimmed := strings.TrimSpace(name)
	if canonical, ok := branchAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// Device is a shared point-of-sale terminal whose GUID identifies the branch
// it is installed at. Requests from shared terminals resolve their acting
// branch through this mapping.
type Device struct {
	shared.BaseEntity
	GUID     string    `gorm:"size:64;not null;uniqueIndex"`
	BranchID uuid.UUID `gorm:"type:uuid;not null;index"`
	Label    string    `gorm:"size:200"`
}

// TableName returns the table name for GORM
func (Device) TableName() string {
	return "devices"
}

// NewDevice registers a terminal at a branch
func NewDevice(guid string, branchID uuid.UUID, label string) (*Device, error) {
	guid = strings.TrimSpace(guid)
	if guid == "" {
		return nil, shared.NewDomainError("INVALID_DEVICE", "Device GUID cannot be empty")
	}
	if branchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Branch ID cannot be empty")
	}
	return &Device{
		BaseEntity: shared.NewBaseEntity(),
		GUID:       guid,
		BranchID:   branchID,
		Label:      label,
	}, nil
}
