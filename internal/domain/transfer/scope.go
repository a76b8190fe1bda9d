package transfer

import (
	"time"

	"github.com/equiptrack/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// AccessScope is what a caller is allowed to see and act on, derived from
// their role and resolved acting branch. A scoped role with no resolvable
// branch sees nothing (default deny), never an error.
type AccessScope struct {
	UserID   uuid.UUID
	Role     identity.Role
	BranchID *uuid.UUID
}

// Unrestricted returns true when the scope imposes no visibility filter
func (s AccessScope) Unrestricted() bool {
	return s.Role.IsAdminTier()
}

// CanSee reports whether the scope permits reading the given transfer.
// Mirrors the SQL-side filter the repository applies to listings:
//   - delivery: only transfers assigned to the caller
//   - store staff: own-branch origin, or own-branch destination once the
//     transfer has left the initial pending state
//   - admin tier: everything
func (s AccessScope) CanSee(t *Transfer) bool {
	if s.Unrestricted() {
		return true
	}
	switch {
	case s.Role == identity.RoleDelivery:
		return t.AssignedDeliveryUser != nil && *t.AssignedDeliveryUser == s.UserID
	case s.Role.IsStoreStaff():
		if s.BranchID == nil {
			return false
		}
		if t.FromBranchID == *s.BranchID {
			return true
		}
		return t.ToBranchID == *s.BranchID && t.Status != StatusPending
	}
	return false
}

// CanCreate reports whether the role may create transfers
func CanCreate(role identity.Role) bool {
	return role.IsAdminTier()
}

// CanScan reports whether the role may record scans on the given side
func CanScan(role identity.Role, side Side) bool {
	if side == SideCourier {
		return role == identity.RoleDelivery
	}
	return role.IsStoreStaff()
}

// CanDelete reports whether the role may hard-delete a transfer in the
// given status. Terminal-ish transfers are reserved for the root
// administrator; anything else is open to the whole admin tier.
func CanDelete(role identity.Role, status Status) bool {
	if status.IsTerminalish() {
		return role == identity.RoleRootAdmin
	}
	return role.IsAdminTier()
}

// ListFilter narrows admin-tier listings. Branch names are resolved to IDs
// at the HTTP boundary before the filter reaches the repository.
type ListFilter struct {
	IMEI         string
	FromBranchID *uuid.UUID
	ToBranchID   *uuid.UUID
	// DateFrom is inclusive, DateTo exclusive: a single-day window is
	// [midnight, next midnight).
	DateFrom *time.Time
	DateTo   *time.Time
	// Limit caps the result set; unfiltered listings default to the 10
	// most recent transfers.
	Limit int
}

// IsZero reports whether no filter criteria are set
func (f ListFilter) IsZero() bool {
	return f.IMEI == "" && f.FromBranchID == nil && f.ToBranchID == nil &&
		f.DateFrom == nil && f.DateTo == nil
}
