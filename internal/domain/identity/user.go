package identity

import (
	"strings"

	"github.com/equiptrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Role represents a user's role in the store chain
type Role string

const (
	RoleRootAdmin  Role = "root_admin"
	RoleSupervisor Role = "supervisor"
	RoleSeller     Role = "seller"
	RoleCashier    Role = "cashier"
	RoleDelivery   Role = "delivery"
)

// IsValid checks if the role is a known Role
func (r Role) IsValid() bool {
	switch r {
	case RoleRootAdmin, RoleSupervisor, RoleSeller, RoleCashier, RoleDelivery:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// IsAdminTier returns true for roles with unrestricted transfer visibility
func (r Role) IsAdminTier() bool {
	return r == RoleRootAdmin || r == RoleSupervisor
}

// IsStoreStaff returns true for destination/origin store roles
func (r Role) IsStoreStaff() bool {
	return r == RoleSeller || r == RoleCashier
}

// ParseRole parses a role string, case-insensitively
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.NewDomainError("INVALID_ROLE", "Unknown role: "+s)
	}
	return r, nil
}

// User represents a system user. Authentication itself is handled by an
// external collaborator; this entity carries what the transfer subsystem
// needs: the role and the assigned branch.
type User struct {
	shared.BaseEntity
	Username     string     `gorm:"size:100;not null;uniqueIndex"`
	FullName     string     `gorm:"size:200;not null"`
	PasswordHash string     `gorm:"size:200;not null"`
	Role         Role       `gorm:"size:30;not null;index"`
	BranchID     *uuid.UUID `gorm:"type:uuid;index"`
	Active       bool       `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates a new user
func NewUser(username, fullName, passwordHash string, role Role, branchID *uuid.UUID) (*User, error) {
	if username == "" {
		return nil, shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role: "+string(role))
	}

	return &User{
		BaseEntity:   shared.NewBaseEntity(),
		Username:     username,
		FullName:     fullName,
		PasswordHash: passwordHash,
		Role:         role,
		BranchID:     branchID,
		Active:       true,
	}, nil
}

// CanBeAssignedDeliveries returns true if the user may be assigned as the
// courier of a transfer
func (u *User) CanBeAssignedDeliveries() bool {
	return u.Active && u.Role == RoleDelivery
}
