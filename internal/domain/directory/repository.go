package directory

import (
	"context"

	"github.com/google/uuid"
)

// BranchRepository defines persistence operations for branches
type BranchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Branch, error)
	// FindByName looks up a branch by its canonical display name. Callers
	// are expected to normalize the name first (NormalizeBranchName).
	FindByName(ctx context.Context, name string) (*Branch, error)
	FindAll(ctx context.Context) ([]Branch, error)
	Save(ctx context.Context, branch *Branch) error
}

// DeviceRepository defines persistence operations for shared terminals
type DeviceRepository interface {
	FindByGUID(ctx context.Context, guid string) (*Device, error)
	Save(ctx context.Context, device *Device) error
}
