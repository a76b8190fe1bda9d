package persistence

import (
	"context"
	"errors"

	"github.com/equiptrack/backend/internal/domain/directory"
	"github.com/equiptrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBranchRepository implements directory.BranchRepository using GORM
type GormBranchRepository struct {
	db *gorm.DB
}

// NewGormBranchRepository creates a new GormBranchRepository
func NewGormBranchRepository(db *gorm.DB) *GormBranchRepository {
	return &GormBranchRepository{db: db}
}

// FindByID finds a branch by its ID
func (r *GormBranchRepository) FindByID(ctx context.Context, id uuid.UUID) (*directory.Branch, error) {
	var branch directory.Branch
	if err := r.db.WithContext(ctx).First(&branch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &branch, nil
}

// FindByName finds a branch by its canonical display name
func (r *GormBranchRepository) FindByName(ctx context.Context, name string) (*directory.Branch, error) {
	var branch directory.Branch
	if err := r.db.WithContext(ctx).First(&branch, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &branch, nil
}

// FindAll returns all branches ordered by name
func (r *GormBranchRepository) FindAll(ctx context.Context) ([]directory.Branch, error) {
	var branches []directory.Branch
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

// Save persists a branch
func (r *GormBranchRepository) Save(ctx context.Context, branch *directory.Branch) error {
	if err := r.db.WithContext(ctx).Save(branch).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GormDeviceRepository implements directory.DeviceRepository using GORM
type GormDeviceRepository struct {
	db *gorm.DB
}

// NewGormDeviceRepository creates a new GormDeviceRepository
func NewGormDeviceRepository(db *gorm.DB) *GormDeviceRepository {
	return &GormDeviceRepository{db: db}
}

// FindByGUID finds a registered terminal by its GUID
func (r *GormDeviceRepository) FindByGUID(ctx context.Context, guid string) (*directory.Device, error) {
	var device directory.Device
	if err := r.db.WithContext(ctx).First(&device, "guid = ?", guid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &device, nil
}

// Save persists a device registration
func (r *GormDeviceRepository) Save(ctx context.Context, device *directory.Device) error {
	if err := r.db.WithContext(ctx).Save(device).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}
