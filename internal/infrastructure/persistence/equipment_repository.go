package persistence

import (
	"context"
	"errors"

	"github.com/equiptrack/backend/internal/domain/inventory"
	"github.com/equiptrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormEquipmentRepository implements inventory.EquipmentRepository using GORM
type GormEquipmentRepository struct {
	db *gorm.DB
}

// NewGormEquipmentRepository creates a new GormEquipmentRepository
func NewGormEquipmentRepository(db *gorm.DB) *GormEquipmentRepository {
	return &GormEquipmentRepository{db: db}
}

// FindByID finds an equipment unit by its ID
func (r *GormEquipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Equipment, error) {
	var equipment inventory.Equipment
	if err := r.db.WithContext(ctx).First(&equipment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &equipment, nil
}

// FindByIDs finds equipment units by their IDs. Missing IDs are simply
// absent from the result; the caller decides whether that is an error.
func (r *GormEquipmentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.Equipment, error) {
	if len(ids) == 0 {
		return []inventory.Equipment{}, nil
	}
	var units []inventory.Equipment
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// FindByIMEI finds an equipment unit by its IMEI
func (r *GormEquipmentRepository) FindByIMEI(ctx context.Context, imei string) (*inventory.Equipment, error) {
	var equipment inventory.Equipment
	if err := r.db.WithContext(ctx).First(&equipment, "imei = ?", imei).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &equipment, nil
}

// Save persists an equipment unit
func (r *GormEquipmentRepository) Save(ctx context.Context, equipment *inventory.Equipment) error {
	if err := r.db.WithContext(ctx).Save(equipment).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	equipment.ClearDomainEvents()
	return nil
}

// SaveWithLock persists the unit only if the stored version matches
// Version-1, returning shared.ErrConcurrencyConflict otherwise
func (r *GormEquipmentRepository) SaveWithLock(ctx context.Context, equipment *inventory.Equipment) error {
	result := r.db.WithContext(ctx).Model(&inventory.Equipment{}).
		Where("id = ? AND version = ?", equipment.ID, equipment.Version-1).
		Updates(map[string]interface{}{
			"branch_id":  equipment.BranchID,
			"state":      equipment.State,
			"model":      equipment.Model,
			"brand":      equipment.Brand,
			"version":    equipment.Version,
			"updated_at": equipment.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&inventory.Equipment{}).
			Where("id = ?", equipment.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	equipment.ClearDomainEvents()
	return nil
}
