package persistence

import (
	"context"
	"errors"

	"github.com/equiptrack/backend/internal/domain/identity"
	"github.com/equiptrack/backend/internal/domain/shared"
	"github.com/equiptrack/backend/internal/domain/transfer"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTransferRepository implements transfer.Repository using GORM
type GormTransferRepository struct {
	db *gorm.DB
}

// NewGormTransferRepository creates a new GormTransferRepository
func NewGormTransferRepository(db *gorm.DB) *GormTransferRepository {
	return &GormTransferRepository{db: db}
}

// FindByID finds a transfer by its ID with items ordered by position
func (r *GormTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	var t transfer.Transfer
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindScoped lists transfers visible to the given scope, newest first
func (r *GormTransferRepository) FindScoped(ctx context.Context, scope transfer.AccessScope, filter transfer.ListFilter) ([]transfer.Transfer, error) {
	query := r.db.WithContext(ctx).Model(&transfer.Transfer{})

	switch {
	case scope.Role.IsAdminTier():
		// unrestricted
	case scope.Role == identity.RoleDelivery:
		query = query.Where("assigned_delivery_user = ?", scope.UserID)
	case scope.BranchID != nil:
		// Store staff see outbound transfers from their branch, plus inbound
		// ones once the courier workflow has started.
		query = query.Where(
			"from_branch_id = ? OR (to_branch_id = ? AND status <> ?)",
			*scope.BranchID, *scope.BranchID, transfer.StatusPending,
		)
	default:
		// No branch could be resolved for a store-staff caller: deny.
		return []transfer.Transfer{}, nil
	}

	query = r.applyFilter(query, filter)

	var transfers []transfer.Transfer
	if err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at DESC").
		Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}

// applyFilter applies the optional list filter to the query
func (r *GormTransferRepository) applyFilter(query *gorm.DB, filter transfer.ListFilter) *gorm.DB {
	if filter.IMEI != "" {
		query = query.Where(
			"id IN (?)",
			r.db.Model(&transfer.TransferItem{}).Select("transfer_id").Where("imei = ?", filter.IMEI),
		)
	}
	if filter.FromBranchID != nil {
		query = query.Where("from_branch_id = ?", *filter.FromBranchID)
	}
	if filter.ToBranchID != nil {
		query = query.Where("to_branch_id = ?", *filter.ToBranchID)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		// DateTo is an exclusive end, midnight of the day after the requested range
		query = query.Where("created_at < ?", *filter.DateTo)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	return query
}

// Create persists a new transfer with its items
func (r *GormTransferRepository) Create(ctx context.Context, t *transfer.Transfer) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(t).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	t.ClearDomainEvents()
	return nil
}

// SaveWithLock persists the aggregate with a compare-and-swap on the stored
// version: the caller has already incremented Version in memory, so the row
// is updated only where version = Version-1. Items are replaced wholesale
// and any outbox entries are written in the same transaction, so a
// persisted scan can never lose its relocation task.
func (r *GormTransferRepository) SaveWithLock(ctx context.Context, t *transfer.Transfer, outbox ...*shared.OutboxEntry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&transfer.Transfer{}).
			Where("id = ? AND version = ?", t.ID, t.Version-1).
			Updates(map[string]interface{}{
				"status":                 t.Status,
				"assigned_delivery_user": t.AssignedDeliveryUser,
				"received_by":            t.ReceivedBy,
				"courier_received_count": t.CourierReceivedCount,
				"version":                t.Version,
				"updated_at":             t.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Either the row is gone or another writer got there first.
			var count int64
			if err := tx.Model(&transfer.Transfer{}).Where("id = ?", t.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.ErrConcurrencyConflict
		}

		if err := tx.Where("transfer_id = ?", t.ID).Delete(&transfer.TransferItem{}).Error; err != nil {
			return err
		}
		for i := range t.Items {
			t.Items[i].TransferID = t.ID
			if err := tx.Create(&t.Items[i]).Error; err != nil {
				return err
			}
		}

		for _, entry := range outbox {
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	t.ClearDomainEvents()
	return nil
}

// Delete removes the transfer and its items
func (r *GormTransferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transfer_id = ?", id).Delete(&transfer.TransferItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&transfer.Transfer{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}
