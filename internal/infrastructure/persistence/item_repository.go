package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormItemRepository implements inventory.ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

var _ inventory.ItemRepository = (*GormItemRepository)(nil)

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID finds an item by its ID, including soft-deleted items
func (r *GormItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Item, error) {
	var model models.ItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.WrapDomainError(shared.ErrNotFound, "Item %s not found", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds live items by their IDs. Unknown IDs are silently skipped.
func (r *GormItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*inventory.Item, error) {
	if len(ids) == 0 {
		return []*inventory.Item{}, nil
	}
	var rows []models.ItemModel
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND is_deleted = ?", ids, false).
		Order("name").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

// FindActive finds all items that are not soft-deleted, ordered by name
func (r *GormItemRepository) FindActive(ctx context.Context) ([]*inventory.Item, error) {
	var rows []models.ItemModel
	if err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("name").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

// LockByIDs finds live items and takes row locks on them, in ID order so concurrent
// writers queue instead of deadlocking. sqlite has no row locks; its single
// connection already serializes transactions.
func (r *GormItemRepository) LockByIDs(ctx context.Context, ids []uuid.UUID) ([]*inventory.Item, error) {
	if len(ids) == 0 {
		return []*inventory.Item{}, nil
	}
	var rows []models.ItemModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ? AND is_deleted = ?", ids, false).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

// FindPurgeable finds soft-deleted items deleted before now minus retention
func (r *GormItemRepository) FindPurgeable(ctx context.Context, now time.Time, retention time.Duration) ([]*inventory.Item, error) {
	var rows []models.ItemModel
	if err := r.db.WithContext(ctx).
		Where("is_deleted = ? AND deleted_at < ?", true, now.Add(-retention)).
		Order("deleted_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

// Save creates or updates an item. On update the cached stock column is left alone:
// it only moves through atomic deltas and SetCurrentStock.
func (r *GormItemRepository) Save(ctx context.Context, item *inventory.Item) error {
	model := models.ItemModelFromDomain(item)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ItemModel{}).
			Where("id = ?", model.ID).
			Select("*").
			Omit("id", "created_at", "current_stock").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
		return tx.Create(model).Error
	})
}

// SetCurrentStock overwrites the cached quantity with a value derived from the ledger
func (r *GormItemRepository) SetCurrentStock(ctx context.Context, id uuid.UUID, qty decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.ItemModel{}).
		Where("id = ?", id).
		UpdateColumn("current_stock", qty)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.WrapDomainError(shared.ErrNotFound, "Item %s not found", id)
	}
	return nil
}

// Purge permanently removes soft-deleted items. Live items in ids are never touched.
func (r *GormItemRepository) Purge(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("id IN ? AND is_deleted = ?", ids, true).
		Delete(&models.ItemModel{})
	return result.RowsAffected, result.Error
}

func toItems(rows []models.ItemModel) []*inventory.Item {
	items := make([]*inventory.Item, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return items
}
