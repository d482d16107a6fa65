package inventory

import (
	"context"
	"errors"
	"time"

	dbpkg "github.com/carelane/medstock-backend/pkg/db"
	"github.com/carelane/medstock-backend/pkg/db/models"
	"github.com/carelane/medstock-backend/pkg/enums"
	"github.com/carelane/medstock-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemCodeConstraint is the unique index on inventory_items.item_code.
const ItemCodeConstraint = "idx_inventory_items_item_code"

// Repository persists inventory items.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// FindByID returns gorm.ErrRecordNotFound when the item is missing.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByIDForUpdate loads the item and, on Postgres, locks the row until the
// surrounding transaction ends.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := dbpkg.ForUpdate(r.db.WithContext(ctx), "").First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ItemCodeTaken reports whether another item already uses code.
func (r *Repository) ItemCodeTaken(ctx context.Context, code string, excludeID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Where("item_code = ?", code)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update applies column changes to one row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, changes map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SwapStock sets the stock only if it still equals expected. It returns false when a
// concurrent write changed the row first.
func (r *Repository) SwapStock(ctx context.Context, id uuid.UUID, expected, next int, status enums.StockStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("id = ? AND current_stock = ?", id, expected).
		Updates(map[string]any{
			"current_stock": next,
			"status":        status,
			"updated_at":    at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Delete removes the item; false when nothing matched.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.InventoryItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// List returns a page of filtered items, newest first, plus the filtered total.
func (r *Repository) List(ctx context.Context, filters ListFilters, params pagination.Params, asOf time.Time) ([]models.InventoryItem, int64, error) {
	params = params.Normalize()

	var total int64
	if err := applyListFilters(r.db.WithContext(ctx).Model(&models.InventoryItem{}), filters, asOf).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := make([]models.InventoryItem, 0, params.Limit)
	if total == 0 {
		return items, 0, nil
	}
	err := applyListFilters(r.db.WithContext(ctx).Model(&models.InventoryItem{}), filters, asOf).
		Order("created_at DESC").
		Order("id DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CountAll returns the number of items.
func (r *Repository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of items in status.
func (r *Repository) CountByStatus(ctx context.Context, status enums.StockStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// CountCreatedSince returns the number of items created at or after since.
func (r *Repository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Where("created_at >= ?", since.UTC()).Count(&count).Error
	return count, err
}

// CountExpiringIn returns the number of items whose expiration date falls in w.
func (r *Repository) CountExpiringIn(ctx context.Context, w DateWindow) (int64, error) {
	var count int64
	err := whereExpiresIn(r.db.WithContext(ctx).Model(&models.InventoryItem{}), w).Count(&count).Error
	return count, err
}

// ListExpiringIn returns items whose expiration date falls in w, soonest first.
func (r *Repository) ListExpiringIn(ctx context.Context, w DateWindow) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := whereExpiresIn(r.db.WithContext(ctx).Model(&models.InventoryItem{}), w).
		Order("expiration_date ASC").
		Order("name ASC").
		Find(&items).Error
	return items, err
}

// ListExpiredAsOf returns items whose expiration date is on or before the day of asOf.
func (r *Repository) ListExpiredAsOf(ctx context.Context, asOf time.Time) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("expiration_date IS NOT NULL AND expiration_date <= ?", DateOnly(asOf)).
		Order("expiration_date ASC").
		Find(&items).Error
	return items, err
}

// IsNotFound reports whether err came from a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
