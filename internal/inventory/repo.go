package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/momtazchem/commerce-backend/pkg/db/models"
)

// Repository manages stock reservation counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByProductID(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error)
	Release(ctx context.Context, productID uuid.UUID, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByProductID(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Release moves qty units from reserved back to available. The reserved
// counter is never allowed below zero; a release larger than the current
// reservation clamps to what is actually reserved.
func (r *repository) Release(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET available_qty = available_qty + CASE WHEN reserved_qty >= ? THEN ? ELSE reserved_qty END,
		    reserved_qty = reserved_qty - CASE WHEN reserved_qty >= ? THEN ? ELSE reserved_qty END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ?`,
		qty, qty, qty, qty, productID,
	).Error
}
