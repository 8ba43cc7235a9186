package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hifideliveryeats/cartsync/internal/repo"
	"github.com/hifideliveryeats/cartsync/pkg/db/models"
)

// Repository persists customer carts.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.Tx(tx)}
}

// ListForCustomer returns the stored lines in display order with their menu item.
func (r *Repository) ListForCustomer(ctx context.Context, customerID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.DB(ctx).
		Preload("MenuItem").
		Where("customer_id = ?", customerID).
		Order("sort_order ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ReplaceForCustomer deletes the existing lines and inserts the provided ones.
// Callers run it inside a transaction.
func (r *Repository) ReplaceForCustomer(ctx context.Context, customerID string, items []models.CartItem) error {
	tx := r.DB(ctx)
	if err := tx.Where("customer_id = ?", customerID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].CustomerID = customerID
		items[i].Position = i
		items[i].MenuItem = nil
	}
	return tx.Create(&items).Error
}
