package menu

import (
	"context"

	"github.com/hifideliveryeats/cartsync/internal/repo"
	"github.com/hifideliveryeats/cartsync/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads menu items with their category names.
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

// ListAvailable returns every item not flagged out of stock.
func (r *Repository) ListAvailable(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.DB(ctx).
		Preload("Category").
		Preload("Subcategory").
		Where("is_out_of_stock = ?", false).
		Order("menu_item_id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindByIDs loads the listed items keyed by id. Missing ids are absent from the map.
func (r *Repository) FindByIDs(ctx context.Context, ids []string) (map[string]models.MenuItem, error) {
	out := make(map[string]models.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.MenuItem
	if err := r.DB(ctx).Where("menu_item_id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}
