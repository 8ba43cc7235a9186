package menu

import (
	"context"
	"fmt"

	"github.com/hifideliveryeats/cartsync/pkg/db/models"
	pkgerrors "github.com/hifideliveryeats/cartsync/pkg/errors"
	"github.com/hifideliveryeats/cartsync/pkg/types"
	"github.com/shopspring/decimal"
)

const uncategorized = "Uncategorized"

// Service exposes the customer-facing catalog.
type Service interface {
	ListCatalog(ctx context.Context) ([]types.CatalogItem, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("menu repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListCatalog(ctx context.Context) ([]types.CatalogItem, error) {
	items, err := s.repo.ListAvailable(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list menu items")
	}
	out := make([]types.CatalogItem, 0, len(items))
	for _, item := range items {
		out = append(out, ToCatalogItem(item))
	}
	return out, nil
}

// ToCatalogItem maps a stored menu item to its wire shape.
func ToCatalogItem(item models.MenuItem) types.CatalogItem {
	entry := types.CatalogItem{
		ItemID:             item.ID,
		Name:               item.Name,
		Description:        item.Description,
		Price:              item.Price,
		StockAvailable:     item.StockAvailable,
		DiscountPercentage: DiscountOf(item),
		CategoryName:       uncategorized,
		SubcategoryName:    uncategorized,
		ImageURL:           item.ImageURL,
		IsBestSeller:       item.IsBestSeller,
		IsOutOfStock:       item.IsOutOfStock,
	}
	if item.Category != nil && item.Category.Name != "" {
		entry.CategoryName = item.Category.Name
	}
	if item.Subcategory != nil && item.Subcategory.Name != "" {
		entry.SubcategoryName = item.Subcategory.Name
	}
	return entry
}

// DiscountOf returns the item's discount percentage, zero when unset.
func DiscountOf(item models.MenuItem) decimal.Decimal {
	if item.DiscountPercentage == nil {
		return decimal.Zero
	}
	return *item.DiscountPercentage
}
