package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CartLine is one catalog item plus the requested quantity. Price and
// discount are snapshotted from the catalog when the line is created.
type CartLine struct {
	ItemID          string          `json:"menu_item_id" validate:"required,max=64"`
	Name            string          `json:"name,omitempty"`
	UnitPrice       decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity" validate:"gte=0"`
	DiscountPercent decimal.Decimal `json:"discount_percentage"`
}

// SameItem compares lines by identity, ignoring whitespace around ids.
func (l CartLine) SameItem(itemID string) bool {
	return strings.TrimSpace(l.ItemID) == strings.TrimSpace(itemID)
}

// CartWriteRequest is the body pushed to the cart endpoint.
type CartWriteRequest struct {
	Items []CartLine `json:"items" validate:"dive"`
}

// CatalogItem is a menu entry as served by the catalog endpoint.
type CatalogItem struct {
	ItemID             string          `json:"menu_item_id"`
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	Price              decimal.Decimal `json:"price"`
	StockAvailable     int             `json:"stock_available"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	CategoryName       string          `json:"category_name"`
	SubcategoryName    string          `json:"subcategory_name"`
	ImageURL           string          `json:"image_url"`
	IsBestSeller       bool            `json:"is_best_seller"`
	IsOutOfStock       bool            `json:"is_out_of_stock"`
}

// StockCeiling is the maximum quantity purchasable for the item.
func (c CatalogItem) StockCeiling() int {
	if c.IsOutOfStock || c.StockAvailable < 0 {
		return 0
	}
	return c.StockAvailable
}
