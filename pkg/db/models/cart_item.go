package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line of a customer's stored cart. Price and discount are
// not stored; they are joined from the menu on read.
type CartItem struct {
	ID         uuid.UUID `gorm:"column:cart_item_id;primaryKey"`
	CustomerID string    `gorm:"column:customer_id;not null"`
	ItemRef    string    `gorm:"column:menu_item_id;not null"`
	Position   int       `gorm:"column:sort_order;not null;default:0"`
	Quantity   int       `gorm:"column:quantity;not null"`
	MenuItem   *MenuItem `gorm:"foreignKey:ItemRef;references:ID"`
	AddedAt    time.Time `gorm:"column:added_at;autoCreateTime"`
}

func (CartItem) TableName() string { return "cart_items" }
