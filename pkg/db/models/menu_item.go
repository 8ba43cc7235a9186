package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups menu items for display.
type Category struct {
	ID        string    `gorm:"column:category_id;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Category) TableName() string { return "categories" }

type Subcategory struct {
	ID         string    `gorm:"column:subcategory_id;primaryKey"`
	CategoryID string    `gorm:"column:category_id;not null"`
	Name       string    `gorm:"column:name;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Subcategory) TableName() string { return "subcategories" }

// MenuItem is a purchasable dish with its stock level.
//
// Foreign key fields in this package end in Ref. An ID suffix resolves to the
// related primary key column of the same name and breaks preloading.
type MenuItem struct {
	ID                 string           `gorm:"column:menu_item_id;primaryKey"`
	Name               string           `gorm:"column:name;not null"`
	Description        string           `gorm:"column:description;not null;default:''"`
	Price              decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	ImageURL           string           `gorm:"column:image_url;not null;default:''"`
	CategoryRef        *string          `gorm:"column:category_id"`
	SubcategoryRef     *string          `gorm:"column:subcategory_id"`
	IsBestSeller       bool             `gorm:"column:is_best_seller;not null;default:false"`
	IsOutOfStock       bool             `gorm:"column:is_out_of_stock;not null;default:false"`
	DiscountPercentage *decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2)"`
	StockAvailable     int              `gorm:"column:stock_available;not null;default:100"`
	Category           *Category        `gorm:"foreignKey:CategoryRef;references:ID"`
	Subcategory        *Subcategory     `gorm:"foreignKey:SubcategoryRef;references:ID"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (MenuItem) TableName() string { return "menu_items" }
