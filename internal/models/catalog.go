package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category struct {
	BaseModel
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	ImageURL      string        `json:"image_url"`
	Subcategories []Subcategory `json:"subcategories,omitempty"`
}

type Subcategory struct {
	BaseModel
	CategoryID  uuid.UUID `gorm:"type:uuid;index" json:"category_id"`
	Category    *Category `json:"category,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Products    []Product `json:"products,omitempty"`
}

type Product struct {
	BaseModel
	SubcategoryID *uuid.UUID      `gorm:"type:uuid;index" json:"subcategory_id"`
	Subcategory   *Subcategory    `json:"subcategory,omitempty"`
	Name          string          `json:"name"`
	SKU           string          `gorm:"column:sku;uniqueIndex" json:"sku"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `gorm:"type:numeric(14,2)" json:"price"`
	Stock         int             `json:"stock"`
	ImageURL      string          `json:"image_url"`
	IsActive      bool            `json:"is_active"`
}

// Course is CMS content shown to technicians in the mobile app.
type Course struct {
	BaseModel
	Title        string `json:"title"`
	Description  string `json:"description"`
	ContentURL   string `json:"content_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	IsPublished  bool   `gorm:"default:false" json:"is_published"`
}

// Wishlist marks a dealer's interest in a product, one row per pair.
type Wishlist struct {
	BaseModel
	DealerID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_wishlist_dealer_product" json:"dealer_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_wishlist_dealer_product" json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
}
