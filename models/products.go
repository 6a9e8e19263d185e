package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog.
// It includes a unique SKU, price, stock count and its category.
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	SKU         string          `gorm:"uniqueIndex;not null" json:"sku"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	IsActive    bool            `gorm:"not null;default:true" json:"isActive"`
	Image       *string         `json:"image,omitempty"`
	CategoryID  uint            `gorm:"not null" json:"-"`
	Category    Category        `gorm:"foreignKey:CategoryID" json:"category"`
	CreatedAt   time.Time       `json:"createdAt"`
	DeletedAt   *time.Time      `json:"-"`
}

func (p *Product) TableName() string {
	return "products"
}
