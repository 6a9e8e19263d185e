package models

import "time"

// Category represents a product category.
// Description is free text shown in the admin views.
type Category struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	Description *string    `json:"description,omitempty"`
	DeletedAt   *time.Time `json:"-"`
}

func (c *Category) TableName() string {
	return "categories"
}
