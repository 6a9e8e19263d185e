package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

type ProductsRepository struct {
	db *gorm.DB
}

// ErrProductNotFound is returned when a product is not found.
var ErrProductNotFound = errors.New("product not found")

// ErrDuplicateSKU is returned when a product SKU is already taken.
var ErrDuplicateSKU = errors.New("product sku already exists")

type ProductFilters struct {
	CategoryID    uint
	PriceLessThan *float64
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

func (r *ProductsRepository) GetFilteredProducts(offset, limit int, filters ProductFilters) ([]Product, int64, error) {
	var products []Product
	var total int64

	query := r.db.Model(&Product{}).
		Where("products.deleted_at IS NULL").
		Preload("Category")

	// Filter
	if filters.CategoryID != 0 {
		query = query.Where("products.category_id = ?", filters.CategoryID)
	}
	if filters.PriceLessThan != nil {
		query = query.Where("products.price < ?", *filters.PriceLessThan)
	}

	// Count total after filtering
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply pagination
	if err := query.Offset(offset).Limit(limit).Order("products.id").Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *ProductsRepository) GetByID(id uint) (*Product, error) {
	var product Product
	if err := r.db.
		Preload("Category").
		Where("deleted_at IS NULL").
		First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err // Other DB error
	}
	return &product, nil
}

func (r *ProductsRepository) Create(product *Product) error {
	if err := r.db.Create(product).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSKU
		}
		return err
	}
	return r.db.Preload("Category").First(product, product.ID).Error
}

func (r *ProductsRepository) Update(product *Product) error {
	if err := r.db.Save(product).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSKU
		}
		return err
	}
	return r.db.Preload("Category").First(product, product.ID).Error
}

func (r *ProductsRepository) SoftDelete(id uint) error {
	res := r.db.Model(&Product{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// isUniqueViolation matches postgres unique-constraint failures without
// depending on the driver's error type (code 23505).
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "23505")
}
