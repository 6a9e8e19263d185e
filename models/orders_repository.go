package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrdersRepository struct {
	db *gorm.DB
}

// ErrOrderNotFound is returned when an order is not found.
var ErrOrderNotFound = errors.New("order not found")

// ErrDuplicateOrderNumber is returned on an order-number collision.
var ErrDuplicateOrderNumber = errors.New("order number already exists")

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{
		db: db,
	}
}

func (r *OrdersRepository) GetByID(id uint) (*Order, error) {
	var order Order
	if err := r.db.
		Preload("Customer").
		Preload("Lines").
		Preload("Lines.Product").
		Preload("Lines.Product.Category").
		Where("deleted_at IS NULL").
		First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrdersRepository) ListAll() ([]Order, error) {
	return r.list(r.db)
}

func (r *OrdersRepository) ListByCustomer(customerID uint) ([]Order, error) {
	return r.list(r.db.Where("customer_id = ?", customerID))
}

func (r *OrdersRepository) list(q *gorm.DB) ([]Order, error) {
	var orders []Order
	if err := q.
		Preload("Customer").
		Preload("Lines").
		Preload("Lines.Product").
		Where("orders.deleted_at IS NULL").
		Order("orders.order_date DESC, orders.id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Save persists the order row and replaces its full line set in one
// transaction. The previous lines are deleted from storage, not merely
// detached, so a partial failure rolls everything back.
func (r *OrdersRepository) Save(order *Order, lines []OrderLine) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		row := tx.Omit(clause.Associations)
		if order.ID == 0 {
			if err := row.Create(order).Error; err != nil {
				return err
			}
		} else {
			if err := row.Save(order).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&OrderLine{}).Error; err != nil {
			return err
		}

		for i := range lines {
			lines[i].ID = 0
			lines[i].OrderID = order.ID
		}
		if len(lines) > 0 {
			if err := tx.Omit("Product").Create(&lines).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateOrderNumber
		}
		return err
	}
	return nil
}

// Update persists the order row only, leaving the line set untouched.
func (r *OrdersRepository) Update(order *Order) error {
	return r.db.Omit(clause.Associations).Save(order).Error
}

func (r *OrdersRepository) SoftDelete(id uint) error {
	res := r.db.Model(&Order{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
