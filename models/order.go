package models

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusCompleted OrderStatus = "completed"
)

// ValidOrderStatus reports whether s is one of the four known states.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusApproved, OrderStatusRejected, OrderStatusCompleted:
		return true
	}
	return false
}

// Order is a purchase order owned by a customer. TotalAmount is always
// derived from the lines, never taken from the client.
type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderNumber string          `gorm:"uniqueIndex;not null" json:"orderNumber"`
	OrderDate   time.Time       `gorm:"not null" json:"orderDate"`
	Status      OrderStatus     `gorm:"not null;default:'pending'" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalAmount"`
	Notes       *string         `json:"notes,omitempty"`
	CustomerID  uint            `gorm:"not null;index" json:"-"`
	Customer    User            `gorm:"foreignKey:CustomerID" json:"customer"`
	IsActive    bool            `gorm:"not null;default:true" json:"isActive"`
	Lines       []OrderLine     `gorm:"foreignKey:OrderID" json:"productOrders"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
	DeletedAt   *time.Time      `json:"-"`
}

func (o *Order) TableName() string {
	return "orders"
}

// ComputeTotal sums the line totals into TotalAmount.
func (o *Order) ComputeTotal() {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.TotalPrice)
	}
	o.TotalAmount = total
}

// OrderLine is one product position on an order. UnitPrice is a snapshot
// of the product price at the time the line was created and does not
// follow later catalog changes.
type OrderLine struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"not null;index" json:"-"`
	ProductID  uint            `gorm:"not null" json:"-"`
	Product    Product         `gorm:"foreignKey:ProductID" json:"product"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalPrice"`
}

func (l *OrderLine) TableName() string {
	return "order_lines"
}

// NewOrderLine snapshots the product's current price and derives the
// line total from it.
func NewOrderLine(product *Product, quantity int) OrderLine {
	unit := product.Price.Round(2)
	return OrderLine{
		ProductID:  product.ID,
		Product:    *product,
		Quantity:   quantity,
		UnitPrice:  unit,
		TotalPrice: unit.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
	}
}

// NewOrderNumber builds a practically unique order number of the form
// ORD-0042-1715700000: a zero-padded random disambiguator plus the
// current unix timestamp.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%04d-%d", rand.Intn(9999)+1, now.Unix())
}
