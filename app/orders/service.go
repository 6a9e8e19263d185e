// Package orders implements the purchase-order workflow: the
// reconciliation of submitted line items against the catalog and the
// access policy over the resulting orders.
package orders

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/aubertin/purchasing-backend/app/api"
	"github.com/aubertin/purchasing-backend/models"
)

// CatalogProvider resolves products for price snapshots. Reads only.
type CatalogProvider interface {
	GetByID(id uint) (*models.Product, error)
}

// OrderStore persists orders. Save must replace the full line set
// atomically; Update touches the order row only.
type OrderStore interface {
	GetByID(id uint) (*models.Order, error)
	Save(order *models.Order, lines []models.OrderLine) error
	Update(order *models.Order) error
}

// CustomerResolver validates explicit owner overrides on create.
type CustomerResolver interface {
	GetByID(id uint) (*models.User, error)
}

// ProductRef is a product reference as submitted by clients: either a
// plain numeric id or a string that embeds one (the frontend may send
// an IRI such as "/api/products/7").
type ProductRef struct {
	Raw string
	ID  uint
}

func (p *ProductRef) UnmarshalJSON(b []byte) error {
	var n uint
	if err := json.Unmarshal(b, &n); err == nil {
		p.Raw = strconv.FormatUint(uint64(n), 10)
		p.ID = n
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("product reference must be a number or string")
	}
	p.Raw = s

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return nil // unresolvable, skipped during reconciliation
	}
	id, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return nil
	}
	p.ID = uint(id)
	return nil
}

// LineInput is one submitted order position.
type LineInput struct {
	Product  *ProductRef `json:"product"`
	Quantity *int        `json:"quantity"`
}

// Payload is the client-submitted order content for create and update.
type Payload struct {
	ProductOrders []LineInput `json:"productOrders"`
	Notes         *string     `json:"notes"`
	Status        *string     `json:"status"`
	Customer      *uint       `json:"customer"`
}

// Warning reports a line entry that was skipped during reconciliation.
type Warning struct {
	Product string `json:"product"`
	Reason  string `json:"reason"`
}

// Result is a reconciled, persisted order plus the skipped entries.
type Result struct {
	Order    *models.Order `json:"order"`
	Warnings []Warning     `json:"warnings,omitempty"`
}

// Service is the order reconciliation engine.
type Service struct {
	catalog   CatalogProvider
	orders    OrderStore
	customers CustomerResolver
	now       func() time.Time
}

func NewService(catalog CatalogProvider, orders OrderStore, customers CustomerResolver) *Service {
	return &Service{
		catalog:   catalog,
		orders:    orders,
		customers: customers,
		now:       time.Now,
	}
}

// Reconcile turns a submitted payload into a persisted, consistent
// order. When existing is nil a new order is created for the caller;
// otherwise the existing order is mutated in place. A non-empty line
// list replaces the previous set entirely: old lines are deleted from
// storage, surviving entries get a fresh unit-price snapshot, and the
// order total is recomputed. Entries whose product reference does not
// resolve are skipped and reported, not rejected.
func (s *Service) Reconcile(existing *models.Order, payload Payload, caller *models.User) (*Result, error) {
	order := existing
	if order == nil {
		var err error
		order, err = s.newOrder(payload, caller)
		if err != nil {
			return nil, err
		}
	}

	if payload.Status != nil {
		status := models.OrderStatus(*payload.Status)
		if !models.ValidOrderStatus(status) {
			return nil, api.Validation(fmt.Sprintf("Unknown order status %q", *payload.Status))
		}
		order.Status = status
	}
	if payload.Notes != nil {
		order.Notes = payload.Notes
	}

	lines := order.Lines
	var warnings []Warning
	replaced := false

	if len(payload.ProductOrders) > 0 {
		lines, warnings = s.resolveLines(payload.ProductOrders)
		replaced = true
	}

	if len(lines) == 0 {
		return nil, api.Validation("An order must contain at least one product")
	}

	order.Lines = lines
	order.ComputeTotal()

	if existing != nil {
		now := s.now()
		order.UpdatedAt = &now
	}

	var err error
	if replaced || existing == nil {
		err = s.orders.Save(order, lines)
	} else {
		err = s.orders.Update(order)
	}
	if err != nil {
		if errors.Is(err, models.ErrDuplicateOrderNumber) {
			return nil, api.Conflict("Order number collision, please retry")
		}
		return nil, err
	}

	reloaded, err := s.orders.GetByID(order.ID)
	if err != nil {
		return nil, err
	}

	return &Result{Order: reloaded, Warnings: warnings}, nil
}

func (s *Service) newOrder(payload Payload, caller *models.User) (*models.Order, error) {
	customer := caller
	if payload.Customer != nil && *payload.Customer != caller.ID {
		if !caller.IsAdmin() {
			return nil, api.Forbidden("Only administrators may create orders for other customers")
		}
		other, err := s.customers.GetByID(*payload.Customer)
		if err != nil {
			if errors.Is(err, models.ErrUserNotFound) {
				return nil, api.NotFound("Customer not found")
			}
			return nil, err
		}
		customer = other
	}

	now := s.now()
	return &models.Order{
		OrderNumber: models.NewOrderNumber(now),
		OrderDate:   now,
		Status:      models.OrderStatusPending,
		CustomerID:  customer.ID,
		Customer:    *customer,
		IsActive:    true,
		CreatedAt:   now,
	}, nil
}

// resolveLines maps submitted entries onto priced order lines. Entries
// that cannot be resolved are skipped; each skip is logged and reported
// back to the caller.
func (s *Service) resolveLines(inputs []LineInput) ([]models.OrderLine, []Warning) {
	var lines []models.OrderLine
	var warnings []Warning

	skip := func(raw, reason string) {
		log.WithFields(log.Fields{"product": raw, "reason": reason}).Warn("skipping order line")
		warnings = append(warnings, Warning{Product: raw, Reason: reason})
	}

	for _, in := range inputs {
		if in.Product == nil {
			skip("", "missing product reference")
			continue
		}
		if in.Product.ID == 0 {
			skip(in.Product.Raw, "unresolvable product reference")
			continue
		}

		quantity := 1
		if in.Quantity != nil {
			quantity = *in.Quantity
		}
		if quantity < 1 {
			skip(in.Product.Raw, "quantity must be positive")
			continue
		}

		product, err := s.catalog.GetByID(in.Product.ID)
		if err != nil {
			if errors.Is(err, models.ErrProductNotFound) {
				skip(in.Product.Raw, "product not found")
				continue
			}
			skip(in.Product.Raw, "product lookup failed")
			continue
		}

		lines = append(lines, models.NewOrderLine(product, quantity))
	}

	return lines, warnings
}

// UpdateMeta applies a partial update of status and notes without
// touching the line set or the total.
func (s *Service) UpdateMeta(order *models.Order, status *string, notes *string) (*models.Order, error) {
	if status != nil {
		st := models.OrderStatus(*status)
		if !models.ValidOrderStatus(st) {
			return nil, api.Validation(fmt.Sprintf("Unknown order status %q", *status))
		}
		order.Status = st
	}
	if notes != nil {
		order.Notes = notes
	}

	now := s.now()
	order.UpdatedAt = &now

	if err := s.orders.Update(order); err != nil {
		return nil, err
	}
	return s.orders.GetByID(order.ID)
}
