package orders

import "github.com/aubertin/purchasing-backend/models"

// The access policy gates every order operation on the caller. It never
// downgrades a denied write into a no-op: a violation is always a
// Forbidden failure at the handler.

// CanView allows administrators and the owning customer.
func CanView(caller *models.User, order *models.Order) bool {
	return caller.IsAdmin() || order.CustomerID == caller.ID
}

// CanModify allows administrators regardless of status; the owning
// customer may modify only while the order is still pending.
func CanModify(caller *models.User, order *models.Order) bool {
	if caller.IsAdmin() {
		return true
	}
	return order.CustomerID == caller.ID && order.Status == models.OrderStatusPending
}

// CanDelete is reserved for administrators.
func CanDelete(caller *models.User) bool {
	return caller.IsAdmin()
}
