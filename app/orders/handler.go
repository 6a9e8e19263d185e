package orders

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/aubertin/purchasing-backend/app/api"
	"github.com/aubertin/purchasing-backend/app/auth"
	"github.com/aubertin/purchasing-backend/models"
)

// OrderLister is the list/read side of order storage, scoped per
// caller by the handler.
type OrderLister interface {
	GetByID(id uint) (*models.Order, error)
	ListAll() ([]models.Order, error)
	ListByCustomer(customerID uint) ([]models.Order, error)
	SoftDelete(id uint) error
}

type Handler struct {
	service *Service
	repo    OrderLister
}

func NewHandler(service *Service, repo OrderLister) *Handler {
	return &Handler{service: service, repo: repo}
}

// HandleList returns every order for administrators and only the
// caller's own orders otherwise.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller := auth.CurrentUser(r.Context())

	var (
		orders []models.Order
		err    error
	)
	if caller.IsAdmin() {
		orders, err = h.repo.ListAll()
	} else {
		orders, err = h.repo.ListByCustomer(caller.ID)
	}
	if err != nil {
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, orders)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller := auth.CurrentUser(r.Context())

	order, err := h.loadOrder(r)
	if err != nil {
		api.RespondError(w, err)
		return
	}
	if !CanView(caller, order) {
		api.RespondError(w, api.Forbidden("You may only view your own orders"))
		return
	}

	api.Respond(w, http.StatusOK, order)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller := auth.CurrentUser(r.Context())

	var payload Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.RespondError(w, api.BadRequest("Invalid JSON body"))
		return
	}

	result, err := h.service.Reconcile(nil, payload, caller)
	if err != nil {
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusCreated, result)
}

// HandleUpdate replaces the order's full content with the submitted
// payload, including the entire line set when one is present.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller := auth.CurrentUser(r.Context())

	order, err := h.loadOrder(r)
	if err != nil {
		api.RespondError(w, err)
		return
	}
	if !CanModify(caller, order) {
		api.RespondError(w, api.Forbidden("You may only modify your own pending orders"))
		return
	}

	var payload Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.RespondError(w, api.BadRequest("Invalid JSON body"))
		return
	}

	result, err := h.service.Reconcile(order, payload, caller)
	if err != nil {
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, result)
}

// HandlePatch applies a partial status/notes update without touching
// the line set.
func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	caller := auth.CurrentUser(r.Context())

	order, err := h.loadOrder(r)
	if err != nil {
		api.RespondError(w, err)
		return
	}
	if !CanModify(caller, order) {
		api.RespondError(w, api.Forbidden("You may only modify your own pending orders"))
		return
	}

	var input struct {
		Status *string `json:"status"`
		Notes  *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.RespondError(w, api.BadRequest("Invalid JSON body"))
		return
	}

	updated, err := h.service.UpdateMeta(order, input.Status, input.Notes)
	if err != nil {
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, updated)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller := auth.CurrentUser(r.Context())
	if !CanDelete(caller) {
		api.RespondError(w, api.Forbidden("Only administrators may delete orders"))
		return
	}

	id, err := pathID(r)
	if err != nil {
		api.RespondError(w, err)
		return
	}

	if err := h.repo.SoftDelete(id); err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			api.RespondError(w, api.NotFound("Order not found"))
			return
		}
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusNoContent, nil)
}

func (h *Handler) loadOrder(r *http.Request) (*models.Order, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	order, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			return nil, api.NotFound("Order not found")
		}
		return nil, err
	}
	return order, nil
}

func pathID(r *http.Request) (uint, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, api.BadRequest("Invalid id")
	}
	return uint(id), nil
}
