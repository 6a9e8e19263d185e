// Package catalog exposes the product CRUD endpoints. Reads are open
// to every authenticated user; writes are admin-gated in the router.
package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/aubertin/purchasing-backend/app/api"
	"github.com/aubertin/purchasing-backend/models"
)

type Response struct {
	Total    int              `json:"total"`
	Products []models.Product `json:"products"`
}

type ProductProvider interface {
	GetFilteredProducts(offset, limit int, filters models.ProductFilters) ([]models.Product, int64, error)
	GetByID(id uint) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	SoftDelete(id uint) error
}

type CategoryResolver interface {
	GetByID(id uint) (*models.Category, error)
}

type CatalogHandler struct {
	repo       ProductProvider
	categories CategoryResolver
}

func NewCatalogHandler(r ProductProvider, c CategoryResolver) *CatalogHandler {
	return &CatalogHandler{
		repo:       r,
		categories: c,
	}
}

func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	// Parse pagination query params
	offset := 0
	limit := 30

	if oStr := r.URL.Query().Get("offset"); oStr != "" {
		if o, err := strconv.Atoi(oStr); err == nil && o >= 0 {
			offset = o
		}
	}

	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			if l < 1 {
				limit = 1
			} else if l > 100 {
				limit = 100
			} else {
				limit = l
			}
		}
	}

	// Parse filters
	var categoryID uint
	if cStr := r.URL.Query().Get("category"); cStr != "" {
		if c, err := strconv.ParseUint(cStr, 10, 32); err == nil {
			categoryID = uint(c)
		}
	}

	var priceFilter *float64
	if priceStr := r.URL.Query().Get("price_lt"); priceStr != "" {
		if val, err := strconv.ParseFloat(priceStr, 64); err == nil {
			priceFilter = &val
		}
	}

	filters := models.ProductFilters{
		CategoryID:    categoryID,
		PriceLessThan: priceFilter,
	}

	res, total, err := h.repo.GetFilteredProducts(offset, limit, filters)
	if err != nil {
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, Response{
		Total:    int(total),
		Products: res,
	})
}

func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.loadProduct(r)
	if err != nil {
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, product)
}

type productInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	SKU         *string          `json:"sku"`
	Stock       *int             `json:"stock"`
	IsActive    *bool            `json:"isActive"`
	Image       *string          `json:"image"`
	Category    *uint            `json:"category"`
}

func (h *CatalogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input productInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.RespondError(w, api.BadRequest("Invalid JSON body"))
		return
	}

	fields := map[string]string{}
	if input.Name == nil || *input.Name == "" {
		fields["name"] = "Name is required"
	}
	if input.SKU == nil || *input.SKU == "" {
		fields["sku"] = "SKU is required"
	}
	if input.Price == nil {
		fields["price"] = "Price is required"
	} else if input.Price.IsNegative() {
		fields["price"] = "Price must not be negative"
	}
	if input.Stock != nil && *input.Stock < 0 {
		fields["stock"] = "Stock must not be negative"
	}
	if input.Category == nil {
		fields["category"] = "Category is required"
	}
	if len(fields) > 0 {
		api.RespondError(w, api.ValidationFields("Invalid product", fields))
		return
	}

	if _, err := h.categories.GetByID(*input.Category); err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			api.RespondError(w, api.NotFound("Category not found"))
			return
		}
		api.RespondError(w, err)
		return
	}

	product := &models.Product{
		Name:        *input.Name,
		Description: input.Description,
		Price:       input.Price.Round(2),
		SKU:         *input.SKU,
		Image:       input.Image,
		CategoryID:  *input.Category,
		IsActive:    true,
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := h.repo.Create(product); err != nil {
		if errors.Is(err, models.ErrDuplicateSKU) {
			api.RespondError(w, api.Conflict("A product with this SKU already exists"))
			return
		}
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusCreated, product)
}

// HandlePatch applies a partial update; only the submitted fields
// change.
func (h *CatalogHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	product, err := h.loadProduct(r)
	if err != nil {
		api.RespondError(w, err)
		return
	}

	var input productInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.RespondError(w, api.BadRequest("Invalid JSON body"))
		return
	}

	if input.Name != nil {
		if *input.Name == "" {
			api.RespondError(w, api.Validation("Name must not be empty"))
			return
		}
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			api.RespondError(w, api.Validation("Price must not be negative"))
			return
		}
		product.Price = input.Price.Round(2)
	}
	if input.SKU != nil {
		if *input.SKU == "" {
			api.RespondError(w, api.Validation("SKU must not be empty"))
			return
		}
		product.SKU = *input.SKU
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			api.RespondError(w, api.Validation("Stock must not be negative"))
			return
		}
		product.Stock = *input.Stock
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.Image != nil {
		product.Image = input.Image
	}
	if input.Category != nil {
		if _, err := h.categories.GetByID(*input.Category); err != nil {
			if errors.Is(err, models.ErrCategoryNotFound) {
				api.RespondError(w, api.NotFound("Category not found"))
				return
			}
			api.RespondError(w, err)
			return
		}
		product.CategoryID = *input.Category
	}

	if err := h.repo.Update(product); err != nil {
		if errors.Is(err, models.ErrDuplicateSKU) {
			api.RespondError(w, api.Conflict("A product with this SKU already exists"))
			return
		}
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, product)
}

func (h *CatalogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.RespondError(w, err)
		return
	}

	if err := h.repo.SoftDelete(id); err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			api.RespondError(w, api.NotFound("Product not found"))
			return
		}
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusNoContent, nil)
}

func (h *CatalogHandler) loadProduct(r *http.Request) (*models.Product, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	product, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			return nil, api.NotFound("Product not found")
		}
		return nil, err
	}
	return product, nil
}

func pathID(r *http.Request) (uint, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, api.BadRequest("Invalid id")
	}
	return uint(id), nil
}
