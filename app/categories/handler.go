package categories

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/aubertin/purchasing-backend/app/api"
	"github.com/aubertin/purchasing-backend/models"
)

type CategoryProvider interface {
	GetAllCategories() ([]models.Category, error)
	GetByID(id uint) (*models.Category, error)
	CreateCategory(category *models.Category) error
	UpdateCategory(category *models.Category) error
	SoftDelete(id uint) error
}

type CategoryHandler struct {
	repo CategoryProvider
}

func NewCategoryHandler(r CategoryProvider) *CategoryHandler {
	return &CategoryHandler{repo: r}
}

func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.GetAllCategories()
	if err != nil {
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, categories)
}

func (h *CategoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	category, err := h.loadCategory(r)
	if err != nil {
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, category)
}

type categoryInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input categoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.RespondError(w, api.BadRequest("Invalid JSON body"))
		return
	}

	if input.Name == "" {
		api.RespondError(w, api.Validation("Name is required"))
		return
	}

	category := &models.Category{
		Name:        input.Name,
		Description: input.Description,
	}

	if err := h.repo.CreateCategory(category); err != nil {
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusCreated, category)
}

func (h *CategoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	category, err := h.loadCategory(r)
	if err != nil {
		api.RespondError(w, err)
		return
	}

	var input categoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.RespondError(w, api.BadRequest("Invalid JSON body"))
		return
	}

	if input.Name == "" {
		api.RespondError(w, api.Validation("Name is required"))
		return
	}

	category.Name = input.Name
	category.Description = input.Description

	if err := h.repo.UpdateCategory(category); err != nil {
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, category)
}

func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.RespondError(w, err)
		return
	}

	if err := h.repo.SoftDelete(id); err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			api.RespondError(w, api.NotFound("Category not found"))
			return
		}
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusNoContent, nil)
}

func (h *CategoryHandler) loadCategory(r *http.Request) (*models.Category, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	category, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			return nil, api.NotFound("Category not found")
		}
		return nil, err
	}
	return category, nil
}

func pathID(r *http.Request) (uint, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, api.BadRequest("Invalid id")
	}
	return uint(id), nil
}
