// Package users exposes account management. Listing, creation and
// deletion are admin-only; a regular user may read and edit their own
// profile, but never their roles.
package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/aubertin/purchasing-backend/app/api"
	"github.com/aubertin/purchasing-backend/app/auth"
	"github.com/aubertin/purchasing-backend/models"
)

type UserProvider interface {
	GetAllUsers() ([]models.User, error)
	GetByID(id uint) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	SoftDelete(id uint) error
}

type Handler struct {
	repo UserProvider
}

func NewHandler(r UserProvider) *Handler {
	return &Handler{repo: r}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.GetAllUsers()
	if err != nil {
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, users)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller := auth.CurrentUser(r.Context())

	user, err := h.loadUser(r)
	if err != nil {
		api.RespondError(w, err)
		return
	}
	if !caller.IsAdmin() && caller.ID != user.ID {
		api.RespondError(w, api.Forbidden("You may only view your own profile"))
		return
	}

	api.Respond(w, http.StatusOK, user)
}

type userInput struct {
	Email     *string  `json:"email"`
	Password  *string  `json:"password"`
	FirstName *string  `json:"firstName"`
	LastName  *string  `json:"lastName"`
	Roles     []string `json:"roles"`
	IsActive  *bool    `json:"isActive"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input userInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.RespondError(w, api.BadRequest("Invalid JSON body"))
		return
	}

	fields := map[string]string{}
	if input.Email == nil || !strings.Contains(*input.Email, "@") {
		fields["email"] = "A valid email is required"
	}
	if input.Password == nil || len(*input.Password) < 6 {
		fields["password"] = "Password must be at least 6 characters"
	}
	if input.FirstName == nil || *input.FirstName == "" {
		fields["firstName"] = "First name is required"
	}
	if input.LastName == nil || *input.LastName == "" {
		fields["lastName"] = "Last name is required"
	}
	if len(fields) > 0 {
		api.RespondError(w, api.ValidationFields("Invalid user", fields))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
	if err != nil {
		api.RespondError(w, err)
		return
	}

	roles := input.Roles
	if len(roles) == 0 {
		roles = []string{models.RoleUser}
	}

	user := &models.User{
		Email:     *input.Email,
		Password:  string(hash),
		FirstName: *input.FirstName,
		LastName:  *input.LastName,
		Roles:     roles,
		IsActive:  true,
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := h.repo.Create(user); err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			api.RespondError(w, api.Conflict("This email is already registered"))
			return
		}
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusCreated, user)
}

// HandlePatch applies a partial update. Non-admins may only edit their
// own profile and cannot change roles or the active flag.
func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	caller := auth.CurrentUser(r.Context())

	user, err := h.loadUser(r)
	if err != nil {
		api.RespondError(w, err)
		return
	}
	if !caller.IsAdmin() && caller.ID != user.ID {
		api.RespondError(w, api.Forbidden("You may only edit your own profile"))
		return
	}

	var input userInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.RespondError(w, api.BadRequest("Invalid JSON body"))
		return
	}

	if (input.Roles != nil || input.IsActive != nil) && !caller.IsAdmin() {
		api.RespondError(w, api.Forbidden("Only administrators may change roles or account status"))
		return
	}

	if input.Email != nil {
		if !strings.Contains(*input.Email, "@") {
			api.RespondError(w, api.Validation("A valid email is required"))
			return
		}
		user.Email = *input.Email
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Roles != nil {
		user.Roles = input.Roles
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.Password != nil {
		if len(*input.Password) < 6 {
			api.RespondError(w, api.Validation("Password must be at least 6 characters"))
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			api.RespondError(w, err)
			return
		}
		user.Password = string(hash)
	}

	if err := h.repo.Update(user); err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			api.RespondError(w, api.Conflict("This email is already registered"))
			return
		}
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusOK, user)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.RespondError(w, err)
		return
	}

	caller := auth.CurrentUser(r.Context())
	if caller.ID == id {
		api.RespondError(w, api.Validation("You cannot delete your own account"))
		return
	}

	if err := h.repo.SoftDelete(id); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			api.RespondError(w, api.NotFound("User not found"))
			return
		}
		api.RespondError(w, err)
		return
	}

	api.Respond(w, http.StatusNoContent, nil)
}

func (h *Handler) loadUser(r *http.Request) (*models.User, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	user, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, api.NotFound("User not found")
		}
		return nil, err
	}
	return user, nil
}

func pathID(r *http.Request) (uint, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, api.BadRequest("Invalid id")
	}
	return uint(id), nil
}
