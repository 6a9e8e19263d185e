package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/aubertin/purchasing-backend/app/api"
	"github.com/aubertin/purchasing-backend/models"
)

// CredentialsProvider looks up accounts for the login flow.
type CredentialsProvider interface {
	GetByEmail(email string) (*models.User, error)
}

type Handler struct {
	users  CredentialsProvider
	issuer *TokenIssuer
}

func NewHandler(users CredentialsProvider, issuer *TokenIssuer) *Handler {
	return &Handler{users: users, issuer: issuer}
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// HandleLogin exchanges email/password credentials for a bearer token.
// Unknown accounts and wrong passwords get the same answer so the
// endpoint cannot be used to enumerate users.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.RespondError(w, api.BadRequest("Invalid JSON body"))
		return
	}
	if input.Email == "" || input.Password == "" {
		api.RespondError(w, api.BadRequest("Email and password are required"))
		return
	}

	user, err := h.users.GetByEmail(input.Email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			api.RespondError(w, api.Unauthorized("Invalid credentials"))
			return
		}
		api.RespondError(w, err)
		return
	}

	if !user.IsActive {
		api.RespondError(w, api.Unauthorized("Invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		api.RespondError(w, api.Unauthorized("Invalid credentials"))
		return
	}

	token, err := h.issuer.Generate(user.ID, user.Email, user.Roles)
	if err != nil {
		api.RespondError(w, err)
		return
	}

	log.WithFields(log.Fields{"user_id": user.ID, "email": user.Email}).Info("user logged in")

	api.Respond(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// HandleAuthenticated returns the caller resolved by the auth
// middleware.
func (h *Handler) HandleAuthenticated(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	if user == nil {
		api.RespondError(w, api.Unauthorized("Not authenticated"))
		return
	}
	api.Respond(w, http.StatusOK, user)
}
