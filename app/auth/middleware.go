package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/aubertin/purchasing-backend/app/api"
	"github.com/aubertin/purchasing-backend/models"
)

type contextKey struct{}

var userContextKey contextKey

// UserProvider resolves authenticated callers against storage.
type UserProvider interface {
	GetByID(id uint) (*models.User, error)
}

// Middleware authenticates bearer tokens and threads the resolved user
// through the request context.
type Middleware struct {
	issuer *TokenIssuer
	users  UserProvider
}

func NewMiddleware(issuer *TokenIssuer, users UserProvider) *Middleware {
	return &Middleware{issuer: issuer, users: users}
}

// Authenticate rejects requests without a valid bearer token for an
// active, non-deleted user.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			api.RespondError(w, api.Unauthorized("Missing Authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			api.RespondError(w, api.Unauthorized("Invalid Authorization header format"))
			return
		}

		claims, err := m.issuer.Validate(parts[1])
		if err != nil {
			api.RespondError(w, api.Unauthorized("Invalid or expired token"))
			return
		}

		user, err := m.users.GetByID(claims.UserID)
		if err != nil || !user.IsActive {
			api.RespondError(w, api.Unauthorized("Invalid or expired token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireAdmin gates a route to administrators. Must run after
// Authenticate.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r.Context())
		if user == nil || !user.IsAdmin() {
			api.RespondError(w, api.Forbidden("Administrator role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// CurrentUser returns the authenticated user, or nil on an
// unauthenticated context.
func CurrentUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}
