package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aubertin/purchasing-backend/models"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	issuer := testIssuer()
	active := testUser(t, "alice@example.com", "secret", true)
	inactive := testUser(t, "off@example.com", "secret", false)
	inactive.ID = 2
	repo := &MockUserRepo{Users: []models.User{active, inactive}}
	mw := NewMiddleware(issuer, repo)

	validToken, err := issuer.Generate(active.ID, active.Email, active.Roles)
	require.NoError(t, err)
	inactiveToken, err := issuer.Generate(inactive.ID, inactive.Email, inactive.Roles)
	require.NoError(t, err)
	expiredIssuer := NewTokenIssuer([]byte("test-secret"), -time.Hour)
	expiredToken, err := expiredIssuer.Generate(active.ID, active.Email, active.Roles)
	require.NoError(t, err)
	foreignIssuer := NewTokenIssuer([]byte("other-secret"), time.Hour)
	foreignToken, err := foreignIssuer.Generate(active.ID, active.Email, active.Roles)
	require.NoError(t, err)

	testCases := []struct {
		name               string
		authHeader         string
		expectedStatusCode int
		expectNext         bool
	}{
		{"valid token", "Bearer " + validToken, http.StatusOK, true},
		{"missing header", "", http.StatusUnauthorized, false},
		{"not a bearer header", "Basic abc", http.StatusUnauthorized, false},
		{"expired token", "Bearer " + expiredToken, http.StatusUnauthorized, false},
		{"wrong signing key", "Bearer " + foreignToken, http.StatusUnauthorized, false},
		{"deactivated user", "Bearer " + inactiveToken, http.StatusUnauthorized, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest("GET", "/api/orders", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rec := httptest.NewRecorder()

			mw.Authenticate(okHandler(&called)).ServeHTTP(rec, req)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			assert.Equal(t, tc.expectNext, called)
		})
	}
}

func TestAuthenticateInjectsUser(t *testing.T) {
	issuer := testIssuer()
	user := testUser(t, "alice@example.com", "secret", true)
	mw := NewMiddleware(issuer, &MockUserRepo{Users: []models.User{user}})

	token, err := issuer.Generate(user.ID, user.Email, user.Roles)
	require.NoError(t, err)

	var seen *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CurrentUser(r.Context())
	})

	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	mw.Authenticate(next).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, seen)
	assert.Equal(t, user.Email, seen.Email)
}

func TestRequireAdmin(t *testing.T) {
	mw := NewMiddleware(testIssuer(), &MockUserRepo{})

	adminUser := &models.User{ID: 1, Roles: []string{models.RoleAdmin}, IsActive: true}
	regular := &models.User{ID: 2, Roles: []string{models.RoleUser}, IsActive: true}

	testCases := []struct {
		name               string
		caller             *models.User
		expectedStatusCode int
	}{
		{"admin passes", adminUser, http.StatusOK},
		{"regular user blocked", regular, http.StatusForbidden},
		{"missing user blocked", nil, http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest("DELETE", "/api/orders/1", nil)
			if tc.caller != nil {
				req = req.WithContext(WithUser(req.Context(), tc.caller))
			}
			rec := httptest.NewRecorder()

			mw.RequireAdmin(okHandler(&called)).ServeHTTP(rec, req)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
		})
	}
}
