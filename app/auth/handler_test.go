package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aubertin/purchasing-backend/models"
)

// --- Mock Repo ---

type MockUserRepo struct {
	Users []models.User
}

func (m *MockUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range m.Users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (m *MockUserRepo) GetByID(id uint) (*models.User, error) {
	for _, u := range m.Users {
		if u.ID == id {
			user := u
			return &user, nil
		}
	}
	return nil, models.ErrUserNotFound
}

// --- Helpers ---

func testUser(t *testing.T, email, password string, active bool) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return models.User{
		ID:       1,
		Email:    email,
		Password: string(hash),
		Roles:    []string{models.RoleUser},
		IsActive: active,
	}
}

func testIssuer() *TokenIssuer {
	return NewTokenIssuer([]byte("test-secret"), time.Hour)
}

// --- Tests ---

func TestHandleLogin(t *testing.T) {
	testCases := []struct {
		name               string
		requestBody        string
		users              []models.User
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:               "Success",
			requestBody:        `{"email":"alice@example.com","password":"secret"}`,
			users:              []models.User{testUser(t, "alice@example.com", "secret", true)},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp loginResponse
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.NotEmpty(t, resp.Token)
				assert.Equal(t, "alice@example.com", resp.User.Email)
				assert.NotContains(t, rec.Body.String(), "Password")
			},
		},
		{
			name:               "Wrong password",
			requestBody:        `{"email":"alice@example.com","password":"nope"}`,
			users:              []models.User{testUser(t, "alice@example.com", "secret", true)},
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "Unknown user gets the same answer",
			requestBody:        `{"email":"ghost@example.com","password":"secret"}`,
			users:              []models.User{testUser(t, "alice@example.com", "secret", true)},
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "Deactivated account",
			requestBody:        `{"email":"alice@example.com","password":"secret"}`,
			users:              []models.User{testUser(t, "alice@example.com", "secret", false)},
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "Missing credentials",
			requestBody:        `{"email":"alice@example.com"}`,
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name:               "Invalid JSON body",
			requestBody:        `{nope`,
			expectedStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			handler := NewHandler(&MockUserRepo{Users: tc.users}, testIssuer())
			req := httptest.NewRequest("POST", "/api/login_check", strings.NewReader(tc.requestBody))
			rec := httptest.NewRecorder()

			// Act
			handler.HandleLogin(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
		})
	}
}

func TestLoginErrorsDoNotEnumerate(t *testing.T) {
	users := []models.User{testUser(t, "alice@example.com", "secret", true)}
	handler := NewHandler(&MockUserRepo{Users: users}, testIssuer())

	bodyFor := func(payload string) string {
		req := httptest.NewRequest("POST", "/api/login_check", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		handler.HandleLogin(rec, req)
		return rec.Body.String()
	}

	wrongPassword := bodyFor(`{"email":"alice@example.com","password":"nope"}`)
	unknownUser := bodyFor(`{"email":"ghost@example.com","password":"nope"}`)
	assert.Equal(t, wrongPassword, unknownUser)
}

func TestHandleAuthenticated(t *testing.T) {
	handler := NewHandler(&MockUserRepo{}, testIssuer())

	user := testUser(t, "alice@example.com", "secret", true)
	req := httptest.NewRequest("GET", "/api/authenticated", nil)
	req = req.WithContext(WithUser(req.Context(), &user))
	rec := httptest.NewRecorder()

	handler.HandleAuthenticated(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "alice@example.com", resp.Email)
}
