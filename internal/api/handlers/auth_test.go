package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/api/middleware"
	"github.com/Togather-Foundation/eventboard/internal/auth"
	"github.com/Togather-Foundation/eventboard/internal/domain/users"
	"github.com/Togather-Foundation/eventboard/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, params users.RegisterParams) (*users.User, error) {
	args := m.Called(ctx, params)
	user, _ := args.Get(0).(*users.User)
	return user, args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id string) (*users.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*users.User)
	return user, args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, params users.LoginParams) (*users.LoginResult, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*users.LoginResult)
	return result, args.Error(1)
}

var alice = &users.User{
	ID:           "01HZY8Q9V3K4M5N6P7Q8R9S0A1",
	Firstname:    "Alice",
	Lastname:     "Martin",
	Email:        "alice@example.com",
	PasswordHash: "$2a$12$secret",
}

// withIdentity attaches an identity the way SessionAuth would.
func withIdentity(r *http.Request, identity auth.Identity) *http.Request {
	return r.WithContext(middleware.ContextWithSessionIdentity(r.Context(), &identity))
}

func problemBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestAuthHandlerRegister(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockUserService)
		svc.On("Register", mock.Anything, users.RegisterParams{
			Firstname: "Alice", Lastname: "Martin", Email: "alice@example.com", Password: "pw",
		}).Return(alice, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/register",
			strings.NewReader(`{"firstname":"Alice","lastname":"Martin","email":"alice@example.com","password":"pw"}`))
		rec := httptest.NewRecorder()
		NewAuthHandler(svc, "test").Register(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `"success":true`)
		assert.Contains(t, body, `"id":"01HZY8Q9V3K4M5N6P7Q8R9S0A1"`)
		assert.NotContains(t, body, "secret")
		svc.AssertExpectations(t)
	})

	t.Run("duplicate email is 400", func(t *testing.T) {
		svc := new(MockUserService)
		svc.On("Register", mock.Anything, mock.Anything).Return(nil, users.ErrEmailTaken)

		rec := httptest.NewRecorder()
		NewAuthHandler(svc, "production").Register(rec, httptest.NewRequest(http.MethodPost, "/api/register",
			strings.NewReader(`{"firstname":"A","lastname":"B","email":"a@example.com","password":"pw"}`)))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Email already registered", problemBody(t, rec)["title"])
	})

	t.Run("validation errors list fields", func(t *testing.T) {
		svc := new(MockUserService)
		svc.On("Register", mock.Anything, mock.Anything).Return(nil, validation.Errors{validation.Required("email")})

		rec := httptest.NewRecorder()
		NewAuthHandler(svc, "production").Register(rec, httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{}`)))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		errs, ok := problemBody(t, rec)["errors"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "is required", errs["email"])
	})

	bodies := []struct {
		name string
		body string
	}{
		{"unknown field", `{"firstname":"A","admin":true}`},
		{"malformed", `{"firstname":`},
		{"empty", ``},
		{"two objects", `{} {}`},
		{"wrong type", `{"firstname":42}`},
	}
	for _, tt := range bodies {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			svc := new(MockUserService)
			rec := httptest.NewRecorder()
			NewAuthHandler(svc, "test").Register(rec, httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		expires := time.Date(2030, 1, 8, 0, 0, 0, 0, time.UTC)
		svc := new(MockUserService)
		svc.On("Login", mock.Anything, users.LoginParams{Email: "alice@example.com", Password: "pw"}).
			Return(&users.LoginResult{Token: "tok", ExpiresAt: expires, User: alice}, nil)

		rec := httptest.NewRecorder()
		NewAuthHandler(svc, "test").Login(rec, httptest.NewRequest(http.MethodPost, "/api/login",
			strings.NewReader(`{"email":"alice@example.com","password":"pw"}`)))

		require.Equal(t, http.StatusOK, rec.Code)
		var body loginResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.True(t, body.Success)
		assert.Equal(t, "tok", body.Token)
		assert.True(t, expires.Equal(body.ExpiresAt))
		assert.Equal(t, "Alice", body.User.Firstname)
	})

	// Both failure kinds must produce byte-identical responses.
	t.Run("unknown user and wrong password look the same", func(t *testing.T) {
		respond := func(err error) (int, string) {
			svc := new(MockUserService)
			svc.On("Login", mock.Anything, mock.Anything).Return(nil, err)
			rec := httptest.NewRecorder()
			NewAuthHandler(svc, "production").Login(rec, httptest.NewRequest(http.MethodPost, "/api/login",
				strings.NewReader(`{"email":"x@example.com","password":"pw"}`)))
			return rec.Code, rec.Body.String()
		}

		unknownStatus, unknownBody := respond(users.ErrUnknownIdentity)
		badStatus, badBody := respond(users.ErrBadSecret)

		assert.Equal(t, http.StatusUnauthorized, unknownStatus)
		assert.Equal(t, unknownStatus, badStatus)
		assert.Equal(t, unknownBody, badBody)
		assert.NotContains(t, unknownBody, "unknown identity")
	})
}

func TestAuthHandlerMe(t *testing.T) {
	t.Run("reads the stored profile", func(t *testing.T) {
		svc := new(MockUserService)
		renamed := *alice
		renamed.Lastname = "Martin-Durand"
		svc.On("GetByID", mock.Anything, alice.ID).Return(&renamed, nil)
		h := NewAuthHandler(svc, "test")

		rec := httptest.NewRecorder()
		h.Me(rec, withIdentity(httptest.NewRequest(http.MethodGet, "/api/me", nil), alice.Identity()))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"email":"alice@example.com"`)
		assert.Contains(t, rec.Body.String(), `"lastname":"Martin-Durand"`)
		assert.NotContains(t, rec.Body.String(), "secret")
		svc.AssertExpectations(t)
	})

	t.Run("account gone", func(t *testing.T) {
		svc := new(MockUserService)
		svc.On("GetByID", mock.Anything, alice.ID).Return(nil, users.ErrUserNotFound)
		h := NewAuthHandler(svc, "test")

		rec := httptest.NewRecorder()
		h.Me(rec, withIdentity(httptest.NewRequest(http.MethodGet, "/api/me", nil), alice.Identity()))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		problemBody(t, rec)
	})

	t.Run("no identity", func(t *testing.T) {
		svc := new(MockUserService)
		h := NewAuthHandler(svc, "test")

		rec := httptest.NewRecorder()
		h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}
