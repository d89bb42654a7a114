package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var testIdentity = auth.Identity{
	ID:        "01HZY8Q9V3K4M5N6P7Q8R9S0A1",
	Firstname: "Alice",
	Lastname:  "Martin",
	Email:     "alice@example.com",
}

func signedToken(t *testing.T, secret string, issuedAt, expiresAt time.Time) string {
	t.Helper()
	claims := auth.Claims{
		Identity: testIdentity,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testIdentity.ID,
			Issuer:    "eventboard",
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func identityEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := SessionIdentity(r)
		if identity == nil {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_ = json.NewEncoder(w).Encode(identity)
	})
}

func TestSessionAuth(t *testing.T) {
	manager := auth.NewSessionManager(testSecret, time.Hour, "eventboard")
	valid, _, err := manager.Issue(testIdentity)
	require.NoError(t, err)

	now := time.Now()
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantDetail string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, ""},
		{"no header", "", http.StatusUnauthorized, "A bearer token is required"},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, "A bearer token is required"},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized, "The session token is invalid"},
		{"forged signature", "Bearer " + signedToken(t, strings.Repeat("x", 32), now, now.Add(time.Hour)), http.StatusUnauthorized, "The session token is invalid"},
		{"expired", "Bearer " + signedToken(t, testSecret, now.Add(-2*time.Hour), now.Add(-time.Hour)), http.StatusUnauthorized, "The session token has expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			SessionAuth(manager, "production")(identityEcho()).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				var got auth.Identity
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Equal(t, testIdentity, got)
				return
			}
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
			assert.Contains(t, rec.Body.String(), tt.wantDetail)
		})
	}
}

func TestSessionAuthNilManager(t *testing.T) {
	rec := httptest.NewRecorder()
	SessionAuth(nil, "test")(identityEcho()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionIdentityWithoutMiddleware(t *testing.T) {
	assert.Nil(t, SessionIdentity(httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Nil(t, SessionIdentity(nil))
}
