package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionExpiry is how long a session token stays valid after login.
const DefaultSessionExpiry = 7 * 24 * time.Hour

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Identity is the caller identity embedded in a session token.
type Identity struct {
	ID        string `json:"id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
}

// Claims are the signed session token claims. The identity is trusted as of
// issuance; a user modified after login keeps the old claims until expiry.
type Claims struct {
	Identity
	jwt.RegisteredClaims
}

// SessionManager issues and validates stateless HS256 session tokens.
type SessionManager struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

func NewSessionManager(secret string, expiry time.Duration, issuer string) *SessionManager {
	if expiry <= 0 {
		expiry = DefaultSessionExpiry
	}
	return &SessionManager{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		now:    time.Now,
	}
}

// Expiry returns the lifetime of newly issued tokens.
func (m *SessionManager) Expiry() time.Duration {
	return m.expiry
}

// Issue mints a token for identity. The returned expiry is truncated to the
// token's one-second precision.
func (m *SessionManager) Issue(identity Identity) (string, time.Time, error) {
	if identity.ID == "" {
		return "", time.Time{}, ErrInvalidToken
	}

	now := m.now()
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(m.expiry))
	claims := &Claims{
		Identity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    m.issuer,
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt.Time, nil
}

// Validate verifies signature and expiry and returns the embedded identity.
// It performs no store lookup.
func (m *SessionManager) Validate(tokenString string) (*Identity, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Identity.ID == "" || claims.Identity.ID != claims.Subject {
		return nil, ErrInvalidToken
	}
	identity := claims.Identity
	return &identity, nil
}

func TokenFromHeader(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(parts[1]), nil
}
