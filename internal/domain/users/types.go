package users

import (
	"strings"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/auth"
)

// User is a registered account. PasswordHash never leaves the service layer.
type User struct {
	ID           string
	Firstname    string
	Lastname     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// DisplayName is the author name shown next to a user's events.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.Firstname + " " + u.Lastname)
}

// Identity returns the claims embedded in the user's session tokens.
func (u User) Identity() auth.Identity {
	return auth.Identity{
		ID:        u.ID,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Email:     u.Email,
	}
}

// RegisterParams is the input for creating an account.
type RegisterParams struct {
	Firstname string `json:"firstname" validate:"required,max=100"`
	Lastname  string `json:"lastname" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required"`
}

// LoginParams is the input for exchanging credentials for a session token.
type LoginParams struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries a freshly issued session token and the public user fields.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// NormalizeEmail lowercases and trims an email for uniqueness comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
