package users

import (
	"context"
	"time"
)

// Repository defines credential storage. Implementations must enforce
// uniqueness of the normalized email and report violations as ErrEmailTaken.
type Repository interface {
	CreateUser(ctx context.Context, params CreateUserDBParams) (*User, error)
	// GetUserByEmail expects a normalized email and returns ErrUserNotFound on miss.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*User, error)
}

// CreateUserDBParams contains database-level parameters for creating a user.
type CreateUserDBParams struct {
	ID           string
	Firstname    string
	Lastname     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
