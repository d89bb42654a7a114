package events

import (
	"context"
	"errors"
	"math"
	"time"
)

var ErrNotFound = errors.New("event not found")

// ErrForbidden is returned when a caller tries to modify an event owned by someone else.
var ErrForbidden = errors.New("event is owned by another user")

// Event is a public listing owned by exactly one user.
type Event struct {
	ID          string
	OwnerID     string
	Title       string
	Date        string
	Place       string
	Category    string
	Description string
	// Author is the owner's display name, joined in by List and GetByID.
	Author    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateParams is the user-supplied input for a new event.
type CreateParams struct {
	Title       string `json:"title" validate:"required,max=200"`
	Date        string `json:"date" validate:"required,max=64"`
	Place       string `json:"place" validate:"required,max=200"`
	Category    string `json:"category" validate:"max=100"`
	Description string `json:"description" validate:"max=5000"`
}

// EventCreateParams contains database-level parameters for inserting an event.
type EventCreateParams struct {
	ID          string
	OwnerID     string
	Title       string
	Date        string
	Place       string
	Category    string
	Description string
	CreatedAt   time.Time
}

type Filters struct {
	// Query is a case-insensitive substring matched against title, place,
	// category and description.
	Query string
	// Category matches case-insensitively and exactly.
	Category string
	// UpcomingFrom keeps events whose date string sorts at or after it.
	UpcomingFrom string
	OwnerID      string
}

type Pagination struct {
	Page  int
	Limit int
}

// Offset returns the number of rows skipped before the requested page.
// It saturates at math.MaxInt instead of overflowing.
func (p Pagination) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// Repository persists events. List and GetByID fill Author from the owner.
//
// GetForUpdate locks the row until the surrounding WithTx completes; outside
// a transaction it behaves like GetByID. Update and Delete return ErrNotFound
// when the row is gone.
type Repository interface {
	List(ctx context.Context, filters Filters, pagination Pagination) ([]Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	GetForUpdate(ctx context.Context, id string) (*Event, error)
	Create(ctx context.Context, params EventCreateParams) (*Event, error)
	Update(ctx context.Context, event Event) (*Event, error)
	Delete(ctx context.Context, id string) error

	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
