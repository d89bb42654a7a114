package storage

import (
	"context"

	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/Togather-Foundation/eventboard/internal/domain/users"
)

// Repository groups data access by domain. Both the postgres and memory
// backends satisfy it.
type Repository interface {
	Users() users.Repository
	Events() events.Repository

	Ping(ctx context.Context) error
	Close()
}
