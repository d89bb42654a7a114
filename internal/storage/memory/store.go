// Package memory is an in-process storage backend for development and tests.
// Data is lost when the process exits.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/Togather-Foundation/eventboard/internal/domain/users"
	"github.com/Togather-Foundation/eventboard/internal/storage"
)

var _ storage.Repository = (*Store)(nil)

// Store holds users and events in maps.
//
// mu guards the maps. writeMu serializes writers: a transaction holds it from
// begin to commit, so a snapshot taken at begin can be restored on rollback
// without losing anyone else's writes.
type Store struct {
	mu      sync.RWMutex
	writeMu sync.Mutex

	users   map[string]users.User
	byEmail map[string]string
	events  map[string]events.Event
}

func New() *Store {
	return &Store{
		users:   map[string]users.User{},
		byEmail: map[string]string{},
		events:  map[string]events.Event{},
	}
}

func (s *Store) Users() users.Repository {
	return &UserRepository{store: s}
}

func (s *Store) Events() events.Repository {
	return &EventRepository{store: s}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() {}

func (s *Store) snapshotEvents() map[string]events.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.events)
}

func (s *Store) restoreEvents(snapshot map[string]events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = snapshot
}

func (s *Store) authorOf(ownerID string) string {
	if u, ok := s.users[ownerID]; ok {
		return u.DisplayName()
	}
	return ""
}
