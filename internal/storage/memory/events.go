package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/Togather-Foundation/eventboard/internal/domain/events"
)

var _ events.Repository = (*EventRepository)(nil)

// EventRepository reads and writes the store's events. Inside WithTx the
// repository already holds the store's write lock.
type EventRepository struct {
	store *Store
	inTx  bool
}

func (r *EventRepository) List(ctx context.Context, filters events.Filters, pagination events.Pagination) ([]events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	matched := make([]events.Event, 0, len(s.events))
	for _, e := range s.events {
		if !matches(e, filters) {
			continue
		}
		e.Author = s.authorOf(e.OwnerID)
		matched = append(matched, e)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	start := pagination.Offset()
	if start < 0 || start >= len(matched) {
		return []events.Event{}, nil
	}
	end := len(matched)
	if pagination.Limit > 0 && start+pagination.Limit < end {
		end = start + pagination.Limit
	}
	return matched[start:end], nil
}

func matches(e events.Event, f events.Filters) bool {
	if f.OwnerID != "" && e.OwnerID != f.OwnerID {
		return false
	}
	if f.Category != "" && !strings.EqualFold(e.Category, f.Category) {
		return false
	}
	if f.UpcomingFrom != "" && e.Date < f.UpcomingFrom {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		found := false
		for _, field := range []string{e.Title, e.Place, e.Category, e.Description} {
			if strings.Contains(strings.ToLower(field), q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	e.Author = s.authorOf(e.OwnerID)
	return &e, nil
}

// GetForUpdate is GetByID; the write lock held by WithTx already excludes
// other writers.
func (r *EventRepository) GetForUpdate(ctx context.Context, id string) (*events.Event, error) {
	return r.GetByID(ctx, id)
}

func (r *EventRepository) Create(ctx context.Context, params events.EventCreateParams) (*events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := r.lockWrites()
	defer unlock()

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	e := events.Event{
		ID:          params.ID,
		OwnerID:     params.OwnerID,
		Title:       params.Title,
		Date:        params.Date,
		Place:       params.Place,
		Category:    params.Category,
		Description: params.Description,
		CreatedAt:   params.CreatedAt,
		UpdatedAt:   params.CreatedAt,
	}
	s.events[e.ID] = e
	e.Author = s.authorOf(e.OwnerID)
	return &e, nil
}

func (r *EventRepository) Update(ctx context.Context, event events.Event) (*events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := r.lockWrites()
	defer unlock()

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.events[event.ID]
	if !ok {
		return nil, events.ErrNotFound
	}
	event.OwnerID = current.OwnerID
	event.CreatedAt = current.CreatedAt
	event.Author = ""
	s.events[event.ID] = event

	event.Author = s.authorOf(event.OwnerID)
	return &event, nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := r.lockWrites()
	defer unlock()

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return events.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

// WithTx runs fn while holding the write lock. Event changes made by fn are
// discarded when it returns an error. Nested calls reuse the outer
// transaction.
func (r *EventRepository) WithTx(ctx context.Context, fn func(context.Context, events.Repository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}

	s := r.store
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snapshot := s.snapshotEvents()
	if err := fn(ctx, &EventRepository{store: s, inTx: true}); err != nil {
		s.restoreEvents(snapshot)
		return err
	}
	return nil
}

func (r *EventRepository) lockWrites() func() {
	if r.inTx {
		return func() {}
	}
	r.store.writeMu.Lock()
	return r.store.writeMu.Unlock
}
