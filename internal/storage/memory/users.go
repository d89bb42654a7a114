package memory

import (
	"context"
	"sort"

	"github.com/Togather-Foundation/eventboard/internal/domain/users"
)

var _ users.Repository = (*UserRepository)(nil)

type UserRepository struct {
	store *Store
}

// CreateUser inserts the user unless the normalized email is already taken.
// The check and the insert happen under one lock.
func (r *UserRepository) CreateUser(ctx context.Context, params users.CreateUserDBParams) (*users.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	email := users.NormalizeEmail(params.Email)
	if _, taken := s.byEmail[email]; taken {
		return nil, users.ErrEmailTaken
	}

	user := users.User{
		ID:           params.ID,
		Firstname:    params.Firstname,
		Lastname:     params.Lastname,
		Email:        email,
		PasswordHash: params.PasswordHash,
		CreatedAt:    params.CreatedAt,
	}
	s.users[user.ID] = user
	s.byEmail[email] = user.ID
	return &user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	user := s.users[id]
	return &user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*users.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return &user, nil
}

// ListUsers returns users in registration order.
func (r *UserRepository) ListUsers(ctx context.Context, limit, offset int) ([]*users.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	all := make([]users.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	out := make([]*users.User, 0, limit)
	for i := offset; i < len(all) && len(out) < limit; i++ {
		u := all[i]
		out = append(out, &u)
	}
	return out, nil
}
