package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/domain/users"
	"github.com/Togather-Foundation/eventboard/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ users.Repository = (*UserRepository)(nil)

type UserRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `id, firstname, lastname, email, password_hash, created_at`

func scanUser(row pgx.Row) (*users.User, error) {
	var u users.User
	if err := row.Scan(&u.ID, &u.Firstname, &u.Lastname, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser relies on the unique index over email; a concurrent duplicate
// surfaces as ErrEmailTaken.
func (r *UserRepository) CreateUser(ctx context.Context, params users.CreateUserDBParams) (_ *users.User, err error) {
	defer func(start time.Time) { metrics.RecordQuery("users.create", start, err) }(time.Now())

	user, err := scanUser(r.pool.QueryRow(ctx, `
INSERT INTO users (id, firstname, lastname, email, password_hash, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+userColumns,
		params.ID,
		params.Firstname,
		params.Lastname,
		users.NormalizeEmail(params.Email),
		params.PasswordHash,
		params.CreatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, users.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getOne(ctx, "users.get_by_email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*users.User, error) {
	return r.getOne(ctx, "users.get_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) getOne(ctx context.Context, op, sql string, arg string) (*users.User, error) {
	start := time.Now()
	user, err := scanUser(r.pool.QueryRow(ctx, sql, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordQuery(op, start, nil)
		return nil, users.ErrUserNotFound
	}
	metrics.RecordQuery(op, start, err)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsers returns users in registration order.
func (r *UserRepository) ListUsers(ctx context.Context, limit, offset int) (_ []*users.User, err error) {
	defer func(start time.Time) { metrics.RecordQuery("users.list", start, err) }(time.Now())

	rows, err := r.pool.Query(ctx, `
SELECT `+userColumns+`
  FROM users
 ORDER BY created_at ASC, id ASC
 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]*users.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}
