package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/Togather-Foundation/eventboard/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

// eventColumns selects an event joined with its owner as "e" and "u".
const eventColumns = `
e.id, e.user_id, e.title, e.date, e.place, e.category, e.description,
trim(u.firstname || ' ' || u.lastname), e.created_at, e.updated_at`

func scanEvent(row pgx.Row) (*events.Event, error) {
	var e events.Event
	if err := row.Scan(
		&e.ID,
		&e.OwnerID,
		&e.Title,
		&e.Date,
		&e.Place,
		&e.Category,
		&e.Description,
		&e.Author,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EventRepository) List(ctx context.Context, filters events.Filters, pagination events.Pagination) (_ []events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("events.list", start, err) }(time.Now())

	var pattern string
	if filters.Query != "" {
		pattern = "%" + escapeLike(filters.Query) + "%"
	}

	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`
  FROM events e
  JOIN users u ON u.id = e.user_id
 WHERE ($1::text = '' OR e.user_id = $1)
   AND ($2::text = '' OR lower(e.category) = lower($2))
   AND ($3::text = '' OR e.date COLLATE "C" >= $3)
   AND ($4::text = '' OR e.title ILIKE $4 OR e.place ILIKE $4
        OR e.category ILIKE $4 OR e.description ILIKE $4)
 ORDER BY e.created_at DESC, e.id DESC
 LIMIT $5 OFFSET $6`,
		filters.OwnerID,
		filters.Category,
		filters.UpcomingFrom,
		pattern,
		pagination.Limit,
		pagination.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := make([]events.Event, 0, pagination.Limit)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*events.Event, error) {
	return r.getOne(ctx, "events.get", `
SELECT `+eventColumns+`
  FROM events e
  JOIN users u ON u.id = e.user_id
 WHERE e.id = $1`, id)
}

// GetForUpdate locks the event row until the surrounding transaction ends.
func (r *EventRepository) GetForUpdate(ctx context.Context, id string) (*events.Event, error) {
	return r.getOne(ctx, "events.get_for_update", `
SELECT `+eventColumns+`
  FROM events e
  JOIN users u ON u.id = e.user_id
 WHERE e.id = $1
   FOR UPDATE OF e`, id)
}

func (r *EventRepository) getOne(ctx context.Context, op, sql, id string) (*events.Event, error) {
	start := time.Now()
	event, err := scanEvent(r.queryer().QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordQuery(op, start, nil)
		return nil, events.ErrNotFound
	}
	metrics.RecordQuery(op, start, err)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, params events.EventCreateParams) (_ *events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("events.create", start, err) }(time.Now())

	event, err := scanEvent(r.queryer().QueryRow(ctx, `
WITH e AS (
  INSERT INTO events (id, user_id, title, date, place, category, description, created_at, updated_at)
  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
  RETURNING *
)
SELECT `+eventColumns+`
  FROM e
  JOIN users u ON u.id = e.user_id`,
		params.ID,
		params.OwnerID,
		params.Title,
		params.Date,
		params.Place,
		params.Category,
		params.Description,
		params.CreatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// Update writes the editable fields. Owner and creation time never change.
func (r *EventRepository) Update(ctx context.Context, event events.Event) (*events.Event, error) {
	start := time.Now()
	updated, err := scanEvent(r.queryer().QueryRow(ctx, `
WITH e AS (
  UPDATE events
     SET title = $2, date = $3, place = $4, category = $5, description = $6, updated_at = $7
   WHERE id = $1
  RETURNING *
)
SELECT `+eventColumns+`
  FROM e
  JOIN users u ON u.id = e.user_id`,
		event.ID,
		event.Title,
		event.Date,
		event.Place,
		event.Category,
		event.Description,
		event.UpdatedAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordQuery("events.update", start, nil)
		return nil, events.ErrNotFound
	}
	metrics.RecordQuery("events.update", start, err)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("events.delete", start, err) }(time.Now())

	tag, err := r.queryer().Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

// WithTx runs fn in a transaction. Nested calls join the outer transaction.
func (r *EventRepository) WithTx(ctx context.Context, fn func(context.Context, events.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(ctx, &EventRepository{pool: r.pool, tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *EventRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside ILIKE.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
