package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/domain/ids"
	"github.com/Togather-Foundation/eventboard/internal/metrics"
	"github.com/Togather-Foundation/eventboard/internal/sanitize"
	"github.com/Togather-Foundation/eventboard/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Service owns the event lifecycle. Mutations are restricted to the owner.
type Service struct {
	repo      Repository
	logger    zerolog.Logger
	validator *validator.Validate
	now       func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		logger:    logger.With().Str("component", "events").Logger(),
		validator: validation.New(),
		now:       time.Now,
	}
}

// Create publishes a new event owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, params CreateParams) (*Event, error) {
	if ownerID == "" {
		return nil, validation.Required("user_id")
	}

	params.Title = sanitize.Text(params.Title)
	params.Date = sanitize.Text(params.Date)
	params.Place = sanitize.Text(params.Place)
	params.Category = sanitize.Text(params.Category)
	params.Description = sanitize.HTML(params.Description)

	if err := validation.Struct(s.validator, params); err != nil {
		return nil, err
	}

	event, err := s.repo.Create(ctx, EventCreateParams{
		ID:          ids.NewULID(),
		OwnerID:     ownerID,
		Title:       params.Title,
		Date:        params.Date,
		Place:       params.Place,
		Category:    params.Category,
		Description: params.Description,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	metrics.EventMutations.WithLabelValues("create").Inc()
	s.logger.Info().Str("event_id", event.ID).Str("owner_id", ownerID).Msg("event created")
	return event, nil
}

// List returns a page of events, newest first. Each call queries the store.
func (s *Service) List(ctx context.Context, filters Filters, pagination Pagination) ([]Event, error) {
	pagination, err := NormalizePagination(pagination)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, filters, pagination)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Event, error) {
	id = ids.Normalize(id)
	if !ids.IsULID(id) {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// Update applies patch to the event when callerID owns it. The lookup,
// ownership check and write share one transaction holding the row lock.
func (s *Service) Update(ctx context.Context, id, callerID string, patch Patch) (*Event, error) {
	id = ids.Normalize(id)
	if !ids.IsULID(id) {
		return nil, ErrNotFound
	}

	var updated *Event
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		current, err := s.ownedForUpdate(ctx, tx, id, callerID)
		if err != nil {
			return err
		}

		next, err := patch.Apply(*current)
		if err != nil {
			return err
		}
		next.UpdatedAt = s.now().UTC()

		updated, err = tx.Update(ctx, next)
		return err
	})
	if err != nil {
		s.logMutationError("update", id, callerID, err)
		return nil, err
	}

	metrics.EventMutations.WithLabelValues("update").Inc()
	s.logger.Info().Str("event_id", id).Str("owner_id", callerID).Msg("event updated")
	return updated, nil
}

// Delete removes the event when callerID owns it.
func (s *Service) Delete(ctx context.Context, id, callerID string) error {
	id = ids.Normalize(id)
	if !ids.IsULID(id) {
		return ErrNotFound
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if _, err := s.ownedForUpdate(ctx, tx, id, callerID); err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		s.logMutationError("delete", id, callerID, err)
		return err
	}

	metrics.EventMutations.WithLabelValues("delete").Inc()
	s.logger.Info().Str("event_id", id).Str("owner_id", callerID).Msg("event deleted")
	return nil
}

func (s *Service) ownedForUpdate(ctx context.Context, tx Repository, id, callerID string) (*Event, error) {
	current, err := tx.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.OwnerID != callerID {
		return nil, ErrForbidden
	}
	return current, nil
}

func (s *Service) logMutationError(op, id, callerID string, err error) {
	switch {
	case errors.Is(err, ErrForbidden):
		s.logger.Warn().Str("event_id", id).Str("caller_id", callerID).Msgf("%s rejected: not owner", op)
	case errors.Is(err, ErrNotFound), errors.Is(err, validation.ErrInvalid):
	default:
		s.logger.Error().Err(err).Str("event_id", id).Msgf("%s failed", op)
	}
}
