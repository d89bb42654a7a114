package handlers

import (
	"errors"
	"net/http"

	"github.com/Togather-Foundation/eventboard/internal/api/problem"
	"github.com/Togather-Foundation/eventboard/internal/auth"
	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/Togather-Foundation/eventboard/internal/domain/users"
	"github.com/Togather-Foundation/eventboard/internal/validation"
)

// writeError maps domain errors onto problem responses. Anything it does not
// recognize is a 500 whose detail stays in the logs.
func writeError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var (
		decodeErr *decodeError
		fieldErrs validation.Errors
		fieldErr  validation.FieldError
	)

	switch {
	case errors.As(err, &decodeErr):
		typ, title := problem.TypeValidation, "Invalid request body"
		if decodeErr.status == http.StatusRequestEntityTooLarge {
			typ, title = problem.TypeTooLarge, "Request body too large"
		}
		problem.Write(w, r, decodeErr.status, typ, title, err, env, problem.WithDetail(decodeErr.msg))

	case errors.As(err, &fieldErrs):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env,
			problem.WithDetail(fieldErrs.Error()), problem.WithErrors(fieldErrs.Fields()))

	case errors.As(err, &fieldErr):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env,
			problem.WithDetail(fieldErr.Error()), problem.WithErrors(validation.Errors{fieldErr}.Fields()))

	case errors.Is(err, users.ErrEmailTaken):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeConflict, "Email already registered", err, env,
			problem.WithDetail(users.ErrEmailTaken.Error()))

	case errors.Is(err, users.ErrInvalidCredentials):
		// Unknown account and wrong password look the same to the client.
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid credentials", err, env,
			problem.WithDetail(users.ErrInvalidCredentials.Error()))

	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, env)

	case errors.Is(err, events.ErrForbidden):
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Forbidden", err, env,
			problem.WithDetail("only the owner can modify this event"))

	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, env,
			problem.WithDetail(events.ErrNotFound.Error()))

	case errors.Is(err, users.ErrUserNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "User not found", err, env,
			problem.WithDetail(users.ErrUserNotFound.Error()))

	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Internal server error", err, env)
	}
}
