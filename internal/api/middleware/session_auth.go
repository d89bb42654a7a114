package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/Togather-Foundation/eventboard/internal/api/problem"
	"github.com/Togather-Foundation/eventboard/internal/auth"
	"github.com/Togather-Foundation/eventboard/internal/metrics"
)

type contextKeyAuth string

const sessionIdentityKey contextKeyAuth = "sessionIdentity"

// SessionAuth requires a valid bearer session token. Every failure (missing,
// malformed, forged, expired) is answered with 401; the token itself is the
// only source of identity, nothing is looked up in storage.
func SessionAuth(manager *auth.SessionManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, env)
				return
			}

			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				metrics.SessionRejections.WithLabelValues("missing").Inc()
				w.Header().Set("WWW-Authenticate", `Bearer realm="eventboard"`)
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Missing token", err, env,
					problem.WithDetail("A bearer token is required"))
				return
			}

			identity, err := manager.Validate(token)
			if err != nil {
				reason, detail := "invalid", "The session token is invalid"
				if errors.Is(err, auth.ErrExpiredToken) {
					reason, detail = "expired", "The session token has expired"
				}
				metrics.SessionRejections.WithLabelValues(reason).Inc()
				w.Header().Set("WWW-Authenticate", `Bearer realm="eventboard", error="invalid_token"`)
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid token", err, env,
					problem.WithDetail(detail))
				return
			}

			ctx := ContextWithSessionIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ContextWithSessionIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, sessionIdentityKey, identity)
}

// SessionIdentity returns the identity attached by SessionAuth, or nil.
func SessionIdentity(r *http.Request) *auth.Identity {
	if r == nil {
		return nil
	}
	return SessionIdentityFromContext(r.Context())
}

func SessionIdentityFromContext(ctx context.Context) *auth.Identity {
	if identity, ok := ctx.Value(sessionIdentityKey).(*auth.Identity); ok {
		return identity
	}
	return nil
}
