package api

import (
	"net/http"

	"github.com/Togather-Foundation/eventboard/internal/api/handlers"
	"github.com/Togather-Foundation/eventboard/internal/api/middleware"
	"github.com/Togather-Foundation/eventboard/internal/auth"
	"github.com/Togather-Foundation/eventboard/internal/config"
	"github.com/Togather-Foundation/eventboard/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// BuildInfo is stamped into the binary via ldflags.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

// Dependencies are the services the router dispatches to. The caller owns
// their lifecycle.
type Dependencies struct {
	Config   config.Config
	Logger   zerolog.Logger
	Users    handlers.UserService
	Events   handlers.EventService
	Sessions *auth.SessionManager
	Store    handlers.Pinger
	Build    BuildInfo
}

func NewRouter(deps Dependencies) http.Handler {
	env := deps.Config.Environment

	authHandler := handlers.NewAuthHandler(deps.Users, env)
	eventsHandler := handlers.NewEventsHandler(deps.Events, env)
	health := handlers.NewHealthChecker(deps.Store, deps.Config.Storage.Driver, deps.Build.Version, deps.Build.GitCommit)

	requireSession := middleware.SessionAuth(deps.Sessions, env)
	protected := func(h http.HandlerFunc) http.Handler {
		return requireSession(h)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", handlers.Healthz())
	mux.Handle("GET /readyz", health.Readyz())
	mux.Handle("GET /version", VersionHandler(deps.Build.Version, deps.Build.GitCommit, deps.Build.BuildDate))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.Handle("GET /api/openapi.json", OpenAPIHandler())

	mux.HandleFunc("POST /api/register", authHandler.Register)
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.Handle("GET /api/me", protected(authHandler.Me))
	mux.Handle("GET /api/me/events", protected(eventsHandler.Mine))

	mux.HandleFunc("GET /api/events", eventsHandler.List)
	mux.Handle("POST /api/events", protected(eventsHandler.Create))
	mux.HandleFunc("GET /api/events/{id}", eventsHandler.Get)
	mux.Handle("PUT /api/events/{id}", protected(eventsHandler.Update))
	mux.Handle("DELETE /api/events/{id}", protected(eventsHandler.Delete))

	// Tracing reads the matched pattern back from the request it handed down,
	// so nothing between it and the mux may replace the request.
	var handler http.Handler = metrics.HTTPMiddleware(mux)
	handler = middleware.PublicRequestSize()(handler)
	handler = middleware.SecurityHeaders(!deps.Config.IsDevelopment())(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.Recover(env)(handler)
	handler = middleware.RequestLogging(deps.Logger)(handler)
	handler = middleware.CorrelationID(deps.Logger)(handler)
	return handler
}
