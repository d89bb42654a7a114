// Package internal documents the event board server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses, and routing
// - domain: users and events business logic and models
// - storage: Postgres (pgx + migrations) and in-memory repositories
// - auth, config, metrics, telemetry, sanitize, validation: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
