package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/auth"
	"github.com/Togather-Foundation/eventboard/internal/config"
	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/Togather-Foundation/eventboard/internal/domain/users"
	"github.com/Togather-Foundation/eventboard/internal/storage"
	"github.com/Togather-Foundation/eventboard/internal/storage/memory"
	"github.com/Togather-Foundation/eventboard/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// loadConfig reads configuration and applies the global flags plus any
// command-specific overrides.
func loadConfig(opts *globalOptions, overrides ...func(*config.Config)) (config.Config, error) {
	overrides = append([]func(*config.Config){func(c *config.Config) {
		if opts.logLevel != "" {
			c.Logging.Level = opts.logLevel
		}
		if opts.logFormat != "" {
			c.Logging.Format = opts.logFormat
		}
	}}, overrides...)

	cfg, err := config.LoadFile(opts.configPath, overrides...)
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

// app holds the wired services shared by serve and the admin commands.
type app struct {
	cfg      config.Config
	logger   zerolog.Logger
	store    storage.Repository
	pool     *pgxpool.Pool
	sessions *auth.SessionManager
	users    *users.Service
	events   *events.Service
}

func newApp(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		logger.Warn().Msg("using in-memory storage; data is lost on exit")
		a.store = memory.New()
	case config.StorageDriverPostgres:
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		pool, err := postgres.Open(openCtx, cfg.Database.URL, cfg.Database.MaxConnections)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		repo, err := postgres.NewRepository(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		a.pool = pool
		a.store = repo
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	a.sessions = auth.NewSessionManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.JWTIssuer)
	a.users = users.NewService(a.store.Users(), a.sessions, cfg.Auth.BcryptCost, logger)
	a.events = events.NewService(a.store.Events(), logger)
	return a, nil
}

func (a *app) Close() {
	a.store.Close()
}
