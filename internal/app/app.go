// Package app wires configuration, storage and the core services into one
// value shared by the HTTP server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/formauth/internal/core/domain"
	"github.com/99minutos/formauth/internal/core/ports"
	"github.com/99minutos/formauth/internal/core/service"
	"github.com/99minutos/formauth/internal/infrastructure/bootstrap"
	mongostore "github.com/99minutos/formauth/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/formauth/internal/infrastructure/db/redis"
	"github.com/99minutos/formauth/internal/infrastructure/db/sqlite"
	"github.com/99minutos/formauth/internal/infrastructure/storage/file"
	"github.com/99minutos/formauth/internal/infrastructure/storage/memory"
	"github.com/99minutos/formauth/internal/pkg/config"
)

type App struct {
	Config   *config.Config
	Store    ports.KeyValueStore
	Users    *service.UserRegistry
	Sessions *service.SessionManager
	Auth     *service.AuthService
	// Origin records where the user set came from at startup.
	Origin domain.RegistryOrigin

	log     zerolog.Logger
	closers []func(context.Context) error
}

// New opens the configured store and loads the user registry. The returned
// App must be closed.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, log: log}

	store, err := a.openStore(ctx)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.Store = store

	source := bootstrap.New(bootstrap.Config{
		Location: cfg.Bootstrap.URL,
		Timeout:  cfg.Bootstrap.Timeout,
		Attempts: cfg.Bootstrap.Attempts,
	}, log.With().Str("component", "bootstrap").Logger())

	a.Users = service.NewUserRegistry(store, source, cfg.Bootstrap.Deadline, log.With().Str("component", "registry").Logger())
	a.Origin = a.Users.Load(ctx)

	a.Sessions = service.NewSessionManager(store, cfg.SessionTTL, log.With().Str("component", "session").Logger())
	a.Auth = service.NewAuthService(a.Users, a.Sessions, log.With().Str("component", "auth").Logger())
	return a, nil
}

func (a *App) openStore(ctx context.Context) (ports.KeyValueStore, error) {
	cfg := a.Config
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return memory.NewStore(), nil

	case config.BackendFile:
		s, err := file.NewStore(cfg.Storage.Dir)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return s, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		return sqlite.NewStore(db), nil

	case config.BackendRedis:
		s, err := redisstore.Open(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Storage.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return s.Close() })
		return s, nil

	case config.BackendMongo:
		s, err := mongostore.Open(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// Ping checks the backing store when it is a remote service.
func (a *App) Ping(ctx context.Context) error {
	if p, ok := a.Store.(ports.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases storage connections in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
