package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"portal/internal/adapter/memory"
	"portal/internal/adapter/postgres"
	"portal/internal/adapter/redis"
	"portal/internal/adapter/sqlite"
	"portal/internal/adapter/sqlstore"
	"portal/internal/config"
	"portal/internal/domain"
	"portal/internal/health"
)

// storage holds the repositories selected by configuration.
type storage struct {
	counters   domain.CounterRepository
	bestEffort domain.BestEffortCounterRepository
	users      domain.UserRepository
	sessions   domain.SessionRepository

	checks  map[string]health.CheckFunc
	closers []func() error
}

func (s *storage) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	st := &storage{checks: make(map[string]health.CheckFunc)}

	var sqlDB *sqlstore.DB
	switch cfg.Database.Driver {
	case "memory":
		slog.Warn("using in-memory storage; data is lost on restart")
		mem := memory.New()
		st.counters, st.bestEffort, st.users = mem, mem, mem
		if cfg.Session.Backend == "database" || cfg.Session.Backend == "memory" {
			st.sessions = mem.NewSessionRepo()
		}
	case "postgres":
		db, err := postgres.Open(ctx, cfg.Database.URL, postgres.Options{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		sqlDB = db
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlDB = db
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if sqlDB != nil {
		st.counters, st.bestEffort, st.users = sqlDB, sqlDB, sqlDB
		st.checks["database"] = sqlDB.Ping
		st.closers = append(st.closers, sqlDB.Close)
		slog.Info("database connected", "dialect", sqlDB.Dialect())
	}

	switch cfg.Session.Backend {
	case "database":
		if sqlDB != nil {
			st.sessions = sqlstore.NewSessionRepo(sqlDB)
		}
	case "memory":
		if st.sessions == nil {
			st.sessions = memory.New().NewSessionRepo()
		}
	case "redis":
		client, err := redis.Connect(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store := redis.NewSessionStore(client)
		st.sessions = store
		st.checks["redis"] = store.Ping
		st.closers = append(st.closers, client.Close)
		slog.Info("redis session store connected", "addr", cfg.Redis.Addr)
	default:
		_ = st.Close()
		return nil, fmt.Errorf("unsupported session backend %q", cfg.Session.Backend)
	}

	return st, nil
}
