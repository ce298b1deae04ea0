package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/focusarcade/go/internal/bus"
	"github.com/mcdev12/focusarcade/go/internal/config"
	"github.com/mcdev12/focusarcade/go/internal/kvstore"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Resources are the connections a command runs on.
type Resources struct {
	Store kvstore.Store
	// Bus is nil when the bus is disabled or was not requested.
	Bus bus.Bus

	closers []func()
}

// Close releases everything in reverse order of opening.
func (r *Resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

func (r *Resources) onClose(f func()) {
	r.closers = append(r.closers, f)
}

// openResources opens the store and, when withBus is set, the bus. NATS and
// Postgres connections are shared when both sides use the same backend.
func openResources(ctx context.Context, cfg *config.Config, withBus bool) (*Resources, error) {
	res := &Resources{}

	needNATS := cfg.Store.Driver == kvstore.DriverNATS || (withBus && cfg.Bus.Driver == bus.DriverNATS)
	var nc *nats.Conn
	if needNATS {
		natsCfg := bus.DefaultNATSConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Subject = cfg.Bus.Subject

		var err error
		nc, err = bus.Connect(natsCfg)
		if err != nil {
			return nil, err
		}
		res.onClose(func() {
			if err := nc.Drain(); err != nil {
				log.Warn().Err(err).Msg("failed to drain NATS connection")
			}
		})
		log.Info().Str("url", nc.ConnectedUrl()).Msg("connected to NATS")
	}

	store, err := kvstore.Open(ctx, kvstore.Options{
		Driver:      cfg.Store.Driver,
		SQLitePath:  cfg.Store.SQLitePath,
		PostgresDSN: cfg.Postgres.DSN(),
		NATSConn:    nc,
		NATSBucket:  cfg.Store.NATSBucket,
	})
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		res.onClose(func() {
			if err := c.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close store")
			}
		})
	}
	res.Store = store
	log.Info().Str("driver", cfg.Store.Driver).Msg("store opened")

	if !withBus {
		return res, nil
	}

	var pool *pgxpool.Pool
	if cfg.Bus.Driver == bus.DriverPostgres {
		pool, err = postgresPool(ctx, cfg, store, res)
		if err != nil {
			res.Close()
			return nil, err
		}
	}

	pgCfg := bus.DefaultPostgresConfig()
	pgCfg.DatabaseURL = cfg.Postgres.DSN()

	b, err := bus.Open(bus.Options{
		Driver:       cfg.Bus.Driver,
		NATSConn:     nc,
		NATSSubject:  cfg.Bus.Subject,
		PostgresPool: pool,
		Postgres:     pgCfg,
	})
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("failed to open bus: %w", err)
	}
	res.Bus = b
	log.Info().Str("driver", cfg.Bus.Driver).Bool("enabled", b != nil).Msg("bus opened")

	return res, nil
}

// postgresPool reuses the store's pool or opens one for the bus alone.
func postgresPool(ctx context.Context, cfg *config.Config, store kvstore.Store, res *Resources) (*pgxpool.Pool, error) {
	if ps, ok := store.(*kvstore.PostgresStore); ok {
		return ps.Pool(), nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(pingCtx, cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	res.onClose(pool.Close)

	log.Info().
		Str("host", cfg.Postgres.Host).
		Int("port", cfg.Postgres.Port).
		Str("database", cfg.Postgres.Database).
		Msg("connected to database")
	return pool, nil
}
