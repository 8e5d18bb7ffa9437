package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store owns the process-wide connection pool. It is opened once at startup
// and handed to the repositories that need it.
type Store struct {
	pool       *pgxpool.Pool
	log        *slog.Logger
	supervisor *Supervisor
}

type Options struct {
	MaxConns       int32
	ConnectTimeout time.Duration
	CheckInterval  time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxConns <= 0 {
		o.MaxConns = 5
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 5 * time.Second
	}
	if o.CheckInterval <= 0 {
		o.CheckInterval = 5 * time.Second
	}
	return o
}

// Open builds the pool and tries a first ping. An unreachable database is
// logged and left to the supervisor; only a malformed URL is an error.
func Open(ctx context.Context, dbURL string, log *slog.Logger, opts Options) (*Store, error) {
	opts = opts.withDefaults()

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	cfg.MaxConns = opts.MaxConns
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		log.Debug("db connection opened", "pid", conn.PgConn().PID())
		return nil
	}
	cfg.BeforeClose = func(conn *pgx.Conn) {
		log.Debug("db connection closed", "pid", conn.PgConn().PID())
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	s := &Store{pool: pool, log: log}
	s.supervisor = NewSupervisor(pool, log, opts.CheckInterval, func(ctx context.Context) error {
		return EnsureSchema(ctx, pool)
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	s.supervisor.Check(pingCtx)

	return s, nil
}

func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Supervise blocks until ctx is done, logging connection state changes.
func (s *Store) Supervise(ctx context.Context) {
	s.supervisor.Run(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
	s.log.Info("db store closed")
}
