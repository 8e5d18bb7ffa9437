package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/usersapi/internal/cache"
	"github.com/geocoder89/usersapi/internal/config"
	"github.com/geocoder89/usersapi/internal/db"
	httpx "github.com/geocoder89/usersapi/internal/http"
	"github.com/geocoder89/usersapi/internal/http/handlers"
	"github.com/geocoder89/usersapi/internal/notifications"
	"github.com/geocoder89/usersapi/internal/observability"
	"github.com/geocoder89/usersapi/internal/repo/cached"
	"github.com/geocoder89/usersapi/internal/repo/memory"
	"github.com/geocoder89/usersapi/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App holds the wired router and the process-wide resources behind it.
type App struct {
	Router *gin.Engine

	log     *slog.Logger
	store   *db.Store
	closers []func() error
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{log: log}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	checks := map[string]handlers.CheckFunc{}

	var users cached.Repository

	switch cfg.StoreDriver {
	case config.StoreMemory:
		repo := memory.NewUsersRepo()
		users = repo
		checks["store"] = repo.Ping
	default:
		store, err := db.Open(ctx, cfg.DBURL, log, db.Options{})
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, func() error { store.Close(); return nil })

		users = postgres.NewUsersRepo(store.Pool(), prom)
		checks["store"] = store.Ping
	}

	switch cfg.CacheDriver {
	case config.CacheMemory:
		users = cached.NewUsersRepo(users, cache.NewMemory(cfg.CacheTTL), log, prom)
	case config.CacheRedis:
		rc := cache.NewRedis(cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.ServiceName + ":",
			TTL:      cfg.CacheTTL,
		})
		a.closers = append(a.closers, rc.Close)

		users = cached.NewUsersRepo(users, rc, log, prom)
		checks["cache"] = rc.Ping
	}

	notifier, err := a.buildNotifier(cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Router = httpx.NewRouter(log, cfg, httpx.Deps{
		Users:    users,
		Notifier: notifications.WithMetrics(notifier, prom),
		Checks:   checks,
		Prom:     prom,
		Gatherer: reg,
	})

	return a, nil
}

// buildNotifier prefers NATS, then RabbitMQ, then plain log lines.
func (a *App) buildNotifier(cfg config.Config, log *slog.Logger) (notifications.Notifier, error) {
	var inner notifications.Notifier

	switch {
	case cfg.NATSURL != "":
		nc, err := notifications.Connect(cfg.NATSURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { nc.Close(); return nil })

		inner = notifications.NewNATSNotifier(nc, cfg.NATSSubjectPrefix)
	case cfg.AMQPURL != "":
		pub, err := notifications.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pub.Close)

		inner = pub
	default:
		return notifications.NewLogNotifier(log), nil
	}

	return notifications.NewProtectedNotifier(inner, notifications.ProtectedNotifierConfig{}), nil
}

// Supervise logs store connection state changes until ctx is done.
func (a *App) Supervise(ctx context.Context) {
	if a.store == nil {
		return
	}
	a.store.Supervise(ctx)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Error("close failed", "err", err)
		}
	}
	a.closers = nil
}
