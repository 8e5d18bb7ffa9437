package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Env         string
	Port        int
	BasePath    string
	ServiceName string

	StoreDriver string
	DBURL       string

	CacheDriver string
	CacheTTL    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NATSURL           string
	NATSSubjectPrefix string

	AMQPURL      string
	AMQPExchange string

	OTLPEndpoint string

	AllowedOrigins []string
	MaxBodyBytes   int64
}

// Load reads the process environment, after merging an optional .env file.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	_ = godotenv.Load()

	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from any key lookup (os.LookupEnv in production,
// a map in tests).
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	e := env{lookup: lookup}

	cfg := Config{
		Env:               strings.ToLower(e.str("APP_ENV", EnvDevelopment)),
		Port:              e.integer("PORT", 8080),
		BasePath:          e.str("BASE_PATH", "/api/users"),
		ServiceName:       e.str("OTEL_SERVICE_NAME", "usersapi"),
		StoreDriver:       strings.ToLower(e.str("STORE_DRIVER", StorePostgres)),
		CacheDriver:       strings.ToLower(e.str("CACHE_DRIVER", CacheNone)),
		CacheTTL:          time.Duration(e.integer("CACHE_TTL_SECONDS", 30)) * time.Second,
		RedisAddr:         e.str("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:     e.str("REDIS_PASSWORD", ""),
		RedisDB:           e.integer("REDIS_DB", 0),
		NATSURL:           e.str("NATS_URL", ""),
		NATSSubjectPrefix: e.str("NATS_SUBJECT_PREFIX", "usersapi"),
		AMQPURL:           e.str("AMQP_URL", ""),
		AMQPExchange:      e.str("AMQP_EXCHANGE", "usersapi.events"),
		OTLPEndpoint:      e.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		AllowedOrigins:    e.list("CORS_ALLOWED_ORIGINS"),
		MaxBodyBytes:      int64(e.integer("MAX_BODY_BYTES", 1<<20)),
	}

	cfg.DBURL = e.dbURL(cfg.Env)

	if len(e.errs) > 0 {
		return Config{}, fmt.Errorf("invalid config: %s", strings.Join(e.errs, "; "))
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return fmt.Errorf("invalid config: APP_ENV %q is not one of development, test, production", c.Env)
	}

	switch c.StoreDriver {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("invalid config: STORE_DRIVER %q is not one of memory, postgres", c.StoreDriver)
	}

	switch c.CacheDriver {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("invalid config: CACHE_DRIVER %q is not one of none, memory, redis", c.CacheDriver)
	}

	if !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("invalid config: BASE_PATH %q must start with /", c.BasePath)
	}

	return nil
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

type env struct {
	lookup func(string) (string, bool)
	errs   []string
}

func (e *env) str(key, fallback string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}

	return fallback
}

func (e *env) integer(key string, fallback int) int {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}

	num, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: %q is not an integer", key, v))
		return fallback
	}

	return num
}

func (e *env) list(key string) []string {
	v := e.str(key, "")
	if v == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// dbURL picks the connection string for appEnv: DATABASE_URL_<ENV>, then
// DATABASE_URL, then one assembled from DB_* parts with a per-env db name.
func (e *env) dbURL(appEnv string) string {
	if v := e.str("DATABASE_URL_"+strings.ToUpper(appEnv), ""); v != "" {
		return v
	}
	if v := e.str("DATABASE_URL", ""); v != "" {
		return v
	}

	host := e.str("DB_HOST", "127.0.0.1")
	port := e.str("DB_PORT", "5432")
	user := e.str("DB_USER", "usersapi")
	pass := e.str("DB_PASSWORD", "usersapi")
	name := e.str("DB_NAME", "users_"+appEnv)
	ssl := e.str("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}
