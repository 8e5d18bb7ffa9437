package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces every key, e.g. "usersapi:".
	Prefix string
	TTL    time.Duration
}

// Redis is a Store shared by every replica of the service.
type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedis(opts RedisOptions) *Redis {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Redis{rdb: rdb, ttl: opts.TTL, prefix: opts.Prefix}
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return b, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, val []byte) error {
	return c.rdb.Set(ctx, c.prefix+key, val, c.ttl).Err()
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.prefix+key).Err()
}

// Ping is the readiness check for the cache.
func (c *Redis) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.rdb.Close()
}
