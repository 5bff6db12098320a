package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisNamespace = "windowcalc"

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// RedisOptions configures the Redis backend. URL takes precedence over Address.
type RedisOptions struct {
	URL          string
	Address      string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Redis stores each record as a plain string key without expiry.
type Redis struct {
	store cmdable
	raw   *redis.Client
}

// NewRedis connects to Redis and verifies connectivity.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	ro, err := redisOptions(opts)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(ro)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{store: raw, raw: raw}, nil
}

func redisOptions(opts RedisOptions) (*redis.Options, error) {
	if opts.URL == "" && opts.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var ro *redis.Options
	if opts.URL != "" {
		parsed, err := redis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		ro = parsed
	} else {
		ro = &redis.Options{
			Addr:     opts.Address,
			Password: opts.Password,
			DB:       opts.DB,
		}
	}
	if ro.PoolSize == 0 {
		ro.PoolSize = opts.PoolSize
	}
	if ro.DialTimeout == 0 {
		ro.DialTimeout = opts.DialTimeout
	}
	if ro.ReadTimeout == 0 {
		ro.ReadTimeout = opts.ReadTimeout
	}
	if ro.WriteTimeout == 0 {
		ro.WriteTimeout = opts.WriteTimeout
	}
	return ro, nil
}

// Key returns the namespaced Redis key for a record name.
func (r *Redis) Key(key string) string {
	return redisNamespace + ":" + key
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if r.store == nil {
		return nil, false, errors.New("redis client not initialized")
	}
	value, err := r.store.Get(ctx, r.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return []byte(value), true, nil
}

func (r *Redis) Put(ctx context.Context, key string, value []byte) error {
	if r.store == nil {
		return errors.New("redis client not initialized")
	}
	if err := r.store.Set(ctx, r.Key(key), string(value), 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if r.store == nil {
		return errors.New("redis client not initialized")
	}
	if err := r.store.Del(ctx, r.Key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// Ping checks connectivity, for health endpoints.
func (r *Redis) Ping(ctx context.Context) error {
	if r.store == nil {
		return errors.New("redis client not initialized")
	}
	return r.store.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	if r.raw == nil {
		return nil
	}
	return r.raw.Close()
}
