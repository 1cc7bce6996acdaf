package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// clearBatchSize bounds SCAN page size and DEL fan-out during Clear.
const clearBatchSize = 100

// Redis stores entries in a Redis server under a key prefix.
//
// Expiry is delegated to Redis: Save maps ttl onto the native key TTL and Get
// trusts the server. Clear enumerates prefixed keys with SCAN and deletes
// them; writes racing with Clear may survive or be lost.
type Redis struct {
	redis  *redis.Client
	prefix string
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithPrefix sets the key namespace. Keys are stored as "<prefix>:<key>".
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// NewRedis creates a Redis-backed store. It panics on a nil client or a
// prefix rejected by ValidatePrefix.
func NewRedis(redisClient *redis.Client, opts ...RedisOption) *Redis {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	r, err := newRedis(redisClient, opts)
	if err != nil {
		panic(err.Error())
	}
	return r
}

func newRedis(redisClient *redis.Client, opts []RedisOption) (*Redis, error) {
	r := &Redis{redis: redisClient, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(r)
	}
	if err := ValidatePrefix(r.prefix); err != nil {
		return nil, err
	}
	return r, nil
}

// NewRedisFromURL parses a redis:// URL and creates a store on a new client.
func NewRedisFromURL(rawURL string, opts ...RedisOption) (*Redis, error) {
	options, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(options)
	r, err := newRedis(client, opts)
	if err != nil {
		client.Close()
		return nil, err
	}
	return r, nil
}

// Prefix returns the key namespace of this store.
func (r *Redis) Prefix() string {
	return r.prefix
}

// Ping checks that the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.redis.Close()
}

func (r *Redis) fullKey(key string) string {
	return r.prefix + PrefixSeparator + key
}

// Save stores value with the given ttl.
func (r *Redis) Save(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = NoExpiration
	}
	if err := r.redis.Set(ctx, r.fullKey(key), value, ttl).Err(); err != nil {
		OperationErrors.WithLabelValues("redis", "save").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get returns the stored value or ErrCacheMiss.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.redis.Get(ctx, r.fullKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		OperationErrors.WithLabelValues("redis", "get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Clear deletes every key under the store prefix.
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.redis.Scan(ctx, 0, scanPattern(r.prefix), clearBatchSize).Iterator()

	batch := make([]string, 0, clearBatchSize)
	deleted := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := r.redis.Del(ctx, batch...).Err(); err != nil {
			OperationErrors.WithLabelValues("redis", "clear").Inc()
			return fmt.Errorf("redis del: %w", err)
		}
		deleted += len(batch)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == clearBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		OperationErrors.WithLabelValues("redis", "clear").Inc()
		return fmt.Errorf("redis scan: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	ClearedKeys.WithLabelValues("redis").Add(float64(deleted))
	return nil
}
