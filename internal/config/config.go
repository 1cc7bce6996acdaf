// Package config loads the ultracache-server configuration.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/ultracache/pkg/logging"
	"github.com/Sternrassler/ultracache/pkg/storage"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendValkey = "valkey"
	BackendSQLite = "sqlite"
)

// Config is the effective server configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
	Cache   CacheConfig   `koanf:"cache"`
	Storage StorageConfig `koanf:"storage"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address                string `koanf:"address"`
	ShutdownTimeoutSeconds int    `koanf:"shutdownTimeoutSeconds"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// CacheConfig configures the decorator.
type CacheConfig struct {
	TTLSeconds     int  `koanf:"ttlSeconds"`
	OffloadWorkers int  `koanf:"offloadWorkers"`
	SingleFlight   bool `koanf:"singleFlight"`
}

// StorageConfig selects and configures the backend.
type StorageConfig struct {
	Backend string       `koanf:"backend"`
	Prefix  string       `koanf:"prefix"`
	Redis   RedisConfig  `koanf:"redis"`
	SQLite  SQLiteConfig `koanf:"sqlite"`
}

// RedisConfig is shared by the redis and valkey backends. URL takes
// precedence over Address for the redis backend.
type RedisConfig struct {
	URL      string `koanf:"url"`
	Address  string `koanf:"address"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// SQLiteConfig configures the sqlite backend. An empty path keeps the
// database in memory.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:                ":8080",
			ShutdownTimeoutSeconds: 10,
		},
		Logging: LoggingConfig{
			Level: string(logging.LevelInfo),
		},
		Cache: CacheConfig{
			OffloadWorkers: 10,
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
			Prefix:  storage.DefaultPrefix,
			Redis: RedisConfig{
				Address: "localhost:6379",
			},
		},
	}
}

// TTL returns the default entry ttl.
func (c Config) TTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// Validate reports every problem in the configuration at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	if c.Server.ShutdownTimeoutSeconds < 0 {
		errs = append(errs, errors.New("server.shutdownTimeoutSeconds must not be negative"))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Cache.TTLSeconds < 0 {
		errs = append(errs, errors.New("cache.ttlSeconds must not be negative"))
	}
	if c.Cache.OffloadWorkers < 0 {
		errs = append(errs, errors.New("cache.offloadWorkers must not be negative"))
	}

	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.Storage.Redis.URL == "" && c.Storage.Redis.Address == "" {
			errs = append(errs, errors.New("storage.redis.url or storage.redis.address is required"))
		}
	case BackendValkey:
		if c.Storage.Redis.Address == "" {
			errs = append(errs, errors.New("storage.redis.address is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not one of memory, redis, valkey, sqlite", c.Storage.Backend))
	}
	if err := storage.ValidatePrefix(c.Storage.Prefix); err != nil {
		errs = append(errs, fmt.Errorf("storage.prefix: %w", err))
	}
	if c.Storage.Redis.DB < 0 {
		errs = append(errs, errors.New("storage.redis.db must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
