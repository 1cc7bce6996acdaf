package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the environment prefix read by the server.
const EnvPrefix = "ULTRACACHE"

// Loader builds the configuration from defaults, then files, then env.
type Loader struct {
	envPrefix string
	files     []string
}

// NewLoader creates a loader. Empty file paths are skipped.
func NewLoader(envPrefix string, files ...string) *Loader {
	return &Loader{
		envPrefix: envPrefix,
		files:     files,
	}
}

// camelKeys maps lower-cased env paths back onto camelCase koanf keys.
var camelKeys = map[string]string{
	"server.shutdowntimeoutseconds": "server.shutdownTimeoutSeconds",
	"cache.ttlseconds":              "cache.ttlSeconds",
	"cache.offloadworkers":          "cache.offloadWorkers",
	"cache.singleflight":            "cache.singleFlight",
}

// Load returns the validated configuration.
func (l *Loader) Load(ctx context.Context) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(structToMap(DefaultConfig()), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	for _, path := range l.files {
		if path == "" {
			continue
		}
		select {
		case <-ctx.Done():
			return Config{}, ctx.Err()
		default:
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("config: file %s not found", path)
			}
			return Config{}, fmt.Errorf("config: stat %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	if l.envPrefix != "" {
		// ULTRACACHE_STORAGE__REDIS__ADDRESS -> storage.redis.address
		transform := func(s string) string {
			key := strings.TrimPrefix(s, l.envPrefix+"_")
			key = strings.ToLower(strings.ReplaceAll(key, "__", "."))
			if mapped, ok := camelKeys[key]; ok {
				return mapped
			}
			return key
		}
		if err := k.Load(env.Provider(l.envPrefix+"_", ".", transform), nil); err != nil {
			return Config{}, fmt.Errorf("config: load env: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// structToMap converts a Config into a map for the confmap provider.
func structToMap(cfg Config) map[string]any {
	return map[string]any{
		"server": map[string]any{
			"address":                cfg.Server.Address,
			"shutdownTimeoutSeconds": cfg.Server.ShutdownTimeoutSeconds,
		},
		"logging": map[string]any{
			"level":  cfg.Logging.Level,
			"pretty": cfg.Logging.Pretty,
		},
		"cache": map[string]any{
			"ttlSeconds":     cfg.Cache.TTLSeconds,
			"offloadWorkers": cfg.Cache.OffloadWorkers,
			"singleFlight":   cfg.Cache.SingleFlight,
		},
		"storage": map[string]any{
			"backend": cfg.Storage.Backend,
			"prefix":  cfg.Storage.Prefix,
			"redis": map[string]any{
				"url":      cfg.Storage.Redis.URL,
				"address":  cfg.Storage.Redis.Address,
				"username": cfg.Storage.Redis.Username,
				"password": cfg.Storage.Redis.Password,
				"db":       cfg.Storage.Redis.DB,
			},
			"sqlite": map[string]any{
				"path": cfg.Storage.SQLite.Path,
			},
		},
	}
}
