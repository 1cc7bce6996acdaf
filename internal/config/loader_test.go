package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ultracache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoader(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) []string
		wantErr string
		assert  func(t *testing.T, cfg Config)
	}{
		{
			name:  "returns defaults when no overrides",
			setup: func(t *testing.T) []string { return nil },
			assert: func(t *testing.T, cfg Config) {
				require.Equal(t, DefaultConfig(), cfg)
				require.Equal(t, BackendMemory, cfg.Storage.Backend)
				require.Equal(t, "ultra-cache", cfg.Storage.Prefix)
				require.Zero(t, cfg.TTL())
			},
		},
		{
			name: "merges file overrides",
			setup: func(t *testing.T) []string {
				return []string{writeFile(t, "cache:\n  ttlSeconds: 30\nstorage:\n  backend: redis\n  redis:\n    address: cache:6379\n")}
			},
			assert: func(t *testing.T, cfg Config) {
				require.Equal(t, 30*time.Second, cfg.TTL())
				require.Equal(t, BackendRedis, cfg.Storage.Backend)
				require.Equal(t, "cache:6379", cfg.Storage.Redis.Address)
				require.Equal(t, ":8080", cfg.Server.Address)
			},
		},
		{
			name: "prefers env overrides",
			setup: func(t *testing.T) []string {
				path := writeFile(t, "cache:\n  ttlSeconds: 30\n")
				t.Setenv("ULTRACACHE_CACHE__TTLSECONDS", "45")
				t.Setenv("ULTRACACHE_CACHE__SINGLEFLIGHT", "true")
				t.Setenv("ULTRACACHE_SERVER__ADDRESS", ":9090")
				t.Setenv("ULTRACACHE_STORAGE__SQLITE__PATH", "/tmp/cache.db")
				return []string{path}
			},
			assert: func(t *testing.T, cfg Config) {
				require.Equal(t, 45*time.Second, cfg.TTL())
				require.True(t, cfg.Cache.SingleFlight)
				require.Equal(t, ":9090", cfg.Server.Address)
				require.Equal(t, "/tmp/cache.db", cfg.Storage.SQLite.Path)
			},
		},
		{
			name:    "missing file",
			setup:   func(t *testing.T) []string { return []string{filepath.Join(t.TempDir(), "absent.yaml")} },
			wantErr: "not found",
		},
		{
			name: "rejects unknown backend",
			setup: func(t *testing.T) []string {
				t.Setenv("ULTRACACHE_STORAGE__BACKEND", "memcached")
				return nil
			},
			wantErr: "storage.backend",
		},
		{
			name: "rejects negative ttl",
			setup: func(t *testing.T) []string {
				return []string{writeFile(t, "cache:\n  ttlSeconds: -1\n")}
			},
			wantErr: "cache.ttlSeconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := tt.setup(t)
			cfg, err := NewLoader(EnvPrefix, files...).Load(context.Background())
			if tt.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.assert(t, cfg)
		})
	}
}

func TestLoader_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(EnvPrefix, writeFile(t, "server:\n  address: :1\n")).Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr []string
	}{
		{"defaults", func(c *Config) {}, nil},
		{"sqlite in memory", func(c *Config) { c.Storage.Backend = BackendSQLite }, nil},
		{"redis by url", func(c *Config) {
			c.Storage.Backend = BackendRedis
			c.Storage.Redis.Address = ""
			c.Storage.Redis.URL = "redis://localhost:6379/0"
		}, nil},
		{"redis without target", func(c *Config) {
			c.Storage.Backend = BackendRedis
			c.Storage.Redis.Address = ""
		}, []string{"storage.redis.url"}},
		{"valkey without address", func(c *Config) {
			c.Storage.Backend = BackendValkey
			c.Storage.Redis.Address = ""
		}, []string{"storage.redis.address"}},
		{"prefix with separator", func(c *Config) { c.Storage.Prefix = "app:v2" }, []string{"storage.prefix"}},
		{"collects every problem", func(c *Config) {
			c.Server.Address = ""
			c.Logging.Level = "loud"
			c.Cache.OffloadWorkers = -2
		}, []string{"server.address", "logging.level", "cache.offloadWorkers"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				require.Contains(t, err.Error(), want)
			}
		})
	}
}
