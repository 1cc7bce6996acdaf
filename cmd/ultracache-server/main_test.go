package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/Sternrassler/ultracache/internal/config"
	"github.com/Sternrassler/ultracache/pkg/storage"
)

func TestHealthEndpoint(t *testing.T) {
	storage.Reset()
	t.Cleanup(storage.Reset)

	w := httptest.NewRecorder()
	healthHandler(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503 before storage init, got %d", w.Code)
	}

	storage.Init(storage.NewMemory())
	w = httptest.NewRecorder()
	healthHandler(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	body, _ := io.ReadAll(w.Result().Body)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestRouter(t *testing.T) {
	storage.Init(storage.NewMemory())
	t.Cleanup(storage.Reset)

	cfg := config.DefaultConfig()
	cfg.Cache.TTLSeconds = 30
	cfg.Cache.SingleFlight = true
	handler := newRouter(newCache(cfg), cfg)

	for _, want := range []string{"MISS", "HIT"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/42", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if got := w.Header().Get("X-Cache"); got != want {
			t.Errorf("X-Cache = %q, want %q", got, want)
		}
		if got := w.Header().Get("Cache-Control"); got != "max-age=30" {
			t.Errorf("Cache-Control = %q, want max-age=30", got)
		}
		if body := strings.TrimSpace(w.Body.String()); body != `{"item_id":42}` {
			t.Errorf("Unexpected body %s", body)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected metrics status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ultracache_requests_total") {
		t.Error("Expected metrics output to contain ultracache_requests_total")
	}
}

func TestBuildStorage(t *testing.T) {
	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer server.Close()

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
	}{
		{"memory", func(c *config.Config) {}, false},
		{"redis", func(c *config.Config) {
			c.Storage.Backend = config.BackendRedis
			c.Storage.Redis.Address = server.Addr()
		}, false},
		{"redis url", func(c *config.Config) {
			c.Storage.Backend = config.BackendRedis
			c.Storage.Redis.URL = "redis://" + server.Addr() + "/0"
		}, false},
		{"valkey", func(c *config.Config) {
			c.Storage.Backend = config.BackendValkey
			c.Storage.Redis.Address = server.Addr()
		}, false},
		{"sqlite", func(c *config.Config) {
			c.Storage.Backend = config.BackendSQLite
			c.Storage.SQLite.Path = filepath.Join(t.TempDir(), "cache.db")
		}, false},
		{"redis unreachable", func(c *config.Config) {
			c.Storage.Backend = config.BackendRedis
			c.Storage.Redis.Address = "127.0.0.1:1"
		}, true},
		{"unknown", func(c *config.Config) { c.Storage.Backend = "memcached" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(&cfg)

			ctx := context.Background()
			store, closeStore, err := buildStorage(ctx, cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("buildStorage failed: %v", err)
			}
			defer closeStore()

			if err := store.Save(ctx, "k", []byte("v"), storage.NoExpiration); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			got, err := store.Get(ctx, "k")
			if err != nil || string(got) != "v" {
				t.Errorf("Get = %q, %v", got, err)
			}
		})
	}
}
