// Package testutil provides an in-process items server for end-to-end tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/Sternrassler/ultracache/internal/items"
	"github.com/Sternrassler/ultracache/pkg/storage"
	"github.com/Sternrassler/ultracache/pkg/ultracache"
	"github.com/go-chi/chi/v5"
)

// ItemsApp is the items service behind an httptest server.
type ItemsApp struct {
	server *httptest.Server

	Cache   *ultracache.UltraCache
	Service *items.Service
	Storage storage.Storage

	mu sync.Mutex
	// Tracking
	requestCount     int
	conditionalCount int
}

// AppOption configures an ItemsApp.
type AppOption func(*appConfig)

type appConfig struct {
	storage   storage.Storage
	cacheOpts []ultracache.Option
	wrapOpts  []ultracache.WrapOption
}

// WithAppStorage replaces the default in-memory storage.
func WithAppStorage(s storage.Storage) AppOption {
	return func(c *appConfig) {
		c.storage = s
	}
}

// WithCacheOptions passes options to ultracache.New.
func WithCacheOptions(opts ...ultracache.Option) AppOption {
	return func(c *appConfig) {
		c.cacheOpts = append(c.cacheOpts, opts...)
	}
}

// WithWrapOptions passes options to ultracache.Wrap.
func WithWrapOptions(opts ...ultracache.WrapOption) AppOption {
	return func(c *appConfig) {
		c.wrapOpts = append(c.wrapOpts, opts...)
	}
}

// NewItemsApp starts the items server. Storage defaults to a fresh
// storage.Memory.
func NewItemsApp(opts ...AppOption) *ItemsApp {
	cfg := appConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.storage == nil {
		cfg.storage = storage.NewMemory()
	}

	cacheOpts := append([]ultracache.Option{ultracache.WithStorage(cfg.storage)}, cfg.cacheOpts...)
	c := ultracache.New(cacheOpts...)
	app := &ItemsApp{
		Cache:   c,
		Service: items.NewService(c, cfg.wrapOpts...),
		Storage: cfg.storage,
	}

	r := chi.NewRouter()
	r.Use(app.track)
	app.Service.Routes(r)
	app.server = httptest.NewServer(r)
	return app
}

func (a *ItemsApp) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.requestCount++
		if r.Header.Get("If-None-Match") != "" {
			a.conditionalCount++
		}
		a.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// URL returns the server URL.
func (a *ItemsApp) URL() string {
	return a.server.URL
}

// Client returns an HTTP client for the server.
func (a *ItemsApp) Client() *http.Client {
	return a.server.Client()
}

// Close shuts down the server.
func (a *ItemsApp) Close() {
	a.server.Close()
}

// RequestCount returns the number of requests served.
func (a *ItemsApp) RequestCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requestCount
}

// ConditionalCount returns the number of requests carrying If-None-Match.
func (a *ItemsApp) ConditionalCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conditionalCount
}
