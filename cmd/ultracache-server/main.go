package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/ultracache/internal/config"
	"github.com/Sternrassler/ultracache/internal/items"
	"github.com/Sternrassler/ultracache/pkg/logging"
	"github.com/Sternrassler/ultracache/pkg/metrics"
	"github.com/Sternrassler/ultracache/pkg/storage"
	"github.com/Sternrassler/ultracache/pkg/ultracache"
)

func main() {
	var (
		configFile = flag.String("config", "", "path to configuration file")
		envPrefix  = flag.String("env-prefix", config.EnvPrefix, "environment variable prefix")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewLoader(*envPrefix, *configFile).Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.Logging.Level),
		Pretty:  cfg.Logging.Pretty,
		Output:  os.Stderr,
		Service: "ultracache-server",
	})

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Server shutdown complete")
}

func run(ctx context.Context, cfg config.Config) error {
	store, closeStore, err := buildStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	storage.Init(store)
	defer storage.Reset()

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           newRouter(newCache(cfg), cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Address).
			Str("backend", cfg.Storage.Backend).
			Dur("ttl", cfg.TTL()).
			Msg("Starting ultracache server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newCache relies on the registry set up in run instead of an explicit
// storage, so the backend can be swapped with storage.Init.
func newCache(cfg config.Config) *ultracache.UltraCache {
	return ultracache.New(
		ultracache.WithTTL(cfg.TTL()),
		ultracache.WithOffloadWorkers(cfg.Cache.OffloadWorkers),
		ultracache.WithLogger(logging.NewLogger("ultracache")),
	)
}

func newRouter(c *ultracache.UltraCache, cfg config.Config) http.Handler {
	var wrapOpts []ultracache.WrapOption
	if cfg.Cache.SingleFlight {
		wrapOpts = append(wrapOpts, ultracache.WithSingleFlight())
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	items.NewService(c, wrapOpts...).Routes(r)
	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := storage.Default(); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// buildStorage creates the configured backend and a function releasing it.
func buildStorage(ctx context.Context, cfg config.Config) (storage.Storage, func(), error) {
	sc := cfg.Storage
	switch sc.Backend {
	case config.BackendMemory:
		return storage.NewMemory(), func() {}, nil

	case config.BackendRedis:
		var (
			store *storage.Redis
			err   error
		)
		if sc.Redis.URL != "" {
			store, err = storage.NewRedisFromURL(sc.Redis.URL, storage.WithPrefix(sc.Prefix))
			if err != nil {
				return nil, nil, err
			}
		} else {
			store = storage.NewRedis(redis.NewClient(&redis.Options{
				Addr:     sc.Redis.Address,
				Username: sc.Redis.Username,
				Password: sc.Redis.Password,
				DB:       sc.Redis.DB,
			}), storage.WithPrefix(sc.Prefix))
		}
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return store, func() { store.Close() }, nil

	case config.BackendValkey:
		store, err := storage.NewValkey(storage.ValkeyConfig{
			Address:  sc.Redis.Address,
			Username: sc.Redis.Username,
			Password: sc.Redis.Password,
			DB:       sc.Redis.DB,
			Prefix:   sc.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case config.BackendSQLite:
		store, err := storage.NewSQLite(sc.SQLite.Path, storage.WithNamespace(sc.Prefix))
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
	}
}
