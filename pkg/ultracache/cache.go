package ultracache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/ultracache/pkg/cachecontrol"
	"github.com/Sternrassler/ultracache/pkg/cachekey"
	"github.com/Sternrassler/ultracache/pkg/etag"
	"github.com/Sternrassler/ultracache/pkg/logging"
	"github.com/Sternrassler/ultracache/pkg/storage"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Response headers written by the cache.
const (
	HeaderXCache       = "X-Cache"
	HeaderCacheControl = "Cache-Control"
	HeaderETag         = "ETag"
	HeaderIfNoneMatch  = "If-None-Match"
)

// UltraCache holds the configuration shared by every function wrapped with
// it. It is safe for concurrent use.
type UltraCache struct {
	storage        storage.Storage
	ttl            time.Duration
	keys           cachekey.Builder
	hasher         etag.Hasher
	codec          Codec
	logger         zerolog.Logger
	offloadWorkers int

	pool *offloadPool
}

// New creates a cache. Without WithStorage it uses the storage registered
// with storage.Init at call time.
func New(opts ...Option) *UltraCache {
	c := &UltraCache{
		keys:           cachekey.Default,
		hasher:         etag.Default,
		codec:          JSON,
		logger:         logging.NewLogger("ultracache"),
		offloadWorkers: DefaultOffloadWorkers,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.pool = newOffloadPool(c.offloadWorkers)
	return c
}

// Storage returns the configured backend, falling back to storage.Default.
func (c *UltraCache) Storage() (storage.Storage, error) {
	if c.storage != nil {
		return c.storage, nil
	}
	return storage.Default()
}

// Clear empties the backend.
func (c *UltraCache) Clear(ctx context.Context) error {
	s, err := c.Storage()
	if err != nil {
		return err
	}
	return s.Clear(ctx)
}

// Func is a function that can be cached. Its result must round-trip through
// the cache codec.
type Func[R any] func(ctx context.Context, call Call) (R, error)

// Cached is a Func wrapped with caching.
type Cached[R any] struct {
	cache    *UltraCache
	fn       Func[R]
	name     string
	sig      Signature
	blocking bool
	ttl      time.Duration

	group *singleflight.Group
}

// Wrap decorates fn with c. The function identity in cache keys defaults to
// its package-qualified name.
func Wrap[R any](c *UltraCache, fn Func[R], opts ...WrapOption) *Cached[R] {
	if c == nil {
		panic("ultracache: nil cache")
	}
	if fn == nil {
		panic("ultracache: nil function")
	}

	cfg := wrapConfig{name: cachekey.FuncName(fn)}
	for _, opt := range opts {
		opt(&cfg)
	}

	cf := &Cached[R]{
		cache:    c,
		fn:       fn,
		name:     cfg.name,
		sig:      cfg.sig,
		blocking: cfg.blocking,
		ttl:      c.ttl,
	}
	if cfg.ttl != nil {
		cf.ttl = *cfg.ttl
	}
	if cfg.singleFlight {
		cf.group = &singleflight.Group{}
	}
	return cf
}

// Name returns the function identity used in cache keys.
func (cf *Cached[R]) Name() string {
	return cf.name
}

// Call runs the cached function.
//
// The request's Cache-Control and If-None-Match headers drive the lookup:
// no-cache skips the read, no-store skips the write, max-age sets the entry
// ttl. The response carrier receives X-Cache, Cache-Control and ETag. When
// If-None-Match matches on a GET or HEAD, the status is set to 304 and the
// zero value is returned.
func (cf *Cached[R]) Call(ctx context.Context, call Call) (R, error) {
	var zero R
	call = call.carriers()
	resp := call.Response

	var (
		directives  cachecontrol.Directives
		ifNoneMatch string
		method      string
	)
	if call.Request != nil {
		directives = cachecontrol.Parse(call.Request.Header.Get(HeaderCacheControl))
		ifNoneMatch = call.Request.Header.Get(HeaderIfNoneMatch)
		method = call.Request.Method
	}

	args, kwargs := call.keyArgs()
	key, err := cf.cache.keys.Build(cf.name, args, kwargs)
	if err != nil {
		Requests.WithLabelValues(resultError).Inc()
		return zero, fmt.Errorf("ultracache: build key: %w", err)
	}
	logger := cf.cache.logger.With().Str("function", cf.name).Str("key", key).Logger()

	store, err := cf.cache.Storage()
	if err != nil {
		Requests.WithLabelValues(resultError).Inc()
		return zero, err
	}

	var (
		cached []byte
		hit    bool
	)
	if !directives.NoCache() {
		cached, err = store.Get(ctx, key)
		switch {
		case err == nil:
			hit = true
		case errors.Is(err, storage.ErrCacheMiss):
		default:
			logger.Warn().Err(err).Str("op", "get").Msg("Storage get failed")
			Requests.WithLabelValues(resultError).Inc()
			return zero, err
		}
	}

	if cf.ttl > 0 {
		directives.SetDefault(cachecontrol.MaxAge, strconv.FormatInt(ceilSeconds(cf.ttl), 10))
	}
	if header := directives.String(); header != "" {
		resp.Header.Set(HeaderCacheControl, header)
	}

	if hit {
		resp.Header.Set(HeaderXCache, "HIT")
		var value R
		if err := cf.cache.codec.Unmarshal(cached, &value); err != nil {
			Requests.WithLabelValues(resultError).Inc()
			return zero, fmt.Errorf("ultracache: decode cached value: %w", err)
		}
		if cf.conditional(resp, method, ifNoneMatch, value, logger) {
			Requests.WithLabelValues(resultNotModified).Inc()
			logger.Debug().Msg("Cache hit, not modified")
			return zero, nil
		}
		Requests.WithLabelValues(resultHit).Inc()
		logger.Debug().Msg("Cache hit")
		return value, nil
	}

	resp.Header.Set(HeaderXCache, "MISS")
	value, err := cf.invoke(ctx, call.forInvoke(cf.sig), key)
	if err != nil {
		Requests.WithLabelValues(resultError).Inc()
		return zero, err
	}
	// A hit hashes the decoded entry, so a miss hashes the same round trip.
	data, encErr := cf.cache.codec.Marshal(value)
	notModified := cf.conditional(resp, method, ifNoneMatch, cf.decoded(value, data, encErr), logger)

	if !directives.NoStore() {
		if encErr != nil {
			Requests.WithLabelValues(resultError).Inc()
			return zero, fmt.Errorf("ultracache: encode result: %w", encErr)
		}
		if err := cf.save(ctx, store, key, data, directives, logger); err != nil {
			Requests.WithLabelValues(resultError).Inc()
			return zero, err
		}
	}

	Requests.WithLabelValues(resultMiss).Inc()
	if notModified {
		logger.Debug().Msg("Cache miss, not modified")
		return zero, nil
	}
	logger.Debug().Msg("Cache miss")
	return value, nil
}

// decoded returns value as a hit would see it after the codec round trip.
func (cf *Cached[R]) decoded(value R, data []byte, encErr error) R {
	if encErr != nil {
		return value
	}
	var out R
	if err := cf.cache.codec.Unmarshal(data, &out); err != nil {
		return value
	}
	return out
}

// invoke runs the wrapped function, on the offload pool when it is blocking
// and shared between concurrent callers when single-flight is on.
//
// A shared call runs detached from any single caller's cancellation. Each
// caller still stops waiting when its own ctx is done.
func (cf *Cached[R]) invoke(ctx context.Context, call Call, key string) (R, error) {
	run := func(ctx context.Context) (R, error) {
		start := time.Now()
		defer func() {
			CallDuration.WithLabelValues(cf.name).Observe(time.Since(start).Seconds())
		}()
		if cf.blocking {
			return offload(ctx, cf.cache.pool, func() (R, error) {
				return cf.fn(ctx, call)
			})
		}
		return cf.fn(ctx, call)
	}

	if cf.group == nil {
		return run(ctx)
	}

	var zero R
	detached := context.WithoutCancel(ctx)
	ch := cf.group.DoChan(key, func() (v any, err error) {
		// DoChan re-panics on its own goroutine, out of reach of any caller.
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("ultracache: shared call panicked: %v", r)
			}
		}()
		return run(detached)
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			Coalesced.Inc()
		}
		if res.Err != nil {
			return zero, res.Err
		}
		value, _ := res.Val.(R)
		return value, nil
	}
}

// conditional sets the ETag header for value and reports whether the request
// is answered with 304.
func (cf *Cached[R]) conditional(resp *Response, method, ifNoneMatch string, value R, logger zerolog.Logger) bool {
	tag, err := cf.cache.hasher.Hash(value)
	if err != nil {
		logger.Warn().Err(err).Msg("ETag computation failed")
		return false
	}
	if tag == "" {
		return false
	}
	resp.Header.Set(HeaderETag, tag)

	if method != http.MethodGet && method != http.MethodHead {
		return false
	}
	if ifNoneMatch == "" || !etag.Match(ifNoneMatch, tag) {
		return false
	}
	resp.StatusCode = http.StatusNotModified
	return true
}

func (cf *Cached[R]) save(ctx context.Context, store storage.Storage, key string, data []byte, directives cachecontrol.Directives, logger zerolog.Logger) error {
	ttl := cf.ttl
	if maxAge, ok := directives.MaxAge(); ok {
		if maxAge == 0 {
			logger.Debug().Msg("max-age=0, not storing")
			return nil
		}
		ttl = time.Duration(maxAge) * time.Second
	}

	if err := store.Save(ctx, key, data, ttl); err != nil {
		logger.Warn().Err(err).Str("op", "save").Msg("Storage save failed")
		return err
	}
	logger.Debug().Dur("ttl", ttl).Int("bytes", len(data)).Msg("Stored result")
	return nil
}

func ceilSeconds(d time.Duration) int64 {
	return int64((d + time.Second - 1) / time.Second)
}
