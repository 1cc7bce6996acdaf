package ultracache

import (
	"time"

	"github.com/Sternrassler/ultracache/pkg/cachekey"
	"github.com/Sternrassler/ultracache/pkg/etag"
	"github.com/Sternrassler/ultracache/pkg/storage"
	"github.com/rs/zerolog"
)

// Option configures an UltraCache.
type Option func(*UltraCache)

// WithStorage sets the backend. Without it every call resolves
// storage.Default.
func WithStorage(s storage.Storage) Option {
	return func(c *UltraCache) {
		c.storage = s
	}
}

// WithTTL sets the default time-to-live, used when the request carries no
// max-age. It is also echoed to clients as max-age. Zero keeps entries until
// cleared.
func WithTTL(ttl time.Duration) Option {
	return func(c *UltraCache) {
		if ttl >= 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyBuilder replaces cachekey.Default.
func WithKeyBuilder(b cachekey.Builder) Option {
	return func(c *UltraCache) {
		if b != nil {
			c.keys = b
		}
	}
}

// WithHasher replaces etag.Default.
func WithHasher(h etag.Hasher) Option {
	return func(c *UltraCache) {
		if h != nil {
			c.hasher = h
		}
	}
}

// WithCodec replaces the JSON codec.
func WithCodec(codec Codec) Option {
	return func(c *UltraCache) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithLogger sets the logger used for cache decisions and storage failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *UltraCache) {
		c.logger = logger
	}
}

// WithOffloadWorkers bounds how many Blocking functions run concurrently.
func WithOffloadWorkers(n int) Option {
	return func(c *UltraCache) {
		c.offloadWorkers = n
	}
}

// WrapOption configures a single wrapped function.
type WrapOption func(*wrapConfig)

type wrapConfig struct {
	name         string
	sig          Signature
	blocking     bool
	singleFlight bool
	ttl          *time.Duration
}

// WithSignature declares the carriers the function reads.
func WithSignature(sig Signature) WrapOption {
	return func(w *wrapConfig) {
		w.sig = sig
	}
}

// WithName overrides the function identity used in cache keys.
func WithName(name string) WrapOption {
	return func(w *wrapConfig) {
		if name != "" {
			w.name = name
		}
	}
}

// Blocking marks a function that blocks on CPU or synchronous I/O. Misses
// run it on the offload pool instead of the caller's goroutine.
func Blocking() WrapOption {
	return func(w *wrapConfig) {
		w.blocking = true
	}
}

// WithSingleFlight makes concurrent misses for the same key share one call
// of the function. Off by default: without it every concurrent miss runs the
// function and the last save wins.
//
// The shared call ignores the cancellation of the caller that started it; a
// caller whose ctx ends stops waiting on its own. Coalesced callers receive
// the same result value, so maps, slices and pointers are shared between them
// and must not be mutated.
func WithSingleFlight() WrapOption {
	return func(w *wrapConfig) {
		w.singleFlight = true
	}
}

// WithWrapTTL overrides the cache-wide default ttl for this function.
func WithWrapTTL(ttl time.Duration) WrapOption {
	return func(w *wrapConfig) {
		if ttl >= 0 {
			w.ttl = &ttl
		}
	}
}
