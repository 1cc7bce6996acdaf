// Package ultracache caches the results of request handlers and answers
// conditional requests from the cache.
//
// A handler is written as a Func and wrapped once at startup. Every call
// derives a key from the business arguments, looks it up in a
// storage.Storage and either returns the stored result (X-Cache: HIT) or runs
// the handler and stores what it returned (X-Cache: MISS).
//
// The request's Cache-Control header is honored:
//
//   - no-cache skips the lookup, the handler always runs
//   - no-store skips storing the result
//   - max-age sets the entry ttl (max-age=0 stores nothing)
//
// When a ttl is configured and the request carries no max-age, the ttl is
// added as max-age. The resulting directives, minus request-only ones, are
// echoed in the response Cache-Control header.
//
// Every result gets a weak ETag. A GET or HEAD whose If-None-Match matches it
// is answered with 304 and no body, both on a hit and on a miss.
//
// # Basic Usage
//
//	storage.Init(storage.NewMemory())
//	c := ultracache.New(ultracache.WithTTL(time.Minute))
//
//	getItem := ultracache.Wrap(c, func(ctx context.Context, call ultracache.Call) (Item, error) {
//		return loadItem(ctx, call.Kwargs["item_id"].(int))
//	})
//
//	item, err := getItem.Call(ctx, ultracache.Call{
//		Request:  r,
//		Response: ultracache.NewResponse(),
//		Kwargs:   map[string]any{"item_id": 1},
//	})
//
// # Carriers
//
// Call.Request and Call.Response never take part in the key, and neither do
// *http.Request or *Response values passed in Args or Kwargs. The wrapped
// function only sees the carriers it declared with WithSignature.
//
// # Blocking Functions
//
// Functions wrapped with Blocking run on a bounded pool
// (WithOffloadWorkers). The caller stops waiting when its context ends; the
// function itself runs to completion.
//
// # Concurrent Misses
//
// Concurrent misses for the same key each run the function and the last
// save wins. WithSingleFlight makes them share a single call instead.
//
// # Metrics
//
//   - ultracache_requests_total{result} - hit, miss, not_modified, error
//   - ultracache_call_duration_seconds{function} - handler duration on miss
//   - ultracache_offload_active - blocking functions running
//   - ultracache_offload_rejected_total - callers that gave up waiting for a worker
//   - ultracache_coalesced_total - misses served by another caller's call
package ultracache
