// Package storage defines the byte-oriented, TTL-aware store the response
// cache persists into, together with its reference backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NoExpiration passed as ttl to Save keeps the entry until it is overwritten
// or cleared.
const NoExpiration time.Duration = 0

// DefaultPrefix namespaces keys in shared backends.
const DefaultPrefix = "ultra-cache"

// PrefixSeparator joins a prefix and a key in shared backends.
const PrefixSeparator = ":"

var (
	// ErrCacheMiss is returned by Get when the key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrNotInitialized is returned by Default before Init was called.
	ErrNotInitialized = errors.New("storage: default storage not initialized")
)

// Storage is the persistence contract of the cache.
//
// Save overwrites any existing entry. A ttl of NoExpiration (or any
// non-positive value) never expires. Get returns ErrCacheMiss both for absent
// and for expired entries. Clear removes every entry created through this
// instance and leaves foreign keys of a shared backend untouched.
type Storage interface {
	Save(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Clear(ctx context.Context) error
}

// ValidatePrefix rejects prefixes that would overlap another store's
// namespace. A prefix may not contain the separator, otherwise "app" would
// own every key of "app:v2".
func ValidatePrefix(prefix string) error {
	if strings.Contains(prefix, PrefixSeparator) {
		return fmt.Errorf("storage: prefix %q must not contain %q", prefix, PrefixSeparator)
	}
	return nil
}

// scanPattern matches every key under prefix, with glob metacharacters in the
// prefix taken literally.
func scanPattern(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteString(PrefixSeparator + "*")
	return b.String()
}
