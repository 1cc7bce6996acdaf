// Package etag computes weak entity tags for cached values and evaluates
// If-None-Match preconditions against them.
package etag

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Hasher computes the entity tag of a value.
type Hasher interface {
	Hash(v any) (string, error)
}

// HasherFunc adapts a plain function to Hasher.
type HasherFunc func(v any) (string, error)

// Hash calls f.
func (f HasherFunc) Hash(v any) (string, error) {
	return f(v)
}

// Default is the hasher used when none is configured.
var Default Hasher = HasherFunc(Weak)

// Weak returns a weak ETag (W/"<hex>") for v.
//
// Maps, slices, arrays and structs are hashed over their JSON encoding, which
// sorts map keys. Everything else is hashed over its fmt.Sprint form, with
// pointers followed to the value they point to.
func Weak(v any) (string, error) {
	var payload []byte
	if structured(v) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("etag: encode value: %w", err)
		}
		payload = b
	} else {
		payload = []byte(fmt.Sprint(indirect(v)))
	}
	return `W/"` + strconv.FormatUint(xxhash.Sum64(payload), 16) + `"`, nil
}

// indirect dereferences non-nil pointers so Sprint prints the value, not its
// address. Stringers are left alone.
func indirect(v any) any {
	if _, ok := v.(fmt.Stringer); ok {
		return v
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return v
	}
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	return rv.Interface()
}

func structured(v any) bool {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	}
	return false
}

// Match reports whether an If-None-Match header value matches tag.
// "*" matches any tag; otherwise the header is a comma-separated list compared
// with the weak comparison function, so W/"x" and "x" are equal.
func Match(ifNoneMatch, tag string) bool {
	ifNoneMatch = strings.TrimSpace(ifNoneMatch)
	if ifNoneMatch == "" || tag == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	want := opaque(tag)
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || (candidate != "" && opaque(candidate) == want) {
			return true
		}
	}
	return false
}

func opaque(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "W/")
}
