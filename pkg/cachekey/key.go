// Package cachekey derives deterministic cache keys from a function identity
// and its call arguments.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"runtime"
)

// Builder turns a function identity and its arguments into a cache key.
type Builder interface {
	Build(fn string, args []any, kwargs map[string]any) (string, error)
}

// BuilderFunc adapts a plain function to Builder.
type BuilderFunc func(fn string, args []any, kwargs map[string]any) (string, error)

// Build calls f.
func (f BuilderFunc) Build(fn string, args []any, kwargs map[string]any) (string, error) {
	return f(fn, args, kwargs)
}

// Default is the builder used when none is configured.
var Default Builder = defaultBuilder{}

type defaultBuilder struct{}

// Build hashes "fn:args:kwargs" with sha256 and returns the hex digest.
//
// Arguments are rendered with %#v, which carries dynamic types and prints
// maps with sorted keys. Values without a stable representation (pointers,
// funcs, channels) produce keys that differ between otherwise equal calls;
// callers should pass plain values.
func (defaultBuilder) Build(fn string, args []any, kwargs map[string]any) (string, error) {
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%#v:%#v", fn, args, kwargs)))
	return hex.EncodeToString(sum[:]), nil
}

// FuncName returns the package-qualified name of fn, e.g.
// "github.com/acme/app/items.readItem". It returns "" when fn is not a func.
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	return f.Name()
}
