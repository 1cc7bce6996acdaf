// Package cachecontrol parses and serializes the HTTP Cache-Control header.
//
// Directive names are compared case-insensitively and stored lower-cased.
// Insertion order is preserved so a parsed header serializes back in the
// order the client sent it.
package cachecontrol

import (
	"strconv"
	"strings"
)

// Directive names used by the cache.
const (
	MaxAge       = "max-age"
	NoCache      = "no-cache"
	NoStore      = "no-store"
	MaxStale     = "max-stale"
	MinFresh     = "min-fresh"
	OnlyIfCached = "only-if-cached"
)

// RequestOnly lists directives that only make sense on a request and are
// never echoed back on a response.
var RequestOnly = []string{MaxStale, MinFresh, OnlyIfCached}

// IsRequestOnly reports whether name is a request-only directive.
func IsRequestOnly(name string) bool {
	name = strings.ToLower(name)
	for _, n := range RequestOnly {
		if n == name {
			return true
		}
	}
	return false
}

type directive struct {
	value    string
	hasValue bool
}

// Directives is an ordered set of Cache-Control directives.
// The zero value is an empty set ready to use.
type Directives struct {
	names  []string
	values map[string]directive
}

// Parse splits a Cache-Control header into directives.
//
// Tokens are separated by commas and split on the first "=". A token without
// "=" is recorded as a valueless flag. When a directive appears more than once
// the last value wins. Empty tokens are skipped.
func Parse(header string) Directives {
	var d Directives
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		name := strings.ToLower(strings.TrimSpace(kv[0]))
		if name == "" {
			continue
		}
		if len(kv) == 2 {
			d.Set(name, strings.TrimSpace(kv[1]))
		} else {
			d.SetFlag(name)
		}
	}
	return d
}

func (d *Directives) put(name string, dir directive) {
	name = strings.ToLower(name)
	if d.values == nil {
		d.values = make(map[string]directive)
	}
	if _, ok := d.values[name]; !ok {
		d.names = append(d.names, name)
	}
	d.values[name] = dir
}

// Set stores name=value, replacing any previous value.
func (d *Directives) Set(name, value string) {
	d.put(name, directive{value: value, hasValue: true})
}

// SetFlag stores a valueless directive, replacing any previous value.
func (d *Directives) SetFlag(name string) {
	d.put(name, directive{})
}

// SetDefault stores name=value only if name is not present yet.
func (d *Directives) SetDefault(name, value string) {
	if d.Has(name) {
		return
	}
	d.Set(name, value)
}

// Get returns the value of name. The boolean is false when the directive is
// absent or carries no value.
func (d Directives) Get(name string) (string, bool) {
	dir, ok := d.values[strings.ToLower(name)]
	if !ok || !dir.hasValue {
		return "", false
	}
	return dir.value, true
}

// Has reports whether name is present, with or without a value.
func (d Directives) Has(name string) bool {
	_, ok := d.values[strings.ToLower(name)]
	return ok
}

// Del removes name.
func (d *Directives) Del(name string) {
	name = strings.ToLower(name)
	if _, ok := d.values[name]; !ok {
		return
	}
	delete(d.values, name)
	for i, n := range d.names {
		if n == name {
			d.names = append(d.names[:i], d.names[i+1:]...)
			break
		}
	}
}

// Len returns the number of directives.
func (d Directives) Len() int {
	return len(d.names)
}

// Names returns directive names in insertion order.
func (d Directives) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// MaxAge returns the max-age value in seconds. Absent, negative or
// non-numeric values report false.
func (d Directives) MaxAge() (int, bool) {
	raw, ok := d.Get(MaxAge)
	if !ok {
		return 0, false
	}
	seconds, err := strconv.Atoi(strings.Trim(raw, `"`))
	if err != nil || seconds < 0 {
		return 0, false
	}
	return seconds, true
}

// NoCache reports whether the no-cache directive is present.
func (d Directives) NoCache() bool {
	return d.Has(NoCache)
}

// NoStore reports whether the no-store directive is present.
func (d Directives) NoStore() bool {
	return d.Has(NoStore)
}

// String renders the directives as a response header value, leaving out
// request-only directives.
func (d Directives) String() string {
	parts := make([]string, 0, len(d.names))
	for _, name := range d.names {
		if IsRequestOnly(name) {
			continue
		}
		dir := d.values[name]
		if dir.hasValue {
			parts = append(parts, name+"="+dir.value)
		} else {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, ", ")
}
