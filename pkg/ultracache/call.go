package ultracache

import (
	"net/http"
)

// Response is the mutable response carrier. The cache writes X-Cache,
// Cache-Control and ETag into Header and sets StatusCode to 304 on a
// conditional match.
type Response struct {
	Header     http.Header
	StatusCode int
}

// NewResponse returns an empty 200 response carrier.
func NewResponse() *Response {
	return &Response{Header: make(http.Header), StatusCode: http.StatusOK}
}

// NotModified reports whether the cache short-circuited the call with 304.
func (r *Response) NotModified() bool {
	return r != nil && r.StatusCode == http.StatusNotModified
}

// Call is one invocation of a cached function.
//
// Request and Response are the carriers; Args and Kwargs are the business
// arguments that make up the cache key. Carriers found inside Args or Kwargs
// are excluded from the key as well.
type Call struct {
	Request  *http.Request
	Response *Response
	Args     []any
	Kwargs   map[string]any
}

// Signature declares which carriers the wrapped function reads. Undeclared
// carriers are removed from the Call before the function runs.
type Signature struct {
	Request  bool
	Response bool
}

// carriers fills Request and Response from Args/Kwargs when the fields are
// unset, and synthesizes a Response when there is none.
func (c Call) carriers() Call {
	if c.Request == nil {
		c.Request = findCarrier[*http.Request](c.Args, c.Kwargs)
	}
	if c.Response == nil {
		c.Response = findCarrier[*Response](c.Args, c.Kwargs)
	}
	if c.Response == nil {
		c.Response = NewResponse()
	}
	if c.Response.Header == nil {
		c.Response.Header = make(http.Header)
	}
	return c
}

// keyArgs returns Args and Kwargs with request and response carriers removed.
func (c Call) keyArgs() ([]any, map[string]any) {
	args, kwargs := stripCarrier[*http.Request](c.Args, c.Kwargs)
	return stripCarrier[*Response](args, kwargs)
}

// forInvoke strips carriers the function did not declare.
func (c Call) forInvoke(sig Signature) Call {
	if !sig.Request {
		c.Request = nil
	}
	if !sig.Response {
		c.Response = nil
	}
	return c
}

func findCarrier[T comparable](args []any, kwargs map[string]any) T {
	var zero T
	for _, v := range kwargs {
		if t, ok := v.(T); ok && t != zero {
			return t
		}
	}
	for _, v := range args {
		if t, ok := v.(T); ok && t != zero {
			return t
		}
	}
	return zero
}

// stripCarrier removes every kwargs entry of type T. When there is none it
// removes the first positional argument of type T instead. Inputs are not
// modified; with no match they are returned unchanged.
func stripCarrier[T any](args []any, kwargs map[string]any) ([]any, map[string]any) {
	var keys []string
	for k, v := range kwargs {
		if _, ok := v.(T); ok {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		out := make(map[string]any, len(kwargs)-len(keys))
		for k, v := range kwargs {
			out[k] = v
		}
		for _, k := range keys {
			delete(out, k)
		}
		return args, out
	}

	for i, v := range args {
		if _, ok := v.(T); ok {
			out := make([]any, 0, len(args)-1)
			out = append(out, args[:i]...)
			return append(out, args[i+1:]...), kwargs
		}
	}
	return args, kwargs
}
