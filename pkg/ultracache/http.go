package ultracache

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

// BindFunc extracts the business arguments of a call from an HTTP request.
// Errors are answered with 400.
type BindFunc func(r *http.Request) (args []any, kwargs map[string]any, err error)

// BadRequestError marks a bind failure whose message is safe to show.
type BadRequestError struct {
	Err error
}

func (e *BadRequestError) Error() string { return e.Err.Error() }

func (e *BadRequestError) Unwrap() error { return e.Err }

// Handler serves c over HTTP. The result is written as JSON with the status
// left on the response carrier; a 304 is written without a body.
func Handler[R any](c *Cached[R], bind BindFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			args   []any
			kwargs map[string]any
		)
		if bind != nil {
			var err error
			args, kwargs, err = bind(r)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}

		resp := NewResponse()
		value, err := c.Call(r.Context(), Call{
			Request:  r,
			Response: resp,
			Args:     args,
			Kwargs:   kwargs,
		})

		for name, values := range resp.Header {
			w.Header()[name] = values
		}
		if err != nil {
			log.Error().Err(err).Str("path", r.URL.Path).Str("function", c.Name()).Msg("Cached call failed")
			var bad *BadRequestError
			if errors.As(err, &bad) {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			writeError(w, http.StatusInternalServerError, errors.New(http.StatusText(http.StatusInternalServerError)))
			return
		}

		if resp.NotModified() {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		body, err := json.Marshal(value)
		if err != nil {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("Encode response failed")
			writeError(w, http.StatusInternalServerError, errors.New(http.StatusText(http.StatusInternalServerError)))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if r.Method != http.MethodHead {
			_, _ = w.Write(body)
		}
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
