package middleware

import (
	"net/http"

	"github.com/xy-planning-network/trailhead/http/resp"
)

// An Adapter allows chaining middlewares together.
type Adapter func(http.Handler) http.Handler

// Chain glues the set of adapters to the handler.
// The first adapter runs first.
func Chain(handler http.Handler, adapters ...Adapter) http.Handler {
	//NOTE: Loop in reverse to preserve middleware order
	for i := len(adapters) - 1; i >= 0; i-- {
		handler = adapters[i](handler)
	}

	return handler
}

// NoopAdapter returns h unchanged.
func NoopAdapter(h http.Handler) http.Handler { return h }

// writeError writes the JSON error body used across trailhead for code.
func writeError(w http.ResponseWriter, code int) {
	e, err := resp.Error(code, http.StatusText(code))
	if err != nil {
		http.Error(w, http.StatusText(code), code)
		return
	}

	for k, vals := range e.Header() {
		w.Header()[k] = vals
	}

	w.WriteHeader(e.Code())
	w.Write(e.Body())
}
