package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/xy-planning-network/trailhead"
)

// RequestID adds a uuid to the request context under [trailhead.RequestIDKey]
// and echoes it in the [trailhead.RequestIDHeader] response header.
//
// An incoming [trailhead.RequestIDHeader] that parses as a uuid is kept;
// anything else is replaced.
// The id is also set on the request's own header,
// so it reaches handlers through the server metadata.
func RequestID() Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(trailhead.RequestIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}

			w.Header().Set(trailhead.RequestIDHeader, id)

			r = r.Clone(context.WithValue(r.Context(), trailhead.RequestIDKey, id))
			r.Header.Set(trailhead.RequestIDHeader, id)
			h.ServeHTTP(w, r)
		})
	}
}
