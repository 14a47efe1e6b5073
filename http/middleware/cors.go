package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/xy-planning-network/trailhead"
)

// CORS sets "Access-Control-Allow" style headers on responses to requests from origin.
// Preflight OPTIONS requests are answered here and never reach the dispatcher.
//
// If origin is empty, NoopAdapter returns and this middleware does nothing.
func CORS(origin string) Adapter {
	if origin == "" {
		return NoopAdapter
	}

	return handlers.CORS(
		handlers.AllowedHeaders([]string{
			"Content-Type",
			"X-CSRF-Token",
			trailhead.RequestIDHeader,
		}),
		handlers.AllowedOrigins([]string{origin}),
		handlers.AllowedMethods([]string{
			http.MethodDelete,
			http.MethodGet,
			http.MethodHead,
			http.MethodOptions,
			http.MethodPatch,
			http.MethodPost,
			http.MethodPut,
		}),
		handlers.ExposedHeaders([]string{trailhead.RequestIDHeader}),
	)
}
