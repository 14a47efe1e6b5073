package middleware

import (
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/xy-planning-network/trailhead"
)

// ReportPanic recovers panics in the wrapped handler and answers with a 500
// carrying the standard JSON error body.
//
// Outside of [trailhead.Development], panics are first reported to Sentry
// through sentryhttp.
func ReportPanic(env trailhead.Environment) Adapter {
	return func(h http.Handler) http.Handler {
		if !env.IsDevelopment() {
			h = sentryhttp.New(sentryhttp.Options{
				Repanic:         true,
				WaitForDelivery: true,
			}).Handle(h)
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					writeError(w, http.StatusInternalServerError)
				}
			}()

			h.ServeHTTP(w, r)
		})
	}
}
