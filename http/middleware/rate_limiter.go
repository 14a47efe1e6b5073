package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultRateLimit   rate.Limit = 5
	DefaultRateBurst   int        = 20
	DefaultVisitorTTL             = 60 * time.Minute
	visitorCleanupEach            = time.Minute
)

// A Visitor tracks a rate limiter and last seen time.
type Visitor struct {
	LastSeen time.Time
	Limiter  *rate.Limiter
}

// A Visitors maps a Visitor to an IP address.
type Visitors struct {
	val   map[string]Visitor
	limit rate.Limit
	burst int
	ttl   time.Duration
	swept time.Time
	sync.Mutex
}

// A VisitorsOptFn configures Visitors.
type VisitorsOptFn func(*Visitors)

// WithLimit sets the sustained requests per second and burst allowed each Visitor.
// Non-positive values keep the defaults.
func WithLimit(limit rate.Limit, burst int) VisitorsOptFn {
	return func(vs *Visitors) {
		if limit > 0 {
			vs.limit = limit
		}

		if burst > 0 {
			vs.burst = burst
		}
	}
}

// WithVisitorTTL sets how long an unseen Visitor is remembered.
func WithVisitorTTL(ttl time.Duration) VisitorsOptFn {
	return func(vs *Visitors) {
		if ttl > 0 {
			vs.ttl = ttl
		}
	}
}

// NewVisitors constructs Visitors limited to DefaultRateLimit requests every second
// with bursts of up to DefaultRateBurst, unless opts say otherwise.
func NewVisitors(opts ...VisitorsOptFn) *Visitors {
	vs := &Visitors{
		val:   make(map[string]Visitor),
		limit: DefaultRateLimit,
		burst: DefaultRateBurst,
		ttl:   DefaultVisitorTTL,
		swept: time.Now(),
	}

	for _, opt := range opts {
		opt(vs)
	}

	return vs
}

// Fetch retrieves the Visitor for the given ip creating a new Visitor if not seen.
func (vs *Visitors) Fetch(ip string) Visitor {
	vs.Lock()
	defer vs.Unlock()

	v, ok := vs.val[ip]
	if !ok {
		v = Visitor{Limiter: rate.NewLimiter(vs.limit, vs.burst)}
	}

	v.LastSeen = time.Now().UTC()
	vs.val[ip] = v
	return v
}

// Len reports how many Visitors are remembered.
func (vs *Visitors) Len() int {
	vs.Lock()
	defer vs.Unlock()
	return len(vs.val)
}

// cleanup deletes every Visitor not seen within the ttl.
// It sweeps at most once per visitorCleanupEach.
func (vs *Visitors) cleanup() {
	vs.Lock()
	defer vs.Unlock()

	if time.Since(vs.swept) < visitorCleanupEach {
		return
	}

	vs.swept = time.Now()
	for ip, v := range vs.val {
		if time.Since(v.LastSeen) > vs.ttl {
			delete(vs.val, ip)
		}
	}
}

// RateLimit encloses the Visitors map and serves the http.Handler.
// Requests over the limit receive a 429 with the standard JSON error body.
//
// NOTE: implementation found here:
// https://www.alexedwards.net/blog/how-to-rate-limit-http-requests
func RateLimit(visitors *Visitors) Adapter {
	if visitors == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !visitors.Fetch(GetIPAddress(r.Header)).Limiter.Allow() {
				writeError(w, http.StatusTooManyRequests)
				return
			}

			visitors.cleanup()
			h.ServeHTTP(w, r)
		})
	}
}
