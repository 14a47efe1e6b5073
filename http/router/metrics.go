package router

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "trailhead"
	metricsSubsystem = "dispatch"

	// unmatchedRoute labels dispatches that resolved to no Route.
	unmatchedRoute = "none"
)

// Metrics records every dispatch: a counter by method, route, outcome and status
// and a latency histogram by method and outcome.
// A nil *Metrics records nothing.
type Metrics struct {
	dispatched *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics constructs Metrics registered with reg,
// reusing collectors a previous call already registered.
// A nil reg uses [prometheus.DefaultRegisterer].
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		dispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "requests_total",
				Help:      "Total number of dispatched requests by method, route, outcome and status code",
			},
			[]string{"method", "route", "outcome", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "duration_seconds",
				Help:      "Duration of dispatch, including the handler, in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "outcome"},
		),
	}

	if err := reg.Register(m.dispatched); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}

		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		m.dispatched = existing
	}

	if err := reg.Register(m.duration); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}

		existing, ok := already.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, err
		}
		m.duration = existing
	}

	return m, nil
}

// observe records one dispatch.
// code is 0 when the handler failed.
func (m *Metrics) observe(method, route string, outcome Outcome, code int, elapsed time.Duration) {
	if m == nil {
		return
	}

	if route == "" {
		route = unmatchedRoute
	}

	status := "error"
	if code != 0 {
		status = strconv.Itoa(code)
	}

	method = methodLabel(method)
	m.dispatched.WithLabelValues(method, route, outcome.String(), status).Inc()
	m.duration.WithLabelValues(method, outcome.String()).Observe(elapsed.Seconds())
}

// methodLabel bounds label cardinality to the standard methods.
func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace:
		return method
	default:
		return "OTHER"
	}
}
