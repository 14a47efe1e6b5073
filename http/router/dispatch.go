package router

import (
	"time"

	"github.com/xy-planning-network/trailhead/http/req"
	"github.com/xy-planning-network/trailhead/http/resp"
	"github.com/xy-planning-network/trailhead/logger"
)

// DefaultRouteParam is the query parameter a Dispatcher reads the path from.
const DefaultRouteParam = "route"

const dispatcherFrames = 1

// A Dispatcher sends each request to exactly one Handler.
//
// The path is read from a query parameter rather than the request line,
// so the host may mount the Dispatcher behind any URL rewriting.
type Dispatcher struct {
	table      *Table
	routeParam string
	logger     logger.Logger
	metrics    *Metrics
}

// A DispatcherOptFn configures a Dispatcher.
type DispatcherOptFn func(*Dispatcher)

// WithRouteParam sets the query parameter holding the path.
func WithRouteParam(name string) DispatcherOptFn {
	return func(d *Dispatcher) {
		if name != "" {
			d.routeParam = name
		}
	}
}

// WithLogger sets the Logger dispatches are logged through at debug level.
func WithLogger(l logger.Logger) DispatcherOptFn {
	return func(d *Dispatcher) { d.logger = l }
}

// WithMetrics records every dispatch in m.
func WithMetrics(m *Metrics) DispatcherOptFn {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher constructs a *Dispatcher resolving against t.
// t must not be registered to once dispatching begins.
func NewDispatcher(t *Table, opts ...DispatcherOptFn) *Dispatcher {
	d := &Dispatcher{table: t, routeParam: DefaultRouteParam}
	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = logger.New(nil)
	}

	if l, ok := d.logger.(logger.SkipLogger); ok {
		d.logger = l.AddSkip(dispatcherFrames)
	}

	return d
}

// RouteParam is the query parameter d reads the path from.
func (d *Dispatcher) RouteParam() string { return d.routeParam }

// Dispatch resolves r and invokes the matching Handler.
//
// A 404 or 405 is an ordinary Envelope, not an error.
// Errors reading the method or path from r and errors returned by the Handler
// are returned unchanged.
func (d *Dispatcher) Dispatch(r *req.Request) (resp.Envelope, error) {
	start := time.Now()

	method, err := r.Method()
	if err != nil {
		return resp.Envelope{}, err
	}

	path, err := r.Query().String(d.routeParam, "/")
	if err != nil {
		return resp.Envelope{}, err
	}

	m := d.table.Resolve(method, path)

	var e resp.Envelope
	switch m.Outcome {
	case OutcomeExact:
		e, err = m.Route.Handler.Invoke(r, nil)
	case OutcomePlaceholder:
		e, err = m.Route.Handler.Invoke(r, m.Params)
	case OutcomeMethodNotAllowed:
		e = resp.MethodNotAllowed(m.Allowed...)
	default:
		e = resp.NotFound()
	}

	code := e.Code()
	if err != nil {
		code = 0
	}
	d.metrics.observe(method, m.Route.Path, m.Outcome, code, time.Since(start))

	lc := &logger.LogContext{Route: m.Route.Path, Params: m.Params.Map(), Error: err}
	if len(lc.Params) == 0 {
		lc.Params = nil
	}

	if err != nil {
		d.logger.Debug("handler failed for "+method+" "+NormalizePath(path), lc)
		return resp.Envelope{}, err
	}

	d.logger.Debug(m.Outcome.String()+" "+method+" "+NormalizePath(path), lc)
	return e, nil
}
