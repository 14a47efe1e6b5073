package ranger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	// TODO(dlk): configurable env files
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/middleware"
	"github.com/xy-planning-network/trailhead/http/req"
	"github.com/xy-planning-network/trailhead/http/resp"
	"github.com/xy-planning-network/trailhead/http/router"
	"github.com/xy-planning-network/trailhead/logger"
)

// A Ranger hosts a route Table behind a web server.
//
// Every request reaching the mount path is built into a [req.Request] once,
// dispatched, and its [resp.Envelope] written back.
type Ranger struct {
	cfg    Config
	cfgSet bool

	ctx        context.Context
	dispatcher *router.Dispatcher
	handler    http.Handler
	httpLog    *slog.Logger
	l          logger.Logger
	logOut     io.Writer
	metrics    *router.Metrics
	mws        []middleware.Adapter
	registry   *prometheus.Registry
	responder  *resp.Responder
	srv        *http.Server
	table      *router.Table

	buildOpts []req.BuildOptFn
}

// New constructs a Ranger serving table.
// Options are applied first; whatever they leave unset is filled in with defaults,
// reading configuration with LoadConfig unless WithConfig supplies it.
//
// Every error New returns wraps [trailhead.ErrBadConfig].
func New(table *router.Table, opts ...RangerOption) (*Ranger, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil route table", trailhead.ErrBadConfig)
	}

	rng := &Ranger{table: table}
	followups := make([]OptFollowup, 0)

	// NOTE(dlk): some options, like WithServer, need the Config or a logger;
	// they return an OptFollowup called once defaults are in place.
	for _, opt := range opts {
		fn, err := opt(rng)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", trailhead.ErrBadConfig, err)
		}

		if fn != nil {
			followups = append(followups, fn)
		}
	}

	if err := rng.setDefaults(); err != nil {
		return nil, err
	}

	for _, fn := range followups {
		if err := fn(); err != nil {
			return nil, fmt.Errorf("%w: %s", trailhead.ErrBadConfig, err)
		}
	}

	rng.handler = middleware.Chain(rng.routes(), rng.mws...)
	rng.srv.Handler = rng.handler

	rng.l.Debug(fmt.Sprintf("serving %d routes at %s", table.Len(), rng.cfg.MountPath), nil)

	return rng, nil
}

// setDefaults fills in every component an option did not supply.
func (rng *Ranger) setDefaults() error {
	if !rng.cfgSet {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}

		rng.cfg = cfg
	}

	if err := rng.cfg.Validate(); err != nil {
		return err
	}

	if rng.ctx == nil {
		rng.ctx = context.Background()
	}

	if rng.logOut == nil {
		rng.logOut = os.Stdout
	}

	if rng.l == nil {
		rng.l = defaultAppLogger(rng.cfg, rng.logOut)
	}

	if rng.httpLog == nil {
		rng.httpLog = defaultHTTPLogger(rng.cfg, rng.logOut)
	}

	if rng.registry == nil {
		rng.registry = defaultRegistry()
	}

	m, err := router.NewMetrics(rng.registry)
	if err != nil {
		return fmt.Errorf("%w: %s", trailhead.ErrBadConfig, err)
	}
	rng.metrics = m

	if rng.responder == nil {
		rng.responder = defaultResponder(rng.cfg, rng.l)
	}

	rng.dispatcher = router.NewDispatcher(
		rng.table,
		router.WithRouteParam(rng.cfg.RouteParam),
		router.WithLogger(rng.l),
		router.WithMetrics(rng.metrics),
	)

	rng.buildOpts, err = rng.cfg.buildOpts()
	if err != nil {
		return err
	}

	rng.mws = append(defaultMiddlewares(rng.cfg, rng.httpLog, defaultVisitors(rng.cfg)), rng.mws...)

	if rng.srv == nil {
		rng.srv = defaultServer(rng.ctx, rng.cfg)
	}

	return nil
}

// routes mounts the health check, metrics and the front controller on a gorilla/mux router.
// The front controller claims everything under the mount path the others do not.
func (rng *Ranger) routes() http.Handler {
	m := mux.NewRouter()
	m.HandleFunc(rng.cfg.HealthPath, rng.health).Methods(http.MethodGet, http.MethodHead)

	if rng.cfg.MetricsPath != "" {
		m.Handle(rng.cfg.MetricsPath, promhttp.HandlerFor(rng.registry, promhttp.HandlerOpts{})).
			Methods(http.MethodGet)
	}

	m.PathPrefix(rng.cfg.MountPath).HandlerFunc(rng.serveDispatch)
	m.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rng.responder.Write(w, r, resp.NotFound())
	})
	m.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rng.responder.Write(w, r, resp.MethodNotAllowed())
	})

	return m
}

// serveDispatch is the front controller: build, dispatch, emit, close.
func (rng *Ranger) serveDispatch(w http.ResponseWriter, r *http.Request) {
	request, err := req.FromHTTP(r, rng.buildOpts...)
	if err != nil {
		rng.responder.Err(w, r, err)
		return
	}

	defer func() {
		if err := request.Close(); err != nil {
			rng.l.Warn(err.Error(), &logger.LogContext{Request: r, Error: err})
		}
	}()

	e, err := rng.dispatcher.Dispatch(request)
	if err != nil {
		rng.responder.Err(w, r, err)
		return
	}

	// Only a zero Envelope fails before the status line is sent.
	if err := rng.responder.Write(w, r, e); err != nil {
		if errors.Is(err, trailhead.ErrMissingData) {
			rng.responder.Err(w, r, err)
			return
		}

		rng.l.Error(err.Error(), &logger.LogContext{Request: r, Error: err})
	}
}

func (rng *Ranger) health(w http.ResponseWriter, r *http.Request) {
	e, err := resp.JSON(http.StatusOK, map[string]string{"status": "ok"})
	if err != nil {
		rng.responder.Err(w, r, err)
		return
	}

	rng.responder.Write(w, r, e)
}

func (rng *Ranger) Config() Config                   { return rng.cfg }
func (rng *Ranger) EmitDispatcher() *router.Dispatcher { return rng.dispatcher }
func (rng *Ranger) EmitLogger() logger.Logger          { return rng.l }
func (rng *Ranger) EmitRegistry() *prometheus.Registry { return rng.registry }

// ServeHTTP serves r through the middleware chain and mounted endpoints.
func (rng *Ranger) ServeHTTP(w http.ResponseWriter, r *http.Request) { rng.handler.ServeHTTP(w, r) }

// Guide begins the web server.
//
// These, and (*Ranger).Shutdown, stop Guide:
//
// - cancelling the context passed to WithContext
// - os.Interrupt
// - syscall.SIGHUP
// - syscall.SIGINT
// - syscall.SIGQUIT
// - syscall.SIGTERM
func (rng *Ranger) Guide() error {
	ctx, cancel := signal.NotifyContext(
		rng.ctx,
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	defer cancel()

	errs := make(chan error, 1)
	go func() {
		rng.l.Info(fmt.Sprintf("running web server at %s", rng.srv.Addr), nil)
		if err := rng.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("could not listen: %w", err)
		}
		close(errs)
	}()

	select {
	case err, ok := <-errs:
		if ok {
			rng.l.Error(err.Error(), &logger.LogContext{Error: err})
			return err
		}

		return nil

	case <-ctx.Done():
		rng.l.Info("received shutdown signal", nil)
	}

	return rng.Shutdown()
}

// Shutdown drains the web server, waiting at most the configured ShutdownTimeout.
func (rng *Ranger) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), rng.cfg.ShutdownTimeout)
	defer cancel()

	rng.l.Info("shutting down web server", nil)
	err := rng.srv.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("could not shutdown: %w", err)
	}

	if f, ok := rng.l.(interface{ Flush(time.Duration) bool }); ok {
		f.Flush(rng.cfg.ShutdownTimeout)
	}

	rng.l.Info("web server shutdown successfully", nil)
	return nil
}
