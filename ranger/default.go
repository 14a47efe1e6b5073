package ranger

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/middleware"
	"github.com/xy-planning-network/trailhead/http/resp"
	"github.com/xy-planning-network/trailhead/logger"
	"golang.org/x/time/rate"
)

// defaultAppLogger constructs a [logger.Logger] configured for use in the application.
func defaultAppLogger(cfg Config, output io.Writer) logger.Logger {
	slogger := newSlogger(trailhead.AppLogKind, cfg, output)
	l := logger.New(slogger)
	l.Debug("setting up app logger", nil)

	var out logger.Logger = l
	if cfg.SentryDSN != "" {
		out = logger.NewSentryLogger(cfg.Env, l, cfg.SentryDSN)
		out.Debug("using SentryLogger for app logger", nil)
	}

	slog.SetDefault(slogger)

	return out
}

// defaultHTTPLogger constructs a [*log/slog.Logger] for access logging.
func defaultHTTPLogger(cfg Config, output io.Writer) *slog.Logger {
	sl := newSlogger(trailhead.HTTPLogKind, cfg, output)
	sl.Debug("setting up HTTP access logger")

	return sl
}

// newSlogger toggles constructing the specific [*log/slog.Logger]
// from the given parameters.
//
// Outside of development, or when LogJSON is set, records are JSON.
// Application records carry their source; access records do not.
func newSlogger(kind slog.Value, cfg Config, out io.Writer) *slog.Logger {
	lvl := new(slog.LevelVar)
	lvl.Set(trailhead.NewLogLevel(cfg.LogLevel))

	useJSON := !cfg.Env.IsDevelopment() || cfg.LogJSON
	isApp := kind.String() == trailhead.AppLogKind.String()

	opts := &slog.HandlerOptions{Level: lvl}
	switch {
	case isApp && useJSON:
		opts.AddSource = true
		opts.ReplaceAttr = logger.TruncSourceAttr

	case isApp:
		opts.AddSource = true
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			a = logger.ColorizeLevel(groups, a)
			return logger.TruncSourceAttr(groups, a)
		}

	case !useJSON:
		opts.ReplaceAttr = logger.ColorizeLevel
	}

	var handler slog.Handler
	if useJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		{Key: trailhead.LogKindKey, Value: kind},
	})

	return slog.New(handler)
}

// defaultRegistry constructs the registry dispatch metrics are kept in,
// along with the usual process and Go runtime collectors.
func defaultRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

// defaultResponder configures the [*resp.Responder] the front controller writes through.
func defaultResponder(cfg Config, l logger.Logger) *resp.Responder {
	args := []resp.ResponderOptFn{resp.WithLogger(l)}
	if cfg.ErrMsg != "" {
		args = append(args, resp.WithErrMsg(cfg.ErrMsg))
	}

	return resp.NewResponder(args...)
}

// defaultVisitors constructs the rate limiter state,
// or nil when RateLimit is zero and requests go unlimited.
func defaultVisitors(cfg Config) *middleware.Visitors {
	if cfg.RateLimit == 0 {
		return nil
	}

	return middleware.NewVisitors(middleware.WithLimit(rate.Limit(cfg.RateLimit), cfg.RateBurst))
}

// defaultMiddlewares returns the adapters wrapping every request, outermost first.
func defaultMiddlewares(cfg Config, httpLog *slog.Logger, vs *middleware.Visitors) []middleware.Adapter {
	return []middleware.Adapter{
		middleware.ReportPanic(cfg.Env),
		middleware.RequestID(),
		middleware.InjectIPAddress(),
		middleware.LogRequest(httpLog),
		middleware.RateLimit(vs),
		middleware.CORS(cfg.CORSOrigin),
	}
}

// defaultServer constructs a default [*http.Server].
func defaultServer(ctx context.Context, cfg Config) *http.Server {
	srv := &http.Server{
		Addr:         cfg.Addr(),
		IdleTimeout:  cfg.IdleTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if ctx != nil {
		srv.BaseContext = func(_ net.Listener) context.Context { return ctx }
	}

	return srv
}
