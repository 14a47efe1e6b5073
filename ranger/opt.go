package ranger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xy-planning-network/trailhead/http/middleware"
	"github.com/xy-planning-network/trailhead/http/resp"
	"github.com/xy-planning-network/trailhead/logger"
)

// A RangerOption configures a *Ranger either (1) directly, immediately upon being called
// or (2) in the OptFollowup it returns.
// Some RangerOptions require the Config or defaults set by New,
// and thus an OptFollowup can be returned in order to be called
// once that data is available.
//
// WithConfig is an example of the first.
// An unexported field on the passed in *Ranger is updated with the enclosed value.
//
// WithServer is an example of the second.
// The *http.Server is adopted only when the closure it returns is called.
type RangerOption func(rng *Ranger) (OptFollowup, error)
type OptFollowup func() error

// WithConfig uses cfg instead of calling LoadConfig.
func WithConfig(cfg Config) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.cfg = cfg
		rng.cfgSet = true

		return nil, nil
	}
}

// WithContext sets the base context of every request and stops Guide once ctx is done.
func WithContext(ctx context.Context) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if ctx == nil {
			return nil, errors.New("nil context")
		}

		rng.ctx = ctx

		return nil, nil
	}
}

// WithLogger sets the application logger.
func WithLogger(l logger.Logger) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.l = l

		return nil, nil
	}
}

// WithHTTPLogger sets the access logger handed to middleware.LogRequest.
func WithHTTPLogger(l *slog.Logger) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.httpLog = l

		return nil, nil
	}
}

// WithLogOutput sends the default loggers' records to w.
func WithLogOutput(w io.Writer) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.logOut = w

		return nil, nil
	}
}

// WithMiddlewares appends adapters after the defaults,
// so they run closest to the mounted endpoints.
func WithMiddlewares(adpts ...middleware.Adapter) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.mws = append(rng.mws, adpts...)

		return nil, nil
	}
}

// WithRegistry keeps dispatch metrics in reg and serves reg at the metrics path.
func WithRegistry(reg *prometheus.Registry) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.registry = reg

		return nil, nil
	}
}

// WithResponder sets the *resp.Responder the front controller writes through.
func WithResponder(r *resp.Responder) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.responder = r

		return nil, nil
	}
}

// WithServer constructs a followup option that, when called,
// adopts s as the web server.
// An empty s.Addr is replaced with the configured address.
func WithServer(s *http.Server) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		if s == nil {
			return nil, errors.New("nil server")
		}

		return func() error {
			if s.Addr == "" {
				s.Addr = rng.cfg.Addr()
			}

			rng.srv = s
			rng.l.Debug("using provided server", nil)

			return nil
		}, nil
	}
}
