package logger

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/xy-planning-network/trailhead"
)

// A SentryLogger writes through another Logger
// and ships warnings and errors carrying a LogContext.Error to Sentry.
type SentryLogger struct {
	l Logger
}

// NewSentryLogger initializes the Sentry client with dsn and wraps l.
// If Sentry cannot be initialized, the error is logged and l returns unchanged.
func NewSentryLogger(env trailhead.Environment, l Logger, dsn string) Logger {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:          dsn,
		Environment:  env.String(),
		IgnoreErrors: []string{"write: broken pipe"},
	})
	if err != nil {
		l.Error(fmt.Sprintf("unable to init Sentry: %s", err), nil)
		return l
	}

	if sl, ok := l.(SkipLogger); ok {
		l = sl.AddSkip(1 + sl.Skip())
	}

	return &SentryLogger{l: l}
}

// Debug writes a debug log.
func (sl *SentryLogger) Debug(msg string, ctx *LogContext) { sl.l.Debug(msg, ctx) }

// Error writes an error log and sends it to Sentry.
func (sl *SentryLogger) Error(msg string, ctx *LogContext) {
	sl.l.Error(msg, ctx)
	sl.send(sentry.LevelError, ctx)
}

// Info writes an info log.
func (sl *SentryLogger) Info(msg string, ctx *LogContext) { sl.l.Info(msg, ctx) }

// Warn writes a warning log and sends it to Sentry.
func (sl *SentryLogger) Warn(msg string, ctx *LogContext) {
	sl.l.Warn(msg, ctx)
	sl.send(sentry.LevelWarning, ctx)
}

// Flush waits up to timeout for buffered events to reach Sentry.
func (sl *SentryLogger) Flush(timeout time.Duration) bool { return sentry.Flush(timeout) }

// send ships the LogContext.Error to Sentry,
// including any additional data from LogContext.
func (sl *SentryLogger) send(level sentry.Level, ctx *LogContext) {
	if ctx == nil || ctx.Error == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		if ctx.Request != nil {
			scope.SetRequest(ctx.Request)
		}

		if ctx.Route != "" {
			scope.SetTag("route", ctx.Route)
		}

		if ctx.Data != nil {
			scope.SetExtra("data", ctx.Data)
		}

		scope.SetLevel(level)
		sentry.CaptureException(ctx.Error)
	})
}
