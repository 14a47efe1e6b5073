package logger

import (
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"runtime"

	"github.com/xy-planning-network/trailhead"
)

var _ slog.LogValuer = LogContext{}

// A LogContext provides additional information and configuration
// for a [Logger] method that cannot be tersely captured in the message itself.
type LogContext struct {
	// Caller overrides the caller file and line number with the provided value.
	//
	// Caller helps goroutines identify the callers of the process that spawned it.
	Caller string

	// Data is any information pertinent at the time of the logging event.
	Data map[string]any

	// Error is the error that may or may not have instigated a logging event.
	Error error

	// Params are the placeholder values extracted while dispatching.
	Params map[string]string

	// Request is the *http.Request that may or may not have been open during the logging event.
	Request *http.Request

	// Route is the pattern of the route being dispatched to.
	Route string
}

// LogValue groups the set fields of lc, masking sensitive query parameters.
//
// LogValue implements [log/slog.LogValuer].
func (lc LogContext) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 6)
	if lc.Caller != "" {
		attrs = append(attrs, slog.String("caller", lc.Caller))
	}

	if lc.Error != nil {
		attrs = append(attrs, slog.String("error", lc.Error.Error()))
	}

	if lc.Route != "" {
		attrs = append(attrs, slog.String("route", lc.Route))
	}

	if len(lc.Params) > 0 {
		attrs = append(attrs, slog.Any("params", lc.Params))
	}

	if lc.Data != nil {
		attrs = append(attrs, slog.Any("data", lc.Data))
	}

	if lc.Request != nil && lc.Request.URL != nil {
		q := lc.Request.URL.Query()
		trailhead.MaskAll(q)
		attrs = append(attrs, slog.Group(
			"request",
			slog.String("method", lc.Request.Method),
			slog.String("path", lc.Request.URL.Path),
			slog.String("query", q.Encode()),
		))
	}

	return slog.GroupValue(attrs...)
}

// CurrentCaller retrieves the caller for the caller of CurrentCaller,
// formatted for using as a value in LogContext.Caller.
//
//	myFunc() { 		<- returns this caller
//		func() {
//			CurrentCaller()
//		}()
//	}
func CurrentCaller() string {
	_, file, line, _ := runtime.Caller(2)
	return fmt.Sprintf("%s:%d", immediateFilepath(file), line)
}

// immediateFilepath trims file to its parent directory and name,
// e.g., /home/dlk/my-project/internal/internal.go => internal/internal.go
func immediateFilepath(file string) string {
	dir, name := path.Split(file)
	return path.Join(path.Base(dir), name)
}
