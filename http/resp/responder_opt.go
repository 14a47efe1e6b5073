package resp

import "github.com/xy-planning-network/trailhead/logger"

// A ResponderOptFn mutates the provided *Responder in some way.
// A ResponderOptFn is used when constructing a new Responder.
type ResponderOptFn func(*Responder)

// WithErrMsg sets the message clients see when an unexpected error occurs.
func WithErrMsg(msg string) ResponderOptFn {
	return func(d *Responder) {
		if msg != "" {
			d.errMsg = msg
		}
	}
}

// WithLogger sets the provided implementation of Logger in order to log all statements through it.
//
// If no Logger is provided through this option, one writing through slog.Default is configured.
func WithLogger(log logger.Logger) ResponderOptFn {
	return func(d *Responder) {
		d.logger = log
	}
}
