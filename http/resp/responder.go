package resp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/logger"
)

const responderFrames = 1

// Responder writes Envelopes to clients.
//
// Most oftentimes, a single instance of a Responder suffices for an application.
// Handlers build Envelopes; the host hands them to a Responder,
// so no handler ever touches an http.ResponseWriter.
type Responder struct {
	logger logger.Logger

	// Message clients see in place of unexpected errors
	errMsg string
}

// NewResponder constructs a *Responder using the ResponderOptFns passed in.
func NewResponder(opts ...ResponderOptFn) *Responder {
	d := &Responder{errMsg: http.StatusText(http.StatusInternalServerError)}
	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = logger.New(nil)
	}

	if l, ok := d.logger.(logger.SkipLogger); ok {
		d.logger = l.AddSkip(responderFrames)
	}

	return d
}

// Write emits e to w.
//
// Write sets Content-Length when e has a body and omits the body for HEAD requests.
func (doer *Responder) Write(w http.ResponseWriter, r *http.Request, e Envelope) error {
	if e.code == 0 {
		return fmt.Errorf("%w: zero Envelope", trailhead.ErrMissingData)
	}

	h := w.Header()
	for k, vals := range e.header {
		h[k] = append([]string(nil), vals...)
	}

	bodyless := r != nil && r.Method == http.MethodHead ||
		e.code == http.StatusNoContent || e.code == http.StatusNotModified || e.code < http.StatusOK

	if len(e.body) > 0 && h.Get("Content-Length") == "" && !bodyless {
		h.Set("Content-Length", strconv.Itoa(len(e.body)))
	}

	w.WriteHeader(e.code)
	if bodyless || len(e.body) == 0 {
		return nil
	}

	if _, err := w.Write(e.body); err != nil {
		return fmt.Errorf("%w: writing body: %s", trailhead.ErrUnexpected, err)
	}

	return nil
}

// Err converts err into an error Envelope and writes it to w.
//
// Errors from untrusted input (ErrTypeMismatch, ErrNotValid, ErrBadFormat)
// respond 400 Bad Request with err's message.
// Anything else responds 500 Internal Server Error with the configured error message
// and is logged as an error.
func (doer *Responder) Err(w http.ResponseWriter, r *http.Request, err error) error {
	code, msg := Classify(err, doer.errMsg)

	lc := &logger.LogContext{Request: r, Error: err}
	if code == http.StatusInternalServerError {
		doer.logger.Error("unexpected error handling request", lc)
	} else {
		doer.logger.Warn("bad request", lc)
	}

	e, nested := Error(code, msg)
	if nested != nil {
		e, _ = Error(code, http.StatusText(code))
	}

	return doer.Write(w, r, e)
}

// Classify maps err to the status code and client-facing message Err responds with.
// fallback is the message for unexpected errors.
func Classify(err error, fallback string) (int, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, fallback
	case errors.Is(err, trailhead.ErrTypeMismatch),
		errors.Is(err, trailhead.ErrNotValid),
		errors.Is(err, trailhead.ErrBadFormat):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, fallback
	}
}
