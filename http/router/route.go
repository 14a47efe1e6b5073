package router

import (
	"errors"
	"fmt"
	"strings"

	v10 "github.com/go-playground/validator/v10"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/req"
	"github.com/xy-planning-network/trailhead/http/resp"
)

//go:generate mockgen -destination=routertest/mock_handler.go -package=routertest . Handler

// A Handler builds the response for a request matching its Route.
//
// Invoke receives nil Params when the Route matched literally.
// Errors are returned to the caller of Dispatch as-is.
type Handler interface {
	Invoke(r *req.Request, p Params) (resp.Envelope, error)
}

// The HandlerFunc type is an adapter to allow the use of ordinary functions as Handlers.
type HandlerFunc func(r *req.Request, p Params) (resp.Envelope, error)

func (fn HandlerFunc) Invoke(r *req.Request, p Params) (resp.Envelope, error) { return fn(r, p) }

// A Route maps an HTTP method and a path pattern to a Handler.
//
// Path may contain placeholders such as "/users/{id}";
// each matches one or more characters other than "/".
type Route struct {
	Method  string  `validate:"required,uppercase,alpha"`
	Path    string  `validate:"required,startswith=/"`
	Handler Handler `validate:"required"`
}

func (r Route) String() string { return r.Method + " " + r.Path }

var routeValidator = v10.New()

// validate reports every problem with r's fields as one ErrBadConfig.
func (r Route) validate() error {
	err := routeValidator.Struct(r)
	if err == nil {
		return nil
	}

	var errs v10.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: route %s: %s", trailhead.ErrBadConfig, r, err)
	}

	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}

		msgs = append(msgs, fmt.Sprintf("%s must be %s", fe.Field(), rule))
	}

	return fmt.Errorf("%w: route %s: %s", trailhead.ErrBadConfig, r, strings.Join(msgs, "; "))
}
