package router

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/req"
	"github.com/xy-planning-network/trailhead/http/resp"
)

// An Outcome is how a method and path resolved against a Table.
type Outcome int

const (
	OutcomeNotFound Outcome = iota
	OutcomeExact
	OutcomePlaceholder
	OutcomeMethodNotAllowed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return "not_found"
	case OutcomeExact:
		return "exact"
	case OutcomePlaceholder:
		return "placeholder"
	case OutcomeMethodNotAllowed:
		return "method_not_allowed"
	default:
		return "unknown"
	}
}

func (o Outcome) Valid() error {
	switch o {
	case OutcomeNotFound, OutcomeExact, OutcomePlaceholder, OutcomeMethodNotAllowed:
		return nil
	default:
		return trailhead.ErrNotValid
	}
}

// A Match is the result of Resolve.
type Match struct {
	Outcome Outcome

	// Route is set for OutcomeExact and OutcomePlaceholder.
	Route Route

	// Params is set for OutcomePlaceholder.
	Params Params

	// Allowed lists, in registration order, the methods registered
	// for the literal path when Outcome is OutcomeMethodNotAllowed.
	Allowed []string
}

type routeKey struct {
	method string
	path   string
}

type entry struct {
	route   Route
	pattern pattern
}

// A Table holds the registered Routes of an application.
//
// Register every Route before serving:
// a Table is not safe for registration concurrent with Resolve,
// but any number of goroutines may Resolve once registration is done.
type Table struct {
	entries []entry
	exact   map[routeKey]int
}

func NewTable() *Table {
	return &Table{exact: make(map[routeKey]int)}
}

// Register adds route to t.
//
// An invalid route returns an error wrapping [trailhead.ErrBadConfig].
// A route whose method and literal path are already registered
// returns an error wrapping [trailhead.ErrDuplicateRoute].
// Different patterns that could match the same path are accepted;
// the one registered first wins.
func (t *Table) Register(route Route) error {
	if err := route.validate(); err != nil {
		return err
	}

	p, err := compilePattern(route.Path)
	if err != nil {
		return err
	}

	key := routeKey{route.Method, route.Path}
	if _, ok := t.exact[key]; ok {
		return fmt.Errorf("%w: %s", trailhead.ErrDuplicateRoute, route)
	}

	t.exact[key] = len(t.entries)
	t.entries = append(t.entries, entry{route: route, pattern: p})
	return nil
}

// RegisterAll registers each of routes in order, stopping at the first error.
func (t *Table) RegisterAll(routes ...Route) error {
	for _, route := range routes {
		if err := t.Register(route); err != nil {
			return err
		}
	}

	return nil
}

// Handle registers h for method and path.
func (t *Table) Handle(method, path string, h Handler) error {
	return t.Register(Route{Method: method, Path: path, Handler: h})
}

// HandleFunc registers fn for method and path.
func (t *Table) HandleFunc(method, path string, fn func(*req.Request, Params) (resp.Envelope, error)) error {
	return t.Handle(method, path, HandlerFunc(fn))
}

// Routes returns every registered Route in registration order.
func (t *Table) Routes() []Route {
	routes := make([]Route, len(t.entries))
	for i, e := range t.entries {
		routes[i] = e.route
	}

	return routes
}

// Lookup returns the Route registered for exactly method and path.
func (t *Table) Lookup(method, path string) (Route, bool) {
	i, ok := t.exact[routeKey{method, path}]
	if !ok {
		return Route{}, false
	}

	return t.entries[i].route, true
}

func (t *Table) Len() int { return len(t.entries) }

// Resolve finds what handles method and path.
//
// Resolution runs in this order:
//  1. a Route registered for exactly method and path;
//  2. any Route whose literal path equals path under another method, yielding OutcomeMethodNotAllowed;
//  3. the first Route, in registration order, with a placeholder pattern matching path and method;
//  4. OutcomeNotFound.
//
// path is normalized with NormalizePath first.
// Only literal equality counts in step 2, so a path that matches
// a placeholder pattern under another method resolves to OutcomeNotFound.
func (t *Table) Resolve(method, path string) Match {
	path = NormalizePath(path)

	if route, ok := t.Lookup(method, path); ok {
		return Match{Outcome: OutcomeExact, Route: route}
	}

	var allowed []string
	for _, e := range t.entries {
		if e.route.Path == path && !slices.Contains(allowed, e.route.Method) {
			allowed = append(allowed, e.route.Method)
		}
	}

	if len(allowed) > 0 {
		return Match{Outcome: OutcomeMethodNotAllowed, Allowed: allowed}
	}

	for _, e := range t.entries {
		if e.route.Method != method {
			continue
		}

		if params, ok := e.pattern.match(path); ok {
			return Match{Outcome: OutcomePlaceholder, Route: e.route, Params: params}
		}
	}

	return Match{Outcome: OutcomeNotFound}
}

// NormalizePath prefixes path with "/" when it does not already begin with one.
// Trailing slashes are kept: "/a" and "/a/" are different paths.
func NormalizePath(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}

	return "/" + path
}
