package router_test

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/req"
	"github.com/xy-planning-network/trailhead/http/resp"
	"github.com/xy-planning-network/trailhead/http/router"
	"github.com/xy-planning-network/trailhead/http/router/routertest"
)

// newRequest builds a Request for method with the path in the "route" query parameter.
// An empty path leaves the parameter unset.
func newRequest(method, path string) *req.Request {
	query := map[string]req.Value{}
	if path != "" {
		query["route"] = req.StringValue(path)
	}

	server := map[string]req.Value{"REQUEST_METHOD": req.StringValue(method)}
	return req.NewRequest(req.NewValues(query), req.Values{}, req.NewValues(server), req.Values{}, req.Files{})
}

func TestDispatchExact(t *testing.T) {
	// Arrange
	ctrl := gomock.NewController(t)
	h := routertest.NewMockHandler(ctrl)

	table := router.NewTable()
	require.NoError(t, table.Handle(http.MethodGet, "/a", h))

	r := newRequest(http.MethodGet, "/a")
	expected, err := resp.Text(http.StatusOK, "a")
	require.NoError(t, err)

	h.EXPECT().Invoke(r, gomock.Nil()).Return(expected, nil)

	// Act
	actual, err := router.NewDispatcher(table).Dispatch(r)

	// Assert
	require.NoError(t, err)
	require.Equal(t, expected, actual)
}

func TestDispatchPlaceholder(t *testing.T) {
	// Arrange
	ctrl := gomock.NewController(t)
	first := routertest.NewMockHandler(ctrl)
	second := routertest.NewMockHandler(ctrl)

	table := router.NewTable()
	require.NoError(t, table.Handle(http.MethodGet, "/users/{id}", first))
	require.NoError(t, table.Handle(http.MethodGet, "/users/{name}", second))

	r := newRequest(http.MethodGet, "/users/7")
	first.EXPECT().
		Invoke(r, router.Params{{Name: "id", Value: "7"}}).
		Return(resp.NotFound(), nil)

	// Act
	actual, err := router.NewDispatcher(table).Dispatch(r)

	// Assert
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, actual.Code())
}

func TestDispatchLiteralBeatsEarlierPlaceholder(t *testing.T) {
	// Arrange
	ctrl := gomock.NewController(t)
	byID := routertest.NewMockHandler(ctrl)
	me := routertest.NewMockHandler(ctrl)

	table := router.NewTable()
	require.NoError(t, table.Handle(http.MethodGet, "/users/{id}", byID))
	require.NoError(t, table.Handle(http.MethodGet, "/users/me", me))

	r := newRequest(http.MethodGet, "/users/me")
	expected, err := resp.Text(http.StatusOK, "me")
	require.NoError(t, err)
	me.EXPECT().Invoke(r, gomock.Nil()).Return(expected, nil)

	// Act
	actual, err := router.NewDispatcher(table).Dispatch(r)

	// Assert
	require.NoError(t, err)
	require.Equal(t, expected, actual)
}

func TestDispatchNotFoundAndNotAllowed(t *testing.T) {
	// Arrange
	ctrl := gomock.NewController(t)
	h := routertest.NewMockHandler(ctrl)

	table := router.NewTable()
	require.NoError(t, table.Handle(http.MethodGet, "/a", h))
	require.NoError(t, table.Handle(http.MethodGet, "/users/{id}", h))

	d := router.NewDispatcher(table)

	tcs := []struct {
		name   string
		method string
		path   string
		code   int
		body   string
		allow  string
	}{
		{"method-not-allowed", http.MethodPost, "/a", http.StatusMethodNotAllowed, `{"error":"Method Not Allowed","code":"HTTP_405"}`, "GET"},
		{"not-found", http.MethodGet, "/zzz", http.StatusNotFound, `{"error":"Not Found","code":"HTTP_404"}`, ""},
		{"placeholder-other-method", http.MethodDelete, "/users/7", http.StatusNotFound, `{"error":"Not Found","code":"HTTP_404"}`, ""},
		{"missing-route", http.MethodGet, "", http.StatusNotFound, `{"error":"Not Found","code":"HTTP_404"}`, ""},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			actual, err := d.Dispatch(newRequest(tc.method, tc.path))

			// Assert
			require.NoError(t, err)
			require.Equal(t, tc.code, actual.Code())
			require.JSONEq(t, tc.body, string(actual.Body()))
			require.Equal(t, tc.allow, actual.Header().Get("Allow"))
		})
	}
}

func TestDispatchMissingRouteIsRoot(t *testing.T) {
	// Arrange
	ctrl := gomock.NewController(t)
	h := routertest.NewMockHandler(ctrl)

	table := router.NewTable()
	require.NoError(t, table.Handle(http.MethodGet, "/", h))

	r := newRequest(http.MethodGet, "")
	h.EXPECT().Invoke(r, gomock.Nil()).Return(resp.NotFound(), nil)

	// Act
	_, err := router.NewDispatcher(table).Dispatch(r)

	// Assert
	require.NoError(t, err)
}

func TestDispatchErrorsPropagate(t *testing.T) {
	// Arrange
	ctrl := gomock.NewController(t)
	h := routertest.NewMockHandler(ctrl)

	table := router.NewTable()
	require.NoError(t, table.Handle(http.MethodGet, "/boom", h))

	r := newRequest(http.MethodGet, "/boom")
	expected := errors.New("boom")
	h.EXPECT().Invoke(r, gomock.Nil()).Return(resp.Envelope{}, expected)

	d := router.NewDispatcher(table)

	// Act
	_, err := d.Dispatch(r)

	// Assert
	require.Equal(t, expected, err)

	// Arrange
	query := req.NewValues(map[string]req.Value{"route": req.ListValue(req.StringValue("/boom"))})
	r = req.NewRequest(query, req.Values{}, req.Values{}, req.Values{}, req.Files{})

	// Act
	_, err = d.Dispatch(r)

	// Assert
	require.ErrorIs(t, err, trailhead.ErrTypeMismatch)
}

func TestDispatchWithRouteParam(t *testing.T) {
	// Arrange
	table := router.NewTable()
	require.NoError(t, table.HandleFunc(http.MethodGet, "/items/{id}", func(r *req.Request, p router.Params) (resp.Envelope, error) {
		id, err := p.Values().Int("id", 0)
		if err != nil {
			return resp.Envelope{}, err
		}

		return resp.JSON(http.StatusOK, map[string]int64{"id": id})
	}))

	d := router.NewDispatcher(table, router.WithRouteParam("r"))
	query := req.NewValues(map[string]req.Value{"r": req.StringValue("/items/12")})

	// Act
	actual, err := d.Dispatch(req.NewRequest(query, req.Values{}, req.Values{}, req.Values{}, req.Files{}))

	// Assert
	require.NoError(t, err)
	require.Equal(t, "r", d.RouteParam())
	require.Equal(t, `{"id":12}`, string(actual.Body()))

	// Act
	_, err = d.Dispatch(newRequestWithParam("r", "/items/abc"))

	// Assert
	require.ErrorIs(t, err, trailhead.ErrTypeMismatch)
}

func newRequestWithParam(param, path string) *req.Request {
	query := req.NewValues(map[string]req.Value{param: req.StringValue(path)})
	return req.NewRequest(query, req.Values{}, req.Values{}, req.Values{}, req.Files{})
}

func TestDispatchMetrics(t *testing.T) {
	// Arrange
	reg := prometheus.NewRegistry()
	m, err := router.NewMetrics(reg)
	require.NoError(t, err)

	table := router.NewTable()
	require.NoError(t, table.Handle(http.MethodGet, "/a", okHandler("a")))
	d := router.NewDispatcher(table, router.WithMetrics(m))

	// Act
	for _, r := range []*req.Request{
		newRequest(http.MethodGet, "/a"),
		newRequest(http.MethodGet, "/zzz"),
		newRequest("BREW", "/a"),
	} {
		_, err := d.Dispatch(r)
		require.NoError(t, err)
	}

	// Assert
	expected := `
# HELP trailhead_dispatch_requests_total Total number of dispatched requests by method, route, outcome and status code
# TYPE trailhead_dispatch_requests_total counter
trailhead_dispatch_requests_total{code="200",method="GET",outcome="exact",route="/a"} 1
trailhead_dispatch_requests_total{code="404",method="GET",outcome="not_found",route="none"} 1
trailhead_dispatch_requests_total{code="405",method="OTHER",outcome="method_not_allowed",route="none"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "trailhead_dispatch_requests_total"))
	count, err := testutil.GatherAndCount(reg, "trailhead_dispatch_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 3, count)

	// Act
	again, err := router.NewMetrics(reg)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, again)
}

func TestDispatchConcurrent(t *testing.T) {
	// Arrange
	reg := prometheus.NewRegistry()
	m, err := router.NewMetrics(reg)
	require.NoError(t, err)

	table := router.NewTable()
	require.NoError(t, table.Handle(http.MethodGet, "/a", okHandler("a")))
	require.NoError(t, table.HandleFunc(http.MethodGet, "/users/{id}", func(_ *req.Request, p router.Params) (resp.Envelope, error) {
		id, _ := p.Get("id")
		return resp.Text(http.StatusOK, id)
	}))
	d := router.NewDispatcher(table, router.WithMetrics(m))

	const workers = 50
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	// Act
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()

			path, expected := "/a", "a"
			if i%2 == 1 {
				expected = strconv.Itoa(i)
				path = "/users/" + expected
			}

			e, err := d.Dispatch(newRequest(http.MethodGet, path))
			if err != nil {
				errs <- err
				return
			}

			if string(e.Body()) != expected {
				errs <- fmt.Errorf("%s: expected %q, got %q", path, expected, e.Body())
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	// Assert
	for err := range errs {
		require.NoError(t, err)
	}

	expected := `
# HELP trailhead_dispatch_requests_total Total number of dispatched requests by method, route, outcome and status code
# TYPE trailhead_dispatch_requests_total counter
trailhead_dispatch_requests_total{code="200",method="GET",outcome="exact",route="/a"} 25
trailhead_dispatch_requests_total{code="200",method="GET",outcome="placeholder",route="/users/{id}"} 25
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "trailhead_dispatch_requests_total"))
}
