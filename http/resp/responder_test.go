package resp_test

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/req"
	"github.com/xy-planning-network/trailhead/http/resp"
	"github.com/xy-planning-network/trailhead/logger"
)

func newTestResponder(opts ...resp.ResponderOptFn) (*resp.Responder, *bytes.Buffer) {
	b := new(bytes.Buffer)
	l := logger.New(slog.New(slog.NewJSONHandler(b, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return resp.NewResponder(append([]resp.ResponderOptFn{resp.WithLogger(l)}, opts...)...), b
}

func TestResponderWrite(t *testing.T) {
	// Arrange
	d, _ := newTestResponder()
	e, err := resp.JSON(http.StatusCreated, map[string]int{"id": 7}, resp.Header("X-Trace", "abc"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", nil)

	// Act
	err = d.Write(w, r, e)

	// Assert
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, `{"id":7}`, w.Body.String())
	require.Equal(t, "abc", w.Header().Get("X-Trace"))
	require.Equal(t, resp.ContentTypeJSON, w.Header().Get("Content-Type"))
	require.Equal(t, "8", w.Header().Get("Content-Length"))
}

func TestResponderWriteHead(t *testing.T) {
	// Arrange
	d, _ := newTestResponder()
	e, err := resp.Text(http.StatusOK, "hello")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodHead, "/", nil)

	// Act
	err = d.Write(w, r, e)

	// Assert
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Body.String())
}

func TestResponderWriteRedirect(t *testing.T) {
	// Arrange
	d, _ := newTestResponder()
	e, err := resp.Redirect("/login", http.StatusSeeOther)
	require.NoError(t, err)

	w := httptest.NewRecorder()

	// Act
	err = d.Write(w, httptest.NewRequest(http.MethodGet, "/", nil), e)

	// Assert
	require.NoError(t, err)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))
}

func TestResponderWriteZero(t *testing.T) {
	// Arrange
	d, _ := newTestResponder()
	w := httptest.NewRecorder()

	// Act
	err := d.Write(w, httptest.NewRequest(http.MethodGet, "/", nil), resp.Envelope{})

	// Assert
	require.ErrorIs(t, err, trailhead.ErrMissingData)
}

func TestResponderErr(t *testing.T) {
	tcs := []struct {
		name     string
		err      error
		code     int
		body     string
		logLevel string
	}{
		{
			"type-mismatch",
			fmt.Errorf("reading id: %w", &req.TypeMismatchError{Key: "id", Expected: req.KindInt, Actual: req.KindString}),
			http.StatusBadRequest,
			`{"error":"reading id: type mismatch: key \"id\": expected int, got string","code":"HTTP_400"}`,
			"WARN",
		},
		{
			"bad-format",
			fmt.Errorf("%w: body", trailhead.ErrBadFormat),
			http.StatusBadRequest,
			`{"error":"bad format: body","code":"HTTP_400"}`,
			"WARN",
		},
		{
			"unexpected",
			errors.New("db on fire"),
			http.StatusInternalServerError,
			`{"error":"something went wrong","code":"HTTP_500"}`,
			"ERROR",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			d, logs := newTestResponder(resp.WithErrMsg("something went wrong"))
			w := httptest.NewRecorder()

			// Act
			err := d.Err(w, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)

			// Assert
			require.NoError(t, err)
			require.Equal(t, tc.code, w.Code)
			require.JSONEq(t, tc.body, w.Body.String())
			require.Contains(t, logs.String(), `"level":"`+tc.logLevel+`"`)
		})
	}
}
