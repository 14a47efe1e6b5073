package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/middleware"
)

func TestReportPanic(t *testing.T) {
	for _, env := range []trailhead.Environment{trailhead.Development, trailhead.Production} {
		t.Run(env.String(), func(t *testing.T) {
			// Arrange
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			h := middleware.ReportPanic(env)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				panic("boom")
			}))

			// Act
			require.NotPanics(t, func() { h.ServeHTTP(w, r) })

			// Assert
			require.Equal(t, http.StatusInternalServerError, w.Code)
			require.JSONEq(t, `{"error":"Internal Server Error","code":"HTTP_500"}`, w.Body.String())
		})
	}
}

func TestReportPanicPassThrough(t *testing.T) {
	// Arrange
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	// Act
	middleware.ReportPanic(trailhead.Testing)(http.HandlerFunc(func(wx http.ResponseWriter, _ *http.Request) {
		wx.WriteHeader(http.StatusAccepted)
	})).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusAccepted, w.Code)
}
