package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/middleware"
)

func TestRequestID(t *testing.T) {
	// Arrange
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)

	var val, header string

	// Act
	middleware.RequestID()(http.HandlerFunc(func(wx http.ResponseWriter, rx *http.Request) {
		val, _ = rx.Context().Value(trailhead.RequestIDKey).(string)
		header = rx.Header.Get(trailhead.RequestIDHeader)
	})).ServeHTTP(w, r)

	// Assert
	_, err := uuid.Parse(val)
	require.NoError(t, err)
	require.Equal(t, val, header)
	require.Equal(t, val, w.Header().Get(trailhead.RequestIDHeader))
	require.Empty(t, r.Header.Get(trailhead.RequestIDHeader))
}

func TestRequestIDIncoming(t *testing.T) {
	tcs := []struct {
		name     string
		incoming string
		kept     bool
	}{
		{"Valid-UUID", "0b7c1a0e-8f5a-4f4b-9d51-6a4c8f1f2e3d", true},
		{"Garbage", "not-a-uuid\r\n", false},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set(trailhead.RequestIDHeader, tc.incoming)

			// Act
			middleware.RequestID()(NoopHandler()).ServeHTTP(w, r)

			// Assert
			actual := w.Header().Get(trailhead.RequestIDHeader)
			require.Equal(t, tc.kept, actual == tc.incoming)
			_, err := uuid.Parse(actual)
			require.NoError(t, err)
		})
	}
}
