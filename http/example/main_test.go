package main

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/ranger"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	table, err := newTable(newHandler())
	require.NoError(t, err)

	cfg := ranger.DefaultConfig()
	cfg.Env = trailhead.Testing
	cfg.UploadDir = t.TempDir()

	rng, err := ranger.New(
		table,
		ranger.WithConfig(cfg),
		ranger.WithRegistry(prometheus.NewRegistry()),
		ranger.WithLogOutput(new(bytes.Buffer)),
	)
	require.NoError(t, err)

	return rng
}

func TestExampleRoutes(t *testing.T) {
	// Arrange
	srv := newTestServer(t)

	tcs := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
		code        int
		expected    string
	}{
		{"root", http.MethodGet, "/?route=/", "", "", http.StatusOK, "welcome to the trailhead"},
		{"get-user", http.MethodGet, "/?route=/users/1", "", "", http.StatusOK, `{"id":1,"name":"Ada","email":"ada@example.com"}`},
		{"missing-user", http.MethodGet, "/?route=/users/99", "", "", http.StatusNotFound, `{"error":"Not Found","code":"HTTP_404"}`},
		{
			"create-user",
			http.MethodPost,
			"/?route=/users",
			"application/json",
			`{"name":"Grace","email":"grace@example.com"}`,
			http.StatusCreated,
			`{"id":2,"name":"Grace","email":"grace@example.com"}`,
		},
		{"create-user-invalid", http.MethodPost, "/?route=/users", "application/json", `{"name":"Grace","email":"nope"}`, http.StatusBadRequest, ""},
		{"file", http.MethodGet, "/?route=/files/report.pdf", "", "", http.StatusOK, `{"ext":"pdf","name":"report"}`},
		{"wrong-method", http.MethodDelete, "/?route=/users", "", "", http.StatusMethodNotAllowed, ""},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
			if tc.contentType != "" {
				r.Header.Set("Content-Type", tc.contentType)
			}

			// Act
			srv.ServeHTTP(w, r)

			// Assert
			require.Equal(t, tc.code, w.Code)
			if tc.expected != "" {
				require.Equal(t, tc.expected, w.Body.String())
			}
		})
	}
}

func TestExampleRedirect(t *testing.T) {
	// Arrange
	srv := newTestServer(t)
	w := httptest.NewRecorder()

	// Act
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?route=/old", nil))

	// Assert
	require.Equal(t, http.StatusMovedPermanently, w.Code)
	require.Equal(t, "/?route=/", w.Header().Get("Location"))
}

func TestExampleUpload(t *testing.T) {
	// Arrange
	srv := newTestServer(t)

	b := new(bytes.Buffer)
	mw := multipart.NewWriter(b)
	fw, err := mw.CreateFormFile("doc", "Notes.TXT")
	require.NoError(t, err)
	_, err = fw.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/?route=/uploads", b)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	// Act
	srv.ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"name":"Notes.TXT","size":5,"extension":"txt"}`, w.Body.String())

	// Arrange
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/?route=/uploads", strings.NewReader("a=1"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	// Act
	srv.ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusBadRequest, w.Code)
}
