package req_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/req"
)

func TestFromHTTPJSON(t *testing.T) {
	// Arrange
	body := `{"name":" Ada ","age":36,"admin":true,"meta":{"k":"v"},"n":null}`
	r := httptest.NewRequest(http.MethodPost, "/?route=/users/7&tags[]=a&tags[]=b", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	r.Header.Add("X-Custom", "a")
	r.Header.Add("X-Custom", "b")
	r.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})

	// Act
	actual, err := req.FromHTTP(r)

	// Assert
	require.NoError(t, err)
	t.Cleanup(func() { actual.Close() })

	route, err := actual.Query().String("route", "")
	require.NoError(t, err)
	require.Equal(t, "/users/7", route)

	tags, err := actual.Query().List("tags")
	require.NoError(t, err)
	require.Len(t, tags, 2)

	name, err := actual.Body().String("name", "")
	require.NoError(t, err)
	require.Equal(t, "Ada", name)

	age, err := actual.Body().Int("age", 0)
	require.NoError(t, err)
	require.Equal(t, int64(36), age)

	require.True(t, actual.Body().Bool("admin", false))
	require.False(t, actual.Body().Has("n"))

	meta, err := actual.Body().Map("meta")
	require.NoError(t, err)
	require.True(t, meta.Has("k"))

	method, err := actual.Method()
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, method)

	server := actual.Server()
	for key, expected := range map[string]string{
		"REQUEST_METHOD":  "POST",
		"REMOTE_ADDR":     "192.0.2.1",
		"SERVER_NAME":     "example.com",
		"SERVER_PROTOCOL": "HTTP/1.1",
		"PATH_INFO":       "/",
		"HTTP_X_CUSTOM":   "a, b",
		"CONTENT_TYPE":    "application/json; charset=utf-8",
	} {
		val, err := server.String(key, "")
		require.NoError(t, err)
		require.Equal(t, expected, val, key)
	}
	require.False(t, server.Has("HTTPS"))

	theme, err := actual.Cookies().String("theme", "")
	require.NoError(t, err)
	require.Equal(t, "dark", theme)
}

func TestFromHTTPBadBody(t *testing.T) {
	tcs := []struct {
		name        string
		contentType string
		body        string
	}{
		{"malformed-json", "application/json", `{"a":`},
		{"json-array", "application/json", `[1,2]`},
		{"trailing-json", "application/json", `{"a":1}{"b":2}`},
		{"bad-content-type", "multipart/", "x"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			r.Header.Set("Content-Type", tc.contentType)

			// Act
			actual, err := req.FromHTTP(r)

			// Assert
			require.ErrorIs(t, err, trailhead.ErrBadFormat)
			require.Nil(t, actual)
		})
	}
}

func TestFromHTTPEmptyJSON(t *testing.T) {
	// Arrange
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("  "))
	r.Header.Set("Content-Type", "application/json")

	// Act
	actual, err := req.FromHTTP(r)

	// Assert
	require.NoError(t, err)
	require.Zero(t, actual.Body().Len())
}

func TestFromHTTPForm(t *testing.T) {
	// Arrange
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("a[x]=1&b=2&b=3"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	// Act
	actual, err := req.FromHTTP(r)

	// Assert
	require.NoError(t, err)

	a, err := actual.Body().Map("a")
	require.NoError(t, err)
	x, err := a.Int("x", 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), x)

	b, err := actual.Body().List("b")
	require.NoError(t, err)
	require.Len(t, b, 2)
}

func TestFromHTTPFormIgnoredOnGet(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			// Arrange
			r := httptest.NewRequest(method, "/?q=1", strings.NewReader("a=1"))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			// Act
			actual, err := req.FromHTTP(r)

			// Assert
			require.NoError(t, err)
			require.Zero(t, actual.Body().Len())
			require.True(t, actual.Query().Has("q"))
		})
	}
}

func TestFromHTTPMultipartTooLarge(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	r := newMultipartRequest(t, map[string]string{"doc": "notes.txt"})

	// Act
	actual, err := req.FromHTTP(r, req.WithUploadDir(dir), req.WithMaxBodySize(16))

	// Assert
	require.ErrorIs(t, err, trailhead.ErrBadFormat)
	require.Nil(t, actual)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestFromHTTPMultipart(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	r := newMultipartRequest(t, map[string]string{
		"doc":    "notes.TXT",
		"pics[]": "a.png",
	})

	// Act
	actual, err := req.FromHTTP(r, req.WithUploadDir(dir))

	// Assert
	require.NoError(t, err)

	title, err := actual.Body().String("title", "")
	require.NoError(t, err)
	require.Equal(t, "hello", title)

	doc, ok := actual.File("doc")
	require.True(t, ok)
	require.False(t, doc.IsMulti())

	u, ok := doc.Upload()
	require.True(t, ok)
	require.True(t, u.IsValid())
	require.Equal(t, "notes.TXT", u.Name())
	require.Equal(t, "txt", u.Extension())
	require.Equal(t, int64(len("contents of notes.TXT")), u.Size())
	require.Equal(t, dir, filepath.Dir(u.TempPath()))

	b, err := os.ReadFile(u.TempPath())
	require.NoError(t, err)
	require.Equal(t, "contents of notes.TXT", string(b))

	pics, ok := actual.File("pics")
	require.True(t, ok)
	require.True(t, pics.IsMulti())
	require.Len(t, pics.Uploads(), 1)

	// Act
	err = actual.Close()

	// Assert
	require.NoError(t, err)
	require.NoFileExists(t, u.TempPath())
	require.NoError(t, actual.Close())
}

func TestFromHTTPUploadErrors(t *testing.T) {
	tcs := []struct {
		name     string
		opts     func(dir string) []req.BuildOptFn
		expected req.UploadErr
	}{
		{
			"too-large",
			func(dir string) []req.BuildOptFn {
				return []req.BuildOptFn{req.WithUploadDir(dir), req.WithMaxFileSize(4)}
			},
			req.UploadIniSize,
		},
		{
			"missing-dir",
			func(dir string) []req.BuildOptFn {
				return []req.BuildOptFn{req.WithUploadDir(filepath.Join(dir, "missing"))}
			},
			req.UploadNoTmpDir,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			r := newMultipartRequest(t, map[string]string{"doc": "big.bin"})

			// Act
			actual, err := req.FromHTTP(r, tc.opts(t.TempDir())...)

			// Assert
			require.NoError(t, err)
			doc, ok := actual.File("doc")
			require.True(t, ok)

			u, _ := doc.Upload()
			require.Equal(t, tc.expected, u.Err())
			require.False(t, u.IsValid())
			require.Empty(t, u.TempPath())
		})
	}
}

func TestFromHTTPSecureCookie(t *testing.T) {
	// Arrange
	sc := securecookie.New([]byte("0123456789abcdef0123456789abcdef"), nil)
	encoded, err := sc.Encode("session", "abc")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "session", Value: encoded})
	r.AddCookie(&http.Cookie{Name: "forged", Value: "plain"})

	// Act
	actual, err := req.FromHTTP(r, req.WithSecureCookie(sc))

	// Assert
	require.NoError(t, err)

	session, err := actual.Cookies().String("session", "")
	require.NoError(t, err)
	require.Equal(t, "abc", session)
	require.False(t, actual.Cookies().Has("forged"))
}

func TestFromHTTPNil(t *testing.T) {
	_, err := req.FromHTTP(nil)
	require.ErrorIs(t, err, trailhead.ErrInvalidArgument)
}

// newMultipartRequest builds a POST carrying a "title" field and
// one file per field, named by the map value.
func newMultipartRequest(t *testing.T, files map[string]string) *http.Request {
	t.Helper()

	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("title", "hello"))

	for field, name := range files {
		fw, err := w.CreateFormFile(field, name)
		require.NoError(t, err)

		_, err = fw.Write([]byte("contents of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	r := httptest.NewRequest(http.MethodPost, "/", body)
	r.Header.Set("Content-Type", w.FormDataContentType())
	return r
}
