package req

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/xy-planning-network/trailhead"
)

const (
	DefaultMaxMemory   int64 = 32 << 20
	DefaultMaxFileSize int64 = 8 << 20
	DefaultMaxBodySize int64 = 64 << 20
)

type builder struct {
	maxMemory   int64
	maxFileSize int64
	maxBodySize int64
	uploadDir   string
	cookies     *securecookie.SecureCookie
	now         func() time.Time
}

// A BuildOptFn configures how FromHTTP reads an *http.Request.
type BuildOptFn func(*builder)

// WithMaxMemory caps how many bytes of a body are held in memory.
// JSON bodies larger than n are rejected;
// multipart bodies spill past n onto disk.
func WithMaxMemory(n int64) BuildOptFn {
	return func(b *builder) {
		if n > 0 {
			b.maxMemory = n
		}
	}
}

// WithMaxFileSize caps the size of a single upload.
// Larger uploads are recorded with UploadIniSize and not spooled.
func WithMaxFileSize(n int64) BuildOptFn {
	return func(b *builder) {
		if n > 0 {
			b.maxFileSize = n
		}
	}
}

// WithMaxBodySize caps the total size of a multipart body, uploads included.
// Larger bodies are rejected.
func WithMaxBodySize(n int64) BuildOptFn {
	return func(b *builder) {
		if n > 0 {
			b.maxBodySize = n
		}
	}
}

// WithUploadDir sets the directory uploads are spooled into.
func WithUploadDir(dir string) BuildOptFn {
	return func(b *builder) {
		if dir != "" {
			b.uploadDir = dir
		}
	}
}

// WithSecureCookie verifies and decodes every cookie with sc.
// Cookies failing verification are dropped.
func WithSecureCookie(sc *securecookie.SecureCookie) BuildOptFn {
	return func(b *builder) { b.cookies = sc }
}

// FromHTTP builds a Request from r once,
// reading the query string, body, cookies, server metadata and uploads.
//
// A malformed body, or a multipart body over WithMaxBodySize,
// returns an error wrapping [trailhead.ErrBadFormat].
// Urlencoded bodies are read for POST, PUT and PATCH requests only.
// Callers must Close the returned Request to remove spooled uploads.
func FromHTTP(r *http.Request, opts ...BuildOptFn) (*Request, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil *http.Request", trailhead.ErrInvalidArgument)
	}

	b := &builder{
		maxMemory:   DefaultMaxMemory,
		maxFileSize: DefaultMaxFileSize,
		maxBodySize: DefaultMaxBodySize,
		uploadDir:   os.TempDir(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	out := &Request{
		query:   FromURLValues(r.URL.Query()),
		server:  b.server(r),
		cookies: b.readCookies(r),
	}

	if err := b.readBody(r, out); err != nil {
		out.Close()
		return nil, err
	}

	return out, nil
}

func (b *builder) readBody(r *http.Request, out *Request) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return nil
	}

	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return fmt.Errorf("%w: content type %q: %s", trailhead.ErrBadFormat, ct, err)
	}

	switch mediaType {
	case "application/json":
		body, err := b.readJSON(r)
		if err != nil {
			return err
		}

		out.body = body

	// net/http only reads urlencoded bodies of POST, PUT and PATCH requests;
	// on any other method the body is left empty.
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(nil, r.Body, b.maxMemory)
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("%w: failed parsing form: %s", trailhead.ErrBadFormat, err)
		}

		out.body = FromURLValues(r.PostForm)

	case "multipart/form-data":
		r.Body = http.MaxBytesReader(nil, r.Body, b.maxBodySize)
		if err := r.ParseMultipartForm(b.maxMemory); err != nil {
			return fmt.Errorf("%w: failed parsing multipart form: %s", trailhead.ErrBadFormat, err)
		}

		out.form = r.MultipartForm
		out.body = FromURLValues(r.MultipartForm.Value)
		out.files = b.spoolAll(r.MultipartForm.File, out)
	}

	return nil
}

func (b *builder) readJSON(r *http.Request) (Values, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, b.maxMemory))
	if err != nil {
		return Values{}, fmt.Errorf("%w: failed reading request body: %s", trailhead.ErrBadFormat, err)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return Values{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return Values{}, fmt.Errorf("%w: failed decoding request body: %s", trailhead.ErrBadFormat, err)
	}

	if dec.More() {
		return Values{}, fmt.Errorf("%w: request body holds more than one JSON value", trailhead.ErrBadFormat)
	}

	vals, err := ValuesOf(m)
	if err != nil {
		return Values{}, fmt.Errorf("%w: %s", trailhead.ErrBadFormat, err)
	}

	return vals, nil
}

// readCookies keeps the first cookie of each name.
func (b *builder) readCookies(r *http.Request) Values {
	m := make(map[string]Value)
	for _, c := range r.Cookies() {
		if _, ok := m[c.Name]; ok {
			continue
		}

		val := c.Value
		if b.cookies != nil {
			var decoded string
			if err := b.cookies.Decode(c.Name, c.Value, &decoded); err != nil {
				continue
			}

			val = decoded
		}

		m[c.Name] = StringValue(val)
	}

	return Values{m: m}
}

// server describes r the way CGI exposes request metadata.
func (b *builder) server(r *http.Request) Values {
	m := map[string]Value{
		"REQUEST_METHOD":  StringValue(r.Method),
		"QUERY_STRING":    StringValue(r.URL.RawQuery),
		"PATH_INFO":       StringValue(r.URL.Path),
		"SERVER_PROTOCOL": StringValue(r.Proto),
		"REQUEST_TIME":    IntValue(b.now().Unix()),
	}

	uri := r.RequestURI
	if uri == "" {
		uri = r.URL.RequestURI()
	}
	m["REQUEST_URI"] = StringValue(uri)

	host, port := splitHostPort(r.Host)
	m["SERVER_NAME"] = StringValue(host)
	if port != "" {
		m["SERVER_PORT"] = StringValue(port)
	}

	if r.RemoteAddr != "" {
		host, port := splitHostPort(r.RemoteAddr)
		m["REMOTE_ADDR"] = StringValue(host)
		if port != "" {
			m["REMOTE_PORT"] = StringValue(port)
		}
	}

	if r.TLS != nil {
		m["HTTPS"] = StringValue("on")
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		m["CONTENT_TYPE"] = StringValue(ct)
	}

	if r.ContentLength > 0 {
		m["CONTENT_LENGTH"] = StringValue(strconv.FormatInt(r.ContentLength, 10))
	}

	for name, vals := range r.Header {
		switch name {
		case "Content-Type", "Content-Length":
			continue
		}

		key := "HTTP_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		m[key] = StringValue(strings.Join(vals, ", "))
	}

	return Values{m: m}
}

func splitHostPort(hostport string) (string, string) {
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport, ""
	}

	return host, port
}

// spoolAll spools every uploaded file, recording each temp path on out.
// A field named "x[]" or carrying more than one file becomes a multiple FileField named "x".
func (b *builder) spoolAll(fields map[string][]*multipart.FileHeader, out *Request) Files {
	m := make(map[string]FileField, len(fields))
	for _, field := range sortedKeys(fields) {
		headers := fields[field]
		name, multi := strings.CutSuffix(field, "[]")

		uploads := make([]Upload, 0, len(headers))
		for _, fh := range headers {
			u := b.spool(fh)
			if u.tempPath != "" {
				out.spooled = append(out.spooled, u.tempPath)
			}

			uploads = append(uploads, u)
		}

		if multi || len(uploads) > 1 {
			m[name] = FileField{uploads: uploads, multi: true}
			continue
		}

		if len(uploads) == 1 {
			m[name] = SingleFile(uploads[0])
		}
	}

	return Files{m: m}
}

// spool copies one uploaded file into the upload directory.
// Failures are recorded on the returned Upload rather than returned.
func (b *builder) spool(fh *multipart.FileHeader) Upload {
	mimeType := fh.Header.Get("Content-Type")
	if fh.Filename == "" && fh.Size == 0 {
		return NewUpload("", mimeType, 0, "", UploadNoFile)
	}

	if fh.Size > b.maxFileSize {
		return NewUpload(fh.Filename, mimeType, fh.Size, "", UploadIniSize)
	}

	src, err := fh.Open()
	if err != nil {
		return NewUpload(fh.Filename, mimeType, fh.Size, "", UploadPartial)
	}
	defer src.Close()

	dst, err := os.CreateTemp(b.uploadDir, "trailhead-upload-*")
	if errors.Is(err, fs.ErrNotExist) {
		return NewUpload(fh.Filename, mimeType, fh.Size, "", UploadNoTmpDir)
	}

	if err != nil {
		return NewUpload(fh.Filename, mimeType, fh.Size, "", UploadCantWrite)
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		os.Remove(dst.Name())
		return NewUpload(fh.Filename, mimeType, fh.Size, "", UploadCantWrite)
	}

	return NewUpload(fh.Filename, mimeType, n, dst.Name(), UploadOK)
}
