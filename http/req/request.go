package req

import (
	"errors"
	"fmt"
	"io/fs"
	"mime/multipart"
	"os"
	"strings"
	"sync"

	"github.com/xy-planning-network/trailhead"
)

// A FileField holds what was uploaded under one form field:
// either a single Upload or an ordered sequence of them.
type FileField struct {
	uploads []Upload
	multi   bool
}

func SingleFile(u Upload) FileField { return FileField{uploads: []Upload{u}} }

func MultiFile(us ...Upload) FileField {
	uploads := make([]Upload, len(us))
	copy(uploads, us)
	return FileField{uploads: uploads, multi: true}
}

func (f FileField) IsMulti() bool { return f.multi }

// Upload returns the first Upload in f.
func (f FileField) Upload() (Upload, bool) {
	if len(f.uploads) == 0 {
		return Upload{}, false
	}

	return f.uploads[0], true
}

// Uploads returns every Upload in f in received order.
func (f FileField) Uploads() []Upload {
	uploads := make([]Upload, len(f.uploads))
	copy(uploads, f.uploads)
	return uploads
}

// Files maps form field names to what was uploaded under them.
type Files struct {
	m map[string]FileField
}

func NewFiles(m map[string]FileField) Files {
	cp := make(map[string]FileField, len(m))
	for k, v := range m {
		cp[k] = v
	}

	return Files{m: cp}
}

func (f Files) Get(field string) (FileField, bool) {
	ff, ok := f.m[field]
	return ff, ok
}

// Names returns every field name in ascending order.
func (f Files) Names() []string { return sortedKeys(f.m) }

func (f Files) Len() int { return len(f.m) }

// A Request is the read-only context for one inbound request.
//
// Every piece of input is exposed as Values so it passes through
// the same typed getters before reaching application code.
type Request struct {
	query   Values
	body    Values
	server  Values
	cookies Values
	files   Files

	spooled   []string
	form      *multipart.Form
	closeOnce sync.Once
	closeErr  error
}

// NewRequest constructs a Request from already built inputs.
func NewRequest(query, body, server, cookies Values, files Files) *Request {
	return &Request{query: query, body: body, server: server, cookies: cookies, files: files}
}

func (r *Request) Query() Values { return r.query }

func (r *Request) Body() Values { return r.body }

// Server holds CGI-style metadata such as REQUEST_METHOD and HTTP_* headers.
func (r *Request) Server() Values { return r.server }

func (r *Request) Cookies() Values { return r.cookies }

func (r *Request) Files() Files { return r.files }

// File returns what was uploaded under field, if anything.
func (r *Request) File(field string) (FileField, bool) { return r.files.Get(field) }

// Method returns the upper-cased REQUEST_METHOD, defaulting to GET.
func (r *Request) Method() (string, error) {
	m, err := r.server.String("REQUEST_METHOD", "")
	if err != nil {
		return "", err
	}

	if m == "" {
		return "GET", nil
	}

	return strings.ToUpper(m), nil
}

// Close removes every temp file FromHTTP spooled for r's uploads.
// Close is safe to call more than once and is a no-op for a Request built with NewRequest.
func (r *Request) Close() error {
	r.closeOnce.Do(func() {
		var errs []error
		for _, p := range r.spooled {
			if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
		}

		if r.form != nil {
			if err := r.form.RemoveAll(); err != nil {
				errs = append(errs, err)
			}
		}

		if err := errors.Join(errs...); err != nil {
			r.closeErr = fmt.Errorf("%w: removing uploads: %s", trailhead.ErrUnexpected, err)
		}
	})

	return r.closeErr
}
