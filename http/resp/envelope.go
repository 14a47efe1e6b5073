package resp

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/xy-planning-network/trailhead"
)

const (
	ContentTypeJSON = "application/json; charset=UTF-8"
	ContentTypeText = "text/plain; charset=UTF-8"
)

// pool holds the *bytes.Buffer JSON payloads are encoded into.
var pool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// An Envelope is an immutable response: a status code, headers and a body.
// Writing an Envelope to the client is left to a Responder.
type Envelope struct {
	code   int
	header http.Header
	body   []byte
}

// A Fn is a functional option setting part of an Envelope under construction.
type Fn func(*Envelope) error

// Body sets the response body to a copy of b.
func Body(b []byte) Fn {
	return func(e *Envelope) error {
		e.body = bytes.Clone(b)
		return nil
	}
}

// Header sets key to vals, replacing any values already set.
func Header(key string, vals ...string) Fn {
	return func(e *Envelope) error {
		if key == "" {
			return fmt.Errorf("%w: empty header name", trailhead.ErrInvalidArgument)
		}

		e.header.Del(key)
		for _, v := range vals {
			e.header.Add(key, v)
		}

		return nil
	}
}

// Headers merges h into the headers already set; keys in h win.
func Headers(h http.Header) Fn {
	return func(e *Envelope) error {
		for k, vals := range h {
			if err := Header(k, vals...)(e); err != nil {
				return err
			}
		}

		return nil
	}
}

// New constructs an Envelope with code, applying opts in order.
// A code outside [100, 599] returns an error wrapping [trailhead.ErrInvalidStatusCode].
func New(code int, opts ...Fn) (Envelope, error) {
	if code < 100 || code > 599 {
		return Envelope{}, fmt.Errorf("%w: %d", trailhead.ErrInvalidStatusCode, code)
	}

	e := Envelope{code: code, header: make(http.Header)}
	for _, opt := range opts {
		if err := opt(&e); err != nil {
			return Envelope{}, err
		}
	}

	return e, nil
}

// Text constructs an Envelope with a plain text body.
func Text(code int, body string, opts ...Fn) (Envelope, error) {
	return New(code, append([]Fn{Header("Content-Type", ContentTypeText), Body([]byte(body))}, opts...)...)
}

// JSON constructs an Envelope whose body is payload encoded as JSON.
//
// Map keys are sorted and HTML is not escaped.
// A payload holding cycles, channels, functions, non-finite floats or
// strings that are not valid UTF-8 returns an error wrapping [trailhead.ErrEncodingFailure].
func JSON(code int, payload any, opts ...Fn) (Envelope, error) {
	b := pool.Get().(*bytes.Buffer)
	b.Reset()
	defer pool.Put(b)

	enc := json.NewEncoder(b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return Envelope{}, fmt.Errorf("%w: %s", trailhead.ErrEncodingFailure, err)
	}

	if path, ok := invalidUTF8(reflect.ValueOf(payload), "$"); !ok {
		return Envelope{}, fmt.Errorf("%w: invalid UTF-8 at %s", trailhead.ErrEncodingFailure, path)
	}

	body := bytes.TrimSuffix(b.Bytes(), []byte("\n"))
	return New(code, append([]Fn{Header("Content-Type", ContentTypeJSON), Body(body)}, opts...)...)
}

var (
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// invalidUTF8 walks what encoding/json would encode,
// reporting the path of the first string that is not valid UTF-8.
// encoding/json otherwise replaces such bytes silently.
// It must only be called on values that already encoded, which rules out cycles.
func invalidUTF8(v reflect.Value, path string) (string, bool) {
	if !v.IsValid() {
		return "", true
	}

	t := v.Type()
	if t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) {
		return "", true
	}

	switch v.Kind() {
	case reflect.String:
		return path, utf8.ValidString(v.String())

	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return "", true
		}

		return invalidUTF8(v.Elem(), path)

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
			return "", true
		}

		for i := 0; i < v.Len(); i++ {
			if p, ok := invalidUTF8(v.Index(i), path+"["+strconv.Itoa(i)+"]"); !ok {
				return p, false
			}
		}

	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			k := iter.Key()
			if k.Kind() == reflect.String && !utf8.ValidString(k.String()) {
				return path + " key", false
			}

			if p, ok := invalidUTF8(iter.Value(), path+"."+fmt.Sprint(k)); !ok {
				return p, false
			}
		}

	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() && !f.Anonymous {
				continue
			}

			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				continue
			}

			if name == "" {
				name = f.Name
			}

			if p, ok := invalidUTF8(v.Field(i), path+"."+name); !ok {
				return p, false
			}
		}
	}

	return "", true
}

// Redirect constructs an Envelope sending the client to target.
// code must be in [300, 399) and target must be an absolute URL or a path beginning with a single "/";
// anything else returns an error wrapping [trailhead.ErrInvalidArgument].
func Redirect(target string, code int, opts ...Fn) (Envelope, error) {
	if code < http.StatusMultipleChoices || code >= 399 {
		return Envelope{}, fmt.Errorf("%w: redirect status %d", trailhead.ErrInvalidArgument, code)
	}

	u, err := url.Parse(target)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: redirect target %q: %s", trailhead.ErrInvalidArgument, target, err)
	}

	absolute := u.IsAbs() && u.Host != ""
	// Browsers read "//" and "/\" alike as the start of a host.
	local := strings.HasPrefix(target, "/") &&
		!strings.HasPrefix(target, "//") && !strings.HasPrefix(target, "/\\")
	if !absolute && !local {
		return Envelope{}, fmt.Errorf("%w: redirect target %q is neither absolute nor a path", trailhead.ErrInvalidArgument, target)
	}

	return New(code, append([]Fn{Header("Location", target)}, opts...)...)
}

// An errorBody is the JSON body of an error Envelope.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error constructs an Envelope with the body {"error": msg, "code": "HTTP_<code>"}.
func Error(code int, msg string, opts ...Fn) (Envelope, error) {
	return JSON(code, errorBody{Error: msg, Code: "HTTP_" + strconv.Itoa(code)}, opts...)
}

// NotFound constructs the 404 Envelope.
func NotFound() Envelope {
	e, _ := Error(http.StatusNotFound, http.StatusText(http.StatusNotFound))
	return e
}

// MethodNotAllowed constructs the 405 Envelope, listing allowed in the Allow header.
func MethodNotAllowed(allowed ...string) Envelope {
	var opts []Fn
	if len(allowed) > 0 {
		opts = append(opts, Header("Allow", strings.Join(allowed, ", ")))
	}

	e, _ := Error(http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), opts...)
	return e
}

func (e Envelope) Code() int { return e.code }

// Header returns a copy of e's headers.
func (e Envelope) Header() http.Header {
	if e.header == nil {
		return make(http.Header)
	}

	return e.header.Clone()
}

// Body returns a copy of e's body.
func (e Envelope) Body() []byte { return bytes.Clone(e.body) }

// WithHeader returns a copy of e with key set to vals.
func (e Envelope) WithHeader(key string, vals ...string) (Envelope, error) {
	return e.with(Header(key, vals...))
}

// WithHeaders returns a copy of e with h merged into its headers; keys in h win.
func (e Envelope) WithHeaders(h http.Header) (Envelope, error) {
	return e.with(Headers(h))
}

func (e Envelope) with(fn Fn) (Envelope, error) {
	cp := Envelope{code: e.code, header: e.Header(), body: e.body}
	if err := fn(&cp); err != nil {
		return Envelope{}, err
	}

	return cp, nil
}
