package req

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// truthyStrings are the case-folded strings Values.Bool reads as true.
var truthyStrings = map[string]bool{"true": true, "1": true, "on": true, "yes": true}

// Values is one read-only mapping of keys to untrusted input.
//
// Values copies the mapping it is built from; no getter mutates it,
// so a Values may be shared across goroutines freely.
type Values struct {
	m    map[string]Value
	path string
}

// NewValues constructs Values from a copy of m.
func NewValues(m map[string]Value) Values {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}

	return Values{m: cp}
}

// ValuesOf constructs Values from decoded Go data,
// such as the object produced by decoding a JSON body into a map[string]any.
func ValuesOf(m map[string]any) (Values, error) {
	v, err := ValueOf(m)
	if err != nil {
		return Values{}, err
	}

	vals, _ := v.Map()
	return vals, nil
}

// FromURLValues constructs Values from a query string or url-encoded form.
//
// Keys using bracket notation nest: "a[]" appends to a list under "a"
// and "a[b]" sets key "b" in a map under "a".
// A plain key set more than once becomes a list.
func FromURLValues(u url.Values) Values {
	root := make(map[string]Value)
	for _, key := range sortedKeys(u) {
		vals := u[key]
		name, path := parseKey(key)

		if len(path) == 0 {
			switch len(vals) {
			case 0:
			case 1:
				root[name] = StringValue(vals[0])
			default:
				root[name] = ListValue(stringValues(vals)...)
			}

			continue
		}

		for _, s := range vals {
			root[name] = assign(root[name], path, StringValue(s))
		}
	}

	return Values{m: root}
}

// parseKey splits "a[b][]" into "a" and ["b", ""].
// Malformed bracket sequences leave the key as-is.
func parseKey(key string) (string, []string) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, nil
	}

	name, rest := key[:open], key[open:]

	var path []string
	for rest != "" {
		if rest[0] != '[' {
			return key, nil
		}

		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return key, nil
		}

		path = append(path, rest[1:end])
		rest = rest[end+1:]
	}

	return name, path
}

// assign sets leaf at path inside cur, creating lists and maps as needed.
// An empty path segment appends to a list.
// A segment that meets a value of the wrong shape replaces it.
func assign(cur Value, path []string, leaf Value) Value {
	if len(path) == 0 {
		return leaf
	}

	seg, rest := path[0], path[1:]
	if seg == "" {
		var list []Value
		if cur.kind == KindList {
			list = cur.list
		}

		if len(rest) == 0 {
			return Value{kind: KindList, list: append(list, leaf)}
		}

		// "a[][b]" groups successive keys into the last element until one repeats.
		if n := len(list); n > 0 && list[n-1].kind == KindMap {
			if _, taken := list[n-1].m[rest[0]]; !taken {
				list[n-1] = assign(list[n-1], rest, leaf)
				return Value{kind: KindList, list: list}
			}
		}

		return Value{kind: KindList, list: append(list, assign(Value{}, rest, leaf))}
	}

	m := make(map[string]Value)
	if cur.kind == KindMap {
		m = cur.m
	}

	m[seg] = assign(m[seg], rest, leaf)
	return Value{kind: KindMap, m: m}
}

func stringValues(ss []string) []Value {
	vs := make([]Value, len(ss))
	for i, s := range ss {
		vs[i] = StringValue(s)
	}

	return vs
}

// Has reports whether key holds a present value.
func (v Values) Has(key string) bool { return !v.m[key].IsAbsent() }

// Lookup returns the raw Value at key.
func (v Values) Lookup(key string) (Value, bool) {
	val, ok := v.m[key]
	if !ok || val.IsAbsent() {
		return Value{}, false
	}

	return val, true
}

// Keys returns every key in ascending order.
func (v Values) Keys() []string { return sortedKeys(v.m) }

func (v Values) Len() int { return len(v.m) }

// String returns the trimmed string at key, or def when key is absent.
// Any other kind is a *TypeMismatchError.
func (v Values) String(key, def string) (string, error) {
	val, ok := v.Lookup(key)
	if !ok {
		return def, nil
	}

	s, ok := val.Text()
	if !ok {
		return def, v.mismatch(key, KindString, val)
	}

	return strings.TrimSpace(s), nil
}

// Int returns the integer at key, or def when key is absent.
// A string holding a base 10 integer, ignoring surrounding space, is accepted.
func (v Values) Int(key string, def int64) (int64, error) {
	val, ok := v.Lookup(key)
	if !ok {
		return def, nil
	}

	switch val.kind {
	case KindInt:
		return val.i, nil
	case KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(val.s), 10, 64)
		if err == nil {
			return i, nil
		}
	}

	return def, v.mismatch(key, KindInt, val)
}

// Float returns the float at key, or def when key is absent.
// Integers widen; a string holding a finite decimal number is accepted.
func (v Values) Float(key string, def float64) (float64, error) {
	val, ok := v.Lookup(key)
	if !ok {
		return def, nil
	}

	switch val.kind {
	case KindFloat:
		return val.f, nil
	case KindInt:
		return float64(val.i), nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(val.s), 64)
		if err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return f, nil
		}
	}

	return def, v.mismatch(key, KindFloat, val)
}

// Bool returns the boolean at key, or def when key is absent.
//
// A string is true when it case-insensitively equals
// "true", "1", "on" or "yes", and false otherwise.
// Numbers, lists and maps are true when non-zero or non-empty.
// Bool never fails.
func (v Values) Bool(key string, def bool) bool {
	val, ok := v.Lookup(key)
	if !ok {
		return def
	}

	switch val.kind {
	case KindBool:
		return val.b
	case KindString:
		return truthyStrings[cases.Fold().String(strings.TrimSpace(val.s))]
	default:
		return val.truthy()
	}
}

// UUID returns the UUID held as a string at key, or def when key is absent.
func (v Values) UUID(key string, def uuid.UUID) (uuid.UUID, error) {
	val, ok := v.Lookup(key)
	if !ok {
		return def, nil
	}

	s, ok := val.Text()
	if !ok {
		return def, v.mismatch(key, KindString, val)
	}

	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return def, v.mismatch(key, KindString, val)
	}

	return id, nil
}

// Map returns the nested Values at key.
// An absent key returns empty Values; any kind other than a map is a *TypeMismatchError.
func (v Values) Map(key string) (Values, error) {
	val, ok := v.Lookup(key)
	if !ok {
		return Values{path: v.join(key)}, nil
	}

	nested, ok := val.Map()
	if !ok {
		return Values{}, v.mismatch(key, KindMap, val)
	}

	nested.path = v.join(key)
	return nested, nil
}

// List returns the list at key.
// An absent key returns nil; any kind other than a list is a *TypeMismatchError.
func (v Values) List(key string) ([]Value, error) {
	val, ok := v.Lookup(key)
	if !ok {
		return nil, nil
	}

	list, ok := val.List()
	if !ok {
		return nil, v.mismatch(key, KindList, val)
	}

	return list, nil
}

// URLValues flattens v into [url.Values].
// Nested maps flatten to dotted keys ("user.name") and
// lists of scalars to repeated keys,
// which is the shape gorilla/schema decodes.
func (v Values) URLValues() url.Values {
	u := make(url.Values)
	flatten(u, "", v.m)
	return u
}

func flatten(u url.Values, prefix string, m map[string]Value) {
	for _, k := range sortedKeys(m) {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		val := m[k]
		switch val.kind {
		case KindAbsent:
		case KindMap:
			flatten(u, key, val.m)
		case KindList:
			for i, elem := range val.list {
				if elem.kind == KindMap {
					flatten(u, key+"."+strconv.Itoa(i), elem.m)
					continue
				}

				u.Add(key, scalarText(elem))
			}
		default:
			u.Add(key, scalarText(val))
		}
	}
}

func scalarText(v Value) string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// MarshalJSON encodes v as a JSON object, failing as [Value.MarshalJSON] does.
func (v Values) MarshalJSON() ([]byte, error) {
	return Value{kind: KindMap, m: v.m}.MarshalJSON()
}

func (v Values) join(key string) string {
	if v.path == "" {
		return key
	}

	return v.path + "." + key
}

func (v Values) mismatch(key string, expected Kind, got Value) error {
	return &TypeMismatchError{Key: v.join(key), Expected: expected, Actual: got.kind}
}
