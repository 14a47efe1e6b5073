package req

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"unicode/utf8"

	"github.com/xy-planning-network/trailhead"
)

// A Kind is the shape of a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// A Value is one untrusted input value.
// The zero Value is absent.
//
// A Value is never mutated after construction;
// constructors copy the lists and maps handed to them.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	list []Value
	m    map[string]Value
}

func StringValue(s string) Value { return Value{kind: KindString, s: s} }

func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// ListValue constructs a list Value holding a copy of vs.
func ListValue(vs ...Value) Value {
	list := make([]Value, len(vs))
	copy(list, vs)
	return Value{kind: KindList, list: list}
}

// MapValue constructs a map Value holding a copy of m.
func MapValue(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}

	return Value{kind: KindMap, m: cp}
}

// ValueOf converts decoded Go data into a Value.
//
// ValueOf accepts the shapes produced by [encoding/json] (including [json.Number]),
// [net/url.Values] and plain Go scalars, slices and string-keyed maps thereof.
// nil becomes an absent Value.
// Anything else returns an error wrapping [trailhead.ErrNotValid].
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return t, nil
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int8:
		return IntValue(int64(t)), nil
	case int16:
		return IntValue(int64(t)), nil
	case int32:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case uint:
		return uintValue(uint64(t))
	case uint8:
		return IntValue(int64(t)), nil
	case uint16:
		return IntValue(int64(t)), nil
	case uint32:
		return IntValue(int64(t)), nil
	case uint64:
		return uintValue(t)
	case float32:
		return FloatValue(float64(t)), nil
	case float64:
		return FloatValue(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return IntValue(i), nil
		}

		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: number %q: %s", trailhead.ErrNotValid, t, err)
		}

		return FloatValue(f), nil
	case []string:
		list := make([]Value, len(t))
		for i, s := range t {
			list[i] = StringValue(s)
		}

		return Value{kind: KindList, list: list}, nil
	case []Value:
		return ListValue(t...), nil
	case []any:
		list := make([]Value, len(t))
		for i, elem := range t {
			v, err := ValueOf(elem)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}

			list[i] = v
		}

		return Value{kind: KindList, list: list}, nil
	case map[string]Value:
		return MapValue(t), nil
	case map[string]string:
		m := make(map[string]Value, len(t))
		for k, s := range t {
			m[k] = StringValue(s)
		}

		return Value{kind: KindMap, m: m}, nil
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, elem := range t {
			v, err := ValueOf(elem)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}

			m[k] = v
		}

		return Value{kind: KindMap, m: m}, nil
	case url.Values:
		return MapValue(FromURLValues(t).m), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported value of type %T", trailhead.ErrNotValid, x)
	}
}

func uintValue(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: %d overflows int64", trailhead.ErrNotValid, u)
	}

	return IntValue(int64(u)), nil
}

func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v holds nothing.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Text returns the raw, untrimmed string held by v.
func (v Value) Text() (string, bool) { return v.s, v.kind == KindString }

// Int returns the integer held by v; no coercion is attempted.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Float returns the float held by v; no coercion is attempted.
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }

// Bool returns the boolean held by v; no coercion is attempted.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// List returns a copy of the list held by v.
func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}

	list := make([]Value, len(v.list))
	copy(list, v.list)
	return list, true
}

// Map returns the map held by v as Values.
func (v Value) Map() (Values, bool) {
	if v.kind != KindMap {
		return Values{}, false
	}

	return Values{m: v.m}, true
}

// Interface unwraps v into plain Go data:
// string, int64, float64, bool, []any, map[string]any, or nil when absent.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindList:
		list := make([]any, len(v.list))
		for i, elem := range v.list {
			list[i] = elem.Interface()
		}

		return list
	case KindMap:
		m := make(map[string]any, len(v.m))
		for k, elem := range v.m {
			m[k] = elem.Interface()
		}

		return m
	default:
		return nil
	}
}

// MarshalJSON encodes v as the JSON of v.Interface().
// A string or map key that is not valid UTF-8 returns an error
// wrapping [trailhead.ErrEncodingFailure] rather than being coerced.
func (v Value) MarshalJSON() ([]byte, error) {
	if path, ok := v.validUTF8(""); !ok {
		return nil, fmt.Errorf("%w: invalid UTF-8 at %q", trailhead.ErrEncodingFailure, path)
	}

	return json.Marshal(v.Interface())
}

// validUTF8 reports the path of the first invalid string within v, if any.
func (v Value) validUTF8(path string) (string, bool) {
	switch v.kind {
	case KindString:
		return path, utf8.ValidString(v.s)
	case KindList:
		for i, elem := range v.list {
			if p, ok := elem.validUTF8(fmt.Sprintf("%s[%d]", path, i)); !ok {
				return p, false
			}
		}
	case KindMap:
		for _, k := range sortedKeys(v.m) {
			p := k
			if path != "" {
				p = path + "." + k
			}

			if !utf8.ValidString(k) {
				return p, false
			}

			if p, ok := v.m[k].validUTF8(p); !ok {
				return p, false
			}
		}
	}

	return path, true
}

// truthy reports whether a non-string, non-bool v counts as true.
func (v Value) truthy() bool {
	switch v.kind {
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindList:
		return len(v.list) > 0
	case KindMap:
		return len(v.m) > 0
	default:
		return false
	}
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}
