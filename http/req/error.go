package req

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xy-planning-network/trailhead"
)

// A TypeMismatchError reports a present value whose kind cannot become the requested type.
type TypeMismatchError struct {
	Key      string
	Expected Kind
	Actual   Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: key %q: expected %s, got %s", trailhead.ErrTypeMismatch, e.Key, e.Expected, e.Actual)
}

func (*TypeMismatchError) Unwrap() error { return trailhead.ErrTypeMismatch }

// A ValidationError is an issue with a concrete value not matching the rule set on its field.
type ValidationError struct {
	Field string `json:"field"`
	Got   any    `json:"got"`
	Rule  string `json:"rule,omitempty"`
}

// ValidationErrors is a set of ValidationError.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, err := range v {
		msgs = append(msgs, fmt.Sprintf("field=%q rule=%q got=%q", err.Field, err.Rule, fmt.Sprint(err.Got)))
	}

	return strings.Join(msgs, "\n")
}

// MarshalJSON rejects fields, rules or string values that are not valid UTF-8
// with an error wrapping [trailhead.ErrEncodingFailure].
func (v ValidationErrors) MarshalJSON() ([]byte, error) {
	for i, ve := range v {
		got, _ := ve.Got.(string)
		if !utf8.ValidString(ve.Field) || !utf8.ValidString(ve.Rule) || !utf8.ValidString(got) {
			return nil, fmt.Errorf("%w: invalid UTF-8 in validation error %d", trailhead.ErrEncodingFailure, i)
		}
	}

	var errs struct {
		E []ValidationError `json:"validationErrors,omitempty"`
	}

	errs.E = append(errs.E, v...)
	return json.Marshal(errs)
}

func (ValidationErrors) Unwrap() error { return trailhead.ErrNotValid }
