package req

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/xy-planning-network/trailhead"
)

// A Parser decodes boundary input into application structs and validates them.
type Parser struct {
	decoder decoder
	validator
}

func NewParser() *Parser {
	return &Parser{
		decoder:   newDecoder(),
		validator: newValidator(),
	}
}

// ParseBody decodes the JSON in body into structPtr.
// If successful, ParseBody runs validation against the contents,
// returning an error wrapping ErrNotValid if the data fails validation rules.
//
// ParseBody reads all of body.
func (p *Parser) ParseBody(body io.Reader, structPtr any) error {
	var ourFault *json.InvalidUnmarshalError
	err := json.NewDecoder(body).Decode(structPtr)
	if errors.As(err, &ourFault) {
		return fmt.Errorf("trailhead/http/req: %w: ParseBody called with non-pointer: %s", trailhead.ErrInvalidArgument, err)
	}

	if err != nil {
		return fmt.Errorf("trailhead/http/req: %w: failed decoding request body: %s", trailhead.ErrBadFormat, err)
	}

	if err := p.validate(structPtr); err != nil {
		return fmt.Errorf("trailhead/http/req: %T failed validation: %w", structPtr, err)
	}

	return nil
}

// ParseValues decodes vals into structPtr using "schema" struct tags.
// Nested maps are addressed with dotted names, e.g. `schema:"user.name"`.
// If successful, ParseValues runs validation against the contents,
// returning an error wrapping ErrNotValid if the data fails validation rules.
func (p *Parser) ParseValues(vals Values, structPtr any) error {
	if err := p.decoder.decode(structPtr, vals.URLValues()); err != nil {
		return fmt.Errorf("trailhead/http/req: failed decoding values: %w", err)
	}

	if err := p.validate(structPtr); err != nil {
		return fmt.Errorf("trailhead/http/req: %T failed validation: %w", structPtr, err)
	}

	return nil
}
