package trailhead

import "errors"

var (
	ErrBadConfig         = errors.New("bad config")
	ErrBadFormat         = errors.New("bad format")
	ErrDuplicateRoute    = errors.New("duplicate route")
	ErrEncodingFailure   = errors.New("encoding failure")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidStatusCode = errors.New("invalid status code")
	ErrMissingData       = errors.New("missing data")
	ErrNotImplemented    = errors.New("not implemented")
	ErrNotValid          = errors.New("invalid")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrUnexpected        = errors.New("unexpected")
)
