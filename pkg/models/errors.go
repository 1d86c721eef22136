package models

import "errors"

// Common errors. The HTTP layer maps each of them to a status code.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrUpstream        = errors.New("upstream api error")
	ErrUpstreamTimeout = errors.New("upstream api timeout")
)
