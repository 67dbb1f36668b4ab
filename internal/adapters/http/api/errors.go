package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrMissingUser = errors.New("missing X-User-ID header")
	ErrNotOwner    = errors.New("session belongs to another user")
)
