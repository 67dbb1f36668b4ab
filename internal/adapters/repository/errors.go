package repository

import "errors"

// Sentinel kinds for ranking store errors.
var (
	ErrNotFound      = errors.New("ranked entry not found")
	ErrDuplicateItem = errors.New("item already ranked by user")
	ErrInvalidLimit  = errors.New("invalid ranking limit")
)
