package rating

import "errors"

// Sentinel kinds for rating errors.
var (
	// ErrEmptyCategory flags a rating computation over a zero-size
	// category. This is a programming error, not user input.
	ErrEmptyCategory = errors.New("rating requested for empty category")

	ErrInvalidPosition = errors.New("position outside category bounds")
	ErrUnknownCategory = errors.New("unknown category")
)
