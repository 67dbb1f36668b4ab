package rank

import "errors"

// Sentinel kinds for position bookkeeping errors.
var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidPosition = errors.New("invalid position")
	ErrInvalidLimit    = errors.New("invalid limit")
)
