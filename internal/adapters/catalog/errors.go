package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrItemNotFound = errors.New("item not found in catalog")
	ErrUnavailable  = errors.New("catalog unavailable")
)
