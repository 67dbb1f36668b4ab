package app

import "errors"

// Sentinel kinds for engine errors. The HTTP boundary translates these
// into user-facing responses.
var (
	// Conflicts: the request is well-formed but the state forbids it.
	ErrItemAlreadyRanked = errors.New("item already ranked by user")
	ErrSessionCompleted  = errors.New("session already completed")

	// Not found: recoverable; the caller restarts or corrects input.
	ErrSessionNotFound = errors.New("session not found")

	// Bad requests.
	ErrInvalidUser         = errors.New("user id must not be empty")
	ErrInvalidPreference   = errors.New("invalid preference")
	ErrSessionNotResolved  = errors.New("session has comparisons remaining")
	ErrNoPendingComparison = errors.New("session has no pending comparison")
)
