// Package session defines the comparison-session store interface and its
// in-memory and redis implementations.
//
// Sessions are small JSON-serializable blobs keyed by session id. Every
// write refreshes the TTL, so expiry tracks last activity; expiry itself is
// advisory cleanup, not a correctness mechanism.
package session

import (
	"context"
	"time"

	"github.com/reelrank/reelrank/internal/domain/model"
)

// DefaultTTL is how long an inactive session survives before it must be
// restarted by the caller.
const DefaultTTL = 30 * time.Minute

// Store provides get/set/delete access to comparison sessions.
type Store interface {
	// Put stores or replaces a session and resets its TTL.
	Put(ctx context.Context, sess model.ComparisonSession, ttl time.Duration) error

	// Get returns the session with the given id, or ErrNotFound when the
	// session is unknown or has expired.
	Get(ctx context.Context, sessionID string) (model.ComparisonSession, error)

	// Delete removes a session. Deleting an unknown id is a no-op.
	Delete(ctx context.Context, sessionID string) error
}
