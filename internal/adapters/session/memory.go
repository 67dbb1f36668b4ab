package session

import (
	"context"
	"sync"
	"time"

	"github.com/reelrank/reelrank/internal/domain/model"
	"github.com/reelrank/reelrank/pkg/metrics"
)

// Default sweep configuration.
const defaultSweepInterval = time.Minute

// MemoryStore implements Store with a mutex-guarded map plus a periodic
// janitor sweep. Get also checks expiry lazily, so the sweep interval only
// bounds memory held by abandoned sessions.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]record

	sweepInterval time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
}

type record struct {
	sess      model.ComparisonSession
	expiresAt time.Time
}

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithSweepInterval sets how often expired sessions are purged.
func WithSweepInterval(interval time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// NewMemoryStore creates an in-memory session store and starts its sweep
// goroutine. Call Close to stop it.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		sessions:      make(map[string]record),
		sweepInterval: defaultSweepInterval,
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.sweepLoop()
	return s
}

// Put stores or replaces a session and resets its TTL.
func (s *MemoryStore) Put(ctx context.Context, sess model.ComparisonSession, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = record{sess: sess, expiresAt: time.Now().Add(ttl)}
	metrics.UpdateActiveSessions(len(s.sessions))
	return nil
}

// Get returns a live session or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, sessionID string) (model.ComparisonSession, error) {
	s.mu.RLock()
	rec, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return model.ComparisonSession{}, ErrNotFound
	}
	if time.Now().After(rec.expiresAt) {
		// Expired but not yet swept; treat as gone.
		_ = s.Delete(ctx, sessionID)
		return model.ComparisonSession{}, ErrNotFound
	}
	return rec.sess, nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	metrics.UpdateActiveSessions(len(s.sessions))
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the sweep goroutine.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	return nil
}

func (s *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, rec := range s.sessions {
		if now.After(rec.expiresAt) {
			delete(s.sessions, id)
			metrics.RecordSessionExpired()
		}
	}
	metrics.UpdateActiveSessions(len(s.sessions))
}
