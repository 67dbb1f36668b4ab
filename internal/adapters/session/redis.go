package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reelrank/reelrank/internal/domain/model"
)

// defaultKeyPrefix namespaces session keys in a shared redis.
const defaultKeyPrefix = "reelrank:session:"

// RedisStore implements Store on redis. Sessions are stored as JSON blobs
// with a native TTL, so expiry needs no sweep of our own.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisOption applies a configuration option to the RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the redis key namespace.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.keyPrefix = prefix
		}
	}
}

// NewRedisStore wraps an existing redis client. The caller owns the
// client's lifecycle.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores or replaces a session and resets its TTL.
func (s *RedisStore) Put(ctx context.Context, sess model.ComparisonSession, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	blob, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sess.ID, err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+sess.ID, blob, ttl).Err(); err != nil {
		return fmt.Errorf("store session %s: %w", sess.ID, err)
	}
	return nil
}

// Get returns a live session or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (model.ComparisonSession, error) {
	blob, err := s.client.Get(ctx, s.keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.ComparisonSession{}, ErrNotFound
	}
	if err != nil {
		return model.ComparisonSession{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	var sess model.ComparisonSession
	if err := json.Unmarshal(blob, &sess); err != nil {
		return model.ComparisonSession{}, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return sess, nil
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}
