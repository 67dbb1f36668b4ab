package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/reelrank/reelrank/internal/domain/model"
	"github.com/reelrank/reelrank/pkg/metrics"
)

// MemoryStore is the default in-memory Store. A single mutex guards all
// maps; per-user categories are small (hundreds of entries), so scans and
// sorts stay cheap and the dense-position updates remain trivially atomic.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]model.RankedEntry // entry id -> entry
	byItem  map[itemKey]string           // (user, item) -> entry id
}

type itemKey struct {
	userID string
	itemID string
}

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithInitialCapacity pre-sizes the internal maps.
func WithInitialCapacity(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.entries = make(map[string]model.RankedEntry, n)
			s.byItem = make(map[itemKey]string, n)
		}
	}
}

// NewMemoryStore creates an empty in-memory ranking store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]model.RankedEntry),
		byItem:  make(map[itemKey]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert persists a new entry, rejecting duplicates per (user, item).
func (s *MemoryStore) Insert(ctx context.Context, entry model.RankedEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := itemKey{userID: entry.UserID, itemID: entry.ItemID}
	if _, exists := s.byItem[key]; exists {
		return ErrDuplicateItem
	}
	s.entries[entry.ID] = entry
	s.byItem[key] = entry.ID
	metrics.UpdateTotalEntries(len(s.entries))
	return nil
}

// GetByID returns the entry with the given id.
func (s *MemoryStore) GetByID(ctx context.Context, entryID string) (model.RankedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[entryID]
	if !ok {
		return model.RankedEntry{}, ErrNotFound
	}
	return entry, nil
}

// GetByItem returns the user's entry for an item in any category.
func (s *MemoryStore) GetByItem(ctx context.Context, userID, itemID string) (model.RankedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byItem[itemKey{userID: userID, itemID: itemID}]
	if !ok {
		return model.RankedEntry{}, ErrNotFound
	}
	return s.entries[id], nil
}

// GetByPosition returns the entry at a position within (user, category).
func (s *MemoryStore) GetByPosition(ctx context.Context, userID string, category model.Category, position int) (model.RankedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if entry.UserID == userID && entry.Category == category && entry.Position == position {
			return entry, nil
		}
	}
	return model.RankedEntry{}, ErrNotFound
}

// ListByCategory returns entries ordered by ascending position.
func (s *MemoryStore) ListByCategory(ctx context.Context, userID string, category model.Category) ([]model.RankedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listLocked(userID, category), nil
}

// CountByCategory returns the number of entries in (user, category).
func (s *MemoryStore) CountByCategory(ctx context.Context, userID string, category model.Category) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, entry := range s.entries {
		if entry.UserID == userID && entry.Category == category {
			count++
		}
	}
	return count, nil
}

// TopByCategory returns up to limit entries ordered by position.
func (s *MemoryStore) TopByCategory(ctx context.Context, userID string, category model.Category, limit int) ([]model.RankedEntry, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.listLocked(userID, category)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// ShiftPositions adds delta to every position >= fromPosition in (user,
// category).
func (s *MemoryStore) ShiftPositions(ctx context.Context, userID string, category model.Category, fromPosition, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.entries {
		if entry.UserID == userID && entry.Category == category && entry.Position >= fromPosition {
			entry.Position += delta
			s.entries[id] = entry
		}
	}
	return nil
}

// UpdateEntry overwrites an existing entry by id.
func (s *MemoryStore) UpdateEntry(ctx context.Context, entry model.RankedEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.entries[entry.ID]
	if !ok {
		return ErrNotFound
	}
	if old.UserID != entry.UserID || old.ItemID != entry.ItemID {
		delete(s.byItem, itemKey{userID: old.UserID, itemID: old.ItemID})
		s.byItem[itemKey{userID: entry.UserID, itemID: entry.ItemID}] = entry.ID
	}
	s.entries[entry.ID] = entry
	return nil
}

// BulkUpdateRatings persists recomputed ratings.
func (s *MemoryStore) BulkUpdateRatings(ctx context.Context, updates []model.RatingUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		entry, ok := s.entries[u.EntryID]
		if !ok {
			return ErrNotFound
		}
		entry.Rating = u.Rating
		s.entries[u.EntryID] = entry
	}
	return nil
}

// Delete removes an entry by id.
func (s *MemoryStore) Delete(ctx context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[entryID]
	if !ok {
		return ErrNotFound
	}
	delete(s.entries, entryID)
	delete(s.byItem, itemKey{userID: entry.UserID, itemID: entry.ItemID})
	metrics.UpdateTotalEntries(len(s.entries))
	return nil
}

// listLocked collects and position-sorts a category. Caller holds s.mu.
func (s *MemoryStore) listLocked(userID string, category model.Category) []model.RankedEntry {
	var entries []model.RankedEntry
	for _, entry := range s.entries {
		if entry.UserID == userID && entry.Category == category {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Position < entries[j].Position
	})
	return entries
}
