// Package rank maintains the dense 1..N position invariant within each
// (user, category) bucket.
package rank

import (
	"context"
	"fmt"
	"time"

	"github.com/reelrank/reelrank/internal/domain/model"
	"github.com/reelrank/reelrank/pkg/logger"
)

// Store is the slice of the ranking store the manager needs.
type Store interface {
	GetByID(ctx context.Context, entryID string) (model.RankedEntry, error)
	ListByCategory(ctx context.Context, userID string, category model.Category) ([]model.RankedEntry, error)
	CountByCategory(ctx context.Context, userID string, category model.Category) (int, error)
	TopByCategory(ctx context.Context, userID string, category model.Category, limit int) ([]model.RankedEntry, error)
	ShiftPositions(ctx context.Context, userID string, category model.Category, fromPosition, delta int) error
	UpdateEntry(ctx context.Context, entry model.RankedEntry) error
}

// Manager owns position bookkeeping. It never touches ratings; callers
// trigger a rating recomputation after any operation that changes a
// category's size.
type Manager struct {
	store Store
	log   logger.Logger
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithLogger sets a custom logger for the manager.
func WithLogger(log logger.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates a position manager over the given store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		log:   logger.Get().Named("rank"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsValidCategory reports whether category is one of the fixed three.
func IsValidCategory(category model.Category) bool {
	return category.Valid()
}

// RankingsInCategory returns all entries in (user, category) ordered by
// ascending position.
func (m *Manager) RankingsInCategory(ctx context.Context, userID string, category model.Category) ([]model.RankedEntry, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCategory, category)
	}
	return m.store.ListByCategory(ctx, userID, category)
}

// CountInCategory returns the number of entries in (user, category).
func (m *Manager) CountInCategory(ctx context.Context, userID string, category model.Category) (int, error) {
	if !category.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCategory, category)
	}
	return m.store.CountByCategory(ctx, userID, category)
}

// TopInCategory returns up to limit entries ordered by position.
func (m *Manager) TopInCategory(ctx context.Context, userID string, category model.Category, limit int) ([]model.RankedEntry, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCategory, category)
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	return m.store.TopByCategory(ctx, userID, category, limit)
}

// ShiftDown increments the position of every entry at or after
// fromPosition, opening a slot for an insert at fromPosition.
func (m *Manager) ShiftDown(ctx context.Context, userID string, category model.Category, fromPosition int) error {
	if fromPosition < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPosition, fromPosition)
	}
	if err := m.store.ShiftPositions(ctx, userID, category, fromPosition, +1); err != nil {
		return fmt.Errorf("shift down from %d: %w", fromPosition, err)
	}
	return nil
}

// ShiftUp decrements the position of every entry strictly after
// fromPosition, closing the gap left by a removal at fromPosition.
func (m *Manager) ShiftUp(ctx context.Context, userID string, category model.Category, fromPosition int) error {
	if fromPosition < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPosition, fromPosition)
	}
	if err := m.store.ShiftPositions(ctx, userID, category, fromPosition+1, -1); err != nil {
		return fmt.Errorf("shift up after %d: %w", fromPosition, err)
	}
	return nil
}

// MoveToCategory moves an entry to the end of newCategory: the source
// category's gap is closed and the entry lands at destination count+1.
// Rating recomputation in both categories is the caller's responsibility.
func (m *Manager) MoveToCategory(ctx context.Context, entryID string, newCategory model.Category) (model.RankedEntry, error) {
	if !newCategory.Valid() {
		return model.RankedEntry{}, fmt.Errorf("%w: %s", ErrInvalidCategory, newCategory)
	}

	entry, err := m.store.GetByID(ctx, entryID)
	if err != nil {
		return model.RankedEntry{}, fmt.Errorf("load entry %s: %w", entryID, err)
	}
	if entry.Category == newCategory {
		return entry, nil
	}

	oldCategory := entry.Category
	oldPosition := entry.Position

	destCount, err := m.store.CountByCategory(ctx, entry.UserID, newCategory)
	if err != nil {
		return model.RankedEntry{}, fmt.Errorf("count destination: %w", err)
	}

	entry.Category = newCategory
	entry.Position = destCount + 1
	entry.UpdatedAt = time.Now().UTC()
	if err := m.store.UpdateEntry(ctx, entry); err != nil {
		return model.RankedEntry{}, fmt.Errorf("move entry: %w", err)
	}

	if err := m.ShiftUp(ctx, entry.UserID, oldCategory, oldPosition); err != nil {
		return model.RankedEntry{}, fmt.Errorf("close source gap: %w", err)
	}

	m.log.Info(ctx, "entry moved between categories",
		logger.String("entryID", entry.ID),
		logger.String("from", oldCategory.String()),
		logger.String("to", newCategory.String()),
		logger.Int("position", entry.Position),
	)
	return entry, nil
}
