// Package repository defines the ranking store interface and its
// implementations.
package repository

import (
	"context"

	"github.com/reelrank/reelrank/internal/domain/model"
)

// Store provides read/write access to ranked entries.
//
// Implementations must keep operations on a single (user, category) pair
// consistent with each other; the dense-position invariant itself is owned
// by the rank.Manager call sequence.
type Store interface {
	// Insert persists a new entry. Returns ErrDuplicateItem if the user
	// already ranked the item in any category.
	Insert(ctx context.Context, entry model.RankedEntry) error

	// GetByID returns the entry with the given id, or ErrNotFound.
	GetByID(ctx context.Context, entryID string) (model.RankedEntry, error)

	// GetByItem returns the user's entry for an item regardless of
	// category, or ErrNotFound.
	GetByItem(ctx context.Context, userID, itemID string) (model.RankedEntry, error)

	// GetByPosition returns the entry at a position within (user,
	// category), or ErrNotFound.
	GetByPosition(ctx context.Context, userID string, category model.Category, position int) (model.RankedEntry, error)

	// ListByCategory returns all entries in (user, category) ordered by
	// ascending position.
	ListByCategory(ctx context.Context, userID string, category model.Category) ([]model.RankedEntry, error)

	// CountByCategory returns the number of entries in (user, category).
	CountByCategory(ctx context.Context, userID string, category model.Category) (int, error)

	// TopByCategory returns up to limit entries ordered by position.
	TopByCategory(ctx context.Context, userID string, category model.Category, limit int) ([]model.RankedEntry, error)

	// ShiftPositions adds delta to the position of every entry in (user,
	// category) whose position is >= fromPosition.
	ShiftPositions(ctx context.Context, userID string, category model.Category, fromPosition, delta int) error

	// UpdateEntry overwrites an existing entry by id.
	UpdateEntry(ctx context.Context, entry model.RankedEntry) error

	// BulkUpdateRatings persists freshly computed ratings in one write.
	BulkUpdateRatings(ctx context.Context, updates []model.RatingUpdate) error

	// Delete removes an entry by id. Position reflow is the caller's
	// responsibility.
	Delete(ctx context.Context, entryID string) error
}
