package rating

import (
	"context"
	"fmt"

	"github.com/reelrank/reelrank/internal/domain/model"
	"github.com/reelrank/reelrank/pkg/logger"
	"github.com/reelrank/reelrank/pkg/metrics"
)

// Store is the slice of the ranking store the recalculator needs.
type Store interface {
	ListByCategory(ctx context.Context, userID string, category model.Category) ([]model.RankedEntry, error)
	BulkUpdateRatings(ctx context.Context, updates []model.RatingUpdate) error
}

// Recalculator bulk-recomputes ratings for a category whenever its size
// changes. Every rating depends on the total count, so inserts, deletes and
// moves all require a category-wide pass; this is O(N) per operation and a
// known scalability bound for very large per-user categories.
type Recalculator struct {
	store Store
	log   logger.Logger
}

// RecalcOption applies a configuration option to the Recalculator.
type RecalcOption func(*Recalculator)

// WithLogger sets a custom logger for the recalculator.
func WithLogger(log logger.Logger) RecalcOption {
	return func(r *Recalculator) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRecalculator creates a recalculator over the given store.
func NewRecalculator(store Store, opts ...RecalcOption) *Recalculator {
	r := &Recalculator{
		store: store,
		log:   logger.Get().Named("rating"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecalculateCategory recomputes every rating in (user, category) from the
// current positions and persists them in one bulk update. Returns the
// number of entries updated.
func (r *Recalculator) RecalculateCategory(ctx context.Context, userID string, category model.Category) (int, error) {
	return r.recalculate(ctx, userID, category, 1)
}

// RecalculateFromPosition recomputes ratings for entries at or after
// fromPosition. The interpolation still uses the full current category
// size, only the written subset shrinks.
func (r *Recalculator) RecalculateFromPosition(ctx context.Context, userID string, category model.Category, fromPosition int) (int, error) {
	if fromPosition < 1 {
		fromPosition = 1
	}
	return r.recalculate(ctx, userID, category, fromPosition)
}

func (r *Recalculator) recalculate(ctx context.Context, userID string, category model.Category, fromPosition int) (int, error) {
	entries, err := r.store.ListByCategory(ctx, userID, category)
	if err != nil {
		return 0, fmt.Errorf("list category %s: %w", category, err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	total := len(entries)
	updates := make([]model.RatingUpdate, 0, total)
	for _, e := range entries {
		if e.Position < fromPosition {
			continue
		}
		score, err := ForPosition(e.Position, total, category)
		if err != nil {
			return 0, fmt.Errorf("rate position %d: %w", e.Position, err)
		}
		updates = append(updates, model.RatingUpdate{EntryID: e.ID, Rating: score})
	}
	if len(updates) == 0 {
		return 0, nil
	}

	if err := r.store.BulkUpdateRatings(ctx, updates); err != nil {
		return 0, fmt.Errorf("bulk update ratings: %w", err)
	}

	metrics.RecordRatingsRecomputed(len(updates))
	r.log.Debug(ctx, "ratings recomputed",
		logger.String("userID", userID),
		logger.String("category", category.String()),
		logger.Int("updated", len(updates)),
	)
	return len(updates), nil
}
