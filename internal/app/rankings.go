package app

import (
	"context"
	"fmt"

	"github.com/reelrank/reelrank/internal/domain/model"
	"github.com/reelrank/reelrank/internal/domain/types"
	"github.com/reelrank/reelrank/pkg/logger"
)

// Rankings lists the top entries of a user's category in position order.
func (s *Service) Rankings(ctx context.Context, userID string, category model.Category, limit int) ([]types.Ranking, error) {
	if userID == "" {
		return nil, ErrInvalidUser
	}

	entries, err := s.manager.TopInCategory(ctx, userID, category, limit)
	if err != nil {
		return nil, err
	}

	rankings := make([]types.Ranking, 0, len(entries))
	for _, e := range entries {
		rankings = append(rankings, types.Ranking{
			Position: e.Position,
			ItemID:   e.ItemID,
			Category: e.Category.String(),
			Rating:   e.Rating,
		})
	}
	return rankings, nil
}

// Ranking returns a single ranked entry by item id.
func (s *Service) Ranking(ctx context.Context, userID, itemID string) (model.RankedEntry, error) {
	if userID == "" {
		return model.RankedEntry{}, ErrInvalidUser
	}
	return s.store.GetByItem(ctx, userID, itemID)
}

// RemoveRanking deletes an item's entry, closes the position gap, and
// recomputes the category's ratings.
func (s *Service) RemoveRanking(ctx context.Context, userID, itemID string) error {
	if userID == "" {
		return ErrInvalidUser
	}

	entry, err := s.store.GetByItem(ctx, userID, itemID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, entry.ID); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if err := s.manager.ShiftUp(ctx, userID, entry.Category, entry.Position); err != nil {
		return fmt.Errorf("close gap at %d: %w", entry.Position, err)
	}
	if _, err := s.recalc.RecalculateCategory(ctx, userID, entry.Category); err != nil {
		return fmt.Errorf("recompute ratings: %w", err)
	}

	s.queueRefresh(ctx, itemID)
	s.log.Info(ctx, "ranking removed",
		logger.String("userID", userID),
		logger.String("itemID", itemID),
		logger.String("category", entry.Category.String()),
		logger.Int("position", entry.Position),
	)
	return nil
}

// MoveRanking relocates an item to the bottom of another category and
// recomputes ratings on both sides.
func (s *Service) MoveRanking(ctx context.Context, userID, itemID string, newCategory model.Category) (model.RankedEntry, error) {
	if userID == "" {
		return model.RankedEntry{}, ErrInvalidUser
	}

	entry, err := s.store.GetByItem(ctx, userID, itemID)
	if err != nil {
		return model.RankedEntry{}, err
	}
	oldCategory := entry.Category

	moved, err := s.manager.MoveToCategory(ctx, entry.ID, newCategory)
	if err != nil {
		return model.RankedEntry{}, err
	}
	if moved.Category == oldCategory {
		return moved, nil
	}

	if _, err := s.recalc.RecalculateCategory(ctx, userID, oldCategory); err != nil {
		return model.RankedEntry{}, fmt.Errorf("recompute %s: %w", oldCategory, err)
	}
	if _, err := s.recalc.RecalculateCategory(ctx, userID, newCategory); err != nil {
		return model.RankedEntry{}, fmt.Errorf("recompute %s: %w", newCategory, err)
	}

	s.queueRefresh(ctx, itemID)
	s.log.Info(ctx, "ranking moved",
		logger.String("userID", userID),
		logger.String("itemID", itemID),
		logger.String("from", oldCategory.String()),
		logger.String("to", newCategory.String()),
	)

	// Re-read so the caller sees the rating computed for the new slot.
	return s.store.GetByID(ctx, moved.ID)
}

// SessionView projects a session into its API shape.
func SessionView(sess model.ComparisonSession) types.SessionState {
	view := types.SessionState{
		SessionID:            sess.ID,
		UserID:               sess.UserID,
		ItemID:               sess.ItemID,
		Category:             sess.Category.String(),
		Completed:            sess.Completed,
		FinalPosition:        sess.FinalPosition,
		RemainingComparisons: sess.Search.EstimateRemaining(),
	}
	if sess.Pending != nil {
		view.Pending = &types.NextComparison{
			Position: sess.Pending.Position,
			ItemID:   sess.Pending.ItemID,
		}
	}
	return view
}
