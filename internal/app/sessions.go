package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reelrank/reelrank/internal/adapters/repository"
	sessionstore "github.com/reelrank/reelrank/internal/adapters/session"
	"github.com/reelrank/reelrank/internal/domain/model"
	"github.com/reelrank/reelrank/internal/domain/rank"
	"github.com/reelrank/reelrank/internal/domain/rating"
	"github.com/reelrank/reelrank/internal/domain/search"
	"github.com/reelrank/reelrank/pkg/logger"
	"github.com/reelrank/reelrank/pkg/metrics"
)

// StartSession begins a comparison session placing a new item into a
// category for a user.
//
// An item the user already ranked (in any category) is rejected; it must
// be removed or moved instead. An empty category short-circuits to a
// completed session at position 1 with no comparisons.
func (s *Service) StartSession(ctx context.Context, userID string, externalID int64, category model.Category) (model.ComparisonSession, error) {
	if userID == "" {
		return model.ComparisonSession{}, ErrInvalidUser
	}
	if !category.Valid() {
		return model.ComparisonSession{}, fmt.Errorf("%w: %s", rank.ErrInvalidCategory, category)
	}

	item, err := s.catalog.EnsureCached(ctx, externalID)
	if err != nil {
		return model.ComparisonSession{}, fmt.Errorf("resolve item %d: %w", externalID, err)
	}

	_, err = s.store.GetByItem(ctx, userID, item.ID)
	switch {
	case err == nil:
		return model.ComparisonSession{}, fmt.Errorf("%w: %s", ErrItemAlreadyRanked, item.ID)
	case !errors.Is(err, repository.ErrNotFound):
		return model.ComparisonSession{}, fmt.Errorf("check existing ranking: %w", err)
	}

	count, err := s.store.CountByCategory(ctx, userID, category)
	if err != nil {
		return model.ComparisonSession{}, fmt.Errorf("count category %s: %w", category, err)
	}

	now := time.Now().UTC()
	sess := model.ComparisonSession{
		ID:             uuid.NewString(),
		UserID:         userID,
		ExternalID:     externalID,
		ItemID:         item.ID,
		Category:       category,
		Search:         search.NewState(count),
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if err := s.advance(ctx, &sess); err != nil {
		return model.ComparisonSession{}, err
	}

	if err := s.sessions.Put(ctx, sess, s.sessionTTL); err != nil {
		return model.ComparisonSession{}, fmt.Errorf("store session: %w", err)
	}

	metrics.RecordSessionStarted()
	s.log.Info(ctx, "comparison session started",
		logger.String("sessionID", sess.ID),
		logger.String("userID", userID),
		logger.String("category", category.String()),
		logger.Int("categorySize", count),
		logger.Any("completed", sess.Completed),
	)
	return sess, nil
}

// SubmitComparison feeds one preference into a session's search and either
// completes the session or prepares the next comparison.
func (s *Service) SubmitComparison(ctx context.Context, sessionID string, preference model.Preference) (model.ComparisonSession, error) {
	if !preference.Valid() {
		return model.ComparisonSession{}, fmt.Errorf("%w: %q", ErrInvalidPreference, preference)
	}

	lock := s.locks.acquire(sessionID)
	defer lock.Unlock()

	sess, err := s.getSession(ctx, sessionID)
	if err != nil {
		return model.ComparisonSession{}, err
	}
	if sess.Completed {
		return model.ComparisonSession{}, fmt.Errorf("%w: %s", ErrSessionCompleted, sessionID)
	}
	if sess.Pending == nil {
		return model.ComparisonSession{}, fmt.Errorf("%w: %s", ErrNoPendingComparison, sessionID)
	}

	sess.Search.Apply(sess.Pending.Position, sess.Pending.EntryID, sess.Pending.ItemID, preference.Outcome())
	if err := s.advance(ctx, &sess); err != nil {
		return model.ComparisonSession{}, err
	}

	sess.LastActivityAt = time.Now().UTC()
	if err := s.sessions.Put(ctx, sess, s.sessionTTL); err != nil {
		return model.ComparisonSession{}, fmt.Errorf("store session: %w", err)
	}

	metrics.RecordComparisonSubmitted()
	return sess, nil
}

// CompleteRanking commits a resolved session: shift positions to open the
// slot, insert the new entry with its comparison history, recompute the
// whole category's ratings, queue a stat refresh, and purge the session.
func (s *Service) CompleteRanking(ctx context.Context, sessionID string) (model.RankedEntry, error) {
	lock := s.locks.acquire(sessionID)
	defer lock.Unlock()

	sess, err := s.getSession(ctx, sessionID)
	if err != nil {
		return model.RankedEntry{}, err
	}
	if !sess.Completed {
		return model.RankedEntry{}, fmt.Errorf("%w: %s", ErrSessionNotResolved, sessionID)
	}

	start := time.Now()
	position := sess.FinalPosition

	// Order matters: the slot must exist before the insert, and the
	// recompute depends on the post-insert count.
	if err := s.manager.ShiftDown(ctx, sess.UserID, sess.Category, position); err != nil {
		return model.RankedEntry{}, fmt.Errorf("open slot at %d: %w", position, err)
	}

	count, err := s.store.CountByCategory(ctx, sess.UserID, sess.Category)
	if err != nil {
		return model.RankedEntry{}, fmt.Errorf("count category: %w", err)
	}
	score, err := rating.ForPosition(position, count+1, sess.Category)
	if err != nil {
		return model.RankedEntry{}, fmt.Errorf("rate new entry: %w", err)
	}

	entry := s.buildEntry(&sess, position, score)
	if err := s.store.Insert(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateItem) {
			return model.RankedEntry{}, fmt.Errorf("%w: %s", ErrItemAlreadyRanked, sess.ItemID)
		}
		return model.RankedEntry{}, fmt.Errorf("insert entry: %w", err)
	}

	// Every existing rating depends on the category size, so the whole
	// category is rewritten, not just the new entry.
	if _, err := s.recalc.RecalculateCategory(ctx, sess.UserID, sess.Category); err != nil {
		return model.RankedEntry{}, fmt.Errorf("recompute ratings: %w", err)
	}

	s.queueRefresh(ctx, sess.ItemID)
	s.purgeSession(ctx, sessionID)

	metrics.RecordSessionCompleted()
	metrics.RecordCommitLatency(float64(time.Since(start).Milliseconds()))
	s.log.Info(ctx, "ranking committed",
		logger.String("sessionID", sessionID),
		logger.String("userID", sess.UserID),
		logger.String("itemID", sess.ItemID),
		logger.String("category", sess.Category.String()),
		logger.Int("position", position),
		logger.Float64("rating", score),
		logger.Int("comparisons", len(sess.Search.Comparisons)),
	)

	// Re-read so the caller sees the recomputed rating.
	committed, err := s.store.GetByID(ctx, entry.ID)
	if err != nil {
		return entry, nil //nolint:nilerr // entry was committed; stale rating beats a spurious failure
	}
	return committed, nil
}

// GetSession returns a live session by id.
func (s *Service) GetSession(ctx context.Context, sessionID string) (model.ComparisonSession, error) {
	return s.getSession(ctx, sessionID)
}

// CancelSession discards a session without committing anything.
func (s *Service) CancelSession(ctx context.Context, sessionID string) error {
	lock := s.locks.acquire(sessionID)
	defer lock.Unlock()

	if _, err := s.getSession(ctx, sessionID); err != nil {
		return err
	}
	s.purgeSession(ctx, sessionID)
	metrics.RecordSessionCancelled()
	s.log.Info(ctx, "comparison session cancelled", logger.String("sessionID", sessionID))
	return nil
}

// advance walks the search forward: replays cached probe results, and
// either marks the session completed or loads the next comparison pair.
func (s *Service) advance(ctx context.Context, sess *model.ComparisonSession) error {
	for {
		if sess.Search.Resolved() {
			sess.Completed = true
			sess.FinalPosition = sess.Search.FinalPosition()
			sess.Pending = nil
			return nil
		}

		probe, _ := sess.Search.Probe()
		if cached, ok := sess.Search.Cached(probe); ok {
			// Already answered in this session; never re-ask the user.
			var entryID, itemID string
			for _, c := range sess.Search.Comparisons {
				if c.Position == probe {
					entryID, itemID = c.EntryID, c.ItemID
					break
				}
			}
			sess.Search.Apply(probe, entryID, itemID, cached)
			continue
		}

		incumbent, err := s.store.GetByPosition(ctx, sess.UserID, sess.Category, probe)
		if err != nil {
			return fmt.Errorf("load incumbent at position %d: %w", probe, err)
		}
		sess.Pending = &model.PendingComparison{
			Position: probe,
			EntryID:  incumbent.ID,
			ItemID:   incumbent.ItemID,
		}
		return nil
	}
}

// buildEntry materializes the RankedEntry for a resolved session,
// deriving the comparison history from the search log.
func (s *Service) buildEntry(sess *model.ComparisonSession, position int, score float64) model.RankedEntry {
	now := time.Now().UTC()
	entry := model.RankedEntry{
		ID:        uuid.NewString(),
		UserID:    sess.UserID,
		ItemID:    sess.ItemID,
		Category:  sess.Category,
		Position:  position,
		Rating:    score,
		CreatedAt: now,
		UpdatedAt: now,
	}
	seen := make(map[string]bool, len(sess.Search.Comparisons))
	for _, c := range sess.Search.Comparisons {
		if c.ItemID == "" || seen[c.ItemID] {
			continue
		}
		seen[c.ItemID] = true
		switch c.Result {
		case search.ResultWin:
			entry.WonAgainst = append(entry.WonAgainst, c.ItemID)
		case search.ResultLoss:
			entry.LostTo = append(entry.LostTo, c.ItemID)
		case search.ResultTie:
			entry.TiedWith = append(entry.TiedWith, c.ItemID)
		}
	}
	return entry
}

func (s *Service) getSession(ctx context.Context, sessionID string) (model.ComparisonSession, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, sessionstore.ErrNotFound) {
		return model.ComparisonSession{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return model.ComparisonSession{}, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

func (s *Service) purgeSession(ctx context.Context, sessionID string) {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.log.Warn(ctx, "session delete failed", logger.String("sessionID", sessionID), logger.Error(err))
	}
	s.locks.forget(sessionID)
}

// queueRefresh enqueues a best-effort aggregate-stat refresh.
func (s *Service) queueRefresh(ctx context.Context, itemID string) {
	job := model.RefreshJob{
		JobID:      uuid.NewString(),
		ItemID:     itemID,
		EnqueuedAt: time.Now().UTC(),
	}
	if !s.refreshQueue.Enqueue(ctx, job) {
		s.log.Warn(ctx, "refresh queue full; stats refresh dropped",
			logger.String("itemID", itemID),
		)
	}
}
