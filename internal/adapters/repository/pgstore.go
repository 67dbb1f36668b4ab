package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/reelrank/reelrank/internal/domain/model"
	"github.com/reelrank/reelrank/pkg/logger"
)

// Schema is the DDL for the rankings table. Safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS ranked_entries (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	item_id     TEXT NOT NULL,
	category    TEXT NOT NULL,
	position    INT  NOT NULL,
	rating      DOUBLE PRECISION NOT NULL,
	won_against TEXT[] NOT NULL DEFAULT '{}',
	lost_to     TEXT[] NOT NULL DEFAULT '{}',
	tied_with   TEXT[] NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, item_id)
);
CREATE INDEX IF NOT EXISTS idx_ranked_entries_bucket
	ON ranked_entries (user_id, category, position);
`

const entryColumns = `id, user_id, item_id, category, position, rating,
	won_against, lost_to, tied_with, created_at, updated_at`

// PostgresStore implements Store on PostgreSQL through database/sql and
// the lib/pq driver.
type PostgresStore struct {
	db  *sql.DB
	log logger.Logger
}

// PostgresOption applies a configuration option to the PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPostgresLogger sets a custom logger for the store.
func WithPostgresLogger(log logger.Logger) PostgresOption {
	return func(s *PostgresStore) {
		if log != nil {
			s.log = log
		}
	}
}

// NewPostgresStore wraps an open database handle. The caller owns the
// handle's lifecycle.
func NewPostgresStore(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{
		db:  db,
		log: logger.Get().Named("pgstore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema creates the rankings table and index if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Insert persists a new entry, rejecting duplicates per (user, item).
func (s *PostgresStore) Insert(ctx context.Context, entry model.RankedEntry) error {
	const q = `INSERT INTO ranked_entries (` + entryColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := s.db.ExecContext(ctx, q,
		entry.ID, entry.UserID, entry.ItemID, entry.Category.String(),
		entry.Position, entry.Rating,
		pq.Array(entry.WonAgainst), pq.Array(entry.LostTo), pq.Array(entry.TiedWith),
		entry.CreatedAt, entry.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrDuplicateItem
	}
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// GetByID returns the entry with the given id.
func (s *PostgresStore) GetByID(ctx context.Context, entryID string) (model.RankedEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM ranked_entries WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, q, entryID))
}

// GetByItem returns the user's entry for an item in any category.
func (s *PostgresStore) GetByItem(ctx context.Context, userID, itemID string) (model.RankedEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM ranked_entries
		WHERE user_id = $1 AND item_id = $2`
	return s.scanOne(s.db.QueryRowContext(ctx, q, userID, itemID))
}

// GetByPosition returns the entry at a position within (user, category).
func (s *PostgresStore) GetByPosition(ctx context.Context, userID string, category model.Category, position int) (model.RankedEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM ranked_entries
		WHERE user_id = $1 AND category = $2 AND position = $3`
	return s.scanOne(s.db.QueryRowContext(ctx, q, userID, category.String(), position))
}

// ListByCategory returns entries ordered by ascending position.
func (s *PostgresStore) ListByCategory(ctx context.Context, userID string, category model.Category) ([]model.RankedEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM ranked_entries
		WHERE user_id = $1 AND category = $2 ORDER BY position ASC`
	return s.queryEntries(ctx, q, userID, category.String())
}

// CountByCategory returns the number of entries in (user, category).
func (s *PostgresStore) CountByCategory(ctx context.Context, userID string, category model.Category) (int, error) {
	const q = `SELECT COUNT(*) FROM ranked_entries WHERE user_id = $1 AND category = $2`
	var count int
	if err := s.db.QueryRowContext(ctx, q, userID, category.String()).Scan(&count); err != nil {
		return 0, fmt.Errorf("count category: %w", err)
	}
	return count, nil
}

// TopByCategory returns up to limit entries ordered by position.
func (s *PostgresStore) TopByCategory(ctx context.Context, userID string, category model.Category, limit int) ([]model.RankedEntry, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	const q = `SELECT ` + entryColumns + ` FROM ranked_entries
		WHERE user_id = $1 AND category = $2 ORDER BY position ASC LIMIT $3`
	return s.queryEntries(ctx, q, userID, category.String(), limit)
}

// ShiftPositions adds delta to every position >= fromPosition in (user,
// category).
func (s *PostgresStore) ShiftPositions(ctx context.Context, userID string, category model.Category, fromPosition, delta int) error {
	const q = `UPDATE ranked_entries SET position = position + $1, updated_at = NOW()
		WHERE user_id = $2 AND category = $3 AND position >= $4`
	if _, err := s.db.ExecContext(ctx, q, delta, userID, category.String(), fromPosition); err != nil {
		return fmt.Errorf("shift positions: %w", err)
	}
	return nil
}

// UpdateEntry overwrites an existing entry by id.
func (s *PostgresStore) UpdateEntry(ctx context.Context, entry model.RankedEntry) error {
	const q = `UPDATE ranked_entries SET
			user_id = $2, item_id = $3, category = $4, position = $5, rating = $6,
			won_against = $7, lost_to = $8, tied_with = $9, updated_at = $10
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, q,
		entry.ID, entry.UserID, entry.ItemID, entry.Category.String(),
		entry.Position, entry.Rating,
		pq.Array(entry.WonAgainst), pq.Array(entry.LostTo), pq.Array(entry.TiedWith),
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkUpdateRatings persists recomputed ratings in one transaction.
func (s *PostgresStore) BulkUpdateRatings(ctx context.Context, updates []model.RatingUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin ratings tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Warn(ctx, "ratings tx rollback failed", logger.Error(err))
		}
	}()

	const q = `UPDATE ranked_entries SET rating = $2, updated_at = NOW() WHERE id = $1`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("prepare ratings update: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.EntryID, u.Rating); err != nil {
			return fmt.Errorf("update rating for %s: %w", u.EntryID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ratings tx: %w", err)
	}
	return nil
}

// Delete removes an entry by id.
func (s *PostgresStore) Delete(ctx context.Context, entryID string) error {
	const q = `DELETE FROM ranked_entries WHERE id = $1`
	res, err := s.db.ExecContext(ctx, q, entryID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanOne(row rowScanner) (model.RankedEntry, error) {
	var (
		entry    model.RankedEntry
		category string
	)
	err := row.Scan(
		&entry.ID, &entry.UserID, &entry.ItemID, &category,
		&entry.Position, &entry.Rating,
		pq.Array(&entry.WonAgainst), pq.Array(&entry.LostTo), pq.Array(&entry.TiedWith),
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RankedEntry{}, ErrNotFound
	}
	if err != nil {
		return model.RankedEntry{}, fmt.Errorf("scan entry: %w", err)
	}
	entry.Category = model.Category(category)
	return entry, nil
}

func (s *PostgresStore) queryEntries(ctx context.Context, q string, args ...any) ([]model.RankedEntry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []model.RankedEntry
	for rows.Next() {
		entry, err := s.scanOne(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}
