package model

import "time"

// RankedEntry is one item a user has placed into a category.
//
// Positions within a (user, category) pair form a dense 1..N sequence with
// no gaps or duplicates; position 1 is the best in the category. Rating is
// derived from position and category size, never entered directly. An item
// has at most one RankedEntry per user.
type RankedEntry struct {
	ID       string   `json:"id"`
	UserID   string   `json:"user_id"`
	ItemID   string   `json:"item_id"`
	Category Category `json:"category"`
	Position int      `json:"position"`
	Rating   float64  `json:"rating"`

	// Comparison outcomes recorded during insertion, by item id.
	WonAgainst []string `json:"won_against,omitempty"`
	LostTo     []string `json:"lost_to,omitempty"`
	TiedWith   []string `json:"tied_with,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RatingUpdate pairs an entry id with its freshly computed rating for
// bulk persistence.
type RatingUpdate struct {
	EntryID string
	Rating  float64
}
