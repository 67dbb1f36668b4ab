package model

import (
	"time"

	"github.com/reelrank/reelrank/internal/domain/search"
)

// Preference is the caller's answer to a pending comparison: which of the
// two items they prefer.
type Preference string

// Accepted preference values.
const (
	PreferenceNewItem      Preference = "new_item"
	PreferenceExistingItem Preference = "existing_item"
	PreferenceTie          Preference = "tie"
)

// Valid reports whether p is an accepted preference value.
func (p Preference) Valid() bool {
	switch p {
	case PreferenceNewItem, PreferenceExistingItem, PreferenceTie:
		return true
	default:
		return false
	}
}

// Outcome translates a preference into a search result for the new item.
func (p Preference) Outcome() search.Result {
	switch p {
	case PreferenceNewItem:
		return search.ResultWin
	case PreferenceExistingItem:
		return search.ResultLoss
	default:
		return search.ResultTie
	}
}

// PendingComparison is the pair currently awaiting the user's judgment.
type PendingComparison struct {
	Position int    `json:"position"`
	EntryID  string `json:"entry_id"`
	ItemID   string `json:"item_id"`
}

// ComparisonSession is the transient state of one in-progress ranking
// operation. It is serialized as a JSON blob into the session store and
// purged on commit, cancel, or TTL expiry.
type ComparisonSession struct {
	ID         string   `json:"id"`
	UserID     string   `json:"user_id"`
	ExternalID int64    `json:"external_id"`
	ItemID     string   `json:"item_id"`
	Category   Category `json:"category"`

	Search  search.State       `json:"search"`
	Pending *PendingComparison `json:"pending,omitempty"`

	Completed     bool `json:"completed"`
	FinalPosition int  `json:"final_position,omitempty"`

	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}
