// Package types contains read shapes shared between the service and the
// HTTP API.
package types

// Ranking is one row of a category listing.
type Ranking struct {
	Position int     `json:"position"`
	ItemID   string  `json:"item_id"`
	Category string  `json:"category"`
	Rating   float64 `json:"rating"`
}

// NextComparison describes the pair the caller should present next.
type NextComparison struct {
	Position int    `json:"position"`
	ItemID   string `json:"item_id"`
}

// SessionState is the API view of a comparison session.
type SessionState struct {
	SessionID            string          `json:"session_id"`
	UserID               string          `json:"user_id"`
	ItemID               string          `json:"item_id"`
	Category             string          `json:"category"`
	Completed            bool            `json:"completed"`
	FinalPosition        int             `json:"final_position,omitempty"`
	Pending              *NextComparison `json:"pending,omitempty"`
	RemainingComparisons int             `json:"remaining_comparisons"`
}
