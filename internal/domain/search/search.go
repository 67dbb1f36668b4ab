// Package search implements the binary-insertion search that places a new
// item into an already ordered category using pairwise user judgments.
//
// The search is an explicit, serializable state machine rather than a
// recursive walk: the full state is {low, high, comparisons}, so it can be
// stored between requests and rebuilt from a checkpoint without re-asking
// the user anything.
package search

import "math"

// Result is the outcome of a single pairwise comparison between the new
// item and the existing entry at the probed position.
type Result string

// Comparison results from the new item's point of view.
const (
	ResultWin  Result = "win"  // new item preferred over the incumbent
	ResultLoss Result = "loss" // incumbent preferred over the new item
	ResultTie  Result = "tie"  // no preference either way
)

// Valid reports whether r is a known comparison result.
func (r Result) Valid() bool {
	switch r {
	case ResultWin, ResultLoss, ResultTie:
		return true
	default:
		return false
	}
}

// Comparison records one resolved probe.
type Comparison struct {
	Position int    `json:"position"`
	EntryID  string `json:"entry_id"`
	ItemID   string `json:"item_id"`
	Result   Result `json:"result"`
}

// State is the serializable search state over existing positions 1..N.
//
// Invariant: Low <= High+1. The search is resolved once Low > High, and the
// final position is Low.
type State struct {
	Low         int          `json:"low"`
	High        int          `json:"high"`
	Comparisons []Comparison `json:"comparisons,omitempty"`
}

// NewState starts a search over a category holding categorySize entries.
// An empty category resolves immediately at position 1.
func NewState(categorySize int) State {
	return State{Low: 1, High: categorySize}
}

// Resolved reports whether the search range has collapsed.
func (s *State) Resolved() bool {
	return s.Low > s.High
}

// FinalPosition returns the resolved insertion position. Only meaningful
// once Resolved reports true.
func (s *State) FinalPosition() int {
	return s.Low
}

// Probe returns the next position to compare the new item against. The
// second return is false once the search is resolved.
func (s *State) Probe() (int, bool) {
	if s.Resolved() {
		return 0, false
	}
	return (s.Low + s.High) / 2, true
}

// Cached returns the recorded result for a position already compared in
// this search, if any. Replays after a checkpoint restart hit this instead
// of asking the user again.
func (s *State) Cached(position int) (Result, bool) {
	for _, c := range s.Comparisons {
		if c.Position == position {
			return c.Result, true
		}
	}
	return "", false
}

// Apply feeds one comparison result into the search and narrows the range.
//
//   - win: the new item ranks above the incumbent, search continues above
//   - loss: the new item ranks below, search continues below
//   - tie: resolved immediately directly after the tied incumbent
func (s *State) Apply(position int, entryID, itemID string, r Result) {
	s.Comparisons = append(s.Comparisons, Comparison{
		Position: position,
		EntryID:  entryID,
		ItemID:   itemID,
		Result:   r,
	})
	switch r {
	case ResultWin:
		s.High = position - 1
	case ResultLoss:
		s.Low = position + 1
	case ResultTie:
		// Tied items place the new one immediately after the incumbent.
		s.Low = position + 1
		s.High = position
	}
}

// EstimateRemaining returns the expected number of comparisons left,
// ceil(log2(range size)). Advisory only; used for progress display.
func (s *State) EstimateRemaining() int {
	size := s.High - s.Low + 1
	if size <= 0 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(size))))
}
