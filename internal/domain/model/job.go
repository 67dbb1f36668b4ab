package model

import "time"

// RefreshJob asks the catalog to recompute aggregate stats for an item
// after a ranking commit. Delivery is best effort; a lost job only delays
// stat freshness, never ranking correctness.
type RefreshJob struct {
	JobID      string
	ItemID     string
	EnqueuedAt time.Time
}
