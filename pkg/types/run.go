package types

import "time"

// Run is one journaled sync cycle.
type Run struct {
	RunID      string     // UUID v7.
	StartedAt  time.Time
	FinishedAt *time.Time // Nil while the cycle is in progress or crashed.
	Fetched    int
	Backfilled int
	Error      *string // Nil on success.
}

// WindowStats holds the raw figures a report is computed from.
type WindowStats struct {
	Username  string
	Since     time.Time
	Posts     int     // Records created at or after Since.
	Replies   int     // Of those, records with a parent id.
	Latencies []int64 // Resolved reply latencies in seconds, ascending.
}
