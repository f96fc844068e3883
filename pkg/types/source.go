package types

import (
	"context"
	"iter"
	"time"
)

// RawPost is one post as returned by the timeline source, before
// normalization into a Record.
type RawPost struct {
	ID                int64
	Username          string
	Text              string
	CreatedAt         time.Time
	InReplyToID       *int64
	InReplyToUsername string
	Repost            bool
}

// TimelineSource is a paginated, rate-limited source of posts.
type TimelineSource interface {
	// ListTimeline returns up to count posts from subject's timeline bounded
	// by cursor, newest first.
	ListTimeline(ctx context.Context, subject string, count int, cursor Cursor) ([]RawPost, error)

	// GetPost returns a single post. Recognized refusals are returned as
	// *LookupError; transport failures as *UpstreamError; quota exhaustion
	// as *RateLimitError.
	GetPost(ctx context.Context, id int64) (RawPost, error)

	// VerifyCredentials checks the configured credentials and returns the
	// authenticated screen name.
	VerifyCredentials(ctx context.Context) (string, error)

	// RateLimitRemaining returns the remaining quota reported by the last
	// call, and false when the upstream did not report one.
	RateLimitRemaining() (int, bool)
}

// RecordStore is the durable table of fetched records.
type RecordStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if the source id is
	// already stored; the stored row is left untouched.
	Insert(rec *Record) error

	// MaxSourceID returns the newest stored id for username, false if none.
	MaxSourceID(username string) (int64, bool, error)

	// MinSourceID returns the oldest stored id for username, false if none.
	MinSourceID(username string) (int64, bool, error)

	// PendingBackfill lazily yields records that still need their parent
	// resolved. Callers may update records while iterating.
	PendingBackfill() iter.Seq2[Record, error]

	// UpdateParentInfo records the outcome of a parent lookup. Returns
	// ErrNotFound for unknown ids and ErrNotPending if the record is not
	// awaiting backfill.
	UpdateParentInfo(sourceID int64, outcome ParentOutcome) error
}

// ConfigStore provides named string settings and persists updates.
type ConfigStore interface {
	Get(key string) string
	Set(key, value string)
	Write() error
}
