package types

import (
	"fmt"
	"time"
)

// DisplayTimeLayout is the layout of the display string stored next to the
// epoch seconds of every record.
const DisplayTimeLayout = "2006-01-02 15:04:05"

// Record is one post fetched from a user's timeline.
//
// The base fields (SourceID, Username, CreatedAt, Text, URL) are written
// once by the sync walk. The Parent* fields and ReplyLatencySeconds are
// filled exactly once by the backfill pass.
type Record struct {
	SourceID  int64     // Upstream post id, unique and increasing per timeline.
	Username  string    // Owner of the timeline.
	CreatedAt time.Time // Creation time, second precision.
	Text      string    // Post body.
	URL       string    // Permalink.

	ParentID          *int64  // Post this one replies to; nil if not a reply.
	ParentUsername    *string // Author of the parent post.
	ParentCreatedAt   *int64  // Parent creation time in epoch seconds.
	ParentURL         *string // Parent permalink.
	ParentLookupError *string // Terminal classification when the parent cannot be resolved.

	ReplyLatencySeconds *int64 // CreatedAt minus ParentCreatedAt; may be negative.
}

// IsReply reports whether the record references a parent post.
func (r *Record) IsReply() bool {
	return r.ParentID != nil
}

// PendingBackfill reports whether the record still needs its parent
// resolved: it is a reply, and neither a parent timestamp nor a lookup
// error has been recorded.
func (r *Record) PendingBackfill() bool {
	return r.ParentID != nil && r.ParentLookupError == nil && r.ParentCreatedAt == nil
}

// DisplayTime returns CreatedAt in UTC formatted with DisplayTimeLayout.
func (r *Record) DisplayTime() string {
	return r.CreatedAt.UTC().Format(DisplayTimeLayout)
}

// Permalink builds the canonical status URL for a post.
func Permalink(username string, id int64) string {
	return fmt.Sprintf("https://twitter.com/%s/status/%d", username, id)
}

// ParentInfo is the resolved metadata of a parent post.
type ParentInfo struct {
	Username  string
	CreatedAt time.Time
	URL       string
}

// ParentOutcome is the result of a parent lookup. Exactly one of Resolved
// or Failure is set.
type ParentOutcome struct {
	Resolved *ParentInfo
	Failure  string
}

// Resolved returns an outcome carrying resolved parent metadata.
func Resolved(info ParentInfo) ParentOutcome {
	return ParentOutcome{Resolved: &info}
}

// Failed returns an outcome carrying a terminal lookup failure reason.
func Failed(reason string) ParentOutcome {
	return ParentOutcome{Failure: reason}
}

// Validate returns ErrInvalidOutcome unless exactly one shape is set.
func (o ParentOutcome) Validate() error {
	hasResolved := o.Resolved != nil
	hasFailure := o.Failure != ""
	if hasResolved == hasFailure {
		return ErrInvalidOutcome
	}
	return nil
}
