package types

import (
	"errors"
	"fmt"
	"time"
)

// Store errors.
var (
	ErrDuplicateKey   = errors.New("duplicate source id")
	ErrNotFound       = errors.New("record not found")
	ErrNotPending     = errors.New("record is not pending backfill")
	ErrInvalidOutcome = errors.New("parent outcome must be exactly one of resolved or failed")
	ErrInvalidRecord  = errors.New("invalid record")
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// UpstreamError reports a transport, auth or server failure from the
// timeline source.
type UpstreamError struct {
	Op         string // Upstream operation, e.g. "statuses/user_timeline".
	StatusCode int    // HTTP status, 0 for transport failures.
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: http %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// RateLimitError reports that the upstream quota for an operation is
// exhausted.
type RateLimitError struct {
	Op    string
	Reset time.Time // Zero when the upstream did not say.
}

func (e *RateLimitError) Error() string {
	if e.Reset.IsZero() {
		return fmt.Sprintf("upstream %s: rate limit exceeded", e.Op)
	}
	return fmt.Sprintf("upstream %s: rate limit exceeded, resets at %s", e.Op, e.Reset.UTC().Format(time.RFC3339))
}

// LookupKind classifies a failed single-post lookup.
type LookupKind int

const (
	LookupUnknown LookupKind = iota
	LookupSuspended
	LookupNotFound
	LookupAccessBlocked
	LookupBlockedByAuthor
)

func (k LookupKind) String() string {
	switch k {
	case LookupSuspended:
		return "suspended"
	case LookupNotFound:
		return "not_found"
	case LookupAccessBlocked:
		return "access_blocked"
	case LookupBlockedByAuthor:
		return "blocked_by_author"
	default:
		return "unknown"
	}
}

// LookupError is returned by TimelineSource.GetPost when the upstream
// answered but refused to return the post. Kind is decided by the source
// from structured error data; Reason is a stable string suitable for
// persisting.
type LookupError struct {
	ID     int64
	Kind   LookupKind
	Reason string
	Raw    string // Upstream message, for logs only.
}

func (e *LookupError) Error() string {
	if e.Raw != "" && e.Raw != e.Reason {
		return fmt.Sprintf("lookup %d: %s (%s): %s", e.ID, e.Reason, e.Kind, e.Raw)
	}
	return fmt.Sprintf("lookup %d: %s (%s)", e.ID, e.Reason, e.Kind)
}

// Terminal reports whether the failure is permanent for the looked-up post.
// Unknown failures are never terminal.
func (e *LookupError) Terminal() bool {
	return e.Kind != LookupUnknown
}

// IsRateLimit reports whether err is or wraps a *RateLimitError.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
