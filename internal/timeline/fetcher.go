// Package timeline drives incremental synchronization of one user's
// timeline into a RecordStore: page fetching, the bidirectional walk and
// parent backfill.
package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

// Page is one normalized timeline call.
type Page struct {
	Records  []types.Record // Non-repost entries, newest first.
	RawCount int            // Raw entries before repost filtering.
	MinID    int64          // Smallest raw id, 0 when RawCount is 0.
	MaxID    int64          // Largest raw id, 0 when RawCount is 0.
}

// Empty reports whether the upstream returned no entries at all.
func (p Page) Empty() bool { return p.RawCount == 0 }

// Option configures the timeline drivers.
type Option func(*options)

type options struct {
	logger        *slog.Logger
	pageSize      int
	maxEmptyPages int
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPageSize sets the largest page requested by the walk.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithMaxEmptyPages sets how many consecutive empty pages end a walk
// direction.
func WithMaxEmptyPages(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxEmptyPages = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:        slog.Default(),
		pageSize:      DefaultPageSize,
		maxEmptyPages: DefaultMaxEmptyPages,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Fetcher performs one paginated timeline call and normalizes the result.
type Fetcher struct {
	source types.TimelineSource
	logger *slog.Logger
}

// NewFetcher returns a Fetcher reading from source.
func NewFetcher(source types.TimelineSource, opts ...Option) *Fetcher {
	o := buildOptions(opts)
	return &Fetcher{source: source, logger: o.logger}
}

// Fetch requests up to count posts of username bounded by cursor. Records
// are attributed to username so cursors stay consistent with the store.
// Errors from the source are returned wrapped and keep their type.
func (f *Fetcher) Fetch(ctx context.Context, username string, count int, cursor types.Cursor) (Page, error) {
	f.logger.Debug("fetching timeline page", "username", username, "count", count, "cursor", cursor.String())

	raw, err := f.source.ListTimeline(ctx, username, count, cursor)
	if err != nil {
		return Page{}, fmt.Errorf("fetching %s page %s: %w", username, cursor, err)
	}
	logQuota(f.logger, f.source, "statuses/user_timeline")

	page := Page{RawCount: len(raw)}
	for i, p := range raw {
		if i == 0 || p.ID < page.MinID {
			page.MinID = p.ID
		}
		if i == 0 || p.ID > page.MaxID {
			page.MaxID = p.ID
		}
		if p.Repost {
			continue
		}
		page.Records = append(page.Records, normalize(username, p))
	}
	return page, nil
}

func normalize(username string, p types.RawPost) types.Record {
	rec := types.Record{
		SourceID:  p.ID,
		Username:  username,
		CreatedAt: p.CreatedAt.UTC().Truncate(time.Second),
		Text:      p.Text,
		URL:       types.Permalink(username, p.ID),
	}
	if p.InReplyToID != nil {
		id := *p.InReplyToID
		rec.ParentID = &id
		if p.InReplyToUsername != "" {
			name := p.InReplyToUsername
			rec.ParentUsername = &name
		}
	}
	return rec
}

// logQuota reports the remaining upstream quota for op at info level.
func logQuota(logger *slog.Logger, source types.TimelineSource, op string) {
	if n, ok := source.RateLimitRemaining(); ok {
		logger.Info("rate limit", "op", op, "rate_limit_remaining", n)
		return
	}
	logger.Info("rate limit", "op", op, "rate_limit_remaining", "unknown")
}
