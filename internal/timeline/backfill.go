package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

// BackfillResult counts the settled records of one backfill pass.
type BackfillResult struct {
	Resolved int
	Failed   int
}

// Total is Resolved plus Failed.
func (r BackfillResult) Total() int { return r.Resolved + r.Failed }

// Backfiller resolves the parent posts of stored replies.
type Backfiller struct {
	source types.TimelineSource
	store  types.RecordStore
	logger *slog.Logger
}

// NewBackfiller returns a Backfiller looking up parents through source.
func NewBackfiller(source types.TimelineSource, store types.RecordStore, opts ...Option) *Backfiller {
	o := buildOptions(opts)
	return &Backfiller{source: source, store: store, logger: o.logger}
}

// Run settles every pending record. A terminal lookup failure is persisted
// and the pass continues; any other error stops the pass and is returned
// together with the counts so far.
func (b *Backfiller) Run(ctx context.Context) (BackfillResult, error) {
	var res BackfillResult
	for rec, err := range b.store.PendingBackfill() {
		if err != nil {
			return res, fmt.Errorf("listing pending records: %w", err)
		}
		if err := b.settle(ctx, rec, &res); err != nil {
			return res, err
		}
	}
	b.logger.Info("backfill done", "resolved", res.Resolved, "failed", res.Failed)
	return res, nil
}

func (b *Backfiller) settle(ctx context.Context, rec types.Record, res *BackfillResult) error {
	parentID := *rec.ParentID
	b.logger.Info("backfilling", "source_id", rec.SourceID, "parent_id", parentID)

	parent, err := b.source.GetPost(ctx, parentID)
	logQuota(b.logger, b.source, "statuses/show")

	if err != nil {
		var le *types.LookupError
		if !errors.As(err, &le) || !le.Terminal() {
			return fmt.Errorf("looking up parent %d of %d: %w", parentID, rec.SourceID, err)
		}
		b.logger.Info("parent unavailable", "source_id", rec.SourceID, "parent_id", parentID,
			"kind", le.Kind.String(), "reason", le.Reason)
		if err := b.store.UpdateParentInfo(rec.SourceID, types.Failed(le.Reason)); err != nil {
			return fmt.Errorf("recording lookup failure for %d: %w", rec.SourceID, err)
		}
		res.Failed++
		return nil
	}

	username := parent.Username
	if username == "" && rec.ParentUsername != nil {
		username = *rec.ParentUsername
	}
	outcome := types.Resolved(types.ParentInfo{
		Username:  username,
		CreatedAt: parent.CreatedAt,
		URL:       types.Permalink(username, parentID),
	})
	if err := b.store.UpdateParentInfo(rec.SourceID, outcome); err != nil {
		return fmt.Errorf("recording parent of %d: %w", rec.SourceID, err)
	}
	res.Resolved++
	return nil
}
