package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

// Walk defaults.
const (
	DefaultPageSize      = 200
	DefaultMaxEmptyPages = 3
	DefaultBudget        = 500
)

// ErrNoRecords is returned when priming finds an empty timeline.
var ErrNoRecords = errors.New("timeline has no records")

// Result summarizes one walk.
type Result struct {
	Fetched    int   // Newly inserted records.
	BudgetLeft int   // Remaining budget, may be negative.
	MinID      int64 // Oldest id reached.
	MaxID      int64 // Newest id reached.
	Calls      int   // Timeline calls issued, prime included.
}

// Walker runs the bidirectional sync: prime an empty store, walk into the
// past below the oldest stored id, then into the future above the newest.
type Walker struct {
	fetcher       *Fetcher
	store         types.RecordStore
	logger        *slog.Logger
	pageSize      int
	maxEmptyPages int
}

// NewWalker returns a Walker reading from source and writing to store.
func NewWalker(source types.TimelineSource, store types.RecordStore, opts ...Option) *Walker {
	o := buildOptions(opts)
	return &Walker{
		fetcher:       &Fetcher{source: source, logger: o.logger},
		store:         store,
		logger:        o.logger,
		pageSize:      o.pageSize,
		maxEmptyPages: o.maxEmptyPages,
	}
}

// walk carries the cursor and budget state between phases.
type walk struct {
	username string
	left     int
	minID    int64
	maxID    int64
	res      Result
}

// Run syncs username with a budget of total new records. With forcePrime
// the stored bounds are ignored and the walk restarts from the newest post.
func (w *Walker) Run(ctx context.Context, username string, total int, forcePrime bool) (Result, error) {
	st := &walk{username: username, left: total}

	maxID, hasMax, err := w.store.MaxSourceID(username)
	if err != nil {
		return Result{}, fmt.Errorf("reading max source id: %w", err)
	}
	minID, _, err := w.store.MinSourceID(username)
	if err != nil {
		return Result{}, fmt.Errorf("reading min source id: %w", err)
	}
	w.logger.Info("sync starting", "username", username, "budget", total,
		"min_id", minID, "max_id", maxID, "force_prime", forcePrime)

	if total <= 0 {
		st.minID, st.maxID = minID, maxID
		w.logger.Info("budget exhausted, skipping sync", "tweets_left", st.left)
		return st.result(), nil
	}

	if !hasMax || forcePrime {
		if err := w.prime(ctx, st); err != nil {
			return st.result(), err
		}
	} else {
		st.minID, st.maxID = minID, maxID
	}

	if err := w.walkPast(ctx, st); err != nil {
		return st.result(), err
	}

	if st.left <= 0 {
		w.logger.Info("budget exhausted, skipping future walk", "tweets_left", st.left)
		return st.result(), nil
	}

	stored, ok, err := w.store.MaxSourceID(username)
	if err != nil {
		return st.result(), fmt.Errorf("reading max source id: %w", err)
	}
	if ok && stored > st.maxID {
		st.maxID = stored
	}
	if err := w.walkFuture(ctx, st); err != nil {
		return st.result(), err
	}

	res := st.result()
	w.logger.Info("sync done", "username", username, "fetched", res.Fetched,
		"tweets_left", res.BudgetLeft, "min_id", res.MinID, "max_id", res.MaxID, "calls", res.Calls)
	return res, nil
}

func (st *walk) result() Result {
	r := st.res
	r.BudgetLeft = st.left
	r.MinID = st.minID
	r.MaxID = st.maxID
	return r
}

// prime fetches the single newest post and seeds both cursors with it.
func (w *Walker) prime(ctx context.Context, st *walk) error {
	w.logger.Info("priming store with newest post", "username", st.username)
	page, err := w.fetcher.Fetch(ctx, st.username, 1, types.NoCursor())
	st.res.Calls++
	if err != nil {
		return err
	}
	if len(page.Records) == 0 {
		w.logger.Warn("no posts found", "username", st.username)
		return ErrNoRecords
	}
	if _, err := w.persist(st, page); err != nil {
		return err
	}
	top := page.Records[0].SourceID
	st.minID, st.maxID = top, top
	w.logger.Info("primed", "min_id", st.minID, "max_id", st.maxID)
	return nil
}

// walkPast pages backwards from minID.
func (w *Walker) walkPast(ctx context.Context, st *walk) error {
	return w.walkDirection(ctx, st, "past", func() types.Cursor {
		return types.Before(st.minID)
	}, func(p Page) bool {
		if p.MinID < st.minID {
			st.minID = p.MinID
			return true
		}
		return false
	})
}

// walkFuture pages forwards from maxID.
func (w *Walker) walkFuture(ctx context.Context, st *walk) error {
	return w.walkDirection(ctx, st, "future", func() types.Cursor {
		return types.After(st.maxID)
	}, func(p Page) bool {
		if p.MaxID > st.maxID {
			st.maxID = p.MaxID
			return true
		}
		return false
	})
}

// walkDirection fetches pages until the budget runs out or maxEmptyPages
// consecutive pages bring nothing. advance moves the cursor and reports
// whether it moved. A page counts as empty when it has no entries, does
// not move the cursor, or holds only records already stored.
func (w *Walker) walkDirection(ctx context.Context, st *walk, dir string, cursor func() types.Cursor, advance func(Page) bool) error {
	strikes := 0
	for st.left > 0 {
		count := min(w.pageSize, st.left)
		page, err := w.fetcher.Fetch(ctx, st.username, count, cursor())
		st.res.Calls++
		if err != nil {
			return err
		}
		inserted, err := w.persist(st, page)
		if err != nil {
			return err
		}

		advanced := !page.Empty() && advance(page)
		stale := len(page.Records) > 0 && inserted == 0
		if !advanced || stale {
			strikes++
			w.logger.Info("empty page", "direction", dir, "strikes", strikes,
				"stale", stale, "tweets_left", st.left)
			if strikes >= w.maxEmptyPages {
				w.logger.Info("reached end of timeline", "direction", dir)
				return nil
			}
			continue
		}
		strikes = 0
		w.logger.Info("page stored", "direction", dir, "raw", page.RawCount,
			"tweets_left", st.left, "min_id", st.minID, "max_id", st.maxID)
	}
	w.logger.Info("budget exhausted", "direction", dir, "tweets_left", st.left)
	return nil
}

// persist inserts every record of page and returns how many were new.
// Duplicates are skipped and do not consume budget.
func (w *Walker) persist(st *walk, page Page) (int, error) {
	inserted := 0
	for i := range page.Records {
		rec := &page.Records[i]
		err := w.store.Insert(rec)
		if errors.Is(err, types.ErrDuplicateKey) {
			w.logger.Debug("skipping stored record", "source_id", rec.SourceID)
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("storing record %d: %w", rec.SourceID, err)
		}
		st.left--
		st.res.Fetched++
		inserted++
	}
	return inserted, nil
}
