// Package runner executes sync cycles: verify credentials, walk the
// timeline, backfill parents. Cycles run once or on a fixed interval.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/mesh-intelligence/tweetsync/internal/timeline"
	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

// Store is the storage a cycle needs: the record table and the journal.
type Store interface {
	types.RecordStore
	BeginRun(startedAt time.Time) (string, error)
	FinishRun(runID string, finishedAt time.Time, fetched, backfilled int, cycleErr error) error
}

// Config controls a cycle.
type Config struct {
	Username   string
	Budget     int  // New records per cycle.
	ForcePrime bool // Ignore stored bounds and restart from the newest post.
	SkipVerify bool
	PageSize   int // Zero selects timeline.DefaultPageSize.
}

// Cycle is the outcome of one cycle.
type Cycle struct {
	RunID    string
	Sync     timeline.Result
	Backfill timeline.BackfillResult
}

// Runner runs sync cycles against one source and store.
type Runner struct {
	source types.TimelineSource
	store  Store
	config Config
	logger *slog.Logger
	now    func() time.Time
}

// New returns a Runner. A nil logger selects slog.Default().
func New(source types.TimelineSource, store Store, config Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		source: source,
		store:  store,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// RunOnce runs a single cycle and journals it. Cancelling ctx does not
// interrupt a cycle already in progress.
func (r *Runner) RunOnce(ctx context.Context) (Cycle, error) {
	var cycle Cycle
	runID, err := r.store.BeginRun(r.now())
	if err != nil {
		return cycle, fmt.Errorf("starting run: %w", err)
	}
	cycle.RunID = runID
	logger := r.logger.With("run_id", runID)
	logger.Info("cycle starting", "username", r.config.Username)

	cycleErr := r.safeCycle(context.WithoutCancel(ctx), logger, &cycle)

	if err := r.store.FinishRun(runID, r.now(), cycle.Sync.Fetched, cycle.Backfill.Total(), cycleErr); err != nil {
		logger.Error("journaling run", "error", err)
	}
	if cycleErr != nil {
		logger.Error("cycle failed", "error", cycleErr)
		return cycle, cycleErr
	}
	logger.Info("cycle finished", "fetched", cycle.Sync.Fetched, "backfilled", cycle.Backfill.Total())
	return cycle, nil
}

// safeCycle runs cycle and turns a panic into an error.
func (r *Runner) safeCycle(ctx context.Context, logger *slog.Logger, cycle *Cycle) (err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("cycle panicked", "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("cycle panicked: %v", p)
		}
	}()
	return r.cycle(ctx, logger, cycle)
}

func (r *Runner) cycle(ctx context.Context, logger *slog.Logger, cycle *Cycle) error {
	if r.config.Username == "" {
		return errors.New("twitter.username is not set")
	}

	if !r.config.SkipVerify {
		name, err := r.source.VerifyCredentials(ctx)
		if err != nil {
			return fmt.Errorf("verifying credentials: %w", err)
		}
		logger.Info("credentials verified", "screen_name", name)
	}

	opts := []timeline.Option{timeline.WithLogger(logger)}
	if r.config.PageSize > 0 {
		opts = append(opts, timeline.WithPageSize(r.config.PageSize))
	}

	res, err := timeline.NewWalker(r.source, r.store, opts...).
		Run(ctx, r.config.Username, r.config.Budget, r.config.ForcePrime)
	cycle.Sync = res
	if err != nil {
		return fmt.Errorf("syncing %s: %w", r.config.Username, err)
	}

	bf, err := timeline.NewBackfiller(r.source, r.store, opts...).Run(ctx)
	cycle.Backfill = bf
	if err != nil {
		return fmt.Errorf("backfilling: %w", err)
	}
	return nil
}

// Loop runs cycles until ctx is cancelled, sleeping interval between them.
// A failed cycle is logged and the next one runs on schedule.
func (r *Runner) Loop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("loop interval must be positive, got %s", interval)
	}
	for {
		if ctx.Err() != nil {
			r.logger.Info("loop stopped")
			return nil
		}
		// Errors are logged by RunOnce.
		_, _ = r.RunOnce(ctx)

		r.logger.Info("sleeping", "interval", interval.String())
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("loop stopped")
			return nil
		case <-timer.C:
			r.logger.Info("waking up")
		}
	}
}
