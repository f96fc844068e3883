package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mesh-intelligence/tweetsync/internal/sqlite"
	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

// Store provides window figures and remembers when a report went out.
type Store interface {
	Stats(username string, since time.Time) (types.WindowStats, error)
	SetSetting(name, value string) error
}

// Reporter computes and sends the report for one user.
type Reporter struct {
	store    Store
	notifier Notifier
	username string
	since    string
	logger   *slog.Logger
	now      func() time.Time
}

// NewReporter returns a Reporter for username over the since window. An
// empty since selects DefaultSince; a nil logger selects slog.Default().
func NewReporter(store Store, notifier Notifier, username, since string, logger *slog.Logger) *Reporter {
	if since == "" {
		since = DefaultSince
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		store:    store,
		notifier: notifier,
		username: username,
		since:    since,
		logger:   logger,
		now:      time.Now,
	}
}

// RunOnce resolves the window against the current time, computes the
// summary and sends it.
func (r *Reporter) RunOnce(ctx context.Context) (Summary, error) {
	if r.username == "" {
		return Summary{}, fmt.Errorf("twitter.username is not set")
	}
	start, err := ParseSince(r.since, r.now())
	if err != nil {
		return Summary{}, err
	}
	r.logger.Info("window resolved", "since", r.since, "start", start.UTC().Format(time.RFC3339))

	stats, err := r.store.Stats(r.username, start)
	if err != nil {
		return Summary{}, fmt.Errorf("reading stats: %w", err)
	}
	summary := Summarize(stats, r.since)
	msg := Render(summary)

	r.logger.Info("sending report", "message", strings.ReplaceAll(msg, "\n", "  "))
	if err := r.notifier.Notify(ctx, msg); err != nil {
		return summary, err
	}
	if err := r.store.SetSetting(sqlite.SettingLastReport, r.now().UTC().Format(time.RFC3339)); err != nil {
		r.logger.Warn("recording report time", "error", err)
	}
	r.logger.Info("report sent")
	return summary, nil
}

// Loop sends a report immediately and then every interval until ctx is
// cancelled. Failed reports are logged and retried on schedule.
func (r *Reporter) Loop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("report interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if ctx.Err() != nil {
			r.logger.Info("report loop stopped")
			return nil
		}
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error("report failed", "error", err)
		}
		select {
		case <-ctx.Done():
			r.logger.Info("report loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}
