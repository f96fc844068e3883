package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tweetsync/internal/sqlite"
	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stored record counts and the last sync cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := a.username()
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			if err := printStatus(cmd.OutOrStdout(), store, username); err != nil {
				return sysError(err)
			}
			return nil
		},
	}
}

func printStatus(w io.Writer, store *sqlite.Store, username string) error {
	count, err := store.Count(username)
	if err != nil {
		return err
	}
	pending, err := store.CountPending()
	if err != nil {
		return err
	}
	minID, hasMin, err := store.MinSourceID(username)
	if err != nil {
		return err
	}
	maxID, _, err := store.MaxSourceID(username)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "username: %s\n", username)
	fmt.Fprintf(w, "database: %s\n", store.Path())
	fmt.Fprintf(w, "records: %d\n", count)
	fmt.Fprintf(w, "pending_backfill: %d\n", pending)
	if hasMin {
		fmt.Fprintf(w, "min_id: %d\nmax_id: %d\n", minID, maxID)
	} else {
		fmt.Fprintln(w, "min_id: n/a\nmax_id: n/a")
	}

	run, ok, err := store.LastRun()
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(w, "last_run: %s\n", describeRun(run))
	} else {
		fmt.Fprintln(w, "last_run: never")
	}

	if at, ok, err := store.Setting(sqlite.SettingLastReport); err != nil {
		return err
	} else if ok {
		fmt.Fprintf(w, "last_report: %s\n", at)
	}
	return nil
}

func describeRun(run types.Run) string {
	started := run.StartedAt.UTC().Format(time.RFC3339)
	switch {
	case run.FinishedAt == nil:
		return fmt.Sprintf("%s started %s, unfinished", run.RunID, started)
	case run.Error != nil:
		return fmt.Sprintf("%s started %s, failed: %s", run.RunID, started, *run.Error)
	default:
		return fmt.Sprintf("%s started %s, fetched=%d backfilled=%d", run.RunID, started, run.Fetched, run.Backfilled)
	}
}
