package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tweetsync/internal/runner"
	"github.com/mesh-intelligence/tweetsync/internal/timeline"
)

type fetchOptions struct {
	num        int
	loop       int
	ignoreMax  bool
	skipVerify bool
}

func newFetchCmd(a *app) *cobra.Command {
	var opts fetchOptions
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Sync the timeline and backfill reply metadata",
		Long: "Fetch walks the configured user's timeline: older posts below the oldest\n" +
			"stored id first, then newer posts above the newest. Replies are then\n" +
			"backfilled with their parent post. With --loop the cycle repeats forever.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, a, opts)
		},
	}
	cmd.Flags().IntVar(&opts.num, "num", timeline.DefaultBudget, "how many new posts to fetch per cycle")
	cmd.Flags().IntVar(&opts.loop, "loop", 0, "repeat the cycle every N seconds")
	cmd.Flags().BoolVar(&opts.ignoreMax, "ignore-max-tweet-id", false, "ignore stored ids and restart from the newest post")
	cmd.Flags().BoolVar(&opts.skipVerify, "skip-verify", false, "skip the credential check at the start of each cycle")
	return cmd
}

func runFetch(cmd *cobra.Command, a *app, opts fetchOptions) error {
	if opts.num < 0 {
		return userError(fmt.Errorf("--num must not be negative"))
	}
	if opts.loop < 0 {
		return userError(fmt.Errorf("--loop must not be negative"))
	}
	username, err := a.username()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := a.twitterClient(ctx)
	if err != nil {
		return err
	}
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Detach()

	r := runner.New(source, store, runner.Config{
		Username:   username,
		Budget:     opts.num,
		ForcePrime: opts.ignoreMax,
		SkipVerify: opts.skipVerify,
	}, a.logger)

	if opts.loop > 0 {
		return r.Loop(ctx, time.Duration(opts.loop)*time.Second)
	}
	return fetchOnce(ctx, cmd, r)
}

func fetchOnce(ctx context.Context, cmd *cobra.Command, r *runner.Runner) error {
	out := cmd.OutOrStdout()
	cycle, err := r.RunOnce(ctx)
	if err != nil {
		fmt.Fprintln(out, "ok=0")
		return userError(err)
	}
	fmt.Fprintf(out, "fetched=%d backfilled=%d run_id=%s\n", cycle.Sync.Fetched, cycle.Backfill.Total(), cycle.RunID)
	fmt.Fprintln(out, "ok=1")
	return nil
}
