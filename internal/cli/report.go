package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tweetsync/internal/config"
	"github.com/mesh-intelligence/tweetsync/internal/report"
)

type reportOptions struct {
	since    string
	interval int
	dryRun   bool
}

func newReportCmd(a *app) *cobra.Command {
	var opts reportOptions
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Send reply statistics for a recent window to Telegram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, a, opts)
		},
	}
	cmd.Flags().StringVar(&opts.since, "since", report.DefaultSince, `window start, a duration ("24h") or phrase ("3 hours ago")`)
	cmd.Flags().IntVar(&opts.interval, "interval", 0, "repeat the report every N seconds")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the report instead of sending it")
	return cmd
}

func runReport(cmd *cobra.Command, a *app, opts reportOptions) error {
	if opts.interval < 0 {
		return userError(fmt.Errorf("--interval must not be negative"))
	}
	username, err := a.username()
	if err != nil {
		return err
	}
	// Fail fast on a window that will never parse.
	if _, err := report.ParseSince(opts.since, time.Now()); err != nil {
		return userError(err)
	}

	var notifier report.Notifier = report.Writer{W: cmd.OutOrStdout()}
	if !opts.dryRun {
		tg, err := report.NewTelegram(a.config.Get(config.KeyTelegramToken), a.config.Get(config.KeyTelegramChatID), "", nil)
		if err != nil {
			return userError(err)
		}
		notifier = tg
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Detach()

	r := report.NewReporter(store, notifier, username, opts.since, a.logger)
	if opts.interval > 0 {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return r.Loop(ctx, time.Duration(opts.interval)*time.Second)
	}
	if _, err := r.RunOnce(cmd.Context()); err != nil {
		return userError(err)
	}
	return nil
}
