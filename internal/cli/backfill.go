package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tweetsync/internal/timeline"
)

func newBackfillCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Resolve parent posts of stored replies without syncing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := a.twitterClient(cmd.Context())
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			res, err := timeline.NewBackfiller(source, store, timeline.WithLogger(a.logger)).Run(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "resolved=%d failed=%d\n", res.Resolved, res.Failed)
			if err != nil {
				return userError(err)
			}
			return nil
		},
	}
}
