package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize tweetsync storage",
		Long:  "Create configuration and data directories, then create the database schema.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			dbPath := store.Path()
			if err := store.Detach(); err != nil {
				return sysError(fmt.Errorf("finalize storage: %w", err))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config: %s\n", a.config.Path())
			fmt.Fprintf(out, "database: %s\n", dbPath)
			fmt.Fprintln(out, "tweetsync initialized successfully")
			return nil
		},
	}
}
