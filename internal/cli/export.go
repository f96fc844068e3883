package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tweetsync/internal/sqlite"
)

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every stored record as JSON Lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := out
			if path == "" {
				path = filepath.Join(a.dataDir, sqlite.DefaultExportFile)
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			n, err := store.Export(path)
			if err != nil {
				return sysError(fmt.Errorf("export: %w", err))
			}
			a.logger.Info("export written", "path", path, "records", n)
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", n, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file (default: <data-dir>/tweets.jsonl)")
	return cmd
}
