// Package cli implements the tweetsync command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tweetsync/internal/config"
	"github.com/mesh-intelligence/tweetsync/internal/logging"
	"github.com/mesh-intelligence/tweetsync/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	envFile   string
	debug     bool
}

// app is the state shared by subcommands once the root pre-run has
// resolved directories, configuration and logging.
type app struct {
	flags   rootFlags
	config  *config.Store
	logger  *slog.Logger
	closer  io.Closer
	dataDir string
}

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }

func sysError(err error) error { return &exitError{code: exitSysError, err: err} }

// NewRootCmd creates the top-level "tweetsync" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "tweetsync",
		Short: "Incrementally sync a Twitter timeline into SQLite",
		Long: "tweetsync fetches a user's timeline in both directions, stores new posts\n" +
			"in a local SQLite database, backfills reply metadata and reports reply\n" +
			"statistics to Telegram.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: .tweetsync)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: .tweetsync-db)")
	pf.StringVar(&a.flags.envFile, "env-file", ".env", "dotenv file loaded before configuration")
	pf.BoolVar(&a.flags.debug, "debug", false, "enable debug logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newFetchCmd(a))
	root.AddCommand(newBackfillCmd(a))
	root.AddCommand(newReportCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newConfigCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd()))
}

func run(root *cobra.Command) int {
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// setup loads the dotenv file, resolves directories, reads config.yaml and
// builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if a.flags.envFile != "" {
		if err := godotenv.Load(a.flags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return userError(fmt.Errorf("loading %s: %w", a.flags.envFile, err))
		}
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return sysError(err)
	}
	a.config = cfg

	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.Get(config.KeyDataDir))
	if err != nil {
		return sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	a.dataDir = dataDir

	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.Get(config.KeyLogLevel),
		Debug:  a.flags.debug,
		File:   cfg.Get(config.KeyLogFile),
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		return userError(err)
	}
	a.logger, a.closer = logger, closer
	return nil
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}
