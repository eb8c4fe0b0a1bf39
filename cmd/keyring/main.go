package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/keyring/cmd/keyring/commands"
	"github.com/systmms/keyring/internal/config"
	kerrors "github.com/systmms/keyring/internal/errors"
	"github.com/systmms/keyring/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", kerrors.SimplifyError(err))
		os.Exit(kerrors.ExitCode(err))
	}
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	var (
		noColor bool
		debug   bool
	)

	rootCmd := &cobra.Command{
		Use:   "keyring",
		Short: "Store and retrieve secrets in platform credential stores",
		Long: `keyring stores passwords and binary secrets for a (service, user) identity
in the operating system's credential store, the Linux kernel keyring, AWS
Secrets Manager, or a SQL table.

Exit status: 0 success, 1 failure, 2 configuration error, 3 no entry,
4 ambiguous, 5 bad encoding, 6 invalid argument, 7 no storage access.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Logger = logging.New(debug, noColor)
			cfg.Explicit = cmd.Flags().Changed("config")
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfg.Path, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().StringVar(&cfg.Store, "store", "", "Store to use: mock, native, keyutils, awssm or sql")
	rootCmd.PersistentFlags().StringVar(&cfg.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the command")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewSetCommand(cfg),
		commands.NewGetCommand(cfg),
		commands.NewDeleteCommand(cfg),
		commands.NewStoresCommand(cfg),
	)

	return rootCmd
}

func run() error {
	return newRootCommand(&config.Config{}).Execute()
}
