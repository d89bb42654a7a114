package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	serve := newServeCommand(opts)

	root := &cobra.Command{
		Use:   "server",
		Short: "Eventboard server - community event board API",
		Long: `Eventboard lets anyone browse community events and lets registered
users publish events and manage the ones they own.

Configuration comes from environment variables, optionally layered over a
YAML file given with --config. Flags override both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Serve by default when no subcommand is given.
		RunE: serve.RunE,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path (optional, uses env vars by default)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json, console) (default: json)")

	// The root command serves too, so it accepts the serve flags.
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(newMigrateCommand(opts))
	root.AddCommand(newUsersCommand(opts))
	root.AddCommand(newTokenCommand(opts))
	root.AddCommand(newVersionCommand())
	root.AddCommand(newHealthcheckCommand())
	return root
}

// Execute runs the CLI. It is called once by main.main.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
