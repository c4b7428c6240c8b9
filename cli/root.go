// Package cli holds the yummyfi commands. Running the binary without a
// subcommand starts the server.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
}

// NewRootCommand creates the root command for the YummyFi backend.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	serve := NewServeCommand(opts)
	cmd := &cobra.Command{
		Use:   "yummyfi",
		Short: "YummyFi table-side ordering backend",
		Long: `YummyFi serves the menu, carts and orders of a restaurant whose
business day runs from 4 AM to 4 AM, plus the staff dashboard.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.ConfigFile != "" {
				return os.Setenv("CONFIG_FILE", opts.ConfigFile)
			}
			return nil
		},
		RunE: serve.RunE,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "YAML config file (overrides CONFIG_FILE)")

	cmd.AddCommand(serve)
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))

	return cmd
}
