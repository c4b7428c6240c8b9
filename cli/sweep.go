package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yummyfi/yummyfi-backend/services"
)

// NewSweepCommand removes orders from earlier business days once and exits.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete orders from previous business days and prune the change feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			sweeper := services.NewSweeper(a.orders, a.store, a.log)
			removed := sweeper.SweepOnce(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d orders\n", len(removed))
			return nil
		},
	}
}
