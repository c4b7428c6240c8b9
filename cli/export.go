package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yummyfi/yummyfi-backend/export"
)

// NewExportCommand writes the current business day as CSV.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current business day's orders as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			orders, w, err := a.orders.WindowOrders(cmd.Context())
			if err != nil {
				return err
			}
			loc, _ := a.cfg.Location()

			var dst io.Writer = cmd.OutOrStdout()
			if out != "" {
				if out == "auto" {
					out = export.FileName(w)
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				dst = f
			}
			if err := export.WriteCSV(dst, export.Rows(orders, loc)); err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d orders to %s\n", len(orders), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", `output file; "auto" names it after the business day (default stdout)`)
	return cmd
}
