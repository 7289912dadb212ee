package cli

import (
	"fmt"

	"github.com/bcaptain404/EtsyScraper/internal/browser"
	"github.com/spf13/cobra"
)

func newInstallCommand() *cobra.Command {
	var driverOnly bool
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Download the Playwright driver and browsers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := browser.Install(driverOnly); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "playwright ready")
			return nil
		},
	}
	cmd.Flags().BoolVar(&driverOnly, "driver-only", false, "install the driver without downloading browsers")
	return cmd
}
