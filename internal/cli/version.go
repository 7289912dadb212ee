package cli

import (
	"fmt"

	"github.com/bcaptain404/EtsyScraper/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the etsyscraper version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			info := version.Details()
			if short {
				_, err := fmt.Fprintln(out, info.Version)
				return err
			}
			if _, err := fmt.Fprintf(out, "%s version %s\n", cmd.Root().DisplayName(), info.Version); err != nil {
				return err
			}
			if info.Revision != "" {
				if info.Time != "" {
					_, err := fmt.Fprintf(out, "  revision %s (%s)\n", info.Revision, info.Time)
					return err
				}
				_, err := fmt.Fprintf(out, "  revision %s\n", info.Revision)
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version number")
	return cmd
}
