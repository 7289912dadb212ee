// Package cli wires the etsyscraper subcommands: capture drives a real
// Chrome profile through Playwright and records the ads dashboard's JSON,
// harvest and report reduce the recorded payloads to daily metrics, and
// the remaining commands manage the environment around those two.
package cli

import (
	"context"

	"github.com/bcaptain404/EtsyScraper/internal/version"
	"github.com/spf13/cobra"
)

func Execute(ctx context.Context) error {
	return newRootCommand().ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "etsyscraper",
		Short:         "Capture and harvest Etsy Ads metrics from your own Chrome profile",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newCaptureCommand(),
		newHarvestCommand(),
		newReportCommand(),
		newKillCommand(),
		newDoctorCommand(),
		newInstallCommand(),
		newInitCommand(),
		newVersionCommand(),
	)

	return cmd
}
