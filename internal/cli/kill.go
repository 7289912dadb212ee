package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type killOptions struct {
	configPath  string
	dryRun      bool
	signalFlag  string
	timeoutFlag string
	sig9        bool
}

func newKillCommand() *cobra.Command {
	opts := &killOptions{}
	cmd := &cobra.Command{
		Use:   "kill",
		Short: "Terminate browser processes holding the configured profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKill(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to an etsyscraper.toml")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "show which processes would be terminated")
	cmd.Flags().StringVarP(&opts.signalFlag, "signal", "s", "", "signal to send (numeric or name like TERM, HUP)")
	cmd.Flags().StringVar(&opts.timeoutFlag, "timeout", "", "time to wait for processes to exit (e.g. 3s)")
	cmd.Flags().BoolVarP(&opts.sig9, "sigkill", "9", false, "shorthand for --signal=9")
	_ = cmd.Flags().MarkHidden("sigkill")
	return cmd
}

func runKill(cmd *cobra.Command, opts *killOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	expandConfigPaths(&cfg)

	signalSpec := opts.signalFlag
	if signalSpec == "" && opts.sig9 {
		signalSpec = "9"
	}
	settings, err := resolveKillSettings(signalSpec, opts.timeoutFlag, cfg.Process.KillWait())
	if err != nil {
		return err
	}

	procs, err := findBrowserProcesses(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(procs) == 0 {
		fmt.Fprintln(out, "nothing to kill")
		return nil
	}

	for _, proc := range procs {
		fmt.Fprintf(out, "- %s (%d)\n", proc.Command, proc.PID)
	}
	action := fmt.Sprintf("%s to %d %s", settings.SignalLabel, len(procs), pluralizeProcess(len(procs)))
	if opts.dryRun {
		fmt.Fprintf(out, "would send %s\n", action)
		return nil
	}

	fmt.Fprintf(out, "sending %s\n", action)
	if err := terminateBrowserProcesses(cmd.Context(), cfg, procs, settings, newProcessTerminator()); err != nil {
		return err
	}
	fmt.Fprintln(out, "cleared")
	return nil
}

func pluralizeProcess(count int) string {
	if count == 1 {
		return "process"
	}
	return "processes"
}
