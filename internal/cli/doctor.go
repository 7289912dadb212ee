package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/bcaptain404/EtsyScraper/internal/browser"
	"github.com/bcaptain404/EtsyScraper/internal/config"
	"github.com/spf13/cobra"
)

func newDoctorCommand() *cobra.Command {
	var verbose bool
	var configPath string
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose capture prerequisites and environment issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, configPath, verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show passing checks too")
	cmd.Flags().StringVar(&configPath, "config", "", "path to an etsyscraper.toml")
	return cmd
}

type doctorContext struct {
	Config config.Config
	Loaded bool
}

type doctorCheck struct {
	Name string
	Fn   func(*doctorContext) error
}

func runDoctor(cmd *cobra.Command, configPath string, verbose bool) error {
	ctx := &doctorContext{}
	checks := []doctorCheck{
		{Name: "config loads", Fn: func(c *doctorContext) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			expandConfigPaths(&cfg)
			c.Config = cfg
			c.Loaded = true
			return nil
		}},
		{Name: "profile root exists", Fn: requireConfig(func(c *doctorContext) error {
			return browser.ValidateProfile(c.Config.ProfileRoot, "")
		})},
		{Name: "named profile present", Fn: requireConfig(func(c *doctorContext) error {
			if err := browser.ValidateProfile(c.Config.ProfileRoot, c.Config.ProfileName); err != nil {
				return fmt.Errorf("%w (%s)", err, browser.ProfileHint)
			}
			return nil
		})},
		{Name: "browser binary", Fn: requireConfig(checkBrowserBinary)},
		{Name: "playwright driver", Fn: func(*doctorContext) error {
			return browser.DriverReady()
		}},
		{Name: "out dir writable", Fn: requireConfig(checkOutDirWritable)},
	}

	var failures []string
	for _, check := range checks {
		err := check.Fn(ctx)
		if err != nil {
			failures = append(failures, fmt.Sprintf("✗ %s: %v", check.Name, err))
			continue
		}
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", check.Name)
		}
	}

	if len(failures) > 0 {
		for _, failure := range failures {
			fmt.Fprintln(cmd.ErrOrStderr(), failure)
		}
		return fmt.Errorf("%d doctor checks failed", len(failures))
	}

	fmt.Fprintln(cmd.OutOrStdout(), "healthy!")
	return nil
}

func requireConfig(fn func(*doctorContext) error) func(*doctorContext) error {
	return func(c *doctorContext) error {
		if !c.Loaded {
			return errors.New("config not loaded")
		}
		return fn(c)
	}
}

func checkBrowserBinary(c *doctorContext) error {
	if exe := c.Config.Executable; exe != "" {
		if _, err := os.Stat(exe); err != nil {
			return fmt.Errorf("executable %s: %w", exe, err)
		}
		return nil
	}
	if c.Config.BrowserChannel == "" {
		return errors.New("neither executable nor browser_channel configured")
	}
	return nil
}

func checkOutDirWritable(c *doctorContext) error {
	dir := c.Config.OutDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}
