package cli

import (
	"errors"
	"fmt"

	"github.com/bcaptain404/EtsyScraper/internal/browser"
	"github.com/bcaptain404/EtsyScraper/internal/capture"
	"github.com/bcaptain404/EtsyScraper/internal/config"
	"github.com/spf13/cobra"
)

type captureOptions struct {
	configPath  string
	profileDir  string
	profileName string
	executable  string
	channel     string
	outDir      string
	url         string
	captureMS   int
	headful     bool
	autorun     bool
	keepOpen    bool
	saveAll     bool
	killRunning bool
}

func newCaptureCommand() *cobra.Command {
	opts := &captureOptions{}
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Record the ads dashboard's JSON through your own Chrome profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "path to an etsyscraper.toml")
	flags.StringVar(&opts.profileDir, "profile-dir", "", "Chrome/Chromium user data root (e.g. ~/.config/google-chrome)")
	flags.StringVar(&opts.profileName, "chrome-profile-name", "", "Chrome profile directory name (e.g. 'Default', 'Profile 2')")
	flags.StringVar(&opts.executable, "executable", "", "browser executable path (e.g. /usr/bin/google-chrome-stable)")
	flags.StringVar(&opts.channel, "browser-channel", "", "Playwright browser channel (chrome, chromium)")
	flags.StringVar(&opts.outDir, "out-dir", "", "where to write JSON/CSV outputs")
	flags.StringVar(&opts.url, "url", "", "ads dashboard URL")
	flags.IntVar(&opts.captureMS, "capture-ms", 0, "how long to listen for network responses (ms); 0 listens until Ctrl-C")
	flags.BoolVar(&opts.headful, "headful", false, "run with a visible browser window")
	flags.BoolVar(&opts.autorun, "autorun", false, "attempt minimal automatic interaction to trigger requests")
	flags.BoolVar(&opts.keepOpen, "keep-open", false, "keep Chrome open and keep listening indefinitely (Ctrl+C to stop)")
	flags.BoolVar(&opts.saveAll, "save-all", false, "save all JSON XHR/Fetch, even if the URL doesn't look ads-related")
	flags.BoolVar(&opts.killRunning, "kill-running", false, "terminate browser processes holding the profile before launch")
	return cmd
}

func runCapture(cmd *cobra.Command, opts *captureOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	mergeCaptureConfig(&cfg, opts, cmd.Flags().Changed)
	expandConfigPaths(&cfg)

	if cfg.Capture.KillRunning {
		if err := preKillBrowsers(cmd, cfg); err != nil {
			return fmt.Errorf("kill running browsers: %w", err)
		}
	}

	runOpts := capture.Options{
		URL:    cfg.URL,
		OutDir: cfg.OutDir,
		Browser: browser.Options{
			ProfileRoot: cfg.ProfileRoot,
			ProfileName: cfg.ProfileName,
			Executable:  cfg.Executable,
			Channel:     cfg.BrowserChannel,
			Headful:     cfg.Capture.Headful,
		},
		Autorun:  cfg.Capture.Autorun,
		KeepOpen: cfg.Capture.KeepOpen,
		SaveAll:  cfg.Capture.SaveAll,
		WindowMS: cfg.Capture.WindowMS(),
		Log:      markerLogger(cmd.OutOrStdout()),
	}

	if _, err := capture.Run(cmd.Context(), runOpts); err != nil {
		if errors.Is(err, browser.ErrProfileRootMissing) || errors.Is(err, browser.ErrProfileMissing) {
			fmt.Fprintln(cmd.ErrOrStderr(), browser.ProfileHint)
		}
		return err
	}
	return nil
}

// mergeCaptureConfig folds explicitly set flags over the configuration, so
// flags beat the file and the file beats built-in defaults.
func mergeCaptureConfig(cfg *config.Config, opts *captureOptions, changed func(string) bool) {
	if changed("profile-dir") {
		cfg.ProfileRoot = opts.profileDir
	}
	if changed("chrome-profile-name") {
		cfg.ProfileName = opts.profileName
	}
	if changed("executable") {
		cfg.Executable = opts.executable
	}
	if changed("browser-channel") {
		cfg.BrowserChannel = opts.channel
	}
	if changed("out-dir") {
		cfg.OutDir = opts.outDir
	}
	if changed("url") {
		cfg.URL = opts.url
	}
	if changed("capture-ms") {
		ms := opts.captureMS
		cfg.Capture.CaptureMS = &ms
	}
	if changed("headful") {
		cfg.Capture.Headful = opts.headful
	}
	if changed("autorun") {
		cfg.Capture.Autorun = opts.autorun
	}
	if changed("keep-open") {
		cfg.Capture.KeepOpen = opts.keepOpen
	}
	if changed("save-all") {
		cfg.Capture.SaveAll = opts.saveAll
	}
	if changed("kill-running") {
		cfg.Capture.KillRunning = opts.killRunning
	}
}

func expandConfigPaths(cfg *config.Config) {
	cfg.ProfileRoot = config.ExpandHome(cfg.ProfileRoot)
	cfg.Executable = config.ExpandHome(cfg.Executable)
	cfg.OutDir = config.ExpandHome(cfg.OutDir)
}
