// Package browser manages the Playwright-driven Chrome session capture
// runs inside the user's own profile, so the dashboard is already logged
// in and no credentials ever touch this tool.
package browser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"
)

// stealthScript hides the automation marker some dashboards check.
const stealthScript = "Object.defineProperty(navigator, 'webdriver', {get: () => undefined});"

// defaultTimeoutMS applies to navigations and locator actions.
const defaultTimeoutMS = 30000

// fallbackProfileName matches Chrome's naming for the second profile.
const fallbackProfileName = "Profile 2"

var (
	// ErrProfileRootMissing indicates the user data dir does not exist.
	ErrProfileRootMissing = errors.New("profile root not found")
	// ErrProfileMissing indicates the named profile has no Preferences
	// file under the profile root.
	ErrProfileMissing = errors.New("named profile not found")
)

// ProfileHint is the remediation advice shown with profile lookup errors.
const ProfileHint = "Try 'Default', 'Profile 1', 'Profile 2', ... or see chrome://version → Profile Path"

// Options configure the persistent context launch.
type Options struct {
	// ProfileRoot is the Chrome user data dir (e.g. ~/.config/google-chrome).
	ProfileRoot string
	// ProfileName selects the sub-profile; empty skips validation and
	// launches with Chrome's "Profile 2".
	ProfileName string
	// Executable overrides the browser binary; it wins over Channel.
	Executable string
	// Channel picks the Playwright browser channel when no Executable is
	// set (chrome, chromium).
	Channel string
	// Headful shows the browser window.
	Headful bool
}

// ValidateProfile checks the profile root and, when name is non-empty,
// that the named profile has a Preferences file.
func ValidateProfile(root, name string) error {
	fi, err := os.Stat(root)
	if err != nil || !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrProfileRootMissing, root)
	}
	if name == "" {
		return nil
	}
	if _, err := os.Stat(filepath.Join(root, name, "Preferences")); err != nil {
		return fmt.Errorf("%w: %q under %s", ErrProfileMissing, name, root)
	}
	return nil
}

// launchArgs are the Chrome flags used for sniffing on a real profile.
// AutomationControlled stays disabled so the dashboard behaves as it does
// for a human session.
func launchArgs(profileName string) []string {
	if profileName == "" {
		profileName = fallbackProfileName
	}
	return []string{
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
		"--no-sandbox",
		"--profile-directory=" + profileName,
	}
}

// Session is a live persistent browser context plus its driver handle.
type Session struct {
	Context playwright.BrowserContext
	pw      *playwright.Playwright
}

// Launch validates the profile, starts the Playwright driver, and opens a
// persistent context on the profile root with the session cookies intact.
func Launch(opts Options) (*Session, error) {
	if err := ValidateProfile(opts.ProfileRoot, opts.ProfileName); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright driver: %w", err)
	}

	launch := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:          playwright.Bool(!opts.Headful),
		IgnoreDefaultArgs: []string{"--enable-automation"},
		Args:              launchArgs(opts.ProfileName),
	}
	if opts.Executable != "" {
		launch.ExecutablePath = playwright.String(opts.Executable)
	} else if opts.Channel != "" {
		launch.Channel = playwright.String(opts.Channel)
	}

	ctx, err := pw.Chromium.LaunchPersistentContext(opts.ProfileRoot, launch)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launch persistent context: %w", err)
	}

	if err := ctx.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
		ctx.Close()
		pw.Stop()
		return nil, fmt.Errorf("add init script: %w", err)
	}
	ctx.SetDefaultTimeout(defaultTimeoutMS)

	return &Session{Context: ctx, pw: pw}, nil
}

// NewPage opens a fresh page in the context.
func (s *Session) NewPage() (playwright.Page, error) {
	return s.Context.NewPage()
}

// Close shuts the context and stops the driver.
func (s *Session) Close() error {
	return errors.Join(s.Context.Close(), s.pw.Stop())
}

// Detach stops the driver but leaves the browser window running, for
// keep-open mode.
func (s *Session) Detach() error {
	return s.pw.Stop()
}
