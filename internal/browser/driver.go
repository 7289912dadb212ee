package browser

import "github.com/playwright-community/playwright-go"

// Install downloads the Playwright driver, and its browsers unless
// driverOnly is set. Capturing through the system Chrome channel only
// needs the driver.
func Install(driverOnly bool) error {
	if driverOnly {
		return playwright.Install(&playwright.RunOptions{SkipInstallBrowsers: true})
	}
	return playwright.Install()
}

// DriverReady starts and stops the driver to verify the installation.
func DriverReady() error {
	pw, err := playwright.Run()
	if err != nil {
		return err
	}
	return pw.Stop()
}
