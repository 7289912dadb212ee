// Package capture drives a live sniffing session: it opens the ads
// dashboard in the user's Chrome profile, listens to XHR/fetch responses,
// stores matching JSON payloads, and writes a best-effort per-day CSV for
// whatever metrics rows the session surfaced.
package capture

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/bcaptain404/EtsyScraper/internal/artifact"
	"github.com/bcaptain404/EtsyScraper/internal/browser"
	"github.com/bcaptain404/EtsyScraper/internal/metrics"
)

// Logger receives progress lines tagged with a bracket marker (*, +, ✓,
// !, i, warn, net, page, nav, reqfail, console:<type>). The CLI supplies
// one that colors the markers; a nil Logger discards everything.
type Logger func(marker, format string, args ...any)

// Options configure a capture session.
type Options struct {
	// URL is the dashboard address to open.
	URL string
	// OutDir receives the JSON payloads and the session CSV.
	OutDir string
	// Browser configures the persistent profile launch.
	Browser browser.Options
	// Autorun nudges the page to trigger its data requests.
	Autorun bool
	// KeepOpen leaves the browser window running after the run.
	KeepOpen bool
	// SaveAll disables the ads URL filter and attempts non-JSON bodies.
	SaveAll bool
	// WindowMS is the listen window; with KeepOpen or a non-positive
	// window the session runs until ctx is canceled.
	WindowMS int
	// Workers bounds concurrent body decoding; 0 means a small default.
	Workers int
	// Log receives progress lines.
	Log Logger
}

// Result summarizes a capture session.
type Result struct {
	// Files is the number of payloads written.
	Files int
	// Rows is the number of distinct daily rows extracted.
	Rows int
	// CSV is the session CSV path, empty when no rows surfaced.
	CSV string
}

// Run executes one capture session. The context governs the live phase:
// canceling it (Ctrl-C) ends a keep-open session cleanly.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Log == nil {
		opts.Log = func(string, string, ...any) {}
	}

	store, err := artifact.NewStore(opts.OutDir)
	if err != nil {
		return nil, err
	}

	opts.Log("*", "Launching Chrome with profile: %s", opts.Browser.ProfileRoot)
	session, err := browser.Launch(opts.Browser)
	if err != nil {
		return nil, err
	}

	s := newSniffer(store, opts)
	session.Context.OnPage(s.watchPage)
	session.Context.OnResponse(s.enqueue)

	page, err := session.NewPage()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	opts.Log("*", "goto → %s", opts.URL)
	if _, err := page.Goto(opts.URL, playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateDomcontentloaded}); err != nil {
		session.Close()
		return nil, fmt.Errorf("goto %s: %w", opts.URL, err)
	}
	if u := page.URL(); u == "" || u == "about:blank" {
		opts.Log("warn", "at about:blank, retrying navigation")
		if _, err := page.Reload(); err == nil {
			sleep(ctx, 400*time.Millisecond)
			if _, err := page.Goto(opts.URL, playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateDomcontentloaded}); err != nil {
				opts.Log("warn", "retry goto: %v", err)
			}
		}
	}

	if opts.Autorun {
		s.nudge(ctx, page)
	}

	if opts.KeepOpen || opts.WindowMS <= 0 {
		opts.Log("*", "live capture: Ctrl+C to stop.")
		<-ctx.Done()
		opts.Log("!", "stopping")
	} else {
		opts.Log("*", "capturing for %d ms…", opts.WindowMS)
		sleep(ctx, time.Duration(opts.WindowMS)*time.Millisecond)
	}

	s.drain()
	rows, files := s.snapshot()

	res := &Result{Files: files}
	if len(rows) > 0 {
		seen := make(map[string]bool, len(rows))
		cells := make([][]string, 0, len(rows))
		for _, r := range rows {
			key := r.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			cells = append(cells, r.Cells())
		}
		path, err := store.SaveDailyCSV("etsy_ads_daily", metrics.SessionColumns, cells)
		if err != nil {
			return res, err
		}
		res.Rows = len(cells)
		res.CSV = path
		opts.Log("✓", "Aggregated CSV written: %s", path)
	} else {
		opts.Log("!", "No daily metrics detected yet. Toggle date range and rerun.")
	}

	if opts.KeepOpen {
		opts.Log("i", "leaving the browser open")
		if err := session.Detach(); err != nil {
			opts.Log("warn", "stop driver: %v", err)
		}
	} else if err := session.Close(); err != nil {
		opts.Log("warn", "close browser: %v", err)
	}

	return res, nil
}

// watchPage wires the page-level logging hooks once per opened page.
func (s *sniffer) watchPage(page playwright.Page) {
	s.log("page", "opened: %s", page.URL())
	page.OnFrameNavigated(func(frame playwright.Frame) {
		s.log("nav", "%s", frame.URL())
	})
	page.OnRequestFailed(func(req playwright.Request) {
		reason := "unknown"
		if f := req.Failure(); f != nil {
			reason = f.Error()
		}
		s.log("reqfail", "%s :: %s", req.URL(), reason)
	})
	page.OnConsole(func(msg playwright.ConsoleMessage) {
		s.log("console:"+msg.Type(), "%s", msg.Text())
	})
}

// dateRangeButton matches the accessible names of the dashboard's date
// range controls.
var dateRangeButton = regexp.MustCompile(`(?i)(Last|This|Custom|Date|Day|Week|Month|Year)`)

const dispatchEventsJS = `() => {
	document.dispatchEvent(new Event('visibilitychange'));
	window.dispatchEvent(new Event('focus'));
	window.dispatchEvent(new Event('resize'));
}`

// nudge reloads the dashboard and pokes a date-range control so the page
// refires its data requests. Every failure here is just a warning; the
// page may still load data on its own.
func (s *sniffer) nudge(ctx context.Context, page playwright.Page) {
	sleep(ctx, 600*time.Millisecond)
	if _, err := page.Reload(); err != nil {
		s.log("warn", "autorun nudge failed: %v", err)
		return
	}
	if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{State: playwright.LoadStateDomcontentloaded}); err != nil {
		s.log("warn", "autorun nudge failed: %v", err)
		return
	}

	buttons := page.GetByRole(playwright.AriaRoleButton, playwright.PageGetByRoleOptions{Name: dateRangeButton})
	count, err := buttons.Count()
	if err != nil {
		s.log("warn", "autorun nudge failed: %v", err)
		return
	}
	if count > 0 {
		s.log("i", "autorun: clicking a date-range control")
		if err := buttons.First().Click(); err != nil {
			s.log("warn", "autorun click failed: %v", err)
			return
		}
		sleep(ctx, 800*time.Millisecond)
		return
	}
	if _, err := page.Evaluate(dispatchEventsJS); err != nil {
		s.log("warn", "autorun nudge failed: %v", err)
	}
}

// sleep waits for d or until ctx is canceled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
