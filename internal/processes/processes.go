// Package processes lists the current user's running processes so capture
// can find (and optionally terminate) browser instances holding the
// configured Chrome profile.
package processes

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned on platforms without native process listing.
var ErrUnsupported = errors.New("process detection unsupported")

const (
	testDataInlineEnv = "ETSYSCRAPER_PROCESS_TEST_DATA"
	testDataFileEnv   = "ETSYSCRAPER_PROCESS_TEST_DATA_FILE"
)

// Process is one running process owned by the current user. Args carries
// the full command line where the platform exposes it (linux, macOS);
// elsewhere matching falls back to Command alone.
type Process struct {
	PID     int      `json:"pid"`
	PPID    int      `json:"ppid"`
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// List returns the current user's processes. Test data injected through
// ETSYSCRAPER_PROCESS_TEST_DATA or ETSYSCRAPER_PROCESS_TEST_DATA_FILE
// takes precedence so command behavior can be exercised without live
// processes.
func List() ([]Process, error) {
	if procs, ok, err := fromTestData(); err != nil || ok {
		return procs, err
	}
	return listNative(os.Getuid())
}

// TestDataFilePath reports the injected process list file, if any. The
// kill path rewrites that file instead of signaling real processes.
func TestDataFilePath() string {
	return os.Getenv(testDataFileEnv)
}

func fromTestData() ([]Process, bool, error) {
	if path := os.Getenv(testDataFileEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, true, fmt.Errorf("read %s: %w", path, err)
		}
		procs, err := decodeTestData(data)
		return procs, true, err
	}
	if data := os.Getenv(testDataInlineEnv); data != "" {
		procs, err := decodeTestData([]byte(data))
		return procs, true, err
	}
	return nil, false, nil
}

func decodeTestData(data []byte) ([]Process, error) {
	var procs []Process
	if err := json.Unmarshal(data, &procs); err != nil {
		return nil, fmt.Errorf("parse process test data: %w", err)
	}
	return procs, nil
}

func sanitizeCommand(cmd string, pid int) string {
	if cmd != "" {
		return cmd
	}
	return fmt.Sprintf("process-%d", pid)
}

// chromeLikeNames cover the command names Chrome and Chromium builds run
// under, including the headless shell Playwright downloads.
var chromeLikeNames = map[string]bool{
	"chrome":                 true,
	"chromium":               true,
	"chromium-browser":       true,
	"google-chrome":          true,
	"google-chrome-stable":   true,
	"google-chrome-beta":     true,
	"google-chrome-unstable": true,
	"headless_shell":         true,
}

// MatchesBrowser reports whether p looks like a browser instance relevant
// to the configured profile: its command line mentions the profile root,
// or it matches the configured executable, or, with no explicit
// executable, it runs under a known Chrome/Chromium name.
func MatchesBrowser(p Process, executable, profileRoot string) bool {
	if profileRoot != "" {
		for _, arg := range p.Args {
			if strings.Contains(arg, profileRoot) {
				return true
			}
		}
	}
	if executable != "" {
		base := filepath.Base(executable)
		if p.Command == base {
			return true
		}
		return len(p.Args) > 0 && filepath.Base(p.Args[0]) == base
	}
	return chromeLikeNames[p.Command]
}
