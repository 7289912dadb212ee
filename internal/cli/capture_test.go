package cli

import (
	"testing"

	"github.com/bcaptain404/EtsyScraper/internal/config"
)

func TestMergeCaptureConfigFlagPrecedence(t *testing.T) {
	cfg := config.Default()
	opts := &captureOptions{
		profileDir: "/data/chrome",
		captureMS:  0,
		headful:    true,
		saveAll:    true,
	}
	changed := map[string]bool{
		"profile-dir": true,
		"capture-ms":  true,
		"headful":     true,
		"save-all":    true,
	}
	mergeCaptureConfig(&cfg, opts, func(name string) bool { return changed[name] })

	if cfg.ProfileRoot != "/data/chrome" {
		t.Fatalf("ProfileRoot = %q, want %q", cfg.ProfileRoot, "/data/chrome")
	}
	if !cfg.Capture.Headful {
		t.Fatal("expected headful to be set")
	}
	if !cfg.Capture.SaveAll {
		t.Fatal("expected save-all to be set")
	}
	if got := cfg.Capture.WindowMS(); got != 0 {
		t.Fatalf("WindowMS() = %d, want explicit 0 preserved", got)
	}
	if cfg.ProfileName != "Profile 2" {
		t.Fatalf("ProfileName = %q, want untouched default", cfg.ProfileName)
	}
	if cfg.URL != config.DefaultURL {
		t.Fatalf("URL = %q, want untouched default", cfg.URL)
	}
}

func TestMergeCaptureConfigLeavesConfigWhenUnchanged(t *testing.T) {
	cfg := config.Default()
	cfg.Capture.Autorun = true
	cfg.OutDir = "/srv/out"

	opts := &captureOptions{autorun: false, outDir: ""}
	mergeCaptureConfig(&cfg, opts, func(string) bool { return false })

	if !cfg.Capture.Autorun {
		t.Fatal("unchanged flag must not override config")
	}
	if cfg.OutDir != "/srv/out" {
		t.Fatalf("OutDir = %q, want config value kept", cfg.OutDir)
	}
}

func TestCaptureFlagSpellings(t *testing.T) {
	cmd := newCaptureCommand()
	for _, name := range []string{
		"profile-dir", "chrome-profile-name", "out-dir", "headful",
		"autorun", "keep-open", "save-all", "executable",
		"url", "capture-ms", "browser-channel", "kill-running", "config",
	} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("capture is missing flag --%s", name)
		}
	}
}

func TestExpandConfigPaths(t *testing.T) {
	t.Setenv("HOME", "/home/seller")
	cfg := config.Default()
	cfg.Executable = "~/bin/chrome"
	cfg.OutDir = "./out"
	expandConfigPaths(&cfg)

	if cfg.ProfileRoot != "/home/seller/.config/google-chrome" {
		t.Fatalf("ProfileRoot = %q", cfg.ProfileRoot)
	}
	if cfg.Executable != "/home/seller/bin/chrome" {
		t.Fatalf("Executable = %q", cfg.Executable)
	}
	if cfg.OutDir != "./out" {
		t.Fatalf("OutDir = %q, want relative path untouched", cfg.OutDir)
	}
}
