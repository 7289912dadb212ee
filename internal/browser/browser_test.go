package browser

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestValidateProfile(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "Profile 2"), 0o755); err != nil {
		t.Fatal(err)
	}
	prefs := filepath.Join(root, "Profile 2", "Preferences")
	if err := os.WriteFile(prefs, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		root    string
		profile string
		want    error
	}{
		{name: "ok", root: root, profile: "Profile 2"},
		{name: "emptyNameSkipsCheck", root: root, profile: ""},
		{name: "missingRoot", root: filepath.Join(root, "nope"), profile: "Profile 2", want: ErrProfileRootMissing},
		{name: "missingProfile", root: root, profile: "Profile 9", want: ErrProfileMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProfile(tt.root, tt.profile)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("ValidateProfile = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("ValidateProfile = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLaunchArgs(t *testing.T) {
	got := launchArgs("")
	want := []string{
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
		"--no-sandbox",
		"--profile-directory=Profile 2",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("launchArgs(\"\") = %v, want %v", got, want)
	}

	got = launchArgs("Default")
	if got[len(got)-1] != "--profile-directory=Default" {
		t.Fatalf("profile directory arg = %q", got[len(got)-1])
	}
}
