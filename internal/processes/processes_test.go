package processes

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestListUsesInlineTestData(t *testing.T) {
	t.Setenv(testDataInlineEnv, `[{"pid": 41, "ppid": 1, "command": "chrome", "args": ["/opt/chrome", "--type=renderer"]}]`)

	procs, err := List()
	if err != nil {
		t.Fatal(err)
	}
	want := []Process{{PID: 41, PPID: 1, Command: "chrome", Args: []string{"/opt/chrome", "--type=renderer"}}}
	if !reflect.DeepEqual(procs, want) {
		t.Fatalf("List() = %+v, want %+v", procs, want)
	}
}

func TestListPrefersTestDataFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procs.json")
	if err := os.WriteFile(path, []byte(`[{"pid": 7, "command": "chromium"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(testDataFileEnv, path)
	t.Setenv(testDataInlineEnv, `[{"pid": 99, "command": "ignored"}]`)

	procs, err := List()
	if err != nil {
		t.Fatal(err)
	}
	if len(procs) != 1 || procs[0].PID != 7 {
		t.Fatalf("List() = %+v, want the file entry", procs)
	}
}

func TestListRejectsBadTestData(t *testing.T) {
	t.Setenv(testDataInlineEnv, "{not json")
	if _, err := List(); err == nil {
		t.Fatal("List() accepted malformed test data")
	}
}

func TestMatchesBrowser(t *testing.T) {
	profileRoot := "/home/me/.config/google-chrome"
	tests := []struct {
		name       string
		proc       Process
		executable string
		root       string
		want       bool
	}{
		{
			name: "argsMentionProfileRoot",
			proc: Process{Command: "mybrowser", Args: []string{"/opt/mybrowser", "--user-data-dir=" + profileRoot}},
			root: profileRoot,
			want: true,
		},
		{
			name:       "commandMatchesExecutable",
			proc:       Process{Command: "thorium"},
			executable: "/opt/thorium/thorium",
			want:       true,
		},
		{
			name:       "firstArgMatchesExecutable",
			proc:       Process{Command: "exe", Args: []string{"/opt/thorium/thorium", "--headless"}},
			executable: "/usr/local/bin/thorium",
			want:       true,
		},
		{
			name: "chromeNameWithoutExecutable",
			proc: Process{Command: "google-chrome"},
			want: true,
		},
		{
			name:       "chromeNameIgnoredWithExecutable",
			proc:       Process{Command: "google-chrome"},
			executable: "/opt/thorium/thorium",
			want:       false,
		},
		{
			name: "unrelatedProcess",
			proc: Process{Command: "vim", Args: []string{"vim", "notes.txt"}},
			root: profileRoot,
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesBrowser(tt.proc, tt.executable, tt.root); got != tt.want {
				t.Fatalf("MatchesBrowser(%+v, %q, %q) = %v, want %v", tt.proc, tt.executable, tt.root, got, tt.want)
			}
		})
	}
}
