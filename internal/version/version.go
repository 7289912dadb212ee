// Package version reports the build's module version.
package version

import (
	"regexp"
	"runtime/debug"
	"strings"
)

var pseudoVersionPattern = regexp.MustCompile(`-\d{14}-[0-9a-f]{12,}$`)

// String returns the release version stamped into the binary, or
// "(devel)" for local and pseudo-version builds.
func String() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "(devel)"
	}
	v := info.Main.Version
	if v == "" || v == "(devel)" || strings.Contains(v, "+dirty") {
		return "(devel)"
	}
	base, _, _ := strings.Cut(v, "+")
	if pseudoVersionPattern.MatchString(base) {
		return "(devel)"
	}
	return v
}

// Info describes the running build.
type Info struct {
	Version  string
	Revision string
	Time     string
}

// Details returns the stamped version plus the VCS revision and commit
// time when the build recorded them.
func Details() Info {
	out := Info{Version: String()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Revision = s.Value
		case "vcs.time":
			out.Time = s.Value
		}
	}
	if len(out.Revision) > 12 {
		out.Revision = out.Revision[:12]
	}
	return out
}
