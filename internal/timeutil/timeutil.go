// Package timeutil provides the timestamp helpers shared by the artifact
// store and terminal output.
package timeutil

import (
	"fmt"
	"time"
)

// StampLayout is the timestamp format embedded in artifact filenames.
const StampLayout = "20060102_150405"

// Stamp formats t for inclusion in an artifact filename.
func Stamp(t time.Time) string {
	return t.Format(StampLayout)
}

// Relative returns a friendly string describing how long ago t occurred
// relative to reference. If reference is zero, time.Now() is used.
func Relative(t, reference time.Time) string {
	if reference.IsZero() {
		reference = time.Now()
	}
	if t.IsZero() {
		return "never"
	}
	t = t.In(reference.Location())
	if t.After(reference) {
		return "just now"
	}

	diff := reference.Sub(t)
	switch {
	case diff < time.Minute:
		seconds := int(diff.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		return fmt.Sprintf("%ds ago", seconds)
	case diff < time.Hour:
		minutes := int(diff.Minutes())
		if minutes == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d min ago", minutes)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days <= 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
	if t.Year() == reference.Year() {
		return t.Format("Jan 2")
	}
	return t.Format("Jan 2 2006")
}
