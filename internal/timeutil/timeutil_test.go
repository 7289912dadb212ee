package timeutil

import (
	"testing"
	"time"
)

func TestStamp(t *testing.T) {
	ts := time.Date(2025, time.April, 7, 9, 30, 5, 0, time.UTC)
	if got, want := Stamp(ts), "20250407_093005"; got != want {
		t.Fatalf("Stamp = %q, want %q", got, want)
	}
}

func TestRelative(t *testing.T) {
	loc := time.FixedZone("Test", -8*3600)
	ref := time.Date(2025, time.December, 5, 15, 0, 0, 0, loc)

	cases := []struct {
		name string
		ts   time.Time
		want string
	}{
		{"seconds", ref.Add(-3 * time.Second), "3s ago"},
		{"minutes", ref.Add(-2 * time.Minute), "2 min ago"},
		{"oneHour", ref.Add(-90 * time.Minute), "1 hour ago"},
		{"hours", ref.Add(-5 * time.Hour), "5 hours ago"},
		{"days", ref.Add(-4 * 24 * time.Hour), "4 days ago"},
		{"sameYear", ref.AddDate(0, -2, 0), "Oct 5"},
		{"differentYear", time.Date(2023, time.January, 2, 15, 0, 0, 0, loc), "Jan 2 2023"},
		{"future", ref.Add(10 * time.Second), "just now"},
		{"zero", time.Time{}, "never"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Relative(tc.ts, ref); got != tc.want {
				t.Fatalf("Relative(%s) = %q, want %q", tc.name, got, tc.want)
			}
		})
	}
}
