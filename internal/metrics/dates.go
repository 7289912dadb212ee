package metrics

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts carry a time of day, so a timezone offset applies before
// the calendar date is taken. RFC3339 parsing also accepts fractional
// seconds, which covers the ".000Z" style Etsy sometimes emits.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// dateLayouts are pure calendar dates; the offset never shifts them.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
}

var isoDatePattern = regexp.MustCompile(`(20\d{2}-\d{2}-\d{2})`)

// NormalizeDate converts the date/timestamp forms seen in captured payloads
// to a YYYY-MM-DD string. Numbers are epoch seconds, or milliseconds when
// larger than 1e12. offsetHours shifts epoch and timestamp values into
// local time before the date is taken; plain dates pass through unshifted.
func NormalizeDate(v any, offsetHours int) (string, bool) {
	offset := time.Duration(offsetHours) * time.Hour

	switch val := v.(type) {
	case nil:
		return "", false
	case float64:
		ts := int64(val)
		if ts > 1_000_000_000_000 {
			ts /= 1000
		}
		return time.Unix(ts, 0).UTC().Add(offset).Format("2006-01-02"), true
	case string:
		s := strings.TrimSpace(val)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Add(offset).Format("2006-01-02"), true
			}
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format("2006-01-02"), true
			}
		}
		if m := isoDatePattern.FindString(s); m != "" {
			return m, true
		}
	}
	return "", false
}

// CoerceNumber turns a decoded JSON value into a float64 where possible.
// Strings are trimmed and may contain thousands separators.
func CoerceNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
