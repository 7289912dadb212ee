package metrics

import "testing"

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		name   string
		value  any
		offset int
		want   string
		ok     bool
	}{
		{"epochSeconds", float64(1714521600), 0, "2024-05-01", true},
		{"epochMillis", float64(1714521600000), 0, "2024-05-01", true},
		{"epochWithNegativeOffset", float64(1714521600), -4, "2024-04-30", true},
		{"isoDate", "2024-05-01", 0, "2024-05-01", true},
		{"isoDateIgnoresOffset", "2024-05-01", -4, "2024-05-01", true},
		{"usDate", "05/01/2024", 0, "2024-05-01", true},
		{"rfc3339", "2024-05-01T18:30:00Z", 0, "2024-05-01", true},
		{"rfc3339Fractional", "2024-05-01T00:30:00.250Z", -4, "2024-04-30", true},
		{"rfc3339Zone", "2024-05-01T18:30:00+00:00", 0, "2024-05-01", true},
		{"naiveDatetime", "2024-05-01 18:30:00", 0, "2024-05-01", true},
		{"embeddedDate", "stats for 2024-05-01 (partial)", 0, "2024-05-01", true},
		{"nil", nil, 0, "", false},
		{"junkString", "yesterday", 0, "", false},
		{"object", map[string]any{}, 0, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeDate(tc.value, tc.offset)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("NormalizeDate = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCoerceNumber(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  float64
		ok    bool
	}{
		{"float", 12.5, 12.5, true},
		{"intLike", float64(7), 7, true},
		{"plainString", "42", 42, true},
		{"separators", " 1,234.5 ", 1234.5, true},
		{"empty", "", 0, false},
		{"words", "n/a", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := CoerceNumber(tc.value)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("CoerceNumber = %v, want %v", got, tc.want)
			}
		})
	}
}
