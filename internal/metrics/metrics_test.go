package metrics

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return v
}

func TestLooksLikeMetrics(t *testing.T) {
	cases := []struct {
		name string
		json string
		want bool
	}{
		{"flatMetrics", `{"date":"2024-05-01","clicks":10}`, true},
		{"upperCaseKeys", `{"Impressions":120}`, true},
		{"nestedUnderData", `{"data":{"results":{"spend":5}}}`, true},
		{"listOfRows", `[{"date":"2024-05-01","views":3}]`, true},
		{"emptyList", `[]`, false},
		{"listOfPrimitives", `[1,2,3]`, false},
		{"listOfLists", `[[{"views":1}]]`, false},
		{"unrelatedObject", `{"listing_title":"mug","quantity":4}`, false},
		{"scalar", `42`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := LooksLikeMetrics(decode(t, tc.json)); got != tc.want {
				t.Fatalf("LooksLikeMetrics = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExtractDailyRows(t *testing.T) {
	payload := decode(t, `{
		"range": {"start_date": "2024-05-01", "end_date": "2024-05-03"},
		"data": [
			{"date": "2024-05-01", "impressions": 120, "clicks": 6, "cost": "1,250.5"},
			{"date": "2024-05-02", "views": 80, "attributed_orders": 2, "sales": 4200},
			{"date": "2024-05-02", "views": 80, "attributed_orders": 2, "sales": 4200},
			{"day": 1714694400, "clicks": 9}
		]
	}`)

	rows := ExtractDailyRows(payload)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3: %+v", len(rows), rows)
	}

	first := rows[0]
	if first.Date != "2024-05-01" {
		t.Fatalf("first date = %q, want 2024-05-01", first.Date)
	}
	if first.Views == nil || *first.Views != 120 {
		t.Fatalf("impressions alias not mapped to views: %+v", first)
	}
	if first.Spend == nil || *first.Spend != 1250.5 {
		t.Fatalf("cost alias with separators not coerced: %+v", first)
	}
	if first.Orders != nil {
		t.Fatalf("orders should be missing, got %v", *first.Orders)
	}

	second := rows[1]
	if second.Orders == nil || *second.Orders != 2 {
		t.Fatalf("attributed_orders alias not mapped: %+v", second)
	}
	if second.Revenue == nil || *second.Revenue != 4200 {
		t.Fatalf("sales alias not mapped to revenue: %+v", second)
	}

	third := rows[2]
	if third.Date != "2024-05-03" {
		t.Fatalf("epoch day not normalized, got %q", third.Date)
	}
}

func TestExtractDailyRowsRequiresMetric(t *testing.T) {
	payload := decode(t, `{"date":"2024-05-01","__typename":"DateRange"}`)
	if rows := ExtractDailyRows(payload); len(rows) != 0 {
		t.Fatalf("date-only object produced rows: %+v", rows)
	}
}

func TestRowCells(t *testing.T) {
	clicks := 6.0
	row := Row{Date: "2024-05-01", Clicks: &clicks}
	got := row.Cells()
	want := []string{"2024-05-01", "", "6", "", "", ""}
	if len(got) != len(want) {
		t.Fatalf("cells = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cell %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDerived(t *testing.T) {
	d := Derived(1000, 50, 25, 5, 100)
	checks := map[string]float64{
		"ctr":        0.05,
		"cpc":        0.5,
		"cpm":        25,
		"order_rate": 0.1,
		"roas":       4,
	}
	for name, want := range checks {
		if got := d[name]; got != want {
			t.Fatalf("%s = %v, want %v", name, got, want)
		}
	}

	zero := Derived(0, 0, 0, 0, 0)
	for _, name := range DerivedColumns {
		if zero[name] != 0 {
			t.Fatalf("%s with zero denominators = %v, want 0", name, zero[name])
		}
	}
}
