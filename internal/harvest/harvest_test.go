package harvest

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFixture(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunDailySeries(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "stats.json", `{
		"meta": {"shop_id": 123},
		"data": {
			"days": [
				{"date": "2025-06-01", "impressions": 100, "clicks": 5, "spend_cents": 250, "orders": 1, "revenue_cents": 1999},
				{"date": "2025-06-02", "impressions": 200, "clicks": 10, "spend_cents": 500, "orders": 0, "revenue_cents": 0}
			]
		}
	}`)
	writeFixture(t, dir, "notes.txt", "not json")

	res, err := Run(Options{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if res.FilesFound != 2 || res.FilesParsed != 1 {
		t.Fatalf("found/parsed = %d/%d, want 2/1", res.FilesFound, res.FilesParsed)
	}

	wantHeader := []string{"date", "views", "clicks", "spend", "orders", "revenue"}
	if !reflect.DeepEqual(res.Header, wantHeader) {
		t.Fatalf("header = %v, want %v", res.Header, wantHeader)
	}
	wantRows := [][]string{
		{"2025-06-01", "100", "5", "2.5", "1", "19.99"},
		{"2025-06-02", "200", "10", "5", "0", "0"},
	}
	if !reflect.DeepEqual(res.Rows, wantRows) {
		t.Fatalf("rows = %v, want %v", res.Rows, wantRows)
	}
}

func TestRunDerivedColumns(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "day.json", `{"date": "2025-06-01", "impressions": 100, "clicks": 5, "spend_cents": 250, "orders": 1, "revenue_cents": 1999}`)

	res, err := Run(Options{Dir: dir, Derived: true})
	if err != nil {
		t.Fatal(err)
	}
	wantHeader := []string{"date", "views", "clicks", "spend", "orders", "revenue", "ctr", "cpc", "cpm", "order_rate", "roas"}
	if !reflect.DeepEqual(res.Header, wantHeader) {
		t.Fatalf("header = %v, want %v", res.Header, wantHeader)
	}
	want := []string{"2025-06-01", "100", "5", "2.5", "1", "19.99", "0.05", "0.5", "25", "0.2", "7.996"}
	if !reflect.DeepEqual(res.Rows[0], want) {
		t.Fatalf("row = %v, want %v", res.Rows[0], want)
	}
}

func TestRangeTotalHandling(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "daily.json", `{"date": "2025-06-01", "spend_cents": 250}`)
	writeFixture(t, dir, "total.json", `{"date": "2025-06-01", "period": "last_7", "spend": 70}`)

	res, err := Run(Options{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Rows[0][3]; got != "2.5" {
		t.Fatalf("spend with totals skipped = %q, want %q", got, "2.5")
	}

	res, err = Run(Options{Dir: dir, IncludeRangeTotals: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Rows[0][3]; got != "72.5" {
		t.Fatalf("spend with totals summed = %q, want %q", got, "72.5")
	}

	res, err = Run(Options{Dir: dir, IncludeRangeTotals: true, Policy: PolicyMinNonzero})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Rows[0][3]; got != "2.5" {
		t.Fatalf("spend with min-nonzero = %q, want %q", got, "2.5")
	}
}

func TestLooksLikeRangeTotal(t *testing.T) {
	tests := []struct {
		name string
		obj  map[string]any
		want bool
	}{
		{
			name: "startEndPair",
			obj:  map[string]any{"start_date": "2025-06-01", "end_date": "2025-06-07", "spend": 70.0},
			want: true,
		},
		{
			name: "totalKey",
			obj:  map[string]any{"date": "2025-06-01", "total": 70.0},
			want: true,
		},
		{
			name: "plainDay",
			obj:  map[string]any{"date": "2025-06-01", "spend": 10.0},
			want: false,
		},
		{
			name: "seriesWrapperKept",
			obj:  map[string]any{"range": "last_30", "days": []any{}},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := looksLikeRangeTotal(tt.obj); got != tt.want {
				t.Fatalf("looksLikeRangeTotal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReducePolicies(t *testing.T) {
	tests := []struct {
		name   string
		vals   []float64
		policy Policy
		want   float64
	}{
		{name: "sum", vals: []float64{4, 0, 10}, policy: PolicySum, want: 14},
		{name: "minNonzero", vals: []float64{4, 0, 10}, policy: PolicyMinNonzero, want: 4},
		{name: "minNonzeroAllZero", vals: []float64{0, 0}, policy: PolicyMinNonzero, want: 0},
		{name: "min", vals: []float64{4, 0, 10}, policy: PolicyMin, want: 0},
		{name: "max", vals: []float64{4, 0, 10}, policy: PolicyMax, want: 10},
		{name: "medianOdd", vals: []float64{10, 0, 4}, policy: PolicyMedian, want: 4},
		{name: "medianEven", vals: []float64{10, 0, 4, 2}, policy: PolicyMedian, want: 3},
		{name: "empty", vals: nil, policy: PolicySum, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reduce(tt.vals, tt.policy); got != tt.want {
				t.Fatalf("reduce(%v, %s) = %v, want %v", tt.vals, tt.policy, got, tt.want)
			}
		})
	}
}

func TestScaledSiblingsWinOverBareMoney(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "mixed.json", `[
		{"date": "2025-06-01", "spend": 999, "spend_cents": 450, "revenue": 888, "revenue_micros": 12500000},
		{"date": "2025-06-02", "spend": 50, "spendTotal": 7500}
	]`)

	res, err := Run(Options{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	wantRows := [][]string{
		{"2025-06-01", "0", "0", "4.5", "0", "12.5"},
		{"2025-06-02", "0", "0", "75", "0", "0"},
	}
	if !reflect.DeepEqual(res.Rows, wantRows) {
		t.Fatalf("rows = %v, want %v", res.Rows, wantRows)
	}
}

func TestKeepRawColumns(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "day.json", `{"date": "2025-06-01", "impressions": 10}`)

	res, err := Run(Options{Dir: dir, KeepRaw: true})
	if err != nil {
		t.Fatal(err)
	}
	wantHeader := []string{"date", "views", "clicks", "spend", "orders", "revenue", "impressions"}
	if !reflect.DeepEqual(res.Header, wantHeader) {
		t.Fatalf("header = %v, want %v", res.Header, wantHeader)
	}
	want := []string{"2025-06-01", "10", "0", "0", "0", "0", "10"}
	if !reflect.DeepEqual(res.Rows[0], want) {
		t.Fatalf("row = %v, want %v", res.Rows[0], want)
	}
}

func TestRemapOverride(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "day.json", `{"date": "2025-06-01", "Hits": 42}`)

	res, err := Run(Options{Dir: dir, Remap: map[string]string{"Hits": "Views"}})
	if err != nil {
		t.Fatal(err)
	}
	wantHeader := []string{"date", "views", "clicks", "spend", "orders", "revenue"}
	if !reflect.DeepEqual(res.Header, wantHeader) {
		t.Fatalf("header = %v, want %v", res.Header, wantHeader)
	}
	if got := res.Rows[0][1]; got != "42" {
		t.Fatalf("views = %q, want %q", got, "42")
	}
}

func TestTimezoneOffsetShiftsTimestamps(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "day.json", `[
		{"timestamp": 1748736000, "clicks": 1},
		{"date": "2025-06-01", "clicks": 2}
	]`)

	res, err := Run(Options{Dir: dir, TZOffsetHours: -4})
	if err != nil {
		t.Fatal(err)
	}
	wantRows := [][]string{
		{"2025-05-31", "0", "1", "0", "0", "0"},
		{"2025-06-01", "0", "2", "0", "0", "0"},
	}
	if !reflect.DeepEqual(res.Rows, wantRows) {
		t.Fatalf("rows = %v, want %v", res.Rows, wantRows)
	}
}

func TestRunErrors(t *testing.T) {
	empty := t.TempDir()
	if _, err := Run(Options{Dir: empty}); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("err = %v, want ErrNoFiles", err)
	}

	undated := t.TempDir()
	writeFixture(t, undated, "meta.json", `{"note": "hello"}`)
	if _, err := Run(Options{Dir: undated}); !errors.Is(err, ErrNoRows) {
		t.Fatalf("err = %v, want ErrNoRows", err)
	}
}

func TestParsePolicy(t *testing.T) {
	for _, name := range Policies() {
		if _, err := ParsePolicy(name); err != nil {
			t.Fatalf("ParsePolicy(%q) failed: %v", name, err)
		}
	}
	if _, err := ParsePolicy("average"); err == nil {
		t.Fatal("ParsePolicy accepted unknown policy")
	}
}
