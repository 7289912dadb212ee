// Package metrics holds the content heuristics used to recognize ads
// metrics payloads inside arbitrary captured JSON and to pull per-day rows
// out of them. Etsy changes its private endpoints freely, so nothing here
// depends on a URL shape; detection is purely structural.
package metrics

import (
	"sort"
	"strconv"
	"strings"
)

// hintKeys are field names that suggest a JSON object carries ads metrics.
var hintKeys = map[string]bool{
	"views":             true,
	"impressions":       true,
	"clicks":            true,
	"ctr":               true,
	"spend":             true,
	"orders":            true,
	"conversions":       true,
	"revenue":           true,
	"sales":             true,
	"date":              true,
	"day":               true,
	"timestamp":         true,
	"attributed_orders": true,
}

// fieldAliases maps each canonical session column to the raw names it may
// appear under. Lookup prefers exact key matches, then case-insensitive.
var fieldAliases = map[string][]string{
	"views":   {"views", "impressions"},
	"clicks":  {"clicks"},
	"spend":   {"spend", "cost"},
	"orders":  {"orders", "conversions", "attributed_orders"},
	"revenue": {"revenue", "sales", "attributed_sales"},
	"date":    {"date", "day", "timestamp"},
}

// SessionColumns is the column order of the session CSV written after a
// capture run.
var SessionColumns = []string{"date", "views", "clicks", "spend", "orders", "revenue"}

// Row is one normalized daily metrics row. Metrics that were absent from
// the payload stay nil so CSV cells can be left empty.
type Row struct {
	Date    string
	Views   *float64
	Clicks  *float64
	Spend   *float64
	Orders  *float64
	Revenue *float64
}

// Cells returns the row formatted in SessionColumns order, with empty
// strings for missing metrics.
func (r Row) Cells() []string {
	return []string{
		r.Date,
		formatCell(r.Views),
		formatCell(r.Clicks),
		formatCell(r.Spend),
		formatCell(r.Orders),
		formatCell(r.Revenue),
	}
}

// Key returns a deduplication key covering every populated field.
func (r Row) Key() string {
	return strings.Join(r.Cells(), "\x1f")
}

func formatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// LooksLikeMetrics reports whether decoded JSON appears to contain ads
// metrics. Objects match when any key is a hint key, directly or anywhere
// under nested values; a list matches when its first element is an object
// with a hint key.
func LooksLikeMetrics(v any) bool {
	switch node := v.(type) {
	case map[string]any:
		if hasHintKey(node) {
			return true
		}
		for _, child := range node {
			if LooksLikeMetrics(child) {
				return true
			}
		}
	case []any:
		if len(node) == 0 {
			return false
		}
		if sample, ok := node[0].(map[string]any); ok {
			return hasHintKey(sample)
		}
	}
	return false
}

func hasHintKey(obj map[string]any) bool {
	for k := range obj {
		if hintKeys[strings.ToLower(k)] {
			return true
		}
	}
	return false
}

// ExtractDailyRows traverses decoded JSON and collects every object that
// carries a recognizable date plus at least one metric. Rows are
// deduplicated by content; order follows traversal order.
func ExtractDailyRows(v any) []Row {
	var rows []Row
	visitForRows(v, &rows)

	seen := make(map[string]bool, len(rows))
	uniq := rows[:0]
	for _, r := range rows {
		key := r.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		uniq = append(uniq, r)
	}
	return uniq
}

func visitForRows(v any, rows *[]Row) {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			visitForRows(item, rows)
		}
	case map[string]any:
		if hasHintKey(node) {
			if row, ok := rowFromObject(node); ok {
				*rows = append(*rows, row)
			}
		}
		for _, child := range node {
			visitForRows(child, rows)
		}
	}
}

func rowFromObject(obj map[string]any) (Row, bool) {
	date, ok := aliasLookup(obj, "date")
	if !ok {
		return Row{}, false
	}
	iso, ok := NormalizeDate(date, 0)
	if !ok {
		return Row{}, false
	}

	row := Row{Date: iso}
	found := false
	assign := func(dst **float64, field string) {
		raw, ok := aliasLookup(obj, field)
		if !ok {
			return
		}
		num, ok := CoerceNumber(raw)
		if !ok {
			return
		}
		*dst = &num
		found = true
	}
	assign(&row.Views, "views")
	assign(&row.Clicks, "clicks")
	assign(&row.Spend, "spend")
	assign(&row.Orders, "orders")
	assign(&row.Revenue, "revenue")

	return row, found
}

// aliasLookup finds a value for the canonical field, trying each alias as
// an exact key first and then case-insensitively over sorted keys so the
// result does not depend on map iteration order.
func aliasLookup(obj map[string]any, field string) (any, bool) {
	names := fieldAliases[field]
	for _, name := range names {
		if v, ok := obj[name]; ok {
			return v, true
		}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range names {
		lower := strings.ToLower(name)
		for _, k := range keys {
			if strings.ToLower(k) == lower {
				return obj[k], true
			}
		}
	}
	return nil, false
}
