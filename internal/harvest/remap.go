package harvest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tailscale/hujson"
)

// builtinRemap folds the field name variants seen across ads payloads into
// canonical column names. Matching is on the lowercased key after any
// _cents/_micros suffix has been stripped.
var builtinRemap = map[string]string{
	// traffic
	"impressions":            "views",
	"ad_impressions":         "views",
	"attributed_impressions": "views",
	"impressioncount":        "views",
	"impression_count":       "views",

	// clicks
	"clicks":            "clicks",
	"click_throughs":    "clicks",
	"attributed_clicks": "clicks",
	"charged_clicks":    "clicks",
	"clickcount":        "clicks",
	"click_count":       "clicks",

	// orders
	"orders":            "orders",
	"purchases":         "orders",
	"purchasecount":     "orders",
	"ordercount":        "orders",
	"conversions":       "orders",
	"attributed_orders": "orders",

	// revenue
	"revenue":          "revenue",
	"sales":            "revenue",
	"attributed_sales": "revenue",
	"sales_cents":      "revenue",
	"revenue_cents":    "revenue",

	// spend
	"spend":        "spend",
	"spend_cents":  "spend",
	"cost_cents":   "spend",
	"spend_micros": "spend",
	"cost_micros":  "spend",
	"spenttotal":   "spend",
	"spendtotal":   "spend",
	"spend_total":  "spend",
	"costtotal":    "spend",
}

// centsLike keys hold cent amounts despite missing the _cents suffix.
var centsLike = map[string]bool{
	"spenttotal":  true,
	"spendtotal":  true,
	"spend_total": true,
	"costtotal":   true,
}

var dateKeys = map[string]bool{
	"date":      true,
	"day":       true,
	"timestamp": true,
}

// skipKeys are numeric-looking identifier fields that must never be summed
// as metrics.
var skipKeys = map[string]bool{
	"id":          true,
	"listing_id":  true,
	"campaign_id": true,
	"ad_group_id": true,
	"shop_id":     true,
	"country":     true,
	"currency":    true,
	"__typename":  true,
}

// rangeHintKeys suggest an object is an aggregate over a date range rather
// than a single day.
var rangeHintKeys = map[string]bool{
	"startdate":  true,
	"enddate":    true,
	"start_date": true,
	"end_date":   true,
	"from":       true,
	"to":         true,
	"date_range": true,
	"range":      true,
	"period":     true,
	"total":      true,
	"totals":     true,
	"sum":        true,
}

// seriesContainerKeys mark objects that merely wrap a per-day series; those
// are kept even when a range hint key is present.
var seriesContainerKeys = []string{"days", "daily", "by_day", "series", "data", "datapoints"}

// LoadRemap reads extra alias mappings from a JSON file. Comments and
// trailing commas are tolerated so the file can be annotated by hand.
// Entries win over the built-in table.
func LoadRemap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	var raw map[string]string
	if err := json.Unmarshal(std, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	remap := make(map[string]string, len(raw))
	for alias, canonical := range raw {
		remap[strings.ToLower(alias)] = strings.ToLower(canonical)
	}
	return remap, nil
}
