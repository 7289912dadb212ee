package metrics

import "math"

// DerivedColumns is the column order for derived metrics in harvest output.
var DerivedColumns = []string{"ctr", "cpc", "cpm", "order_rate", "roas"}

// Derived computes the ratio metrics for one day of canonical values.
// A zero denominator yields zero rather than infinity.
func Derived(views, clicks, spend, orders, revenue float64) map[string]float64 {
	return map[string]float64{
		"ctr":        Round6(ratio(clicks, views)),
		"cpc":        Round6(ratio(spend, clicks)),
		"cpm":        Round6(ratio(spend, views/1000.0)),
		"order_rate": Round6(ratio(orders, clicks)),
		"roas":       Round6(ratio(revenue, spend)),
	}
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Round6 rounds to six decimal places, the precision used in CSV output.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
