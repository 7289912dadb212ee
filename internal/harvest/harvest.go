// Package harvest folds captured JSON payloads into a per-day metrics
// table. A capture covering a long date range usually contains both a
// per-day series and an aggregate range total for the same dates, so values
// are accumulated per date and metric and reduced with a selectable policy
// instead of being summed blindly. Objects that look like range totals are
// skipped by default.
package harvest

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bcaptain404/EtsyScraper/internal/artifact"
	"github.com/bcaptain404/EtsyScraper/internal/metrics"
)

// Policy selects how multiple values observed for the same date and metric
// collapse into one cell.
type Policy string

const (
	// PolicySum adds every observation. Safe only for pure per-day series.
	PolicySum Policy = "sum"
	// PolicyMinNonzero picks the smallest positive observation, which
	// suppresses range totals that slipped past the heuristics.
	PolicyMinNonzero Policy = "min-nonzero"
	// PolicyMin picks the smallest observation, zero included.
	PolicyMin Policy = "min"
	// PolicyMax picks the largest observation.
	PolicyMax Policy = "max"
	// PolicyMedian picks the median, averaging the middle pair.
	PolicyMedian Policy = "median"
)

// Policies lists the accepted policy names for flag help and validation.
func Policies() []string {
	return []string{
		string(PolicySum),
		string(PolicyMinNonzero),
		string(PolicyMin),
		string(PolicyMax),
		string(PolicyMedian),
	}
}

// ParsePolicy validates a policy name from a flag.
func ParsePolicy(s string) (Policy, error) {
	for _, name := range Policies() {
		if s == name {
			return Policy(s), nil
		}
	}
	return "", fmt.Errorf("unknown aggregate policy %q (expected one of: %s)", s, strings.Join(Policies(), ", "))
}

// ErrNoFiles means the input directory held nothing to harvest.
var ErrNoFiles = errors.New("no capture files found")

// ErrNoRows means files parsed but none contained dated numeric rows.
var ErrNoRows = errors.New("no dated numeric rows found")

// Options configure a harvest run.
type Options struct {
	// Dir is the directory holding captured files.
	Dir string
	// Glob filters files inside Dir; empty means everything.
	Glob string
	// Derived appends ctr, cpc, cpm, order_rate and roas columns.
	Derived bool
	// KeepRaw keeps pre-remap source columns alongside canonical ones.
	KeepRaw bool
	// TZOffsetHours shifts epoch and timestamp dates into local time.
	TZOffsetHours int
	// Policy is the per-date reducer. Empty means PolicySum.
	Policy Policy
	// IncludeRangeTotals keeps objects that look like range aggregates.
	IncludeRangeTotals bool
	// Remap adds alias-to-canonical column mappings over the built-ins.
	Remap map[string]string
}

// Result is the harvested daily table plus run counters.
type Result struct {
	Header      []string
	Rows        [][]string
	FilesFound  int
	FilesParsed int
}

// Run scans Options.Dir, accumulates every dated numeric field, and reduces
// the accumulated values into one row per date.
func Run(opts Options) (*Result, error) {
	files, err := artifact.Scan(opts.Dir, opts.Glob)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoFiles, opts.Dir)
	}

	acc := newAccumulator(opts)
	parsed := 0
	for _, path := range files {
		doc, ok := artifact.LoadJSON(path)
		if !ok {
			continue
		}
		parsed++
		acc.addDocument(doc)
	}
	if len(acc.values) == 0 {
		return nil, fmt.Errorf("%w (parsed %d files)", ErrNoRows, parsed)
	}

	res := acc.result()
	res.FilesFound = len(files)
	res.FilesParsed = parsed
	return res, nil
}

// accumulator gathers every observation as date -> column -> values, so the
// reduction policy can run once per cell at the end.
type accumulator struct {
	opts   Options
	remap  map[string]string
	values map[string]map[string][]float64
}

func newAccumulator(opts Options) *accumulator {
	if opts.Policy == "" {
		opts.Policy = PolicySum
	}
	remap := make(map[string]string, len(builtinRemap)+len(opts.Remap))
	for alias, canonical := range builtinRemap {
		remap[alias] = canonical
	}
	for alias, canonical := range opts.Remap {
		remap[strings.ToLower(alias)] = strings.ToLower(canonical)
	}
	return &accumulator{
		opts:   opts,
		remap:  remap,
		values: make(map[string]map[string][]float64),
	}
}

func (a *accumulator) addDocument(doc any) {
	walkObjects(doc, a.addObject)
}

// walkObjects visits every JSON object in the document, including the
// containers of nested ones. Keys are visited in sorted order so runs are
// deterministic.
func walkObjects(v any, visit func(map[string]any)) {
	switch node := v.(type) {
	case map[string]any:
		visit(node)
		for _, k := range sortedKeys(node) {
			walkObjects(node[k], visit)
		}
	case []any:
		for _, item := range node {
			walkObjects(item, visit)
		}
	}
}

func (a *accumulator) addObject(obj map[string]any) {
	if !a.opts.IncludeRangeTotals && looksLikeRangeTotal(obj) {
		return
	}
	date, ok := a.objectDate(obj)
	if !ok {
		return
	}

	lowered := loweredKeySet(obj)
	for _, k := range sortedKeys(obj) {
		kl := strings.ToLower(k)
		if dateKeys[kl] || skipKeys[kl] {
			continue
		}
		num, ok := metrics.CoerceNumber(obj[k])
		if !ok {
			continue
		}
		if skipsBareMoney(kl, lowered) {
			continue
		}

		base := kl
		switch {
		case strings.HasSuffix(kl, "_cents"):
			num /= 100
			base = strings.TrimSuffix(kl, "_cents")
		case strings.HasSuffix(kl, "_micros"):
			num /= 1e6
			base = strings.TrimSuffix(kl, "_micros")
		default:
			if centsLike[kl] {
				num /= 100
			}
		}

		canonical := base
		if mapped, ok := a.remap[base]; ok {
			canonical = mapped
		}
		a.add(date, canonical, num)
		if a.opts.KeepRaw && base != canonical {
			a.add(date, base, num)
		}
	}
}

// objectDate finds the first date-ish key and normalizes its value. An
// unparseable date disqualifies the whole object.
func (a *accumulator) objectDate(obj map[string]any) (string, bool) {
	for _, k := range sortedKeys(obj) {
		if dateKeys[strings.ToLower(k)] {
			return metrics.NormalizeDate(obj[k], a.opts.TZOffsetHours)
		}
	}
	return "", false
}

func (a *accumulator) add(date, column string, v float64) {
	byColumn := a.values[date]
	if byColumn == nil {
		byColumn = make(map[string][]float64)
		a.values[date] = byColumn
	}
	byColumn[column] = append(byColumn[column], v)
}

// looksLikeRangeTotal reports whether an object describes a date range
// aggregate. Objects that also carry a per-day series container are kept;
// the series inside them is what we want.
func looksLikeRangeTotal(obj map[string]any) bool {
	lowered := loweredKeySet(obj)
	hinted := false
	for k := range lowered {
		if rangeHintKeys[k] {
			hinted = true
			break
		}
	}
	if !hinted {
		return false
	}
	for _, k := range seriesContainerKeys {
		if lowered[k] {
			return false
		}
	}
	return true
}

// result reduces the accumulated values into the final table: canonical
// columns first, every other observed column alphabetically, then derived
// columns when requested.
func (a *accumulator) result() *Result {
	standard := metrics.SessionColumns[1:]
	isStandard := make(map[string]bool, len(standard))
	for _, name := range standard {
		isStandard[name] = true
	}

	var others []string
	seen := make(map[string]bool)
	for _, byColumn := range a.values {
		for name := range byColumn {
			if !seen[name] && !isStandard[name] {
				others = append(others, name)
			}
			seen[name] = true
		}
	}
	sort.Strings(others)

	header := append([]string{"date"}, standard...)
	header = append(header, others...)
	if a.opts.Derived {
		header = append(header, metrics.DerivedColumns...)
	}

	dates := make([]string, 0, len(a.values))
	for d := range a.values {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	rows := make([][]string, 0, len(dates))
	for _, date := range dates {
		byColumn := a.values[date]
		cells := make([]string, 0, len(header))
		cells = append(cells, date)

		reduced := make(map[string]float64, len(standard))
		for _, name := range standard {
			v := metrics.Round6(reduce(byColumn[name], a.opts.Policy))
			reduced[name] = v
			cells = append(cells, formatNumber(v))
		}
		for _, name := range others {
			cells = append(cells, formatNumber(metrics.Round6(reduce(byColumn[name], a.opts.Policy))))
		}
		if a.opts.Derived {
			d := metrics.Derived(reduced["views"], reduced["clicks"], reduced["spend"], reduced["orders"], reduced["revenue"])
			for _, name := range metrics.DerivedColumns {
				cells = append(cells, formatNumber(d[name]))
			}
		}
		rows = append(rows, cells)
	}

	return &Result{Header: header, Rows: rows}
}

func reduce(vals []float64, policy Policy) float64 {
	if len(vals) == 0 {
		return 0
	}
	switch policy {
	case PolicyMinNonzero:
		best, found := 0.0, false
		for _, v := range vals {
			if v > 0 && (!found || v < best) {
				best, found = v, true
			}
		}
		return best
	case PolicyMin:
		min := vals[0]
		for _, v := range vals[1:] {
			if v < min {
				min = v
			}
		}
		return min
	case PolicyMax:
		max := vals[0]
		for _, v := range vals[1:] {
			if v > max {
				max = v
			}
		}
		return max
	case PolicyMedian:
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			return (sorted[mid-1] + sorted[mid]) / 2
		}
		return sorted[mid]
	default:
		sum := 0.0
		for _, v := range vals {
			sum += v
		}
		return sum
	}
}

// skipsBareMoney drops a bare spend or revenue key when the same object
// carries a scaled sibling; the scaled field is authoritative.
func skipsBareMoney(key string, keys map[string]bool) bool {
	if key != "spend" && key != "revenue" {
		return false
	}
	if keys[key+"_cents"] || keys[key+"_micros"] {
		return true
	}
	if key == "spend" {
		for alias := range centsLike {
			if keys[alias] {
				return true
			}
		}
	}
	return false
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func loweredKeySet(obj map[string]any) map[string]bool {
	set := make(map[string]bool, len(obj))
	for k := range obj {
		set[strings.ToLower(k)] = true
	}
	return set
}
