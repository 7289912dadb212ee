package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bcaptain404/EtsyScraper/internal/artifact"
	"github.com/bcaptain404/EtsyScraper/internal/config"
	"github.com/bcaptain404/EtsyScraper/internal/harvest"
	"github.com/spf13/cobra"
)

const defaultHarvestCSV = "etsy_ads_daily_allfields.csv"

type harvestOptions struct {
	configPath         string
	dir                string
	csvPath            string
	glob               string
	policy             string
	remapPath          string
	tzOffsetHours      int
	derived            bool
	keepRaw            bool
	includeRangeTotals bool
	verbose            bool
}

func newHarvestCommand() *cobra.Command {
	opts := &harvestOptions{}
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Union numeric fields from captured JSON into a daily CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "path to an etsyscraper.toml")
	flags.StringVar(&opts.dir, "in", "", "directory with captured files (default: the configured out dir)")
	flags.StringVar(&opts.csvPath, "csv", "", "output CSV path (default: <in>/"+defaultHarvestCSV+")")
	flags.StringVar(&opts.glob, "glob", "**/*", "glob inside --in")
	flags.StringVar(&opts.policy, "aggregate-policy", "", "per-date reducer: "+strings.Join(harvest.Policies(), ", "))
	flags.StringVar(&opts.remapPath, "remap", "", "JSONC file of extra raw-key → canonical-column mappings")
	flags.IntVar(&opts.tzOffsetHours, "tz-offset-hours", 0, "shift timestamped dates by this many hours (e.g. -4 for EDT)")
	flags.BoolVar(&opts.derived, "derived", false, "add CTR, CPC, CPM, order_rate, ROAS if possible")
	flags.BoolVar(&opts.keepRaw, "keep-raw", false, "also include raw source columns alongside remapped ones")
	flags.BoolVar(&opts.includeRangeTotals, "include-range-totals", false, "keep rows that look like range totals (default: skip)")
	flags.BoolVar(&opts.verbose, "verbose", false, "print a brief report of included columns")
	return cmd
}

func runHarvest(cmd *cobra.Command, opts *harvestOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	mergeHarvestConfig(&cfg, opts, cmd.Flags().Changed)

	hopts, err := harvestRunOptions(cfg, opts)
	if err != nil {
		return err
	}

	csvPath := opts.csvPath
	if csvPath == "" {
		csvPath = filepath.Join(hopts.Dir, defaultHarvestCSV)
	} else {
		csvPath = config.ExpandHome(csvPath)
	}

	res, err := harvest.Run(hopts)
	if err != nil {
		if errors.Is(err, harvest.ErrNoRows) {
			logf(cmd.ErrOrStderr(), "[!]", "Toggle date range and recapture.")
		}
		return err
	}
	if err := artifact.WriteCSV(csvPath, res.Header, res.Rows); err != nil {
		return fmt.Errorf("write %s: %w", csvPath, err)
	}

	out := cmd.OutOrStdout()
	logf(out, "[✓]", "Wrote %s with policy=%s. Parsed JSONs: %d", csvPath, hopts.Policy, res.FilesParsed)
	if opts.verbose {
		cols := res.Header[1:]
		if len(cols) > 15 {
			cols = cols[:15]
		}
		logf(out, "[i]", "Columns included: %s", strings.Join(cols, ", "))
	}
	return nil
}

func mergeHarvestConfig(cfg *config.Config, opts *harvestOptions, changed func(string) bool) {
	if changed("aggregate-policy") {
		cfg.Harvest.AggregatePolicy = opts.policy
	}
	if changed("tz-offset-hours") {
		cfg.Harvest.TZOffsetHours = opts.tzOffsetHours
	}
	if changed("derived") {
		cfg.Harvest.Derived = opts.derived
	}
	if changed("keep-raw") {
		cfg.Harvest.KeepRaw = opts.keepRaw
	}
	if changed("include-range-totals") {
		cfg.Harvest.IncludeRangeTotals = opts.includeRangeTotals
	}
}

// harvestRunOptions resolves the input directory, reducer policy, and
// optional remap overrides into ready-to-run harvest options.
func harvestRunOptions(cfg config.Config, opts *harvestOptions) (harvest.Options, error) {
	dir := opts.dir
	if dir == "" {
		dir = cfg.OutDir
	}
	dir = config.ExpandHome(dir)

	policy, err := harvest.ParsePolicy(cfg.Harvest.AggregatePolicy)
	if err != nil {
		return harvest.Options{}, err
	}

	var remap map[string]string
	if opts.remapPath != "" {
		remap, err = harvest.LoadRemap(config.ExpandHome(opts.remapPath))
		if err != nil {
			return harvest.Options{}, fmt.Errorf("load remap: %w", err)
		}
	}

	return harvest.Options{
		Dir:                dir,
		Glob:               opts.glob,
		Derived:            cfg.Harvest.Derived,
		KeepRaw:            cfg.Harvest.KeepRaw,
		TZOffsetHours:      cfg.Harvest.TZOffsetHours,
		Policy:             policy,
		IncludeRangeTotals: cfg.Harvest.IncludeRangeTotals,
		Remap:              remap,
	}, nil
}
