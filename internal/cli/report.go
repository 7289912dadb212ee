package cli

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bcaptain404/EtsyScraper/internal/artifact"
	"github.com/bcaptain404/EtsyScraper/internal/harvest"
	"github.com/bcaptain404/EtsyScraper/internal/metrics"
	"github.com/bcaptain404/EtsyScraper/internal/timeutil"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type reportOptions struct {
	configPath string
	dir        string
	glob       string
	format     string
	policy     string
	derived    bool
}

func newReportCommand() *cobra.Command {
	opts := &reportOptions{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the harvested daily metrics to the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "path to an etsyscraper.toml")
	flags.StringVar(&opts.dir, "in", "", "directory with captured files (default: the configured out dir)")
	flags.StringVar(&opts.glob, "glob", "**/*", "glob inside --in")
	flags.StringVar(&opts.format, "format", "table", "output format: table, json, csv")
	flags.StringVar(&opts.policy, "aggregate-policy", "", "per-date reducer: "+strings.Join(harvest.Policies(), ", "))
	flags.BoolVar(&opts.derived, "derived", false, "add CTR, CPC, CPM, order_rate, ROAS columns")
	return cmd
}

func runReport(cmd *cobra.Command, opts *reportOptions) error {
	switch opts.format {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("unknown --format %q (table, json, csv)", opts.format)
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	changed := cmd.Flags().Changed
	if changed("aggregate-policy") {
		cfg.Harvest.AggregatePolicy = opts.policy
	}
	if changed("derived") {
		cfg.Harvest.Derived = opts.derived
	}

	hopts, err := harvestRunOptions(cfg, &harvestOptions{dir: opts.dir, glob: opts.glob})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	width := terminalWidth(out)

	res, err := harvest.Run(hopts)
	if err != nil {
		// Table mode reports an empty or metric-free directory as a
		// notice; json and csv propagate the error.
		if opts.format == "table" && (errors.Is(err, harvest.ErrNoFiles) || errors.Is(err, harvest.ErrNoRows)) {
			printArtifactSummary(cmd, hopts.Dir, width)
			logf(out, "[!]", "%s", singleLineError(err))
			return nil
		}
		return err
	}

	switch opts.format {
	case "json":
		return renderJSON(out, res)
	case "csv":
		return renderCSV(out, res)
	}

	renderTable(out, res, width)
	printArtifactSummary(cmd, hopts.Dir, width)
	return nil
}

func terminalWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

func renderTable(out io.Writer, res *harvest.Result, width int) {
	t := table.NewWriter()
	t.AppendHeader(toTableRow(res.Header))
	for _, row := range res.Rows {
		t.AppendRow(toTableRow(row))
	}
	t.AppendFooter(totalsFooter(res))
	t.SetStyle(table.StyleColoredDark)
	if width > 0 {
		t.SetAllowedRowLength(width)
	}
	fmt.Fprintf(out, "%s\n", t.Render())
}

func toTableRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

// totalsFooter sums every column except the date and the derived ratios,
// which have no meaningful total.
func totalsFooter(res *harvest.Result) table.Row {
	derived := make(map[string]bool, len(metrics.DerivedColumns))
	for _, c := range metrics.DerivedColumns {
		derived[c] = true
	}

	footer := make(table.Row, len(res.Header))
	footer[0] = "total"
	for i := 1; i < len(res.Header); i++ {
		if derived[res.Header[i]] {
			footer[i] = ""
			continue
		}
		sum := 0.0
		for _, row := range res.Rows {
			if i >= len(row) || row[i] == "" {
				continue
			}
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				continue
			}
			sum += v
		}
		footer[i] = strconv.FormatFloat(sum, 'f', -1, 64)
	}
	return footer
}

func renderJSON(out io.Writer, res *harvest.Result) error {
	days := make([]map[string]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		day := make(map[string]string, len(res.Header))
		for i, col := range res.Header {
			if i < len(row) {
				day[col] = row[i]
			}
		}
		days = append(days, day)
	}
	data, err := json.MarshalIndent(days, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", data)
	return err
}

func renderCSV(out io.Writer, res *harvest.Result) error {
	w := csv.NewWriter(out)
	if err := w.Write(res.Header); err != nil {
		return err
	}
	for _, row := range res.Rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func printArtifactSummary(cmd *cobra.Command, dir string, width int) {
	sum, err := artifact.Summarize(dir)
	if err != nil {
		logf(cmd.ErrOrStderr(), "[warn]", "summarize %s: %s", dir, singleLineError(err))
		return
	}
	name := dir
	if width > 40 {
		name = runewidth.Truncate(name, width-40, "…")
	}
	line := fmt.Sprintf("%d capture file(s) under %s", sum.Files, name)
	if !sum.Newest.IsZero() {
		line += fmt.Sprintf(", newest %s", timeutil.Relative(sum.Newest, time.Time{}))
	}
	logf(cmd.OutOrStdout(), "[i]", "%s", line)
}
