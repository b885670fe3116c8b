// Package report writes per-participant and batch outputs: a JSON summary, a
// text summary, CSV tables, an XLSX workbook, an HTML chart page and a PNG
// time-series plot.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/activity.report/internal/accel"
	"github.com/banshee-data/activity.report/internal/analysis"
	"github.com/banshee-data/activity.report/internal/monitoring"
	"github.com/banshee-data/activity.report/internal/security"
	"github.com/banshee-data/activity.report/internal/timeutil"
)

// Format is an output kind.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "txt"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
	FormatPNG  Format = "png"
)

// AllFormats lists every output kind.
var AllFormats = []Format{FormatJSON, FormatCSV, FormatText, FormatXLSX, FormatHTML, FormatPNG}

// ParseFormats reads a comma separated list such as "json,csv,txt". An empty
// string selects every format.
func ParseFormats(s string) ([]Format, error) {
	if strings.TrimSpace(s) == "" {
		return AllFormats, nil
	}
	var out []Format
	seen := map[Format]bool{}
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		valid := false
		for _, known := range AllFormats {
			if f == known {
				valid = true
				break
			}
		}
		if !valid {
			return nil, fmt.Errorf("unknown report format %q", part)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Output subdirectories.
const (
	ReportsDir = "reports"
	DataDir    = "data"

	BatchSummaryFile = "batch_summary.csv"
)

// Files maps an output name, such as "json_summary", to the written path.
type Files map[string]string

// Writer writes reports under OutDir.
type Writer struct {
	OutDir  string
	Formats []Format
	Clock   timeutil.Clock
	Logf    monitoring.LogFunc
}

// NewWriter returns a writer. Nil formats select every format and a nil clock
// uses the wall clock.
func NewWriter(outDir string, formats []Format, clock timeutil.Clock, logf monitoring.LogFunc) *Writer {
	if formats == nil {
		formats = AllFormats
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Writer{OutDir: outDir, Formats: formats, Clock: clock, Logf: monitoring.OrDefault(logf)}
}

func (w *Writer) enabled(f Format) bool {
	for _, x := range w.Formats {
		if x == f {
			return true
		}
	}
	return false
}

// create opens <OutDir>/<sub>/<participant><suffix> for writing and runs fn.
func (w *Writer) create(sub, participant, suffix string, fn func(io.Writer) error) (string, error) {
	dir := filepath.Join(w.OutDir, sub)
	path, err := security.OutputPath(dir, participant, suffix)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

type output struct {
	name   string
	format Format
	sub    string
	suffix string
	write  func(io.Writer) error
	skip   bool
}

// Write produces every enabled output for one result. A failed result only
// gets the JSON and text summaries.
func (w *Writer) Write(r *analysis.Result, series accel.Series) (Files, error) {
	logf := monitoring.OrDefault(w.Logf)
	now := w.Clock.Now()
	outs := []output{
		{"json_summary", FormatJSON, ReportsDir, "_summary.json", func(o io.Writer) error { return WriteJSON(o, r, now) }, false},
		{"text_summary", FormatText, ReportsDir, "_summary.txt", func(o io.Writer) error { return WriteText(o, r, now) }, false},
	}
	if r.OK() {
		tables := participantTables(r)
		outs = append(outs,
			output{"daily_summary", FormatCSV, DataDir, "_daily_summary.csv", func(o io.Writer) error { return writeTableCSV(o, tables[0]) }, tables[0].empty()},
			output{"sleep_periods", FormatCSV, DataDir, "_sleep_periods.csv", func(o io.Writer) error { return writeTableCSV(o, tables[1]) }, tables[1].empty()},
			output{"activity_bouts", FormatCSV, DataDir, "_activity_bouts.csv", func(o io.Writer) error { return writeTableCSV(o, tables[2]) }, tables[2].empty()},
			output{"hourly_patterns", FormatCSV, DataDir, "_hourly_patterns.csv", func(o io.Writer) error { return writeTableCSV(o, tables[3]) }, tables[3].empty()},
			output{"workbook", FormatXLSX, DataDir, "_workbook.xlsx", func(o io.Writer) error { return WriteWorkbook(o, r) }, false},
			output{"charts", FormatHTML, ReportsDir, "_charts.html", func(o io.Writer) error { return RenderCharts(o, r) }, false},
			output{"timeseries_plot", FormatPNG, ReportsDir, "_timeseries.png", func(o io.Writer) error { return WriteTimeSeriesPNG(o, r, series) }, false},
		)
	}

	files := Files{}
	for _, o := range outs {
		if o.skip || !w.enabled(o.format) {
			continue
		}
		path, err := w.create(o.sub, r.Participant, o.suffix, o.write)
		if err != nil {
			return files, err
		}
		files[o.name] = path
	}
	logf("report: %s: wrote %d files", r.Participant, len(files))
	return files, nil
}

// WriteBatchSummary writes <OutDir>/batch_summary.csv.
func (w *Writer) WriteBatchSummary(rows []BatchRow) (string, error) {
	if err := os.MkdirAll(w.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", w.OutDir, err)
	}
	path := filepath.Join(w.OutDir, BatchSummaryFile)
	if err := security.ValidatePathWithinDirectory(path, w.OutDir); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteBatchSummaryCSV(f, rows); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}
