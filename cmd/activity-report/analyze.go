package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/activity.report/internal/analysis"
	"github.com/banshee-data/activity.report/internal/batch"
	"github.com/banshee-data/activity.report/internal/config"
	"github.com/banshee-data/activity.report/internal/db"
	"github.com/banshee-data/activity.report/internal/loader"
	"github.com/banshee-data/activity.report/internal/monitoring"
	"github.com/banshee-data/activity.report/internal/report"
	"github.com/banshee-data/activity.report/internal/timeutil"
	"github.com/banshee-data/activity.report/internal/units"
)

type analyzeOptions struct {
	In         string
	Out        string
	DBPath     string
	ConfigPath string
	Workers    int
	Formats    string
	Pattern    string
	TZ         string

	Clock timeutil.Clock
	Logf  monitoring.LogFunc
}

// runAnalyze processes opts.In, writes the per-participant reports and the
// batch summary, and prints the overview to out.
func runAnalyze(ctx context.Context, opts analyzeOptions, out io.Writer) (batch.Summary, error) {
	logf := monitoring.OrDefault(opts.Logf)

	cfg := config.DefaultConfig()
	if opts.ConfigPath != "" {
		loaded, err := config.LoadAnalysisConfig(opts.ConfigPath)
		if err != nil {
			return batch.Summary{}, err
		}
		cfg = loaded
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.GetWorkers()
	}

	loc, err := units.LoadLocation(opts.TZ)
	if err != nil {
		return batch.Summary{}, fmt.Errorf("invalid time zone: %w", err)
	}
	formats, err := report.ParseFormats(opts.Formats)
	if err != nil {
		return batch.Summary{}, err
	}

	writer := report.NewWriter(opts.Out, formats, opts.Clock, logf)
	runner := batch.NewRunner(loader.New(loc, logf), analysis.NewAnalyzer(cfg, opts.Clock, logf), workers, logf)
	runner.Writer = writer
	if opts.DBPath != "" {
		store, err := db.NewDB(opts.DBPath)
		if err != nil {
			return batch.Summary{}, fmt.Errorf("failed to connect to database: %w", err)
		}
		defer store.Close()
		store.Logf = logf
		if opts.Clock != nil {
			store.Clock = opts.Clock
		}
		runner.Store = store
	}

	info, err := os.Stat(opts.In)
	if err != nil {
		return batch.Summary{}, fmt.Errorf("failed to read input: %w", err)
	}
	var items []batch.Item
	if info.IsDir() {
		items, err = runner.ProcessDirectory(ctx, opts.In, opts.Pattern)
	} else {
		items, err = runner.ProcessFiles(ctx, []string{opts.In})
	}
	if err != nil {
		return batch.Summary{}, err
	}

	summary := batch.Summarize(batch.Results(items))
	batch.PrintSummary(out, summary)
	path, err := writer.WriteBatchSummary(batch.Rows(items))
	if err != nil {
		return summary, err
	}
	fmt.Fprintf(out, "Batch summary written to %s\n", path)
	return summary, nil
}
