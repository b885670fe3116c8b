// Package batch runs the analysis over many recordings in parallel. Each file
// is isolated: a load or analysis failure becomes an error result and the
// remaining files continue.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/activity.report/internal/accel"
	"github.com/banshee-data/activity.report/internal/analysis"
	"github.com/banshee-data/activity.report/internal/loader"
	"github.com/banshee-data/activity.report/internal/monitoring"
	"github.com/banshee-data/activity.report/internal/report"
)

// DefaultPattern matches the accelerometer exports in a directory.
const DefaultPattern = "*.csv"

// Store persists results. *db.DB implements it.
type Store interface {
	InsertRun(ctx context.Context, r *analysis.Result) (string, error)
}

// Item is the outcome for one input file.
type Item struct {
	Path       string
	Result     *analysis.Result
	RunID      string
	Files      report.Files
	StoreError error
	ReportErr  error
}

// Runner processes files. Writer and Store are optional.
type Runner struct {
	Loader   *loader.Loader
	Analyzer *analysis.Analyzer
	Writer   *report.Writer
	Store    Store
	Workers  int
	Logf     monitoring.LogFunc

	// StoreAttempts bounds retries of a busy store write.
	StoreAttempts uint
	StoreDelay    time.Duration
}

// NewRunner returns a runner with one worker per file up to workers.
func NewRunner(l *loader.Loader, a *analysis.Analyzer, workers int, logf monitoring.LogFunc) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		Loader:        l,
		Analyzer:      a,
		Workers:       workers,
		Logf:          monitoring.OrDefault(logf),
		StoreAttempts: 5,
		StoreDelay:    50 * time.Millisecond,
	}
}

// ProcessDirectory processes every file in dir matching pattern, ordered by
// filename.
func (r *Runner) ProcessDirectory(ctx context.Context, dir, pattern string) ([]Item, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files matching %s in %s", pattern, dir)
	}
	return r.ProcessFiles(ctx, paths)
}

// ProcessFiles processes paths with at most Workers in flight. Items are
// returned sorted by filename. The only error is context cancellation.
func (r *Runner) ProcessFiles(ctx context.Context, paths []string) ([]Item, error) {
	sorted := append([]string(nil), paths...)
	sort.Slice(sorted, func(i, j int) bool {
		return filepath.Base(sorted[i]) < filepath.Base(sorted[j])
	})

	items := make([]Item, len(sorted))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers)
	for i, p := range sorted {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items[i] = r.ProcessFile(gctx, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// ProcessFile loads, analyses, reports and stores one file. It never fails;
// problems are recorded on the item.
func (r *Runner) ProcessFile(ctx context.Context, path string) (item Item) {
	logf := monitoring.OrDefault(r.Logf)
	item.Path = path
	var series accel.Series

	defer func() {
		if p := recover(); p != nil {
			item.Result = r.failure(path, fmt.Errorf("panic: %v", p))
		}
		logf("batch: %s: %s", filepath.Base(path), item.Result.Status)
	}()

	file, err := r.Loader.LoadFile(path)
	if err != nil {
		item.Result = r.failure(path, err)
	} else {
		rec := file.Recording()
		series = rec.Series
		item.Result = r.Analyzer.RunRecording(rec)
	}

	if r.Writer != nil {
		item.Files, item.ReportErr = r.Writer.Write(item.Result, series)
		if item.ReportErr != nil {
			logf("batch: %s: report: %v", filepath.Base(path), item.ReportErr)
		}
	}
	if r.Store != nil {
		item.RunID, item.StoreError = r.store(ctx, item.Result)
		if item.StoreError != nil {
			logf("batch: %s: store: %v", filepath.Base(path), item.StoreError)
		}
	}
	return item
}

func (r *Runner) failure(path string, err error) *analysis.Result {
	return &analysis.Result{
		Participant: loader.ParticipantID(path),
		SourceFile:  filepath.Base(path),
		Status:      analysis.StatusError,
		Error:       err.Error(),
		ProcessedAt: r.Analyzer.Clock.Now(),
	}
}

// IsBusy reports whether err is SQLite lock contention between workers.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func (r *Runner) store(ctx context.Context, res *analysis.Result) (string, error) {
	logf := monitoring.OrDefault(r.Logf)
	attempts := r.StoreAttempts
	if attempts == 0 {
		attempts = 1
	}
	var id string
	err := retry.Do(
		func() error {
			var err error
			id, err = r.Store.InsertRun(ctx, res)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(r.StoreDelay),
		retry.MaxDelay(2*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(IsBusy),
		retry.OnRetry(func(n uint, err error) {
			logf("batch: store retry %d for %s: %v", n+1, res.Participant, err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to store %s: %w", res.Participant, err)
	}
	return id, nil
}
