package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/activity.report/internal/analysis"
	"github.com/banshee-data/activity.report/internal/loader"
	"github.com/banshee-data/activity.report/internal/monitoring"
	"github.com/banshee-data/activity.report/internal/quality"
	"github.com/banshee-data/activity.report/internal/report"
	"github.com/banshee-data/activity.report/internal/timeutil"
)

var clockStart = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

// writeRecording writes three hours of alternating light and moderate data.
func writeRecording(t *testing.T, dir, name string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("acceleration (mg) - 2015-08-06 10:00:00 - 2015-08-06 13:00:00 - sampleRate = 5 seconds,imputed\n")
	for i := 0; i < 3*720; i++ {
		fmt.Fprintf(&b, "%d,0\n", 10+(i%7)*8)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func newRunner(workers int) *Runner {
	clock := timeutil.NewMockClock(clockStart)
	r := NewRunner(loader.New(nil, monitoring.Discard), analysis.NewAnalyzer(nil, clock, monitoring.Discard), workers, monitoring.Discard)
	r.StoreDelay = time.Millisecond
	return r
}

type fakeStore struct {
	mu       sync.Mutex
	busyLeft int
	calls    int
	stored   []string
}

func (s *fakeStore) InsertRun(_ context.Context, r *analysis.Result) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.busyLeft > 0 {
		s.busyLeft--
		return "", errors.New("database is locked (5) (SQLITE_BUSY)")
	}
	s.stored = append(s.stored, r.Participant)
	return "run-" + r.Participant, nil
}

func TestProcessDirectory(t *testing.T) {
	dir := t.TempDir()
	writeRecording(t, dir, "P002_week.csv")
	writeRecording(t, dir, "P001_week.csv")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "P003_broken.csv"), []byte("acceleration (mg)\n1,0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	items, err := newRunner(2).ProcessDirectory(context.Background(), dir, "")
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "P001", items[0].Result.Participant)
	assert.Equal(t, "P002", items[1].Result.Participant)
	assert.Equal(t, "P003", items[2].Result.Participant)

	assert.True(t, items[0].Result.OK(), items[0].Result.Error)
	assert.True(t, items[1].Result.OK(), items[1].Result.Error)
	assert.Equal(t, analysis.StatusError, items[2].Result.Status)
	assert.Contains(t, items[2].Result.Error, "timestamp")
	assert.Equal(t, "P003_broken.csv", items[2].Result.SourceFile)
	assert.Equal(t, clockStart, items[2].Result.ProcessedAt)
}

func TestProcessDirectory_NoMatches(t *testing.T) {
	_, err := newRunner(1).ProcessDirectory(context.Background(), t.TempDir(), "*.csv")
	assert.ErrorContains(t, err, "no files")
}

func TestProcessFiles_Cancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeRecording(t, dir, "P001_week.csv")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newRunner(1).ProcessFiles(ctx, []string{path})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessFile_StoreRetriesWhenBusy(t *testing.T) {
	dir := t.TempDir()
	path := writeRecording(t, dir, "P001_week.csv")
	store := &fakeStore{busyLeft: 2}
	r := newRunner(1)
	r.Store = store

	item := r.ProcessFile(context.Background(), path)
	require.NoError(t, item.StoreError)
	assert.Equal(t, "run-P001", item.RunID)
	assert.Equal(t, 3, store.calls)
}

func TestProcessFile_StoreGivesUp(t *testing.T) {
	dir := t.TempDir()
	path := writeRecording(t, dir, "P001_week.csv")
	store := &fakeStore{busyLeft: 100}
	r := newRunner(1)
	r.Store = store
	r.StoreAttempts = 3

	item := r.ProcessFile(context.Background(), path)
	assert.Error(t, item.StoreError)
	assert.Equal(t, 3, store.calls)
	assert.True(t, item.Result.OK(), "a store failure does not fail the analysis")
}

func TestProcessFile_WritesReports(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	path := writeRecording(t, in, "P001_week.csv")
	r := newRunner(1)
	r.Writer = report.NewWriter(out, []report.Format{report.FormatJSON, report.FormatCSV}, timeutil.NewMockClock(clockStart), monitoring.Discard)

	item := r.ProcessFile(context.Background(), path)
	require.NoError(t, item.ReportErr)
	assert.Contains(t, item.Files, "json_summary")
	assert.Contains(t, item.Files, "daily_summary")
}

func TestIsBusy(t *testing.T) {
	assert.True(t, IsBusy(errors.New("SQLITE_BUSY")))
	assert.True(t, IsBusy(fmt.Errorf("insert: %w", errors.New("database is locked"))))
	assert.False(t, IsBusy(errors.New("constraint failed")))
	assert.False(t, IsBusy(nil))
}

func okResult(id string, score, wearHours, mvpa, sleepHours float64) *analysis.Result {
	r := &analysis.Result{Participant: id, Status: analysis.StatusOK}
	r.Quality = &quality.Report{Overall: quality.Overall{Score: score}}
	r.Wear.WearHours = wearHours
	r.Activity.Summary.MVPAMinutes = mvpa
	r.Sleep.Summary.TotalSleepHours = sleepHours
	return r
}

func TestSummarize(t *testing.T) {
	results := []*analysis.Result{
		okResult("P001", 80, 100, 200, 50),
		okResult("P002", 90, 120, 400, 60),
		{Participant: "P003", Status: analysis.StatusError, Error: "bad header"},
	}
	s := Summarize(results)

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Successful)
	assert.Equal(t, 1, s.Failed)
	assert.InDelta(t, 200.0/3, s.SuccessRate, 1e-9)
	assert.Equal(t, Stat{N: 2, Mean: 85, Std: 5, Min: 80, Max: 90}, s.QualityScore)
	assert.Equal(t, Stat{N: 2, Mean: 110, Std: 10, Min: 100, Max: 120}, s.WearHours)
	assert.Equal(t, Stat{N: 2, Mean: 300, Std: 100, Min: 200, Max: 400}, s.MVPAMinutes)
	assert.Equal(t, Stat{N: 2, Mean: 55, Std: 5, Min: 50, Max: 60}, s.SleepHours)
	assert.Equal(t, []Failure{{Participant: "P003", Error: "bad header"}}, s.Failures)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, Stat{}, s.QualityScore)
	assert.NotNil(t, s.Failures)
}

func TestPrintSummary(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })

	var buf bytes.Buffer
	PrintSummary(&buf, Summarize([]*analysis.Result{
		okResult("P001", 80, 100, 200, 50),
		{Participant: "P003", Status: analysis.StatusError, Error: "bad header"},
	}))
	out := buf.String()

	assert.Contains(t, out, "Files processed: 2")
	assert.Contains(t, out, "Successful: 1")
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "Success rate: 50.0%")
	assert.Contains(t, out, "Quality score")
	assert.Contains(t, out, "P003: bad header")
}

func TestRowsAndResults(t *testing.T) {
	items := []Item{{Result: okResult("P001", 80, 100, 200, 50)}, {Result: &analysis.Result{Participant: "P002", Status: analysis.StatusError}}}
	assert.Equal(t, "P001", Results(items)[0].Participant)
	rows := Rows(items)
	require.Len(t, rows, 2)
	assert.Equal(t, 80.0, rows[0].QualityScore)
	assert.Equal(t, analysis.StatusError, rows[1].Status)
}
