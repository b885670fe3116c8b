package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/activity.report/internal/db"
	"github.com/banshee-data/activity.report/internal/monitoring"
	"github.com/banshee-data/activity.report/internal/report"
	"github.com/banshee-data/activity.report/internal/timeutil"
)

func writeRecording(t *testing.T, dir, name string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("acceleration (mg) - 2015-08-06 10:00:00 - 2015-08-06 12:00:00 - sampleRate = 5 seconds,imputed\n")
	for i := 0; i < 2*720; i++ {
		fmt.Fprintf(&b, "%d,0\n", 10+(i%7)*8)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(b.String()), 0o644))
}

func TestRunAnalyze_Directory(t *testing.T) {
	color.NoColor = true
	in, out := t.TempDir(), t.TempDir()
	writeRecording(t, in, "P001_wrist.csv")
	writeRecording(t, in, "P002_wrist.csv")
	require.NoError(t, os.WriteFile(filepath.Join(in, "P003_wrist.csv"), []byte("not a header\n"), 0o644))
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	var stdout bytes.Buffer
	summary, err := runAnalyze(context.Background(), analyzeOptions{
		In:      in,
		Out:     out,
		DBPath:  dbPath,
		Workers: 2,
		Formats: "json,txt",
		Clock:   timeutil.NewMockClock(time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)),
		Logf:    monitoring.Discard,
	}, &stdout)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, stdout.String(), "Batch summary")
	assert.Contains(t, stdout.String(), report.BatchSummaryFile)

	assert.FileExists(t, filepath.Join(out, report.BatchSummaryFile))
	assert.FileExists(t, filepath.Join(out, report.ReportsDir, "P001_summary.json"))
	assert.FileExists(t, filepath.Join(out, report.ReportsDir, "P003_summary.txt"))
	assert.NoFileExists(t, filepath.Join(out, report.DataDir, "P001_workbook.xlsx"))

	store, err := db.NewDB(dbPath)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestRunAnalyze_SingleFile(t *testing.T) {
	color.NoColor = true
	in, out := t.TempDir(), t.TempDir()
	writeRecording(t, in, "P001_wrist.csv")

	var stdout bytes.Buffer
	summary, err := runAnalyze(context.Background(), analyzeOptions{
		In:      filepath.Join(in, "P001_wrist.csv"),
		Out:     out,
		Formats: "json",
		Logf:    monitoring.Discard,
	}, &stdout)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Successful)
}

func TestRunAnalyze_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		opts analyzeOptions
		want string
	}{
		{"missing input", analyzeOptions{In: filepath.Join(dir, "nope")}, "failed to read input"},
		{"bad zone", analyzeOptions{In: dir, TZ: "Mars/Olympus"}, "invalid time zone"},
		{"bad format", analyzeOptions{In: dir, Formats: "pdf"}, "pdf"},
		{"bad config", analyzeOptions{In: dir, ConfigPath: filepath.Join(dir, "tuning.yaml")}, ".json"},
		{"empty directory", analyzeOptions{In: dir, Out: t.TempDir()}, "no files matching"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Logf = monitoring.Discard
			_, err := runAnalyze(context.Background(), tt.opts, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSetupLogging(t *testing.T) {
	defer monitoring.SetLogger(monitoring.Logf)

	logf, flush, err := setupLogging("std", "info")
	require.NoError(t, err)
	assert.NotNil(t, logf)
	flush()

	_, _, err = setupLogging("xml", "info")
	assert.Error(t, err)
}

func TestRunMigrate(t *testing.T) {
	store, err := db.Open(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer store.Close()
	store.Logf = monitoring.Discard

	var out bytes.Buffer
	require.NoError(t, runMigrate(store, []string{"status"}, &out))
	assert.Contains(t, out.String(), "current 0, latest 1")

	out.Reset()
	require.NoError(t, runMigrate(store, []string{"up"}, &out))
	require.NoError(t, runMigrate(store, []string{"version"}, &out))
	assert.Contains(t, out.String(), "version 1 (dirty: false)")

	require.NoError(t, runMigrate(store, []string{"down"}, &out))
	require.NoError(t, runMigrate(store, []string{"to", "1"}, &out))
	require.NoError(t, runMigrate(store, []string{"force", "1"}, &out))

	assert.Error(t, runMigrate(store, []string{"force"}, &out))
	assert.Error(t, runMigrate(store, []string{"force", "x"}, &out))
	assert.Error(t, runMigrate(store, []string{"sideways"}, &out))
}
