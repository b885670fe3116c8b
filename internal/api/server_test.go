package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/activity.report/internal/analysis"
	"github.com/banshee-data/activity.report/internal/db"
	"github.com/banshee-data/activity.report/internal/monitoring"
	"github.com/banshee-data/activity.report/internal/timeutil"
)

var _ Store = (*db.DB)(nil)

type fakeStore struct {
	results     map[string]*analysis.Result
	getResults  int
	listLimit   int
	deleted     []string
	failListing bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{results: map[string]*analysis.Result{
		"run-1": {Participant: "P001", Status: analysis.StatusOK, KeyFindings: []string{}},
		"run-2": {Participant: "P002", Status: analysis.StatusError, Error: "no samples"},
	}}
}

func (f *fakeStore) ListRuns(_ context.Context, limit int) ([]db.RunSummary, error) {
	f.listLimit = limit
	if f.failListing {
		return nil, errors.New("disk I/O error")
	}
	return []db.RunSummary{{RunID: "run-1", Participant: "P001", Status: analysis.StatusOK}}, nil
}

func (f *fakeStore) GetRun(_ context.Context, runID string) (json.RawMessage, error) {
	r, ok := f.results[runID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return json.Marshal(r)
}

func (f *fakeStore) GetResult(_ context.Context, runID string) (*analysis.Result, error) {
	f.getResults++
	r, ok := f.results[runID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) ListSleepPeriods(_ context.Context, runID string) ([]db.SleepPeriodRow, error) {
	if _, ok := f.results[runID]; !ok {
		return nil, db.ErrNotFound
	}
	return []db.SleepPeriodRow{{RunID: runID, PeriodID: 0, Type: "main_sleep", DurationMinutes: 420}}, nil
}

func (f *fakeStore) ListBouts(_ context.Context, runID string) ([]db.BoutRow, error) {
	if _, ok := f.results[runID]; !ok {
		return nil, db.ErrNotFound
	}
	return []db.BoutRow{
		{RunID: runID, Kind: "sedentary", DurationMinutes: 40},
		{RunID: runID, Kind: "moderate", DurationMinutes: 12},
	}, nil
}

func (f *fakeStore) DeleteRun(_ context.Context, runID string) error {
	if _, ok := f.results[runID]; !ok {
		return db.ErrNotFound
	}
	delete(f.results, runID)
	f.deleted = append(f.deleted, runID)
	return nil
}

func serve(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestListRuns(t *testing.T) {
	store := newFakeStore()
	s := NewServer(store, monitoring.Discard)

	rec := serve(t, s, http.MethodGet, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultListLimit, store.listLimit)

	var runs []db.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "P001", runs[0].Participant)

	serve(t, s, http.MethodGet, "/api/runs?limit=10000")
	assert.Equal(t, maxListLimit, store.listLimit)

	rec = serve(t, s, http.MethodGet, "/api/runs?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRuns_StoreError(t *testing.T) {
	store := newFakeStore()
	store.failListing = true
	rec := serve(t, NewServer(store, monitoring.Discard), http.MethodGet, "/api/runs")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk I/O")
}

func TestGetRun(t *testing.T) {
	s := NewServer(newFakeStore(), monitoring.Discard)

	rec := serve(t, s, http.MethodGet, "/api/runs/run-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"participant_id":"P001"`)

	rec = serve(t, s, http.MethodGet, "/api/runs/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "run not found: nope")

	rec = serve(t, s, http.MethodPost, "/api/runs/run-1")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSleepAndBouts(t *testing.T) {
	s := NewServer(newFakeStore(), monitoring.Discard)

	rec := serve(t, s, http.MethodGet, "/api/runs/run-1/sleep")
	require.Equal(t, http.StatusOK, rec.Code)
	var periods []db.SleepPeriodRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &periods))
	require.Len(t, periods, 1)
	assert.Equal(t, "main_sleep", periods[0].Type)

	rec = serve(t, s, http.MethodGet, "/api/runs/run-1/bouts?kind=moderate")
	require.Equal(t, http.StatusOK, rec.Code)
	var bouts []db.BoutRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bouts))
	require.Len(t, bouts, 1)
	assert.Equal(t, 12.0, bouts[0].DurationMinutes)

	assert.Equal(t, http.StatusNotFound, serve(t, s, http.MethodGet, "/api/runs/nope/sleep").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, s, http.MethodGet, "/api/runs/nope/bouts").Code)
}

func TestCharts_Cached(t *testing.T) {
	store := newFakeStore()
	s := NewServer(store, monitoring.Discard)

	first := serve(t, s, http.MethodGet, "/api/runs/run-1/charts")
	require.Equal(t, http.StatusOK, first.Code)
	assert.True(t, strings.HasPrefix(first.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, first.Body.String(), "Mean acceleration by hour")

	second := serve(t, s, http.MethodGet, "/api/runs/run-1/charts")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, store.getResults, "second request is served from the cache")
}

func TestCharts_FailedRunAndMissing(t *testing.T) {
	s := NewServer(newFakeStore(), monitoring.Discard)
	assert.Equal(t, http.StatusConflict, serve(t, s, http.MethodGet, "/api/runs/run-2/charts").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, s, http.MethodGet, "/api/runs/nope/charts").Code)
}

func TestDeleteRun_InvalidatesCharts(t *testing.T) {
	store := newFakeStore()
	s := NewServer(store, monitoring.Discard)

	require.Equal(t, http.StatusOK, serve(t, s, http.MethodGet, "/api/runs/run-1/charts").Code)
	rec := serve(t, s, http.MethodDelete, "/api/runs/run-1")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"run-1"}, store.deleted)

	assert.Equal(t, http.StatusNotFound, serve(t, s, http.MethodGet, "/api/runs/run-1/charts").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, s, http.MethodDelete, "/api/runs/run-1").Code)
}

func TestLoggingMiddleware(t *testing.T) {
	var lines []string
	s := NewServer(newFakeStore(), func(format string, v ...interface{}) {
		lines = append(lines, format)
	})
	clock := timeutil.NewMockClock(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	clock.AutoAdvance(2 * time.Millisecond)
	s.Clock = clock

	rec := httptest.NewRecorder()
	s.LoggingMiddleware(s.ServeMux()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "%vms")
}

func TestStatusCodeColor(t *testing.T) {
	assert.Equal(t, colorBoldGreen+"200"+colorReset, statusCodeColor(200))
	assert.Equal(t, colorYellow+"302"+colorReset, statusCodeColor(302))
	assert.Equal(t, colorBoldRed+"404"+colorReset, statusCodeColor(404))
	assert.Equal(t, "100", statusCodeColor(100))
}

func TestServer_WithDB(t *testing.T) {
	store, err := db.NewDB(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	defer store.Close()
	store.Logf = monitoring.Discard

	runID, err := store.InsertRun(context.Background(), &analysis.Result{Participant: "P009", Status: analysis.StatusOK, KeyFindings: []string{}})
	require.NoError(t, err)

	s := NewServer(store, monitoring.Discard)
	rec := serve(t, s, http.MethodGet, "/api/runs/"+runID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"participant_id":"P009"`)

	rec = serve(t, s, http.MethodGet, "/api/runs/"+runID+"/bouts")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
