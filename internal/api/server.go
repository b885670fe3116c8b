// Package api serves stored analysis runs over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/banshee-data/activity.report/internal/analysis"
	"github.com/banshee-data/activity.report/internal/db"
	"github.com/banshee-data/activity.report/internal/httputil"
	"github.com/banshee-data/activity.report/internal/monitoring"
	"github.com/banshee-data/activity.report/internal/report"
	"github.com/banshee-data/activity.report/internal/timeutil"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500

	chartCacheSize = 1_000
	chartCacheTTL  = time.Hour
)

// ANSI escape codes for the request log
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// Store is the part of the run database the API reads.
type Store interface {
	ListRuns(ctx context.Context, limit int) ([]db.RunSummary, error)
	GetRun(ctx context.Context, runID string) (json.RawMessage, error)
	GetResult(ctx context.Context, runID string) (*analysis.Result, error)
	ListSleepPeriods(ctx context.Context, runID string) ([]db.SleepPeriodRow, error)
	ListBouts(ctx context.Context, runID string) ([]db.BoutRow, error)
	DeleteRun(ctx context.Context, runID string) error
}

type Server struct {
	store  Store
	charts *otter.Cache[string, []byte]
	Clock  timeutil.Clock
	Logf   monitoring.LogFunc
}

func NewServer(store Store, logf monitoring.LogFunc) *Server {
	return &Server{
		store: store,
		charts: otter.Must(&otter.Options[string, []byte]{
			MaximumSize:      chartCacheSize,
			ExpiryCalculator: otter.ExpiryWriting[string, []byte](chartCacheTTL),
		}),
		Clock: timeutil.RealClock{},
		Logf:  monitoring.OrDefault(logf),
	}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("/api/runs/{id}", s.run)
	mux.HandleFunc("GET /api/runs/{id}/sleep", s.listSleepPeriods)
	mux.HandleFunc("GET /api/runs/{id}/bouts", s.listBouts)
	mux.HandleFunc("GET /api/runs/{id}/charts", s.showCharts)
	return mux
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func (s *Server) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.Clock.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		s.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(s.Clock.Since(start).Nanoseconds())/1e6,
		)
	})
}

// storeError maps a store error onto a response.
func (s *Server) storeError(w http.ResponseWriter, runID string, err error) {
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, "run not found: "+runID)
		return
	}
	s.Logf("api: run %s: %v", runID, err)
	httputil.InternalServerError(w, "failed to read run")
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryLimit(r, "limit", defaultListLimit, maxListLimit)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.Logf("api: list runs: %v", err)
		httputil.InternalServerError(w, "failed to list runs")
		return
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) run(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	switch r.Method {
	case http.MethodGet:
		doc, err := s.store.GetRun(r.Context(), runID)
		if err != nil {
			s.storeError(w, runID, err)
			return
		}
		httputil.WriteRawJSON(w, doc)
	case http.MethodDelete:
		if err := s.store.DeleteRun(r.Context(), runID); err != nil {
			s.storeError(w, runID, err)
			return
		}
		s.charts.Invalidate(runID)
		w.WriteHeader(http.StatusNoContent)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) listSleepPeriods(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	periods, err := s.store.ListSleepPeriods(r.Context(), runID)
	if err != nil {
		s.storeError(w, runID, err)
		return
	}
	httputil.WriteJSONOK(w, periods)
}

func (s *Server) listBouts(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	bouts, err := s.store.ListBouts(r.Context(), runID)
	if err != nil {
		s.storeError(w, runID, err)
		return
	}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		filtered := []db.BoutRow{}
		for _, b := range bouts {
			if b.Kind == kind {
				filtered = append(filtered, b)
			}
		}
		bouts = filtered
	}
	httputil.WriteJSONOK(w, bouts)
}

// showCharts renders the chart page for a run. Pages are cached by run ID
// since stored runs never change.
func (s *Server) showCharts(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	if page, ok := s.charts.GetIfPresent(runID); ok {
		httputil.WriteHTML(w, page)
		return
	}

	res, err := s.store.GetResult(r.Context(), runID)
	if err != nil {
		s.storeError(w, runID, err)
		return
	}
	if !res.OK() {
		httputil.WriteJSONError(w, http.StatusConflict, "run failed: "+res.Error)
		return
	}
	var buf bytes.Buffer
	if err := report.RenderCharts(&buf, res); err != nil {
		s.Logf("api: charts for %s: %v", runID, err)
		httputil.InternalServerError(w, "failed to render charts")
		return
	}
	page := buf.Bytes()
	s.charts.Set(runID, page)
	httputil.WriteHTML(w, page)
}
