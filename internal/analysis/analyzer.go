// Package analysis runs the full per-participant pipeline: basic metrics,
// wear, daily summaries, quality, activity and sleep.
package analysis

import (
	"time"

	"github.com/banshee-data/activity.report/internal/accel"
	"github.com/banshee-data/activity.report/internal/activity"
	"github.com/banshee-data/activity.report/internal/config"
	"github.com/banshee-data/activity.report/internal/monitoring"
	"github.com/banshee-data/activity.report/internal/quality"
	"github.com/banshee-data/activity.report/internal/sleep"
	"github.com/banshee-data/activity.report/internal/timeutil"
	"github.com/banshee-data/activity.report/internal/wear"
)

// Result status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Recording is one participant's input.
type Recording struct {
	Participant     string
	SourceFile      string
	Series          accel.Series
	ExpectedSamples int
}

// Result is the envelope around every sub-report. When Status is
// StatusError only the identifying fields, Error and timings are set.
type Result struct {
	Participant    string          `json:"participant_id"`
	SourceFile     string          `json:"source_file,omitempty"`
	Status         string          `json:"status"`
	Error          string          `json:"error,omitempty"`
	ProcessedAt    time.Time       `json:"processed_at"`
	ProcessingTime time.Duration   `json:"processing_time_ns"`
	SampleCount    int             `json:"sample_count"`
	Start          time.Time       `json:"start_time"`
	End            time.Time       `json:"end_time"`
	IntervalSec    float64         `json:"sample_rate_seconds"`
	Flags          accel.DataFlags `json:"data_flags"`

	Basic       BasicMetrics    `json:"basic_metrics"`
	Wear        wear.Report     `json:"wear_detection"`
	Daily       []DaySummary    `json:"daily_summaries"`
	CoreQuality CoreQuality     `json:"quality_metrics"`
	Quality     *quality.Report `json:"quality_assessment,omitempty"`
	Activity    activity.Report `json:"activity_analysis"`
	Sleep       sleep.Report    `json:"sleep_analysis"`
	KeyFindings []string        `json:"key_findings"`
}

// OK reports whether the pipeline ran.
func (r *Result) OK() bool { return r.Status == StatusOK }

// Analyzer wires the detectors together.
type Analyzer struct {
	Config *config.AnalysisConfig
	Clock  timeutil.Clock
	Logf   monitoring.LogFunc
}

// NewAnalyzer returns an analyzer. A nil config uses the defaults and a nil
// clock uses the wall clock.
func NewAnalyzer(cfg *config.AnalysisConfig, clock timeutil.Clock, logf monitoring.LogFunc) *Analyzer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Analyzer{Config: cfg, Clock: clock, Logf: monitoring.OrDefault(logf)}
}

// Run analyses one participant's series.
func (a *Analyzer) Run(participant string, series accel.Series) *Result {
	return a.RunRecording(Recording{Participant: participant, Series: series, ExpectedSamples: series.Len()})
}

// RunRecording analyses a recording. Structural input errors abort with
// StatusError; a detector that cannot produce a result reports that in its
// own section and the rest of the pipeline continues.
func (a *Analyzer) RunRecording(rec Recording) *Result {
	logf := monitoring.OrDefault(a.Logf)
	started := a.Clock.Now()
	series := rec.Series
	r := &Result{
		Participant: rec.Participant,
		SourceFile:  rec.SourceFile,
		ProcessedAt: started,
		SampleCount: series.Len(),
		Start:       series.Start,
		End:         series.End(),
		IntervalSec: series.IntervalSeconds(),
	}
	defer func() { r.ProcessingTime = a.Clock.Since(started) }()

	if err := series.Validate(); err != nil {
		logf("analysis: %s: %v", rec.Participant, err)
		r.Status = StatusError
		r.Error = err.Error()
		return r
	}
	logf("analysis: %s: %d samples from %s", rec.Participant, series.Len(), series.Start.Format(time.RFC3339))

	cfg := a.Config
	actCfg := activity.ConfigFromAnalysis(cfg)

	r.Flags = accel.Flags(series)
	r.Basic = ComputeBasicMetrics(series)
	r.Wear = wear.NewDetector(wear.ConfigFromAnalysis(cfg), logf).Detect(series)
	r.Daily = DailySummaries(series, r.Wear.Worn, actCfg.Bands)
	r.CoreQuality = ComputeCoreQuality(series, r.Wear.WearPercentage, r.Daily, cfg.GetMinWearHoursPerDay())
	r.Activity = activity.NewAnalyzer(actCfg, logf).Analyze(series, r.Wear.Worn)
	r.Sleep = sleep.NewAnalyzer(sleep.ConfigFromAnalysis(cfg), logf).Analyze(series)

	dailyWear := make([]float64, len(r.Daily))
	dailyMeans := make([]float64, len(r.Daily))
	for i, d := range r.Daily {
		dailyWear[i] = d.WearHours
		dailyMeans[i] = d.MeanAcceleration
	}
	q := quality.NewAssessor(quality.ThresholdsFromAnalysis(cfg), logf).Assess(quality.Input{
		Series:          series,
		ExpectedSamples: rec.ExpectedSamples,
		Wear:            r.Wear,
		DailyWearHours:  dailyWear,
		DailyMeans:      dailyMeans,
		Activity:        r.Activity.Summary,
	})
	r.Quality = &q

	r.KeyFindings = KeyFindings(r, actCfg.Guidelines)
	r.Status = StatusOK
	return r
}
