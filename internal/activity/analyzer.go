package activity

import (
	"github.com/banshee-data/activity.report/internal/accel"
	"github.com/banshee-data/activity.report/internal/config"
	"github.com/banshee-data/activity.report/internal/monitoring"
	"github.com/banshee-data/activity.report/internal/segment"
)

// Result status values.
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
)

// Config bundles the thresholds used by Analyze.
type Config struct {
	Bands      Bands        `json:"bands"`
	Criteria   BoutCriteria `json:"bout_criteria"`
	Guidelines Guidelines   `json:"guidelines"`
}

// DefaultConfig returns the standard bands, bout lengths and guidelines.
func DefaultConfig() Config {
	return Config{Bands: DefaultBands(), Criteria: DefaultBoutCriteria(), Guidelines: DefaultGuidelines()}
}

// ConfigFromAnalysis maps the analysis config onto activity settings.
func ConfigFromAnalysis(c *config.AnalysisConfig) Config {
	return Config{
		Bands: Bands{Light: c.GetLightMG(), Moderate: c.GetModerateMG(), Vigorous: c.GetVigorousMG()},
		Criteria: BoutCriteria{
			MinActiveMinutes:    c.GetMinActiveBoutMinutes(),
			MinSedentaryMinutes: c.GetMinSedentaryBoutMinutes(),
		},
		Guidelines: Guidelines{
			WeeklyMVPAMinutes: c.GetWeeklyMVPAGuideline(),
			BoutMVPAMinutes:   c.GetBoutMVPAGuideline(),
		},
	}
}

// Report is the full activity analysis for one series.
type Report struct {
	Status         string           `json:"status"`
	Error          string           `json:"error,omitempty"`
	Classification Classification   `json:"activity_classification"`
	Bouts          Bouts            `json:"activity_bouts"`
	Hourly         HourlyReport     `json:"hourly_patterns"`
	Weekly         []WeekdayPattern `json:"weekly_patterns"`
	Transitions    TransitionReport `json:"activity_transitions"`
	Summary        Summary          `json:"summary_metrics"`
}

// Analyzer runs activity analysis over worn time.
type Analyzer struct {
	Config Config
	Logf   monitoring.LogFunc
}

// NewAnalyzer returns an analyzer with the given config.
func NewAnalyzer(cfg Config, logf monitoring.LogFunc) *Analyzer {
	return &Analyzer{Config: cfg, Logf: monitoring.OrDefault(logf)}
}

// Analyze classifies the series and derives bouts, transitions, patterns and
// the summary. worn must be aligned with the series; nil means fully worn.
// A series without worn samples yields an unavailable report.
func (a *Analyzer) Analyze(series accel.Series, worn []bool) Report {
	logf := monitoring.OrDefault(a.Logf)
	if err := series.Validate(); err != nil {
		logf("activity: %v", err)
		return Report{Status: StatusUnavailable, Error: err.Error()}
	}
	if worn != nil && len(worn) != series.Len() {
		err := &accel.InputShapeError{Field: "wear_status", Reason: "wear mask is not aligned with the series"}
		logf("activity: %v", err)
		return Report{Status: StatusUnavailable, Error: err.Error()}
	}
	wornCount := series.Len()
	if worn != nil {
		wornCount = 0
		for _, w := range worn {
			if w {
				wornCount++
			}
		}
	}
	if wornCount == 0 {
		logf("activity: no wear time data available")
		return Report{Status: StatusUnavailable, Error: "no wear time data available"}
	}

	class := ClassifySeries(series, a.Config.Bands)
	if class.HasQualityIssues() {
		logf("activity: data quality flags raised: %d unclassifiable, %+v", class.UnknownCount, class.Flags)
	}
	bouts := DetectBouts(class.Levels, worn, series, a.Config.Criteria, segment.WithLogger(logf))

	r := Report{
		Status:         StatusOK,
		Classification: class,
		Bouts:          bouts,
		Hourly:         HourlyPatterns(series, worn, a.Config.Bands),
		Weekly:         WeeklyPatterns(series, worn, a.Config.Bands),
		Transitions:    Transitions(class.Levels, worn, series.IntervalSeconds()),
		Summary:        Summarize(class.Levels, worn, bouts, series, a.Config.Guidelines),
	}
	logf("activity: %.1f MVPA minutes, %d MVPA bouts, %d sedentary bouts",
		r.Summary.MVPAMinutes, len(bouts.MVPA), len(bouts.Sedentary))
	return r
}

// Analyze runs an analyzer with the default config and a silent logger.
func Analyze(series accel.Series, worn []bool) Report {
	return NewAnalyzer(DefaultConfig(), monitoring.Discard).Analyze(series, worn)
}
