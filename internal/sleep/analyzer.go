package sleep

import (
	"github.com/banshee-data/activity.report/internal/accel"
	"github.com/banshee-data/activity.report/internal/monitoring"
	"github.com/banshee-data/activity.report/internal/segment"
)

// Result status values.
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
)

// Report is the full sleep analysis for one series.
type Report struct {
	Status          string            `json:"status"`
	Error           string            `json:"error,omitempty"`
	RestPeriods     []segment.Segment `json:"rest_periods"`
	SleepPeriods    []Period          `json:"sleep_periods"`
	Characteristics []Characteristics `json:"sleep_characteristics"`
	Summary         Summary           `json:"sleep_summary"`
	Regularity      Regularity        `json:"sleep_regularity"`
}

// Analyzer runs the sleep pipeline.
type Analyzer struct {
	Config Config
	Logf   monitoring.LogFunc
}

// NewAnalyzer returns an analyzer with the given config.
func NewAnalyzer(cfg Config, logf monitoring.LogFunc) *Analyzer {
	return &Analyzer{Config: cfg, Logf: monitoring.OrDefault(logf)}
}

// Analyze detects rest, filters it to sleep periods, scores each period and
// aggregates the summary and regularity.
func (a *Analyzer) Analyze(series accel.Series) Report {
	logf := monitoring.OrDefault(a.Logf)
	if err := series.Validate(); err != nil {
		logf("sleep: %v", err)
		return Report{
			Status:          StatusUnavailable,
			Error:           err.Error(),
			RestPeriods:     []segment.Segment{},
			SleepPeriods:    []Period{},
			Characteristics: []Characteristics{},
			Regularity:      Regularity{Status: RegularityInsufficient},
		}
	}

	withLog := segment.WithLogger(logf)
	rest := DetectRest(series, a.Config, withLog)
	periods := IdentifyPeriods(rest, a.Config)
	awake := AwakeningMask(series, a.Config)
	chars := make([]Characteristics, len(periods))
	for i, p := range periods {
		chars[i] = ScoreMasked(p, series, awake, a.Config, withLog)
		chars[i].PeriodID = i
	}

	r := Report{
		Status:          StatusOK,
		RestPeriods:     rest,
		SleepPeriods:    periods,
		Characteristics: chars,
		Summary:         Summarize(chars),
		Regularity:      ComputeRegularity(periods, a.Config.OnsetWrap),
	}
	logf("sleep: %d rest periods, %d sleep periods (%d main), %.1f h estimated sleep",
		len(rest), len(periods), r.Summary.MainPeriods, r.Summary.TotalSleepHours)
	return r
}

// Analyze runs an analyzer with the default config and a silent logger.
func Analyze(series accel.Series) Report {
	return NewAnalyzer(DefaultConfig(), monitoring.Discard).Analyze(series)
}
