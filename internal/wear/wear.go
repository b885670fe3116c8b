// Package wear classifies each sample as worn or unworn from the local
// variability of the signal: a device lying still shows almost no variance.
package wear

import (
	"github.com/banshee-data/activity.report/internal/accel"
	"github.com/banshee-data/activity.report/internal/config"
	"github.com/banshee-data/activity.report/internal/monitoring"
	"github.com/banshee-data/activity.report/internal/segment"
	"github.com/banshee-data/activity.report/internal/signal"
)

// Result status values.
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
)

// Default thresholds.
const (
	DefaultWindowSeconds = 1800.0
	DefaultStdThreshold  = 1.0 // mg
)

// Config tunes the detector.
type Config struct {
	WindowSeconds float64
	StdThreshold  float64
}

// DefaultConfig returns the 30-minute, 1 mg detector settings.
func DefaultConfig() Config {
	return Config{WindowSeconds: DefaultWindowSeconds, StdThreshold: DefaultStdThreshold}
}

// ConfigFromAnalysis maps the analysis config onto detector settings.
func ConfigFromAnalysis(c *config.AnalysisConfig) Config {
	return Config{WindowSeconds: c.GetNonWearWindowSeconds(), StdThreshold: c.GetNonWearStdMG()}
}

// Report is the wear detection result. Worn is aligned with the input series
// and is consumed by the bout and daily summaries; it is not serialised.
type Report struct {
	Status          string            `json:"status"`
	Error           string            `json:"error,omitempty"`
	WearHours       float64           `json:"total_wear_time_hours"`
	NonWearHours    float64           `json:"total_non_wear_time_hours"`
	WearPercentage  float64           `json:"wear_percentage"`
	NonWearSegments []segment.Segment `json:"non_wear_periods"`
	Worn            []bool            `json:"-"`
}

// WornCount returns the number of worn samples.
func (r Report) WornCount() int {
	n := 0
	for _, w := range r.Worn {
		if w {
			n++
		}
	}
	return n
}

// Detector finds non-wear periods.
type Detector struct {
	Config Config
	Logf   monitoring.LogFunc
}

// NewDetector returns a detector with the given config.
func NewDetector(cfg Config, logf monitoring.LogFunc) *Detector {
	return &Detector{Config: cfg, Logf: monitoring.OrDefault(logf)}
}

// Detect marks a sample unworn when its trailing rolling standard deviation
// falls below the threshold, then segments the unworn mask.
func (d *Detector) Detect(series accel.Series) Report {
	logf := monitoring.OrDefault(d.Logf)
	if err := series.Validate(); err != nil {
		logf("wear: %v", err)
		return Report{Status: StatusUnavailable, Error: err.Error(), NonWearSegments: []segment.Segment{}}
	}

	window := signal.WindowSamples(d.Config.WindowSeconds, series.IntervalSeconds())
	std := signal.RollingStd(series.Values(), window)

	worn := make([]bool, series.Len())
	unworn := make([]bool, series.Len())
	wornCount := 0
	for i, sd := range std {
		unworn[i] = sd < d.Config.StdThreshold
		worn[i] = !unworn[i]
		if worn[i] {
			wornCount++
		}
	}

	n := series.Len()
	report := Report{
		Status:          StatusOK,
		WearHours:       series.Hours(wornCount),
		NonWearHours:    series.Hours(n - wornCount),
		WearPercentage:  float64(wornCount) / float64(n) * 100,
		NonWearSegments: segment.Find(unworn, series, segment.WithLogger(logf)),
		Worn:            worn,
	}
	logf("wear: %.1f h worn (%.1f%%), %d non-wear periods", report.WearHours, report.WearPercentage, len(report.NonWearSegments))
	return report
}

// Detect runs a detector with the default config and a silent logger.
func Detect(series accel.Series) Report {
	return NewDetector(DefaultConfig(), monitoring.Discard).Detect(series)
}
