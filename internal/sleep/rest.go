// Package sleep detects rest periods from smoothed acceleration, keeps the
// ones that look like sleep, and scores each night.
//
// The estimates are heuristics built on thresholds over the 5-minute mean
// signal. They are not clinical sleep staging.
package sleep

import (
	"github.com/banshee-data/activity.report/internal/accel"
	"github.com/banshee-data/activity.report/internal/config"
	"github.com/banshee-data/activity.report/internal/segment"
	"github.com/banshee-data/activity.report/internal/signal"
)

// Config tunes every stage of sleep detection.
type Config struct {
	RestWindowSeconds float64 // smoothing window for rest detection
	InactivityMG      float64 // smoothed acceleration below this is rest
	MinRestMinutes    float64

	MinSleepHours        float64
	MaxSleepHours        float64
	SleepWindowStartHour int // onset at or after this hour qualifies
	SleepWindowEndHour   int // wake at or before this hour qualifies
	EarlyOnsetHour       int // onset at or before this hour also qualifies

	AwakeningMG         float64
	MinAwakeningMinutes float64
	SleepMG             float64 // samples at or below this count as asleep

	MaxNapHours      float64
	DaytimeStartHour int
	DaytimeEndHour   int

	OnsetWrap string
}

// DefaultConfig returns the standard sleep thresholds.
func DefaultConfig() Config {
	return Config{
		RestWindowSeconds:    300,
		InactivityMG:         10,
		MinRestMinutes:       60,
		MinSleepHours:        3,
		MaxSleepHours:        12,
		SleepWindowStartHour: 18,
		SleepWindowEndHour:   12,
		EarlyOnsetHour:       6,
		AwakeningMG:          50,
		MinAwakeningMinutes:  1,
		SleepMG:              20,
		MaxNapHours:          2,
		DaytimeStartHour:     6,
		DaytimeEndHour:       18,
		OnsetWrap:            config.OnsetWrapNoon,
	}
}

// ConfigFromAnalysis maps the analysis config onto sleep settings.
func ConfigFromAnalysis(c *config.AnalysisConfig) Config {
	cfg := DefaultConfig()
	cfg.RestWindowSeconds = c.GetRestWindowSeconds()
	cfg.InactivityMG = c.GetInactivityMG()
	cfg.MinRestMinutes = c.GetMinRestMinutes()
	cfg.MinSleepHours = c.GetMinSleepHours()
	cfg.MaxSleepHours = c.GetMaxSleepHours()
	cfg.SleepWindowStartHour = c.GetSleepWindowStartHour()
	cfg.SleepWindowEndHour = c.GetSleepWindowEndHour()
	cfg.EarlyOnsetHour = c.GetEarlyOnsetHour()
	cfg.AwakeningMG = c.GetAwakeningMG()
	cfg.MinAwakeningMinutes = c.GetMinAwakeningMinutes()
	cfg.SleepMG = c.GetSleepMG()
	cfg.MaxNapHours = c.GetMaxNapHours()
	cfg.DaytimeStartHour = c.GetDaytimeStartHour()
	cfg.DaytimeEndHour = c.GetDaytimeEndHour()
	cfg.OnsetWrap = c.GetOnsetWrap()
	return cfg
}

// DetectRest smooths the series with a trailing rolling mean, masks samples
// below the inactivity threshold and keeps runs of at least MinRestMinutes.
// Segment stats are computed on the raw acceleration.
func DetectRest(series accel.Series, cfg Config, opts ...segment.Option) []segment.Segment {
	window := signal.WindowSamples(cfg.RestWindowSeconds, series.IntervalSeconds())
	smooth := signal.RollingMean(series.Values(), window)
	mask := make([]bool, len(smooth))
	for i, m := range smooth {
		// NaN compares false, so windows with no finite value are never rest.
		mask[i] = m < cfg.InactivityMG
	}
	return segment.FilterMinDuration(segment.Find(mask, series, opts...), cfg.MinRestMinutes)
}
