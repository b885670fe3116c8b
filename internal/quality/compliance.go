package quality

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/activity.report/internal/activity"
	"github.com/banshee-data/activity.report/internal/config"
	"github.com/banshee-data/activity.report/internal/wear"
)

// Thresholds sets the pass/fail limits of the assessment.
type Thresholds struct {
	MinWearHoursPerDay float64 `json:"min_wear_hours_per_day"`
	MinValidDays       int     `json:"min_valid_days"`
	MaxImputationPct   float64 `json:"max_imputation_percentage"`
	MaxOutlierPct      float64 `json:"max_outlier_percentage"`
	LongNonWearMinutes float64 `json:"long_non_wear_minutes"`
}

// DefaultThresholds: 10 h on at least 4 days, 20% imputation, 1% outliers,
// non-wear over 2 h counts as long.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinWearHoursPerDay: 10,
		MinValidDays:       4,
		MaxImputationPct:   20,
		MaxOutlierPct:      1,
		LongNonWearMinutes: 120,
	}
}

// ThresholdsFromAnalysis maps the analysis config onto assessment limits.
func ThresholdsFromAnalysis(c *config.AnalysisConfig) Thresholds {
	return Thresholds{
		MinWearHoursPerDay: c.GetMinWearHoursPerDay(),
		MinValidDays:       c.GetMinValidDays(),
		MaxImputationPct:   c.GetMaxImputationPct(),
		MaxOutlierPct:      c.GetMaxOutlierPct(),
		LongNonWearMinutes: c.GetLongNonWearMinutes(),
	}
}

// Compliance reports how consistently the device was worn.
type Compliance struct {
	TotalWearHours        float64 `json:"total_wear_time_hours"`
	WearPercentage        float64 `json:"wear_percentage"`
	ValidDays             int     `json:"valid_days_count"`
	TotalDays             int     `json:"total_days"`
	MeetsMinimumWear      bool    `json:"meets_minimum_wear"`
	AverageDailyWearHours float64 `json:"average_daily_wear_hours"`
	NonWearPeriods        int     `json:"non_wear_periods"`
	LongNonWearPeriods    int     `json:"long_non_wear_periods_count"`
}

// AssessCompliance counts valid days from per-day wear hours and flags long
// non-wear periods.
func AssessCompliance(w wear.Report, dailyWearHours []float64, th Thresholds) Compliance {
	c := Compliance{
		TotalWearHours: w.WearHours,
		WearPercentage: w.WearPercentage,
		TotalDays:      len(dailyWearHours),
		NonWearPeriods: len(w.NonWearSegments),
	}
	for _, h := range dailyWearHours {
		if h >= th.MinWearHoursPerDay {
			c.ValidDays++
		}
	}
	c.MeetsMinimumWear = c.ValidDays >= th.MinValidDays
	if len(dailyWearHours) > 0 {
		c.AverageDailyWearHours = stat.Mean(dailyWearHours, nil)
	}
	for _, s := range w.NonWearSegments {
		if s.DurationMinutes > th.LongNonWearMinutes {
			c.LongNonWearPeriods++
		}
	}
	return c
}

// Pattern flag limits, in percent of worn time.
const (
	ExtremelySedentaryPct = 95.0
	VeryLowActivityPct    = 5.0
	UnrealisticVigorous   = 50.0
)

// DailyVariability is the spread of daily mean acceleration.
type DailyVariability struct {
	Std float64 `json:"mean_acceleration_std"`
	CV  float64 `json:"mean_acceleration_cv"`
}

// PatternFlags mark activity profiles that suggest a wear problem.
type PatternFlags struct {
	ExtremelySedentary      bool `json:"extremely_sedentary"`
	VeryLowActivity         bool `json:"very_low_activity"`
	UnrealisticHighActivity bool `json:"unrealistic_high_activity"`
}

// Any reports whether a flag is raised.
func (f PatternFlags) Any() bool {
	return f.ExtremelySedentary || f.VeryLowActivity || f.UnrealisticHighActivity
}

// Patterns checks the intensity distribution for implausible profiles.
type Patterns struct {
	SedentaryPercentage float64           `json:"sedentary_percentage"`
	LightPercentage     float64           `json:"light_activity_percentage"`
	ModeratePercentage  float64           `json:"moderate_activity_percentage"`
	VigorousPercentage  float64           `json:"high_activity_percentage"`
	MVPAMinutes         float64           `json:"mvpa_minutes_total"`
	DailyVariability    *DailyVariability `json:"daily_variability,omitempty"`
	Flags               PatternFlags      `json:"flags"`
}

// AssessPatterns flags extreme profiles. DailyVariability is nil when no
// daily means are given.
func AssessPatterns(sum activity.Summary, dailyMeans []float64) Patterns {
	p := Patterns{
		SedentaryPercentage: sum.SedentaryPercentage,
		LightPercentage:     sum.LightPercentage,
		ModeratePercentage:  sum.ModeratePercentage,
		VigorousPercentage:  sum.VigorousPercentage,
		MVPAMinutes:         sum.MVPAMinutes,
	}
	if len(dailyMeans) > 0 {
		mean, std := stat.PopMeanStdDev(dailyMeans, nil)
		dv := &DailyVariability{Std: std}
		if mean > 0 {
			dv.CV = std / mean
		}
		p.DailyVariability = dv
	}
	p.Flags = PatternFlags{
		ExtremelySedentary:      p.SedentaryPercentage > ExtremelySedentaryPct,
		VeryLowActivity:         p.LightPercentage+p.ModeratePercentage+p.VigorousPercentage < VeryLowActivityPct,
		UnrealisticHighActivity: p.VigorousPercentage > UnrealisticVigorous,
	}
	return p
}
