package activity

import (
	"math"

	"github.com/banshee-data/activity.report/internal/accel"
)

// Guidelines are the physical activity targets the summary checks.
type Guidelines struct {
	WeeklyMVPAMinutes float64 `json:"weekly_mvpa_minutes"`
	BoutMVPAMinutes   float64 `json:"bout_mvpa_minutes"`
}

// DefaultGuidelines: 150 weekly MVPA minutes, 75 minutes accumulated in bouts.
func DefaultGuidelines() Guidelines {
	return Guidelines{WeeklyMVPAMinutes: 150, BoutMVPAMinutes: 75}
}

// Summary aggregates worn-time intensity distribution and bout metrics.
type Summary struct {
	WornSamples int `json:"worn_samples"`

	SedentaryPercentage float64 `json:"sedentary_percentage"`
	SedentaryMinutes    float64 `json:"sedentary_minutes"`
	LightPercentage     float64 `json:"light_percentage"`
	LightMinutes        float64 `json:"light_minutes"`
	ModeratePercentage  float64 `json:"moderate_percentage"`
	ModerateMinutes     float64 `json:"moderate_minutes"`
	VigorousPercentage  float64 `json:"vigorous_percentage"`
	VigorousMinutes     float64 `json:"vigorous_minutes"`

	MVPAPercentage float64 `json:"mvpa_percentage"`
	MVPAMinutes    float64 `json:"mvpa_minutes"`

	MVPABoutCount               int     `json:"mvpa_bout_count"`
	TotalMVPABoutMinutes        float64 `json:"total_mvpa_bout_minutes"`
	AverageMVPABoutMinutes      float64 `json:"average_mvpa_bout_duration"`
	SedentaryBoutCount          int     `json:"sedentary_bout_count"`
	TotalSedentaryBoutMinutes   float64 `json:"total_sedentary_bout_minutes"`
	AverageSedentaryBoutMinutes float64 `json:"average_sedentary_bout_duration"`

	// WearDays is worn time in days, at least 1. Weekly MVPA is MVPAMinutes
	// scaled to seven worn days.
	WearDays           float64 `json:"wear_days"`
	WeeklyMVPAMinutes  float64 `json:"weekly_mvpa_minutes"`
	MeetsMVPAGuideline bool    `json:"meets_who_mvpa_guidelines"`
	MeetsBoutGuideline bool    `json:"meets_who_bout_guidelines"`
}

// Summarize computes the summary over worn samples.
func Summarize(levels []Intensity, worn []bool, bouts Bouts, series accel.Series, g Guidelines) Summary {
	var counts [4]int
	total := 0
	for i, lvl := range levels {
		if worn != nil && !worn[i] {
			continue
		}
		total++
		if lvl != Unknown {
			counts[lvl]++
		}
	}

	s := Summary{WornSamples: total}
	pct := func(n int) float64 {
		if total == 0 {
			return 0
		}
		return float64(n) / float64(total) * 100
	}
	s.SedentaryPercentage, s.SedentaryMinutes = pct(counts[Sedentary]), series.Minutes(counts[Sedentary])
	s.LightPercentage, s.LightMinutes = pct(counts[Light]), series.Minutes(counts[Light])
	s.ModeratePercentage, s.ModerateMinutes = pct(counts[Moderate]), series.Minutes(counts[Moderate])
	s.VigorousPercentage, s.VigorousMinutes = pct(counts[Vigorous]), series.Minutes(counts[Vigorous])

	mvpa := counts[Moderate] + counts[Vigorous]
	s.MVPAPercentage = pct(mvpa)
	s.MVPAMinutes = series.Minutes(mvpa)

	s.MVPABoutCount = len(bouts.MVPA)
	s.TotalMVPABoutMinutes = totalMinutes(bouts.MVPA)
	if s.MVPABoutCount > 0 {
		s.AverageMVPABoutMinutes = s.TotalMVPABoutMinutes / float64(s.MVPABoutCount)
	}
	s.SedentaryBoutCount = len(bouts.Sedentary)
	s.TotalSedentaryBoutMinutes = totalMinutes(bouts.Sedentary)
	if s.SedentaryBoutCount > 0 {
		s.AverageSedentaryBoutMinutes = s.TotalSedentaryBoutMinutes / float64(s.SedentaryBoutCount)
	}

	s.WearDays = math.Max(1, series.Hours(total)/24)
	s.WeeklyMVPAMinutes = s.MVPAMinutes * 7 / s.WearDays
	s.MeetsMVPAGuideline = s.WeeklyMVPAMinutes >= g.WeeklyMVPAMinutes
	s.MeetsBoutGuideline = s.TotalMVPABoutMinutes >= g.BoutMVPAMinutes
	return s
}
