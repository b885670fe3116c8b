package quality

import (
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/activity.report/internal/accel"
	"github.com/banshee-data/activity.report/internal/activity"
	"github.com/banshee-data/activity.report/internal/monitoring"
	"github.com/banshee-data/activity.report/internal/wear"
)

// Component weights of the overall score.
const (
	WeightCompleteness = 0.25
	WeightCompliance   = 0.35
	WeightIntegrity    = 0.25
	WeightPatterns     = 0.15
)

// UsableScore is the lowest overall score considered analysable.
const UsableScore = 60.0

// GoodQualityMessage is the sole recommendation when nothing needs attention.
const GoodQualityMessage = "Data quality is good. No major issues detected."

// Input is everything the assessment looks at. Daily slices come from the
// per-day summaries of the recording.
type Input struct {
	Series          accel.Series
	ExpectedSamples int
	Wear            wear.Report
	DailyWearHours  []float64
	DailyMeans      []float64
	Activity        activity.Summary
}

// Overview describes the shape of the recording.
type Overview struct {
	RecordingDays     int     `json:"recording_duration_days"`
	TotalSamples      int     `json:"total_samples"`
	ExpectedSamples   int     `json:"expected_samples"`
	SampleRateSeconds float64 `json:"sample_rate_seconds"`
	Completeness      float64 `json:"data_completeness"`
}

// Scores are the per-component scores, each in [0,100].
type Scores struct {
	Completeness float64 `json:"data_completeness"`
	Compliance   float64 `json:"wear_compliance"`
	Integrity    float64 `json:"data_integrity"`
	Patterns     float64 `json:"activity_patterns"`
}

// Overall is the weighted verdict.
type Overall struct {
	Scores Scores  `json:"individual_scores"`
	Score  float64 `json:"overall_score"`
	Grade  string  `json:"quality_grade"`
	Usable bool    `json:"data_usable"`
}

// Report is the complete quality assessment.
type Report struct {
	Overview        Overview   `json:"data_overview"`
	Compliance      Compliance `json:"wear_compliance"`
	Integrity       Integrity  `json:"data_integrity"`
	Patterns        Patterns   `json:"activity_patterns"`
	Overall         Overall    `json:"overall_assessment"`
	Recommendations []string   `json:"recommendations"`
}

// Assessor grades recordings against a set of thresholds.
type Assessor struct {
	Thresholds Thresholds
	Logf       monitoring.LogFunc
}

// NewAssessor returns an assessor with the given thresholds.
func NewAssessor(th Thresholds, logf monitoring.LogFunc) *Assessor {
	return &Assessor{Thresholds: th, Logf: monitoring.OrDefault(logf)}
}

// Assess runs every check and derives the overall score and recommendations.
func (a *Assessor) Assess(in Input) Report {
	r := Report{
		Overview:   overview(in),
		Compliance: AssessCompliance(in.Wear, in.DailyWearHours, a.Thresholds),
		Integrity:  AssessIntegrity(in.Series),
		Patterns:   AssessPatterns(in.Activity, in.DailyMeans),
	}
	r.Overall = OverallAssessment(r)
	r.Recommendations = Recommendations(r, a.Thresholds)
	monitoring.OrDefault(a.Logf)("quality: score %.1f (%s), %d valid days", r.Overall.Score, r.Overall.Grade, r.Compliance.ValidDays)
	return r
}

// Assess runs an assessor with default thresholds and a silent logger.
func Assess(in Input) Report {
	return NewAssessor(DefaultThresholds(), monitoring.Discard).Assess(in)
}

func overview(in Input) Overview {
	o := Overview{
		TotalSamples:      in.Series.Len(),
		ExpectedSamples:   in.ExpectedSamples,
		SampleRateSeconds: in.Series.IntervalSeconds(),
	}
	if !in.Series.Start.IsZero() && in.Series.Len() > 0 {
		o.RecordingDays = int(in.Series.End().Sub(in.Series.Start) / (24 * time.Hour))
	}
	if n := in.Series.Len(); n > 0 {
		missing := 0
		for _, s := range in.Series.Samples {
			if math.IsNaN(s.Acceleration) {
				missing++
			}
		}
		o.Completeness = 1 - float64(missing)/float64(n)
	}
	return o
}

// OverallAssessment scores each component and combines them with the
// component weights. The score is rounded to one decimal.
func OverallAssessment(r Report) Overall {
	var s Scores
	s.Completeness = math.Min(100, r.Overview.Completeness*100)

	if r.Compliance.MeetsMinimumWear {
		s.Compliance += 50
	}
	s.Compliance += math.Min(50, r.Compliance.WearPercentage/2)

	integrity := 100.0
	integrity -= math.Min(30, r.Integrity.ImputedPercentage)
	integrity -= math.Min(20, r.Integrity.Outliers.IQR.Percentage*10)
	integrity -= math.Min(20, r.Integrity.MissingPercentage*2)
	s.Integrity = math.Max(0, integrity)

	patterns := 100.0
	if r.Patterns.Flags.ExtremelySedentary {
		patterns -= 30
	}
	if r.Patterns.Flags.VeryLowActivity {
		patterns -= 40
	}
	if r.Patterns.Flags.UnrealisticHighActivity {
		patterns -= 50
	}
	s.Patterns = math.Max(0, patterns)

	score := s.Completeness*WeightCompleteness +
		s.Compliance*WeightCompliance +
		s.Integrity*WeightIntegrity +
		s.Patterns*WeightPatterns
	score = math.Round(score*10) / 10
	return Overall{Scores: s, Score: score, Grade: Grade(score), Usable: score >= UsableScore}
}

// Grade maps a score to a letter: A from 90, B from 80, C from 70, D from 60.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// Recommendations lists follow-up actions for each failed check.
func Recommendations(r Report, th Thresholds) []string {
	var out []string
	if !r.Compliance.MeetsMinimumWear {
		out = append(out, fmt.Sprintf(
			"Insufficient wear time: Only %d valid days. Recommend minimum %d days with ≥%g hours wear time.",
			r.Compliance.ValidDays, th.MinValidDays, th.MinWearHoursPerDay))
	}
	if n := r.Compliance.LongNonWearPeriods; n > 0 {
		out = append(out, fmt.Sprintf(
			"Found %d extended non-wear periods (>%gh). Consider participant compliance coaching.",
			n, th.LongNonWearMinutes/60))
	}
	if p := r.Integrity.ImputedPercentage; p > th.MaxImputationPct {
		out = append(out, fmt.Sprintf(
			"High imputation rate (%.1f%%). Check data collection procedures and device functionality.", p))
	}
	if p := r.Integrity.Outliers.IQR.Percentage; p > th.MaxOutlierPct {
		out = append(out, fmt.Sprintf(
			"High outlier rate (%.1f%%). Consider data cleaning or investigate device issues.", p))
	}
	if r.Patterns.Flags.ExtremelySedentary {
		out = append(out, "Extremely high sedentary time (>95%). Verify device placement and participant instructions.")
	}
	if r.Patterns.Flags.UnrealisticHighActivity {
		out = append(out, "Unrealistically high activity levels detected. Check for device malfunction or inappropriate wear.")
	}
	switch {
	case r.Overall.Score < UsableScore:
		out = append(out, "Overall data quality is poor. Consider excluding from analysis or collecting additional data.")
	case r.Overall.Score < 80:
		out = append(out, "Data quality is acceptable but could be improved. Consider targeted quality improvement measures.")
	}
	if len(out) == 0 {
		out = append(out, GoodQualityMessage)
	}
	return out
}
