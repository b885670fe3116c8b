package analysis

import (
	"github.com/banshee-data/activity.report/internal/activity"
	"github.com/banshee-data/activity.report/internal/sleep"
)

// Key finding texts.
const (
	FindingExcellentQuality = "Excellent data quality detected"
	FindingPoorQuality      = "Poor data quality detected - consider data exclusion"
	FindingVerySedentary    = "Very high sedentary behavior detected"
	FindingBelowMVPA        = "Below recommended MVPA levels"
	FindingVeryHighActivity = "Very high activity levels detected"
	FindingMeetsGuidelines  = "Meets WHO physical activity guidelines"
	FindingNoMVPABouts      = "No sustained MVPA bouts detected"
	FindingShortSleep       = "Short sleep duration detected"
	FindingLongSleep        = "Long sleep duration detected"
	FindingPoorEfficiency   = "Poor sleep efficiency detected"
	FindingGoodEfficiency   = "Excellent sleep efficiency detected"
	FindingRegularSleep     = "Highly regular sleep pattern"
	FindingIrregularSleep   = "Irregular sleep pattern detected"
)

// KeyFindings derives the headline observations for a result. Sections
// whose analysis was unavailable contribute nothing.
func KeyFindings(r *Result, g activity.Guidelines) []string {
	findings := []string{}

	if r.Quality != nil {
		switch score := r.Quality.Overall.Score; {
		case score >= 90:
			findings = append(findings, FindingExcellentQuality)
		case score < 60:
			findings = append(findings, FindingPoorQuality)
		}
	}

	if r.Activity.Status == activity.StatusOK {
		sum := r.Activity.Summary
		if sum.SedentaryPercentage > 90 {
			findings = append(findings, FindingVerySedentary)
		}
		if sum.WeeklyMVPAMinutes < g.WeeklyMVPAMinutes {
			findings = append(findings, FindingBelowMVPA)
		}
		if sum.WeeklyMVPAMinutes > 2*g.WeeklyMVPAMinutes {
			findings = append(findings, FindingVeryHighActivity)
		}
		if sum.MeetsMVPAGuideline {
			findings = append(findings, FindingMeetsGuidelines)
		}
		if sum.MVPABoutCount == 0 {
			findings = append(findings, FindingNoMVPABouts)
		}
	}

	if main := r.Sleep.Summary.Main; main != nil {
		switch {
		case main.DurationHours < 6:
			findings = append(findings, FindingShortSleep)
		case main.DurationHours > 9:
			findings = append(findings, FindingLongSleep)
		}
		switch {
		case main.Efficiency < 85:
			findings = append(findings, FindingPoorEfficiency)
		case main.Efficiency > 95:
			findings = append(findings, FindingGoodEfficiency)
		}
	}

	if reg := r.Sleep.Regularity; reg.Status == sleep.RegularityOK {
		switch {
		case reg.RegularityIndex > 80:
			findings = append(findings, FindingRegularSleep)
		case reg.RegularityIndex < 50:
			findings = append(findings, FindingIrregularSleep)
		}
	}
	return findings
}
