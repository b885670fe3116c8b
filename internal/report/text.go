package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/banshee-data/activity.report/internal/activity"
	"github.com/banshee-data/activity.report/internal/analysis"
	"github.com/banshee-data/activity.report/internal/sleep"
)

var (
	rule    = strings.Repeat("=", 80)
	subrule = strings.Repeat("-", 40)
)

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// WriteText writes the human readable summary.
func WriteText(w io.Writer, r *analysis.Result, generatedAt time.Time) error {
	bw := bufio.NewWriter(w)
	p := func(format string, a ...interface{}) { fmt.Fprintf(bw, format+"\n", a...) }
	section := func(title string) {
		p("%s", title)
		p("%s", subrule)
	}

	p("%s", rule)
	p("Accelerometer Data Analysis Report")
	p("Participant ID: %s", r.Participant)
	p("Generated: %s", generatedAt.Format(cellTimeLayout))
	p("%s", rule)
	p("")

	if !r.OK() {
		section("ANALYSIS FAILED")
		p("Error: %s", r.Error)
		p("")
		p("%s", rule)
		p("End of Report")
		p("%s", rule)
		return bw.Flush()
	}

	section("DATA OVERVIEW")
	p("Recording period: %s to %s", r.Start.Format(cellTimeLayout), r.End.Format(cellTimeLayout))
	p("Sample rate: %g seconds", r.IntervalSec)
	p("Total samples: %d", r.SampleCount)
	p("Data completeness: %.1f%%", r.CoreQuality.CompletenessPct)
	if r.Quality != nil {
		p("Imputed samples: %d", r.Quality.Integrity.ImputedCount)
	}
	p("")

	if q := r.Quality; q != nil {
		o := q.Overall
		section("QUALITY ASSESSMENT")
		p("Overall quality score: %.1f/100 (Grade: %s)", o.Score, o.Grade)
		p("Data usable for analysis: %s", yesNo(o.Usable))
		p("")
		p("Quality Scores:")
		p("  Data completeness: %.1f/100", o.Scores.Completeness)
		p("  Wear compliance: %.1f/100", o.Scores.Compliance)
		p("  Data integrity: %.1f/100", o.Scores.Integrity)
		p("  Activity patterns: %.1f/100", o.Scores.Patterns)
		p("")
		if len(q.Recommendations) > 0 {
			p("Recommendations:")
			for _, rec := range q.Recommendations {
				p("  • %s", rec)
			}
			p("")
		}
	}

	section("WEAR TIME ANALYSIS")
	p("Total wear time: %.1f hours", r.Wear.WearHours)
	p("Wear compliance: %.1f%%", r.Wear.WearPercentage)
	p("Non-wear periods: %d", len(r.Wear.NonWearSegments))
	p("")

	if s := r.Activity.Summary; r.Activity.Status == activity.StatusOK {
		section("ACTIVITY ANALYSIS")
		p("Sedentary time: %.1f%%", s.SedentaryPercentage)
		p("Light activity: %.1f%%", s.LightPercentage)
		p("Moderate activity: %.1f%%", s.ModeratePercentage)
		p("Vigorous activity: %.1f%%", s.VigorousPercentage)
		p("MVPA minutes: %.1f", s.MVPAMinutes)
		p("")
		section("ACTIVITY BOUTS")
		p("MVPA bouts: %d", s.MVPABoutCount)
		p("Total MVPA bout time: %.1f minutes", s.TotalMVPABoutMinutes)
		p("Average MVPA bout duration: %.1f minutes", s.AverageMVPABoutMinutes)
		p("Meets WHO MVPA guidelines: %s", yesNo(s.MeetsMVPAGuideline))
		p("")
	}

	if s := r.Sleep.Summary; r.Sleep.Status == sleep.StatusOK {
		section("SLEEP ANALYSIS")
		p("Total sleep periods: %d", s.TotalPeriods)
		p("Main sleep periods: %d", s.MainPeriods)
		p("Total sleep time: %.1f hours", s.TotalSleepHours)
		if m := s.Main; m != nil {
			p("Average sleep duration: %.1f hours", m.DurationHours)
			p("Average sleep efficiency: %.1f%%", m.Efficiency)
			p("Average sleep quality: %.1f/100", m.QualityScore)
		}
		p("")
	}

	if reg := r.Sleep.Regularity; reg.Status == sleep.RegularityOK {
		section("SLEEP REGULARITY")
		p("Sleep onset variability: %.1f hours", reg.OnsetVariability)
		p("Wake time variability: %.1f hours", reg.WakeVariability)
		p("Sleep regularity index: %.1f/100", reg.RegularityIndex)
		p("")
	}

	if len(r.KeyFindings) > 0 {
		section("KEY FINDINGS")
		for _, f := range r.KeyFindings {
			p("• %s", f)
		}
		p("")
	}

	p("%s", rule)
	p("End of Report")
	p("%s", rule)
	return bw.Flush()
}
