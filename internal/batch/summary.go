package batch

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/activity.report/internal/analysis"
	"github.com/banshee-data/activity.report/internal/report"
)

// Stat describes one metric across successful participants.
type Stat struct {
	N    int     `json:"n"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

func describe(x []float64) Stat {
	if len(x) == 0 {
		return Stat{}
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	return Stat{N: len(x), Mean: mean, Std: std, Min: floats.Min(x), Max: floats.Max(x)}
}

// Failure names a participant whose analysis failed.
type Failure struct {
	Participant string `json:"participant_id"`
	Error       string `json:"error"`
}

// Summary aggregates a batch.
type Summary struct {
	Total        int       `json:"total"`
	Successful   int       `json:"successful"`
	Failed       int       `json:"failed"`
	SuccessRate  float64   `json:"success_rate"`
	QualityScore Stat      `json:"quality_score"`
	WearHours    Stat      `json:"wear_time_hours"`
	MVPAMinutes  Stat      `json:"mvpa_minutes"`
	SleepHours   Stat      `json:"sleep_hours"`
	Failures     []Failure `json:"failures"`
}

// Summarize computes counts and population statistics over successful
// results.
func Summarize(results []*analysis.Result) Summary {
	s := Summary{Total: len(results), Failures: []Failure{}}
	var quality, wear, mvpa, sleepHours []float64
	for _, r := range results {
		if !r.OK() {
			s.Failed++
			s.Failures = append(s.Failures, Failure{Participant: r.Participant, Error: r.Error})
			continue
		}
		s.Successful++
		row := report.BatchRowFromResult(r)
		quality = append(quality, row.QualityScore)
		wear = append(wear, row.WearHours)
		mvpa = append(mvpa, row.MVPAMinutes)
		sleepHours = append(sleepHours, row.SleepHours)
	}
	if s.Total > 0 {
		s.SuccessRate = float64(s.Successful) / float64(s.Total) * 100
	}
	s.QualityScore = describe(quality)
	s.WearHours = describe(wear)
	s.MVPAMinutes = describe(mvpa)
	s.SleepHours = describe(sleepHours)
	return s
}

// Results extracts the analysis results of items in order.
func Results(items []Item) []*analysis.Result {
	out := make([]*analysis.Result, len(items))
	for i, it := range items {
		out[i] = it.Result
	}
	return out
}

// Rows converts items into batch summary rows.
func Rows(items []Item) []report.BatchRow {
	out := make([]report.BatchRow, len(items))
	for i, it := range items {
		out[i] = report.BatchRowFromResult(it.Result)
	}
	return out
}

// PrintSummary writes a colored batch overview.
func PrintSummary(w io.Writer, s Summary) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	grey := color.New(color.FgHiBlack)

	bold.Fprintln(w, "Batch summary")
	fmt.Fprintf(w, "  Files processed: %d\n", s.Total)
	green.Fprintf(w, "  Successful: %d\n", s.Successful)
	if s.Failed > 0 {
		red.Fprintf(w, "  Failed: %d\n", s.Failed)
	} else {
		grey.Fprintf(w, "  Failed: 0\n")
	}
	fmt.Fprintf(w, "  Success rate: %.1f%%\n", s.SuccessRate)

	if s.Successful > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Across participants (mean ± std [min, max])")
		metric := func(name string, st Stat) {
			fmt.Fprintf(w, "  %-16s %8.1f ± %-6.1f [%.1f, %.1f]\n", name, st.Mean, st.Std, st.Min, st.Max)
		}
		metric("Quality score", s.QualityScore)
		metric("Wear hours", s.WearHours)
		metric("MVPA minutes", s.MVPAMinutes)
		metric("Sleep hours", s.SleepHours)
	}

	if len(s.Failures) > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Failures")
		for _, f := range s.Failures {
			red.Fprintf(w, "  %s: ", f.Participant)
			fmt.Fprintln(w, f.Error)
		}
	}
}
