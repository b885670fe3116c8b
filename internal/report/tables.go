package report

import (
	"math"
	"strconv"
	"time"

	"github.com/banshee-data/activity.report/internal/analysis"
)

// cellTimeLayout formats timestamps in tabular outputs.
const cellTimeLayout = "2006-01-02 15:04:05"

// table is one tabular export, shared by the CSV and workbook writers.
type table struct {
	name   string
	header []string
	rows   [][]interface{}
}

func (t table) empty() bool { return len(t.rows) == 0 }

// formatCell renders a cell for CSV. NaN becomes an empty field.
func formatCell(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(cellTimeLayout)
	case nil:
		return ""
	default:
		return ""
	}
}

func dailyTable(r *analysis.Result) table {
	t := table{
		name: "Daily",
		header: []string{
			"participant_id", "date", "total_samples", "wear_samples", "wear_time_hours",
			"mean_acceleration", "max_acceleration", "imputed_samples", "data_completeness",
			"sedentary_minutes", "light_activity_minutes", "moderate_activity_minutes",
			"high_activity_minutes", "mvpa_minutes",
		},
	}
	for _, d := range r.Daily {
		t.rows = append(t.rows, []interface{}{
			r.Participant, d.Date, d.TotalSamples, d.WornSamples, d.WearHours,
			d.MeanAcceleration, d.MaxAcceleration, d.ImputedSamples, d.Completeness,
			d.SedentaryMinutes, d.LightMinutes, d.ModerateMinutes,
			d.VigorousMinutes, d.MVPAMinutes(),
		})
	}
	return t
}

func sleepTable(r *analysis.Result) table {
	t := table{
		name: "Sleep",
		header: []string{
			"participant_id", "sleep_period_id", "start_time", "end_time", "sleep_type",
			"total_duration_minutes", "estimated_sleep_duration_minutes",
			"sleep_efficiency_percentage", "awakening_count", "movement_mean",
			"movement_std", "sleep_quality_score",
		},
	}
	for _, c := range r.Sleep.Characteristics {
		t.rows = append(t.rows, []interface{}{
			r.Participant, c.PeriodID, c.StartTime, c.EndTime, string(c.Type),
			c.TotalMinutes, c.EstimatedSleepMinutes,
			c.Efficiency, c.AwakeningCount, c.Movement.Mean,
			c.Movement.Std, c.QualityScore,
		})
	}
	return t
}

func boutsTable(r *analysis.Result) table {
	t := table{
		name: "Bouts",
		header: []string{
			"participant_id", "bout_type", "start_time", "end_time", "duration_minutes",
			"sample_count", "mean_acceleration", "max_acceleration",
		},
	}
	for _, b := range r.Activity.Bouts.All() {
		t.rows = append(t.rows, []interface{}{
			r.Participant, string(b.Kind), b.StartTime, b.EndTime, b.DurationMinutes,
			b.SampleCount, b.Stats.Mean, b.Stats.Max,
		})
	}
	return t
}

func hourlyTable(r *analysis.Result) table {
	t := table{
		name: "Hourly",
		header: []string{
			"participant_id", "hour", "sample_count", "mean_acceleration", "std_acceleration",
			"max_acceleration", "sedentary_percentage", "light_percentage",
			"moderate_percentage", "vigorous_percentage",
		},
	}
	for _, h := range r.Activity.Hourly.Hours {
		t.rows = append(t.rows, []interface{}{
			r.Participant, h.Hour, h.SampleCount, h.MeanAcceleration, h.StdAcceleration,
			h.MaxAcceleration, h.SedentaryPercentage, h.LightPercentage,
			h.ModeratePercentage, h.VigorousPercentage,
		})
	}
	return t
}

// participantTables lists the per-participant exports in output order.
func participantTables(r *analysis.Result) []table {
	return []table{dailyTable(r), sleepTable(r), boutsTable(r), hourlyTable(r)}
}
