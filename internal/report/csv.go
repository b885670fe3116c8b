package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/banshee-data/activity.report/internal/analysis"
)

func writeTableCSV(w io.Writer, t table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", t.name, err)
	}
	record := make([]string, len(t.header))
	for _, row := range t.rows {
		for i, v := range row {
			record[i] = formatCell(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write %s row: %w", t.name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDailyCSV writes one row per summarised date.
func WriteDailyCSV(w io.Writer, r *analysis.Result) error { return writeTableCSV(w, dailyTable(r)) }

// WriteSleepCSV writes one row per scored sleep period.
func WriteSleepCSV(w io.Writer, r *analysis.Result) error { return writeTableCSV(w, sleepTable(r)) }

// WriteBoutsCSV writes every activity bout, grouped by kind.
func WriteBoutsCSV(w io.Writer, r *analysis.Result) error { return writeTableCSV(w, boutsTable(r)) }

// WriteHourlyCSV writes one row per clock hour with worn data.
func WriteHourlyCSV(w io.Writer, r *analysis.Result) error { return writeTableCSV(w, hourlyTable(r)) }

// BatchRow is one participant's line in batch_summary.csv.
type BatchRow struct {
	Participant     string
	Status          string
	QualityScore    float64
	WearHours       float64
	MVPAMinutes     float64
	SleepHours      float64
	SleepEfficiency float64
}

// BatchRowFromResult extracts the headline metrics. Failed results keep
// zero metrics.
func BatchRowFromResult(r *analysis.Result) BatchRow {
	row := BatchRow{Participant: r.Participant, Status: r.Status}
	if !r.OK() {
		return row
	}
	if r.Quality != nil {
		row.QualityScore = r.Quality.Overall.Score
	}
	row.WearHours = r.Wear.WearHours
	row.MVPAMinutes = r.Activity.Summary.MVPAMinutes
	row.SleepHours = r.Sleep.Summary.TotalSleepHours
	if m := r.Sleep.Summary.Main; m != nil {
		row.SleepEfficiency = m.Efficiency
	}
	return row
}

// WriteBatchSummaryCSV writes the cross-participant summary.
func WriteBatchSummaryCSV(w io.Writer, rows []BatchRow) error {
	t := table{
		name: "Batch",
		header: []string{
			"participant_id", "processing_status", "quality_score", "wear_time_hours",
			"mvpa_minutes", "sleep_hours", "sleep_efficiency",
		},
	}
	for _, b := range rows {
		t.rows = append(t.rows, []interface{}{
			b.Participant, b.Status, b.QualityScore, b.WearHours,
			b.MVPAMinutes, b.SleepHours, b.SleepEfficiency,
		})
	}
	return writeTableCSV(w, t)
}
