package sleep

import "gonum.org/v1/gonum/stat"

// MainSleepAverages are means over main-sleep periods only.
type MainSleepAverages struct {
	DurationHours  float64 `json:"average_sleep_duration_hours"`
	Efficiency     float64 `json:"average_sleep_efficiency"`
	AwakeningCount float64 `json:"average_awakening_count"`
	QualityScore   float64 `json:"average_sleep_quality_score"`
}

// Summary aggregates scored periods by type. Hours come from estimated
// sleep time, not time in bed.
type Summary struct {
	TotalPeriods    int                `json:"total_sleep_periods"`
	MainPeriods     int                `json:"main_sleep_periods"`
	NapPeriods      int                `json:"nap_periods"`
	TotalSleepHours float64            `json:"total_sleep_time_hours"`
	MainSleepHours  float64            `json:"main_sleep_time_hours"`
	NapHours        float64            `json:"nap_time_hours"`
	Main            *MainSleepAverages `json:"main_sleep,omitempty"`
}

// Summarize builds the summary. Main is nil when no main sleep was found.
func Summarize(chars []Characteristics) Summary {
	s := Summary{TotalPeriods: len(chars)}
	var dur, eff, awk, qual []float64
	for _, c := range chars {
		hours := c.EstimatedSleepMinutes / 60
		s.TotalSleepHours += hours
		switch c.Type {
		case MainSleep:
			s.MainPeriods++
			s.MainSleepHours += hours
			dur = append(dur, hours)
			eff = append(eff, c.Efficiency)
			awk = append(awk, float64(c.AwakeningCount))
			qual = append(qual, c.QualityScore)
		case Nap:
			s.NapPeriods++
			s.NapHours += hours
		}
	}
	if s.MainPeriods > 0 {
		s.Main = &MainSleepAverages{
			DurationHours:  stat.Mean(dur, nil),
			Efficiency:     stat.Mean(eff, nil),
			AwakeningCount: stat.Mean(awk, nil),
			QualityScore:   stat.Mean(qual, nil),
		}
	}
	return s
}
