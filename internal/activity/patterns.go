package activity

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/activity.report/internal/accel"
)

// HourPattern summarises worn samples falling in one clock hour across all
// days of the recording.
type HourPattern struct {
	Hour                int     `json:"hour"`
	SampleCount         int     `json:"sample_count"`
	MeanAcceleration    float64 `json:"mean_acceleration"`
	StdAcceleration     float64 `json:"std_acceleration"`
	MaxAcceleration     float64 `json:"max_acceleration"`
	SedentaryPercentage float64 `json:"sedentary_percentage"`
	LightPercentage     float64 `json:"light_percentage"`
	ModeratePercentage  float64 `json:"moderate_percentage"`
	VigorousPercentage  float64 `json:"vigorous_percentage"`
}

// HourlyReport lists hours with data in ascending order plus the hours with
// the highest and lowest mean acceleration. Peak and Lowest are nil when no
// hour has data.
type HourlyReport struct {
	Hours  []HourPattern `json:"hourly_data"`
	Peak   *HourPattern  `json:"peak_activity,omitempty"`
	Lowest *HourPattern  `json:"lowest_activity,omitempty"`
}

// WeekdayPattern summarises worn samples falling on one day of the week.
type WeekdayPattern struct {
	Weekday          string  `json:"weekday"`
	SampleCount      int     `json:"sample_count"`
	MeanAcceleration float64 `json:"mean_acceleration"`
	MVPAMinutes      float64 `json:"total_mvpa_minutes"`
}

// weekOrder starts the week on Monday.
var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// HourlyPatterns groups worn samples by clock hour (in the series' location).
func HourlyPatterns(series accel.Series, worn []bool, bands Bands) HourlyReport {
	var (
		values [24][]float64
		counts [24][4]int
		totals [24]int
	)
	for i, smp := range series.Samples {
		if worn != nil && !worn[i] {
			continue
		}
		h := series.Time(i).Hour()
		totals[h]++
		v := smp.Acceleration
		if math.IsNaN(v) {
			continue
		}
		values[h] = append(values[h], v)
		counts[h][bands.Classify(v)]++
	}

	report := HourlyReport{Hours: []HourPattern{}}
	for h := 0; h < 24; h++ {
		if totals[h] == 0 {
			continue
		}
		p := HourPattern{Hour: h, SampleCount: totals[h]}
		if n := len(values[h]); n > 0 {
			p.MeanAcceleration = stat.Mean(values[h], nil)
			if n > 1 {
				p.StdAcceleration = stat.StdDev(values[h], nil)
			}
			p.MaxAcceleration = floats.Max(values[h])
			pct := func(l Intensity) float64 { return float64(counts[h][l]) / float64(totals[h]) * 100 }
			p.SedentaryPercentage = pct(Sedentary)
			p.LightPercentage = pct(Light)
			p.ModeratePercentage = pct(Moderate)
			p.VigorousPercentage = pct(Vigorous)
		}
		report.Hours = append(report.Hours, p)
	}

	for i := range report.Hours {
		p := &report.Hours[i]
		if report.Peak == nil || p.MeanAcceleration > report.Peak.MeanAcceleration {
			report.Peak = p
		}
		if report.Lowest == nil || p.MeanAcceleration < report.Lowest.MeanAcceleration {
			report.Lowest = p
		}
	}
	return report
}

// WeeklyPatterns groups worn samples by weekday, Monday first. Days without
// data are omitted.
func WeeklyPatterns(series accel.Series, worn []bool, bands Bands) []WeekdayPattern {
	type acc struct {
		n, finite, mvpa int
		sum             float64
	}
	var days [7]acc
	for i, smp := range series.Samples {
		if worn != nil && !worn[i] {
			continue
		}
		d := &days[series.Time(i).Weekday()]
		d.n++
		v := smp.Acceleration
		if math.IsNaN(v) {
			continue
		}
		d.finite++
		d.sum += v
		if bands.Classify(v).IsMVPA() {
			d.mvpa++
		}
	}

	out := []WeekdayPattern{}
	for _, wd := range weekOrder {
		d := days[wd]
		if d.n == 0 {
			continue
		}
		p := WeekdayPattern{
			Weekday:     wd.String(),
			SampleCount: d.n,
			MVPAMinutes: series.Minutes(d.mvpa),
		}
		if d.finite > 0 {
			p.MeanAcceleration = d.sum / float64(d.finite)
		}
		out = append(out, p)
	}
	return out
}
