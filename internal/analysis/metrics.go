package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/activity.report/internal/accel"
	"github.com/banshee-data/activity.report/internal/activity"
	"github.com/banshee-data/activity.report/internal/units"
)

// OutlierMG is the level above which the core quality metrics count a sample
// as an outlier.
const OutlierMG = 1000.0

// BasicMetrics summarises finite acceleration values, in g.
type BasicMetrics struct {
	Mean   float64 `json:"mean_acceleration"`
	Std    float64 `json:"std_acceleration"`
	Min    float64 `json:"min_acceleration"`
	Max    float64 `json:"max_acceleration"`
	Median float64 `json:"median_acceleration"`
}

// ComputeBasicMetrics returns zero metrics when no sample is finite.
func ComputeBasicMetrics(series accel.Series) BasicMetrics {
	g := make([]float64, 0, series.Len())
	for _, s := range series.Samples {
		if !math.IsNaN(s.Acceleration) {
			g = append(g, units.MGToG(s.Acceleration))
		}
	}
	var m BasicMetrics
	if len(g) == 0 {
		return m
	}
	m.Mean = stat.Mean(g, nil)
	if len(g) > 1 {
		m.Std = stat.StdDev(g, nil)
	}
	m.Min = floats.Min(g)
	m.Max = floats.Max(g)
	m.Median = median(g)
	return m
}

// median averages the two middle values of an even-length input.
func median(x []float64) float64 {
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// DaySummary covers one calendar date in the series' location.
type DaySummary struct {
	Date             string  `json:"date"`
	TotalSamples     int     `json:"total_samples"`
	WornSamples      int     `json:"wear_samples"`
	WearHours        float64 `json:"wear_time_hours"`
	MeanAcceleration float64 `json:"mean_acceleration"`
	MaxAcceleration  float64 `json:"max_acceleration"`
	ImputedSamples   int     `json:"imputed_samples"`
	Completeness     float64 `json:"data_completeness"`
	SedentaryMinutes float64 `json:"sedentary_minutes"`
	LightMinutes     float64 `json:"light_activity_minutes"`
	ModerateMinutes  float64 `json:"moderate_activity_minutes"`
	VigorousMinutes  float64 `json:"high_activity_minutes"`
}

// MVPAMinutes is moderate plus vigorous minutes.
func (d DaySummary) MVPAMinutes() float64 { return d.ModerateMinutes + d.VigorousMinutes }

// DailySummaries groups samples by date. Dates without a worn sample are
// omitted. Intensity minutes use the same bands as the activity analysis.
func DailySummaries(series accel.Series, worn []bool, bands activity.Bands) []DaySummary {
	type acc struct {
		DaySummary
		sum    float64
		finite int
		levels [4]int
	}
	var days []*acc
	index := map[string]*acc{}
	for i, s := range series.Samples {
		date := series.Time(i).Format("2006-01-02")
		d, ok := index[date]
		if !ok {
			d = &acc{DaySummary: DaySummary{Date: date, MaxAcceleration: math.Inf(-1)}}
			index[date] = d
			days = append(days, d)
		}
		d.TotalSamples++
		if s.Imputed {
			d.ImputedSamples++
		}
		if worn != nil && !worn[i] {
			continue
		}
		d.WornSamples++
		v := s.Acceleration
		if math.IsNaN(v) {
			continue
		}
		d.finite++
		d.sum += v
		d.MaxAcceleration = math.Max(d.MaxAcceleration, v)
		d.levels[bands.Classify(v)]++
	}

	out := []DaySummary{}
	for _, d := range days {
		if d.WornSamples == 0 {
			continue
		}
		ds := d.DaySummary
		ds.WearHours = series.Hours(d.WornSamples)
		ds.Completeness = float64(d.WornSamples) / float64(d.TotalSamples)
		if d.finite > 0 {
			ds.MeanAcceleration = d.sum / float64(d.finite)
		} else {
			ds.MaxAcceleration = 0
		}
		ds.SedentaryMinutes = series.Minutes(d.levels[activity.Sedentary])
		ds.LightMinutes = series.Minutes(d.levels[activity.Light])
		ds.ModerateMinutes = series.Minutes(d.levels[activity.Moderate])
		ds.VigorousMinutes = series.Minutes(d.levels[activity.Vigorous])
		out = append(out, ds)
	}
	return out
}

// CoreQuality is the quick quality score computed before the full
// assessment.
type CoreQuality struct {
	RecordingHours    float64 `json:"total_recording_hours"`
	CompletenessPct   float64 `json:"data_completeness_percentage"`
	ImputationPct     float64 `json:"imputation_percentage"`
	WearCompliancePct float64 `json:"wear_compliance_percentage"`
	ValidDays         int     `json:"valid_days"`
	OutlierCount      int     `json:"outlier_count"`
	ZeroCount         int     `json:"zero_values_count"`
	Score             float64 `json:"overall_quality_score"`
}

// ComputeCoreQuality weights completeness 0.3, wear 0.4, non-imputed share
// 0.2 and valid days 0.1, where five valid days score full marks.
func ComputeCoreQuality(series accel.Series, wearPct float64, days []DaySummary, minWearHours float64) CoreQuality {
	n := series.Len()
	q := CoreQuality{RecordingHours: series.Hours(n), WearCompliancePct: wearPct}
	if n == 0 {
		return q
	}
	var missing, imputed int
	for _, s := range series.Samples {
		if s.Imputed {
			imputed++
		}
		switch v := s.Acceleration; {
		case math.IsNaN(v):
			missing++
		case v > OutlierMG:
			q.OutlierCount++
		case v == 0:
			q.ZeroCount++
		}
	}
	q.CompletenessPct = (1 - float64(missing)/float64(n)) * 100
	q.ImputationPct = float64(imputed) / float64(n) * 100
	for _, d := range days {
		if d.WearHours >= minWearHours {
			q.ValidDays++
		}
	}

	score := q.CompletenessPct*0.3 +
		q.WearCompliancePct*0.4 +
		math.Max(0, 100-q.ImputationPct)*0.2 +
		math.Min(100, float64(q.ValidDays)*20)*0.1
	q.Score = math.Round(score*10) / 10
	return q
}
