// Package quality grades a recording for completeness, wear compliance,
// signal integrity and plausibility of the activity profile.
package quality

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/activity.report/internal/accel"
)

// Outlier detection constants.
const (
	IQRMultiplier = 1.5
	ZScoreCutoff  = 3.0
)

// IQROutliers counts values outside the Tukey fences.
type IQROutliers struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// ZScoreOutliers counts values more than ZScoreCutoff deviations from the mean.
type ZScoreOutliers struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Outliers holds both outlier estimates.
type Outliers struct {
	IQR    IQROutliers    `json:"iqr_method"`
	ZScore ZScoreOutliers `json:"zscore_method"`
}

// Range describes the finite values of the series.
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Unrealistic counts physically implausible samples.
type Unrealistic struct {
	ExtremelyHigh int `json:"extremely_high"`
	ExtremelyLow  int `json:"extremely_low"`
}

// Integrity reports missing, imputed and anomalous samples.
type Integrity struct {
	MissingCount      int         `json:"missing_values_count"`
	MissingPercentage float64     `json:"missing_values_percentage"`
	ImputedCount      int         `json:"imputed_values_count"`
	ImputedPercentage float64     `json:"imputed_values_percentage"`
	ZeroCount         int         `json:"zero_values_count"`
	ZeroPercentage    float64     `json:"zero_values_percentage"`
	NegativeCount     int         `json:"negative_values_count"`
	Outliers          Outliers    `json:"outliers"`
	DataRange         Range       `json:"data_range"`
	Unrealistic       Unrealistic `json:"unrealistic_values"`
}

// AssessIntegrity inspects every sample. Percentages are relative to the full
// sample count; statistics use finite values only.
func AssessIntegrity(series accel.Series) Integrity {
	n := series.Len()
	var in Integrity
	if n == 0 {
		return in
	}
	pct := func(c int) float64 { return float64(c) / float64(n) * 100 }

	finite := make([]float64, 0, n)
	for _, s := range series.Samples {
		if s.Imputed {
			in.ImputedCount++
		}
		v := s.Acceleration
		if math.IsNaN(v) {
			in.MissingCount++
			continue
		}
		finite = append(finite, v)
		if v == 0 {
			in.ZeroCount++
		}
		if v < 0 {
			in.NegativeCount++
		}
	}
	in.MissingPercentage = pct(in.MissingCount)
	in.ImputedPercentage = pct(in.ImputedCount)
	in.ZeroPercentage = pct(in.ZeroCount)

	flags := accel.Flags(series)
	in.Unrealistic = Unrealistic{ExtremelyHigh: flags.ExtremeHighCount, ExtremelyLow: flags.ExtremeLowCount}

	if len(finite) == 0 {
		return in
	}
	in.DataRange = Range{
		Min:  floats.Min(finite),
		Max:  floats.Max(finite),
		Mean: stat.Mean(finite, nil),
	}
	if len(finite) > 1 {
		in.DataRange.Std = stat.StdDev(finite, nil)
	}
	in.Outliers = detectOutliers(finite, in.DataRange.Mean, in.DataRange.Std, pct)
	return in
}

func detectOutliers(finite []float64, mean, std float64, pct func(int) float64) Outliers {
	sorted := append([]float64(nil), finite...)
	sort.Float64s(sorted)
	q1 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	iqr := q3 - q1

	var o Outliers
	o.IQR.LowerBound = q1 - IQRMultiplier*iqr
	o.IQR.UpperBound = q3 + IQRMultiplier*iqr
	for _, v := range finite {
		if v < o.IQR.LowerBound || v > o.IQR.UpperBound {
			o.IQR.Count++
		}
		if std > 0 && math.Abs(v-mean)/std > ZScoreCutoff {
			o.ZScore.Count++
		}
	}
	o.IQR.Percentage = pct(o.IQR.Count)
	o.ZScore.Percentage = pct(o.ZScore.Count)
	return o
}
