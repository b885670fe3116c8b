// Package accel holds the sample model shared by every detector: a gap-free,
// fixed-interval acceleration series whose timestamps are implied by index.
package accel

import (
	"fmt"
	"math"
	"time"
)

// Sample is one epoch of a wearable recording. Acceleration is in milli-g.
type Sample struct {
	Acceleration float64 `json:"acceleration"`
	Imputed      bool    `json:"imputed"`
}

// Series is an ordered, gap-free run of samples at a fixed interval.
// Sample i was recorded at Start + i*Interval.
type Series struct {
	Start    time.Time
	Interval time.Duration
	Samples  []Sample
}

// NewSeries builds a series from raw acceleration values with no imputation.
func NewSeries(start time.Time, interval time.Duration, values []float64) Series {
	samples := make([]Sample, len(values))
	for i, v := range values {
		samples[i] = Sample{Acceleration: v}
	}
	return Series{Start: start, Interval: interval, Samples: samples}
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.Samples) }

// Time returns the timestamp of sample i.
func (s Series) Time(i int) time.Time {
	return s.Start.Add(time.Duration(i) * s.Interval)
}

// End returns the timestamp of the last sample, or Start for an empty series.
func (s Series) End() time.Time {
	if len(s.Samples) == 0 {
		return s.Start
	}
	return s.Time(len(s.Samples) - 1)
}

// IntervalSeconds returns Δt in seconds.
func (s Series) IntervalSeconds() float64 {
	return s.Interval.Seconds()
}

// Minutes converts a sample count into minutes at this series' interval.
func (s Series) Minutes(count int) float64 {
	return float64(count) * s.IntervalSeconds() / 60
}

// Hours converts a sample count into hours at this series' interval.
func (s Series) Hours(count int) float64 {
	return float64(count) * s.IntervalSeconds() / 3600
}

// Values returns a copy of the acceleration column.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = smp.Acceleration
	}
	return out
}

// Slice returns the samples in [lo, hi] inclusive as a new series that keeps
// absolute timing.
func (s Series) Slice(lo, hi int) Series {
	if lo < 0 {
		lo = 0
	}
	if hi >= len(s.Samples) {
		hi = len(s.Samples) - 1
	}
	if hi < lo {
		return Series{Start: s.Time(lo), Interval: s.Interval}
	}
	return Series{Start: s.Time(lo), Interval: s.Interval, Samples: s.Samples[lo : hi+1]}
}

// Validate reports structural problems that make the series unusable.
func (s Series) Validate() error {
	if s.Interval <= 0 {
		return &InputShapeError{Field: "interval", Reason: fmt.Sprintf("sampling interval must be positive, got %s", s.Interval)}
	}
	if s.Start.IsZero() {
		return &InputShapeError{Field: "timestamp", Reason: "series has no start time"}
	}
	if len(s.Samples) == 0 {
		return &InputShapeError{Field: "acceleration", Reason: "series has no samples"}
	}
	return nil
}

// InputShapeError marks a missing or malformed required input. Detectors that
// see one return an "unavailable" result instead of partial output.
type InputShapeError struct {
	Field  string
	Reason string
}

func (e *InputShapeError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

// Plausibility bounds for acceleration in mg.
const (
	ExtremeHighMG = 2000.0
	ExtremeLowMG  = -100.0
)

// DataFlags counts implausible values. Flagged samples stay in the
// computation; the counts are surfaced for quality reporting.
type DataFlags struct {
	NaNCount         int `json:"nan_count"`
	NegativeCount    int `json:"negative_count"`
	ExtremeHighCount int `json:"extreme_high_count"`
	ExtremeLowCount  int `json:"extreme_low_count"`
}

// Any reports whether any flag is raised.
func (f DataFlags) Any() bool {
	return f.NaNCount > 0 || f.NegativeCount > 0 || f.ExtremeHighCount > 0 || f.ExtremeLowCount > 0
}

// Flags scans the series for out-of-range acceleration values.
func Flags(s Series) DataFlags {
	var f DataFlags
	for _, smp := range s.Samples {
		v := smp.Acceleration
		switch {
		case math.IsNaN(v):
			f.NaNCount++
			continue
		case v > ExtremeHighMG:
			f.ExtremeHighCount++
		case v < ExtremeLowMG:
			f.ExtremeLowCount++
		}
		if v < 0 {
			f.NegativeCount++
		}
	}
	return f
}
