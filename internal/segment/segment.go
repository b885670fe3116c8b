// Package segment turns per-sample boolean masks into maximal contiguous runs.
//
// It is the single run-length pass shared by wear, bout and sleep detection.
package segment

import (
	"encoding/json"
	"math"
	"time"

	"github.com/banshee-data/activity.report/internal/accel"
	"github.com/banshee-data/activity.report/internal/monitoring"
)

// Stats summarises a field over the samples of one segment. NaN values are
// ignored; a segment with no finite values reports NaN.
type Stats struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

type statsJSON struct {
	Mean *float64 `json:"mean"`
	Min  *float64 `json:"min"`
	Max  *float64 `json:"max"`
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// MarshalJSON writes NaN statistics as null.
func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(statsJSON{Mean: finiteOrNil(s.Mean), Min: finiteOrNil(s.Min), Max: finiteOrNil(s.Max)})
}

// UnmarshalJSON reads null statistics back as NaN.
func (s *Stats) UnmarshalJSON(b []byte) error {
	var j statsJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	*s = Stats{Mean: orNaN(j.Mean), Min: orNaN(j.Min), Max: orNaN(j.Max)}
	return nil
}

// Segment is a maximal run of true mask values. Indices are inclusive.
type Segment struct {
	StartIndex      int       `json:"start_index"`
	EndIndex        int       `json:"end_index"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes float64   `json:"duration_minutes"`
	SampleCount     int       `json:"sample_count"`
	Stats           Stats     `json:"stats"`
}

// DurationHours returns the segment duration in hours.
func (s Segment) DurationHours() float64 {
	return s.DurationMinutes / 60
}

// Field extracts the value summarised by Stats from a sample.
type Field func(accel.Sample) float64

// Acceleration is the default summary field.
func Acceleration(s accel.Sample) float64 { return s.Acceleration }

type options struct {
	field Field
	logf  func(format string, v ...interface{})
}

// Option configures a segmentation pass.
type Option func(*options)

// WithField summarises a different per-sample value.
func WithField(f Field) Option {
	return func(o *options) {
		if f != nil {
			o.field = f
		}
	}
}

// WithLogger routes mask-shape warnings to logf.
func WithLogger(logf func(format string, v ...interface{})) Option {
	return func(o *options) {
		if logf != nil {
			o.logf = logf
		}
	}
}

// Find returns every maximal run where mask is true, in time order.
// The mask must be aligned with the series; a length mismatch yields no
// segments. An all-false mask yields an empty, non-nil slice.
func Find(mask []bool, series accel.Series, opts ...Option) []Segment {
	if len(mask) != series.Len() {
		o := buildOptions(opts)
		o.logf("segment: mask length %d does not match series length %d", len(mask), series.Len())
		return []Segment{}
	}
	return FindInRange(mask, series, 0, len(mask)-1, opts...)
}

// FindInRange segments only indices lo..hi (inclusive) of the mask. Returned
// indices are absolute. A run touching lo or hi is closed at that bound.
func FindInRange(mask []bool, series accel.Series, lo, hi int, opts ...Option) []Segment {
	o := buildOptions(opts)
	segs := []Segment{}
	if len(mask) != series.Len() {
		o.logf("segment: mask length %d does not match series length %d", len(mask), series.Len())
		return segs
	}
	if lo < 0 {
		lo = 0
	}
	if hi > len(mask)-1 {
		hi = len(mask) - 1
	}
	if hi < lo {
		return segs
	}

	start := -1
	for i := lo; i <= hi; i++ {
		switch {
		case mask[i] && start < 0:
			start = i
		case !mask[i] && start >= 0:
			segs = append(segs, build(series, start, i-1, o.field))
			start = -1
		}
	}
	if start >= 0 {
		segs = append(segs, build(series, start, hi, o.field))
	}
	return segs
}

func buildOptions(opts []Option) options {
	o := options{field: Acceleration, logf: monitoring.Logf}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func build(series accel.Series, start, end int, field Field) Segment {
	count := end - start + 1
	return Segment{
		StartIndex:      start,
		EndIndex:        end,
		StartTime:       series.Time(start),
		EndTime:         series.Time(end),
		DurationMinutes: series.Minutes(count),
		SampleCount:     count,
		Stats:           summarise(series.Samples[start:end+1], field),
	}
}

func summarise(samples []accel.Sample, field Field) Stats {
	var (
		sum float64
		n   int
		st  = Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	)
	for _, s := range samples {
		v := field(s)
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
	}
	if n == 0 {
		return Stats{Mean: math.NaN(), Min: math.NaN(), Max: math.NaN()}
	}
	st.Mean = sum / float64(n)
	return st
}

// FilterMinDuration keeps segments lasting at least minMinutes.
func FilterMinDuration(segs []Segment, minMinutes float64) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		if s.DurationMinutes >= minMinutes {
			out = append(out, s)
		}
	}
	return out
}

// TotalMinutes sums segment durations.
func TotalMinutes(segs []Segment) float64 {
	var total float64
	for _, s := range segs {
		total += s.DurationMinutes
	}
	return total
}

// Mask builds a mask by applying pred to every sample index.
func Mask(n int, pred func(i int) bool) []bool {
	m := make([]bool, n)
	for i := range m {
		m[i] = pred(i)
	}
	return m
}
