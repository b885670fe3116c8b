package wear

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/activity.report/internal/accel"
	"github.com/banshee-data/activity.report/internal/monitoring"
)

var t0 = time.Date(2015, 8, 6, 0, 0, 0, 0, time.UTC)

const perDay = 24 * 60 * 60 / 5

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// varied alternates around base so the rolling std is far above 1 mg.
func varied(n int, base float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = base + 10
		} else {
			out[i] = base - 10
		}
	}
	return out
}

func TestDetect_ConstantSignalIsUnworn(t *testing.T) {
	s := accel.NewSeries(t0, 5*time.Second, constant(perDay, 2))
	r := Detect(s)

	require.Equal(t, StatusOK, r.Status)
	assert.Equal(t, 0.0, r.WearPercentage)
	assert.Equal(t, 0.0, r.WearHours)
	assert.InDelta(t, 24.0, r.NonWearHours, 1e-9)
	require.Len(t, r.NonWearSegments, 1)
	assert.Equal(t, 0, r.NonWearSegments[0].StartIndex)
	assert.Equal(t, perDay-1, r.NonWearSegments[0].EndIndex)
}

func TestDetect_VariedSignalIsWornExceptFirstSample(t *testing.T) {
	s := accel.NewSeries(t0, 5*time.Second, varied(1000, 50))
	r := Detect(s)

	require.Len(t, r.NonWearSegments, 1, "single-sample window has zero std")
	assert.Equal(t, 0, r.NonWearSegments[0].StartIndex)
	assert.Equal(t, 0, r.NonWearSegments[0].EndIndex)
	assert.Equal(t, 999, r.WornCount())
	assert.InDelta(t, 99.9, r.WearPercentage, 1e-9)
}

func TestDetect_FindsStillPeriod(t *testing.T) {
	// 2h active, 2h on a table, 2h active
	n := 2 * 3600 / 5
	values := append(append(varied(n, 50), constant(n, 3)...), varied(n, 50)...)
	s := accel.NewSeries(t0, 5*time.Second, values)

	r := Detect(s)
	require.Len(t, r.NonWearSegments, 2)

	still := r.NonWearSegments[1]
	window := 1800 / 5
	// The trailing window needs a full 30 minutes of still data before the
	// std drops below threshold.
	assert.Equal(t, n+window-1, still.StartIndex)
	assert.Equal(t, 2*n-1, still.EndIndex)
	assert.Equal(t, 3.0, still.Stats.Mean)
}

func TestDetect_InvalidSeriesIsUnavailable(t *testing.T) {
	r := Detect(accel.Series{Start: t0, Interval: 5 * time.Second})
	assert.Equal(t, StatusUnavailable, r.Status)
	assert.NotEmpty(t, r.Error)
	assert.NotNil(t, r.NonWearSegments)
	assert.Zero(t, r.WearHours)
}

func TestDetect_Idempotent(t *testing.T) {
	values := varied(2000, 30)
	for i := 500; i < 1200; i++ {
		values[i] = 4
	}
	s := accel.NewSeries(t0, 5*time.Second, values)
	a, b := Detect(s), Detect(s)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("repeated detection differs:\n%s", diff)
	}
}

func TestDetect_NaNDoesNotPanic(t *testing.T) {
	values := varied(100, 50)
	values[10] = math.NaN()
	r := Detect(accel.NewSeries(t0, 5*time.Second, values))
	assert.Equal(t, StatusOK, r.Status)
}

func TestDetector_UsesInjectedLogger(t *testing.T) {
	var lines int
	d := NewDetector(DefaultConfig(), func(string, ...interface{}) { lines++ })
	d.Detect(accel.NewSeries(t0, 5*time.Second, varied(10, 50)))
	assert.Equal(t, 1, lines)

	var fallback monitoring.LogFunc
	assert.NotPanics(t, func() {
		(&Detector{Config: DefaultConfig(), Logf: fallback}).Detect(accel.NewSeries(t0, 5*time.Second, varied(10, 50)))
	})
}
