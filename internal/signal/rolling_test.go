package signal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowSamples(t *testing.T) {
	tests := []struct {
		window, interval float64
		want             int
	}{
		{1800, 5, 360},
		{300, 5, 60},
		{60, 5, 12},
		{3, 5, 1},
		{300, 0, 1},
		{7, 2, 3},
	}
	for _, tt := range tests {
		if got := WindowSamples(tt.window, tt.interval); got != tt.want {
			t.Errorf("WindowSamples(%v, %v) = %d, want %d", tt.window, tt.interval, got, tt.want)
		}
	}
}

func TestRollingMeanClipsAtStart(t *testing.T) {
	got := RollingMean([]float64{1, 2, 3, 4, 5}, 3)
	assert.InDeltaSlice(t, []float64{1, 1.5, 2, 3, 4}, got, 1e-12)
}

func TestRollingMeanEmpty(t *testing.T) {
	assert.Empty(t, RollingMean(nil, 3))
	assert.Empty(t, RollingStd([]float64{}, 3))
}

func TestRollingStdMatchesSampleStd(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	got := RollingStd(values, 4)

	require.Len(t, got, len(values))
	assert.Equal(t, 0.0, got[0], "single observation gives zero")
	for i := 1; i < len(values); i++ {
		lo := i - 3
		if lo < 0 {
			lo = 0
		}
		assert.InDelta(t, naiveStd(values[lo:i+1]), got[i], 1e-9, "index %d", i)
	}
}

func TestRollingStdConstantIsZero(t *testing.T) {
	values := make([]float64, 5000)
	for i := range values {
		values[i] = 2
	}
	for i, v := range RollingStd(values, 360) {
		if v != 0 {
			t.Fatalf("std[%d] = %v, want 0", i, v)
		}
	}
}

func TestRollingSkipsNaN(t *testing.T) {
	mean, std := RollingMeanStd([]float64{math.NaN(), 4, math.NaN(), 6}, 2)

	assert.True(t, math.IsNaN(mean[0]))
	assert.Equal(t, 0.0, std[0])
	assert.Equal(t, 4.0, mean[1])
	assert.Equal(t, 4.0, mean[2])
	assert.Equal(t, 6.0, mean[3])
}

func TestRollingIsDeterministic(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5}
	a := RollingStd(values, 4)
	b := RollingStd(values, 4)
	assert.Equal(t, a, b)
}

func naiveStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
