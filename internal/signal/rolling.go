// Package signal smooths acceleration into trailing rolling windows.
//
// Windows are clipped at the series start (a minimum of one observation), so
// the first output equals the first input. NaN inputs are skipped; a window
// holding no finite value yields NaN. All transforms are O(n).
package signal

import "math"

// WindowSamples converts a window length in seconds to a sample count at the
// given sampling interval, never returning less than 1.
func WindowSamples(windowSeconds, intervalSeconds float64) int {
	if intervalSeconds <= 0 {
		return 1
	}
	n := int(windowSeconds / intervalSeconds)
	if n < 1 {
		return 1
	}
	return n
}

// window tracks count, sum and Welford moments over the finite values
// currently inside a trailing window.
type window struct {
	n    int
	sum  float64
	mean float64
	m2   float64
}

func (w *window) add(x float64) {
	if math.IsNaN(x) {
		return
	}
	w.n++
	w.sum += x
	delta := x - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (x - w.mean)
}

func (w *window) remove(x float64) {
	if math.IsNaN(x) {
		return
	}
	if w.n <= 1 {
		*w = window{}
		return
	}
	w.n--
	w.sum -= x
	delta := x - w.mean
	w.mean -= delta / float64(w.n)
	w.m2 -= delta * (x - w.mean)
	if w.m2 < 0 {
		w.m2 = 0
	}
}

func (w *window) avg() float64 {
	if w.n == 0 {
		return math.NaN()
	}
	return w.sum / float64(w.n)
}

// std is the sample standard deviation (n-1 denominator). Fewer than two
// observations give 0.
func (w *window) std() float64 {
	if w.n < 2 {
		return 0
	}
	return math.Sqrt(w.m2 / float64(w.n-1))
}

// RollingMean returns the trailing mean over size samples for each index.
func RollingMean(values []float64, size int) []float64 {
	out := make([]float64, len(values))
	roll(values, size, func(i int, w *window) { out[i] = w.avg() })
	return out
}

// RollingStd returns the trailing sample standard deviation over size samples
// for each index. Windows with fewer than two finite values give 0.
func RollingStd(values []float64, size int) []float64 {
	out := make([]float64, len(values))
	roll(values, size, func(i int, w *window) { out[i] = w.std() })
	return out
}

// RollingMeanStd computes both statistics in one pass.
func RollingMeanStd(values []float64, size int) (mean, std []float64) {
	mean = make([]float64, len(values))
	std = make([]float64, len(values))
	roll(values, size, func(i int, w *window) {
		mean[i] = w.avg()
		std[i] = w.std()
	})
	return mean, std
}

func roll(values []float64, size int, emit func(i int, w *window)) {
	if size < 1 {
		size = 1
	}
	var w window
	for i, x := range values {
		w.add(x)
		if i >= size {
			w.remove(values[i-size])
		}
		emit(i, &w)
	}
}
