package segment

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/activity.report/internal/accel"
)

var t0 = time.Date(2015, 8, 6, 10, 0, 0, 0, time.UTC)

func seriesOf(n int, interval time.Duration) accel.Series {
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i)
	}
	return accel.NewSeries(t0, interval, values)
}

func silent(string, ...interface{}) {}

func TestFind_InteriorRun(t *testing.T) {
	mask := []bool{false, false, true, true, true, false}
	s := seriesOf(len(mask), 5*time.Second)

	got := Find(mask, s)
	want := []Segment{{
		StartIndex:      2,
		EndIndex:        4,
		StartTime:       t0.Add(10 * time.Second),
		EndTime:         t0.Add(20 * time.Second),
		DurationMinutes: 0.25,
		SampleCount:     3,
		Stats:           Stats{Mean: 3, Min: 2, Max: 4},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Find mismatch (-want +got):\n%s", diff)
	}
}

func TestFind_AllTrueSpansSeries(t *testing.T) {
	mask := make([]bool, 10)
	for i := range mask {
		mask[i] = true
	}
	s := seriesOf(len(mask), 5*time.Second)

	got := Find(mask, s)
	if len(got) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(got))
	}
	seg := got[0]
	if seg.StartIndex != 0 || seg.EndIndex != 9 {
		t.Errorf("indices = %d..%d, want 0..9", seg.StartIndex, seg.EndIndex)
	}
	if seg.SampleCount != 10 {
		t.Errorf("SampleCount = %d, want 10", seg.SampleCount)
	}
	if seg.DurationMinutes*60 != 50 {
		t.Errorf("duration = %v s, want 50 s", seg.DurationMinutes*60)
	}
}

func TestFind_AllFalseIsEmpty(t *testing.T) {
	got := Find(make([]bool, 8), seriesOf(8, time.Second))
	if got == nil {
		t.Fatal("expected empty non-nil slice")
	}
	if len(got) != 0 {
		t.Errorf("expected no segments, got %d", len(got))
	}
}

func TestFind_EmptySeries(t *testing.T) {
	if got := Find(nil, accel.Series{Start: t0, Interval: time.Second}); len(got) != 0 {
		t.Errorf("expected no segments, got %d", len(got))
	}
}

func TestFind_SingleSample(t *testing.T) {
	got := Find([]bool{true}, seriesOf(1, 5*time.Second))
	if len(got) != 1 || got[0].StartIndex != 0 || got[0].EndIndex != 0 {
		t.Fatalf("unexpected segments %+v", got)
	}
}

func TestFind_LengthMismatch(t *testing.T) {
	var logged bool
	got := Find([]bool{true, true}, seriesOf(3, time.Second), WithLogger(func(string, ...interface{}) { logged = true }))
	if len(got) != 0 {
		t.Errorf("expected no segments, got %d", len(got))
	}
	if !logged {
		t.Error("expected a warning to be logged")
	}
}

func TestFind_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		mask []bool
		want [][2]int
	}{
		{"starts true", []bool{true, true, false, false}, [][2]int{{0, 1}}},
		{"ends true", []bool{false, false, true, true}, [][2]int{{2, 3}}},
		{"both edges", []bool{true, false, false, true}, [][2]int{{0, 0}, {3, 3}}},
		{"alternating", []bool{true, false, true, false, true}, [][2]int{{0, 0}, {2, 2}, {4, 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Find(tt.mask, seriesOf(len(tt.mask), time.Second))
			var idx [][2]int
			for _, s := range got {
				idx = append(idx, [2]int{s.StartIndex, s.EndIndex})
			}
			if diff := cmp.Diff(tt.want, idx); diff != "" {
				t.Errorf("indices mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Random masks: segments must cover exactly the true indices, never overlap,
// stay ordered, reach both series edges when the mask does, and obey the
// count*Δt/60 duration law.
func TestFind_RandomMaskProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 500; trial++ {
		n := 1 + rng.Intn(200)
		mask := make([]bool, n)
		density := rng.Float64()
		for i := range mask {
			mask[i] = rng.Float64() < density
		}
		s := seriesOf(n, 5*time.Second)
		segs := Find(mask, s)

		covered := make([]bool, n)
		prevEnd := -2
		for _, seg := range segs {
			if seg.EndIndex < seg.StartIndex {
				t.Fatalf("trial %d: end %d before start %d", trial, seg.EndIndex, seg.StartIndex)
			}
			if seg.StartIndex <= prevEnd+1 {
				t.Fatalf("trial %d: segment at %d overlaps or touches previous end %d", trial, seg.StartIndex, prevEnd)
			}
			prevEnd = seg.EndIndex
			if seg.SampleCount != seg.EndIndex-seg.StartIndex+1 {
				t.Fatalf("trial %d: sample count %d for %d..%d", trial, seg.SampleCount, seg.StartIndex, seg.EndIndex)
			}
			if seg.DurationMinutes != float64(seg.SampleCount)*5.0/60 {
				t.Fatalf("trial %d: duration %v for %d samples", trial, seg.DurationMinutes, seg.SampleCount)
			}
			for i := seg.StartIndex; i <= seg.EndIndex; i++ {
				covered[i] = true
			}
		}
		for i := range mask {
			if covered[i] != mask[i] {
				t.Fatalf("trial %d: index %d covered=%v mask=%v", trial, i, covered[i], mask[i])
			}
		}
		if mask[0] && segs[0].StartIndex != 0 {
			t.Fatalf("trial %d: leading run not captured", trial)
		}
		if mask[n-1] && segs[len(segs)-1].EndIndex != n-1 {
			t.Fatalf("trial %d: trailing run not captured", trial)
		}
	}
}

func TestFindInRange(t *testing.T) {
	mask := []bool{true, true, true, false, true, true, true, true}
	s := seriesOf(len(mask), time.Second)

	got := FindInRange(mask, s, 1, 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(got))
	}
	if got[0].StartIndex != 1 || got[0].EndIndex != 2 {
		t.Errorf("first = %d..%d, want 1..2", got[0].StartIndex, got[0].EndIndex)
	}
	if got[1].StartIndex != 4 || got[1].EndIndex != 5 {
		t.Errorf("second = %d..%d, want 4..5", got[1].StartIndex, got[1].EndIndex)
	}
}

func TestWithField(t *testing.T) {
	s := accel.Series{Start: t0, Interval: time.Second, Samples: []accel.Sample{
		{Acceleration: 1, Imputed: true},
		{Acceleration: 2, Imputed: false},
	}}
	imputed := func(smp accel.Sample) float64 {
		if smp.Imputed {
			return 1
		}
		return 0
	}
	got := Find([]bool{true, true}, s, WithField(imputed), WithLogger(silent))
	if got[0].Stats.Mean != 0.5 || got[0].Stats.Max != 1 || got[0].Stats.Min != 0 {
		t.Errorf("unexpected stats %+v", got[0].Stats)
	}
}

func TestStatsIgnoreNaN(t *testing.T) {
	s := accel.NewSeries(t0, time.Second, []float64{math.NaN(), 4, 8})
	got := Find([]bool{true, true, true}, s)
	if got[0].Stats.Mean != 6 {
		t.Errorf("Mean = %v, want 6", got[0].Stats.Mean)
	}

	allNaN := accel.NewSeries(t0, time.Second, []float64{math.NaN()})
	got = Find([]bool{true}, allNaN)
	if !math.IsNaN(got[0].Stats.Mean) {
		t.Errorf("Mean = %v, want NaN", got[0].Stats.Mean)
	}
}

func TestFilterAndTotal(t *testing.T) {
	segs := []Segment{{DurationMinutes: 5}, {DurationMinutes: 10}, {DurationMinutes: 30}}
	kept := FilterMinDuration(segs, 10)
	if len(kept) != 2 {
		t.Fatalf("expected 2 kept, got %d", len(kept))
	}
	if got := TotalMinutes(kept); got != 40 {
		t.Errorf("TotalMinutes = %v, want 40", got)
	}
	if got := FilterMinDuration(nil, 1); got == nil || len(got) != 0 {
		t.Errorf("expected empty slice, got %v", got)
	}
}

func TestFindIsDeterministic(t *testing.T) {
	mask := []bool{false, true, true, false, true}
	s := seriesOf(len(mask), 5*time.Second)
	if diff := cmp.Diff(Find(mask, s), Find(mask, s)); diff != "" {
		t.Errorf("repeated runs differ:\n%s", diff)
	}
}

func TestStatsJSONWritesNaNAsNull(t *testing.T) {
	b, err := json.Marshal(Stats{Mean: math.NaN(), Min: 1, Max: 2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got, want := string(b), `{"mean":null,"min":1,"max":2}`; got != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}

	var st Stats
	if err := json.Unmarshal(b, &st); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !math.IsNaN(st.Mean) || st.Min != 1 || st.Max != 2 {
		t.Errorf("Unmarshal = %+v", st)
	}
}
