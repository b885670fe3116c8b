package activity

import (
	"github.com/banshee-data/activity.report/internal/accel"
	"github.com/banshee-data/activity.report/internal/segment"
)

// BoutKind names the level set a bout was detected over.
type BoutKind string

const (
	BoutModerate  BoutKind = "moderate"
	BoutVigorous  BoutKind = "vigorous"
	BoutMVPA      BoutKind = "mvpa"
	BoutSedentary BoutKind = "sedentary"
)

// BoutKinds lists bout kinds in report order.
var BoutKinds = []BoutKind{BoutModerate, BoutVigorous, BoutMVPA, BoutSedentary}

// Bout is a sustained run of samples at a level set.
type Bout struct {
	Kind BoutKind `json:"kind"`
	segment.Segment
}

// Bouts groups detected bouts by kind.
type Bouts struct {
	Moderate  []Bout `json:"moderate_bouts"`
	Vigorous  []Bout `json:"vigorous_bouts"`
	MVPA      []Bout `json:"mvpa_bouts"`
	Sedentary []Bout `json:"sedentary_bouts"`
}

// ByKind returns the bouts of one kind.
func (b Bouts) ByKind(kind BoutKind) []Bout {
	switch kind {
	case BoutModerate:
		return b.Moderate
	case BoutVigorous:
		return b.Vigorous
	case BoutMVPA:
		return b.MVPA
	case BoutSedentary:
		return b.Sedentary
	}
	return nil
}

// All returns every bout, grouped in BoutKinds order.
func (b Bouts) All() []Bout {
	var out []Bout
	for _, k := range BoutKinds {
		out = append(out, b.ByKind(k)...)
	}
	return out
}

// BoutCriteria sets the minimum bout lengths in minutes.
type BoutCriteria struct {
	MinActiveMinutes    float64 `json:"min_active_minutes"`
	MinSedentaryMinutes float64 `json:"min_sedentary_minutes"`
}

// DefaultBoutCriteria is 10 minutes for active bouts and 30 for sedentary.
func DefaultBoutCriteria() BoutCriteria {
	return BoutCriteria{MinActiveMinutes: 10, MinSedentaryMinutes: 30}
}

// DetectBouts finds bouts for each kind. Only worn samples are eligible, so
// a non-wear sample ends a bout. A nil worn mask treats every sample as worn.
func DetectBouts(levels []Intensity, worn []bool, series accel.Series, criteria BoutCriteria, opts ...segment.Option) Bouts {
	isWorn := func(i int) bool { return worn == nil || worn[i] }
	find := func(kind BoutKind, minMinutes float64, pred func(Intensity) bool) []Bout {
		mask := segment.Mask(len(levels), func(i int) bool {
			return isWorn(i) && pred(levels[i])
		})
		segs := segment.FilterMinDuration(segment.Find(mask, series, opts...), minMinutes)
		bouts := make([]Bout, len(segs))
		for i, s := range segs {
			bouts[i] = Bout{Kind: kind, Segment: s}
		}
		return bouts
	}

	return Bouts{
		Moderate:  find(BoutModerate, criteria.MinActiveMinutes, func(l Intensity) bool { return l == Moderate }),
		Vigorous:  find(BoutVigorous, criteria.MinActiveMinutes, func(l Intensity) bool { return l == Vigorous }),
		MVPA:      find(BoutMVPA, criteria.MinActiveMinutes, Intensity.IsMVPA),
		Sedentary: find(BoutSedentary, criteria.MinSedentaryMinutes, func(l Intensity) bool { return l == Sedentary }),
	}
}

// totalMinutes sums bout durations.
func totalMinutes(bouts []Bout) float64 {
	var total float64
	for _, b := range bouts {
		total += b.DurationMinutes
	}
	return total
}
