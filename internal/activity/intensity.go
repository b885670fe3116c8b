// Package activity classifies acceleration into intensity levels and extracts
// sustained bouts, level transitions and time-of-day patterns from worn time.
package activity

import (
	"fmt"
	"math"

	"github.com/banshee-data/activity.report/internal/accel"
)

// Intensity is an ordered activity level.
type Intensity int

const (
	Unknown   Intensity = -1
	Sedentary Intensity = 0
	Light     Intensity = 1
	Moderate  Intensity = 2
	Vigorous  Intensity = 3
)

// Levels lists the defined intensities in ascending order.
var Levels = []Intensity{Sedentary, Light, Moderate, Vigorous}

func (i Intensity) String() string {
	switch i {
	case Sedentary:
		return "sedentary"
	case Light:
		return "light"
	case Moderate:
		return "moderate"
	case Vigorous:
		return "vigorous"
	default:
		return "unknown"
	}
}

// MarshalText encodes the level by name.
func (i Intensity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText decodes a level name.
func (i *Intensity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "sedentary":
		*i = Sedentary
	case "light":
		*i = Light
	case "moderate":
		*i = Moderate
	case "vigorous":
		*i = Vigorous
	case "unknown":
		*i = Unknown
	default:
		return fmt.Errorf("unknown intensity %q", string(b))
	}
	return nil
}

// IsMVPA reports whether the level is moderate or vigorous.
func (i Intensity) IsMVPA() bool { return i >= Moderate }

// Bands holds the inclusive lower bound (mg) of each non-sedentary level.
type Bands struct {
	Light    float64 `json:"light_mg"`
	Moderate float64 `json:"moderate_mg"`
	Vigorous float64 `json:"vigorous_mg"`
}

// DefaultBands are 5, 40 and 100 mg.
func DefaultBands() Bands {
	return Bands{Light: 5, Moderate: 40, Vigorous: 100}
}

// Classify maps an acceleration in mg to exactly one level. Boundary values
// belong to the higher band. NaN maps to Unknown.
func (b Bands) Classify(mg float64) Intensity {
	switch {
	case math.IsNaN(mg):
		return Unknown
	case mg < b.Light:
		return Sedentary
	case mg < b.Moderate:
		return Light
	case mg < b.Vigorous:
		return Moderate
	default:
		return Vigorous
	}
}

// Classify uses the default bands.
func Classify(mg float64) Intensity {
	return DefaultBands().Classify(mg)
}

// Classification is the per-sample level sequence plus data-quality flags.
type Classification struct {
	Levels       []Intensity     `json:"-"`
	Counts       map[string]int  `json:"counts"`
	UnknownCount int             `json:"unknown_count"`
	Flags        accel.DataFlags `json:"data_flags"`
}

// HasQualityIssues reports whether any sample was unclassifiable or
// implausible.
func (c Classification) HasQualityIssues() bool {
	return c.UnknownCount > 0 || c.Flags.Any()
}

// ClassifySeries classifies every sample of the series.
func ClassifySeries(series accel.Series, bands Bands) Classification {
	c := Classification{
		Levels: make([]Intensity, series.Len()),
		Counts: make(map[string]int, len(Levels)),
		Flags:  accel.Flags(series),
	}
	for _, lvl := range Levels {
		c.Counts[lvl.String()] = 0
	}
	for i, smp := range series.Samples {
		lvl := bands.Classify(smp.Acceleration)
		c.Levels[i] = lvl
		if lvl == Unknown {
			c.UnknownCount++
			continue
		}
		c.Counts[lvl.String()]++
	}
	return c
}
