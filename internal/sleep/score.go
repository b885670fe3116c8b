package sleep

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/activity.report/internal/accel"
	"github.com/banshee-data/activity.report/internal/segment"
)

// Penalty caps applied to the quality score.
const (
	MaxAwakeningPenalty = 20.0
	AwakeningPenaltyPer = 2.0
	MaxMovementPenalty  = 10.0
	MovementPenaltyRate = 10.0
)

// Movement summarises acceleration within a period.
type Movement struct {
	Mean        float64 `json:"mean_acceleration"`
	Std         float64 `json:"std_acceleration"`
	Variability float64 `json:"movement_variability"`
}

// Characteristics is the scored view of one sleep period.
type Characteristics struct {
	PeriodID              int               `json:"sleep_period_id"`
	StartTime             time.Time         `json:"start_time"`
	EndTime               time.Time         `json:"end_time"`
	Type                  Type              `json:"sleep_type"`
	TotalMinutes          float64           `json:"total_duration_minutes"`
	EstimatedSleepMinutes float64           `json:"estimated_sleep_duration_minutes"`
	Efficiency            float64           `json:"sleep_efficiency_percentage"`
	AwakeningCount        int               `json:"awakening_count"`
	Awakenings            []segment.Segment `json:"awakening_details"`
	Movement              Movement          `json:"movement_during_sleep"`
	AwakeningPenalty      float64           `json:"awakening_penalty"`
	MovementPenalty       float64           `json:"movement_penalty"`
	QualityScore          float64           `json:"sleep_quality_score"`
}

// AwakeningMask flags samples above the awakening threshold.
func AwakeningMask(series accel.Series, cfg Config) []bool {
	return segment.Mask(series.Len(), func(i int) bool {
		return series.Samples[i].Acceleration > cfg.AwakeningMG
	})
}

// Score computes awakenings, sleep efficiency, movement and the quality score
// for one period. The period's indices must refer to series. Scoring many
// periods of one series should build the mask once and use ScoreMasked.
func Score(p Period, series accel.Series, cfg Config) Characteristics {
	return ScoreMasked(p, series, AwakeningMask(series, cfg), cfg)
}

// ScoreMasked is Score with a precomputed AwakeningMask. Only the period's
// range of awake is read, so the cost is linear in the period length.
func ScoreMasked(p Period, series accel.Series, awake []bool, cfg Config, opts ...segment.Option) Characteristics {
	c := Characteristics{
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		Type:         p.Type,
		TotalMinutes: p.DurationMinutes,
		Awakenings:   []segment.Segment{},
	}

	lo, hi := p.StartIndex, p.EndIndex
	if lo < 0 || hi >= series.Len() || hi < lo {
		return c
	}

	c.Awakenings = segment.FilterMinDuration(
		segment.FindInRange(awake, series, lo, hi, opts...),
		cfg.MinAwakeningMinutes,
	)
	c.AwakeningCount = len(c.Awakenings)

	values := make([]float64, 0, hi-lo+1)
	asleep := 0
	for i := lo; i <= hi; i++ {
		v := series.Samples[i].Acceleration
		if math.IsNaN(v) {
			continue
		}
		values = append(values, v)
		if v <= cfg.SleepMG {
			asleep++
		}
	}
	c.EstimatedSleepMinutes = series.Minutes(asleep)
	if c.TotalMinutes > 0 {
		c.Efficiency = c.EstimatedSleepMinutes / c.TotalMinutes * 100
	}
	c.Movement = movement(values)

	c.AwakeningPenalty = math.Min(MaxAwakeningPenalty, AwakeningPenaltyPer*float64(c.AwakeningCount))
	c.MovementPenalty = math.Min(MaxMovementPenalty, MovementPenaltyRate*c.Movement.Variability)
	c.QualityScore = clamp(c.Efficiency-c.AwakeningPenalty-c.MovementPenalty, 0, 100)
	return c
}

func movement(values []float64) Movement {
	var m Movement
	if len(values) == 0 {
		return m
	}
	m.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		m.Std = stat.StdDev(values, nil)
	}
	if m.Mean > 0 {
		m.Variability = m.Std / m.Mean
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
