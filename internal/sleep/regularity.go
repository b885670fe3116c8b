package sleep

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/activity.report/internal/config"
)

// Regularity status values.
const (
	RegularityOK           = "ok"
	RegularityInsufficient = "insufficient_data"
)

// MinRegularityNights is the number of main-sleep periods needed.
const MinRegularityNights = 2

// Regularity describes night-to-night timing consistency. Only Status and
// Nights are set when there is not enough data.
type Regularity struct {
	Status           string  `json:"status"`
	Nights           int     `json:"nights"`
	OnsetWrap        string  `json:"onset_wrap,omitempty"`
	OnsetVariability float64 `json:"sleep_onset_variability_hours"`
	WakeVariability  float64 `json:"wake_time_variability_hours"`
	AverageOnsetHour float64 `json:"average_sleep_onset_hour"`
	AverageWakeHour  float64 `json:"average_wake_time_hour"`
	OnsetCV          float64 `json:"onset_cv"`
	WakeCV           float64 `json:"wake_cv"`
	RegularityIndex  float64 `json:"sleep_regularity_index"`
}

// ClockHour returns the time of day as decimal hours, ignoring seconds.
func ClockHour(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60
}

// WrapOnset shifts late onset hours below zero so a night spanning midnight
// averages to a continuous value. The noon policy shifts hours above 12; the
// evening policy shifts hours at or after 18, leaving afternoon onsets on the
// same day.
func WrapOnset(h float64, policy string) float64 {
	switch policy {
	case config.OnsetWrapEvening:
		if h >= 18 {
			return h - 24
		}
	default:
		if h > 12 {
			return h - 24
		}
	}
	return h
}

// ComputeRegularity measures onset and wake variability over main-sleep
// periods. Variability is the population standard deviation in hours.
func ComputeRegularity(periods []Period, policy string) Regularity {
	var onsets, wakes []float64
	for _, p := range periods {
		if p.Type != MainSleep {
			continue
		}
		onsets = append(onsets, WrapOnset(ClockHour(p.StartTime), policy))
		wakes = append(wakes, ClockHour(p.EndTime))
	}
	if len(onsets) < MinRegularityNights {
		return Regularity{Status: RegularityInsufficient, Nights: len(onsets)}
	}
	if policy == "" {
		policy = config.OnsetWrapNoon
	}

	onsetMean, onsetStd := stat.PopMeanStdDev(onsets, nil)
	wakeMean, wakeStd := stat.PopMeanStdDev(wakes, nil)

	r := Regularity{
		Status:           RegularityOK,
		Nights:           len(onsets),
		OnsetWrap:        policy,
		OnsetVariability: onsetStd,
		WakeVariability:  wakeStd,
		AverageOnsetHour: math.Mod(onsetMean+24, 24),
		AverageWakeHour:  wakeMean,
		OnsetCV:          cv(onsetStd, onsetMean),
		WakeCV:           cv(wakeStd, wakeMean),
	}
	r.RegularityIndex = clamp(100-100*(r.OnsetCV+r.WakeCV)/2, 0, 100)
	return r
}

func cv(std, mean float64) float64 {
	if mean == 0 {
		return 0
	}
	return std / math.Abs(mean)
}
