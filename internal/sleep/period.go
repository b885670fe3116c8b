package sleep

import (
	"fmt"
	"sort"
	"time"

	"github.com/banshee-data/activity.report/internal/segment"
)

// Type labels a sleep period by timing and length.
type Type string

const (
	MainSleep    Type = "main_sleep"
	Nap          Type = "nap"
	DaytimeSleep Type = "daytime_sleep"
)

// Period is a rest segment that passed the plausibility filter.
type Period struct {
	Type Type `json:"sleep_type"`
	segment.Segment
}

// IsLikelySleep reports whether a rest period of the given length could be
// sleep: its duration must fall within the configured bounds, it must start
// in the evening window (at or after SleepWindowStartHour, or at or before
// EarlyOnsetHour) and it must end by SleepWindowEndHour.
func IsLikelySleep(start, end time.Time, hours float64, cfg Config) bool {
	if hours < cfg.MinSleepHours || hours > cfg.MaxSleepHours {
		return false
	}
	sh, eh := start.Hour(), end.Hour()
	startsInWindow := sh >= cfg.SleepWindowStartHour || sh <= cfg.EarlyOnsetHour
	endsInWindow := eh <= cfg.SleepWindowEndHour
	return startsInWindow && endsInWindow
}

// ClassifyType labels a period starting during the day (DaytimeStartHour to
// DaytimeEndHour inclusive) as a nap when it is short, daytime sleep
// otherwise. Every other onset is main sleep.
func ClassifyType(start time.Time, hours float64, cfg Config) Type {
	h := start.Hour()
	if h >= cfg.DaytimeStartHour && h <= cfg.DaytimeEndHour {
		if hours <= cfg.MaxNapHours {
			return Nap
		}
		return DaytimeSleep
	}
	return MainSleep
}

// IdentifyPeriods keeps the plausible rest segments, types them and returns
// them sorted by start time. Rejected segments are dropped entirely.
func IdentifyPeriods(rest []segment.Segment, cfg Config) []Period {
	out := []Period{}
	for _, r := range rest {
		hours := r.DurationHours()
		if !IsLikelySleep(r.StartTime, r.EndTime, hours, cfg) {
			continue
		}
		out = append(out, Period{Type: ClassifyType(r.StartTime, hours, cfg), Segment: r})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// String formats the period for logs.
func (p Period) String() string {
	return fmt.Sprintf("%s %s-%s (%.1fh)", p.Type, p.StartTime.Format("2006-01-02 15:04"), p.EndTime.Format("15:04"), p.DurationHours())
}
