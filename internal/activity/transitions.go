package activity

// TransitionReport counts level changes over the worn sample sequence.
type TransitionReport struct {
	Total                  int            `json:"total_transitions"`
	Matrix                 map[string]int `json:"transition_matrix"`
	SedentaryBreaks        int            `json:"sedentary_breaks"`
	ActivityResumptions    int            `json:"activity_resumptions"`
	WornHours              float64        `json:"worn_hours"`
	PerHour                float64        `json:"transitions_per_hour"`
	SedentaryBreaksPerHour float64        `json:"sedentary_breaks_per_hour"`
}

// TransitionKey formats a matrix key such as "sedentary_to_light".
func TransitionKey(from, to Intensity) string {
	return from.String() + "_to_" + to.String()
}

// Transitions walks the worn samples in order, skipping non-wear, and counts
// every change of level. A break is sedentary to any other level; a
// resumption is any other level back to sedentary. Rates are per worn hour.
func Transitions(levels []Intensity, worn []bool, intervalSeconds float64) TransitionReport {
	r := TransitionReport{Matrix: map[string]int{}}

	prev := Unknown
	havePrev := false
	wornCount := 0
	for i, lvl := range levels {
		if worn != nil && !worn[i] {
			continue
		}
		wornCount++
		if havePrev && lvl != prev {
			r.Total++
			r.Matrix[TransitionKey(prev, lvl)]++
			switch {
			case prev == Sedentary:
				r.SedentaryBreaks++
			case lvl == Sedentary:
				r.ActivityResumptions++
			}
		}
		prev = lvl
		havePrev = true
	}

	r.WornHours = float64(wornCount) * intervalSeconds / 3600
	if r.WornHours > 0 {
		r.PerHour = float64(r.Total) / r.WornHours
		r.SedentaryBreaksPerHour = float64(r.SedentaryBreaks) / r.WornHours
	}
	return r
}
