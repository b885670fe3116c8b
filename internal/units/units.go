// Package units provides shared constants and conversions for acceleration units
package units

import (
	"fmt"
	"strings"
)

// Unit constants
const (
	MG  = "mg"  // milli-g, the analysis unit
	G   = "g"   // standard gravity
	MS2 = "ms2" // metres per second squared
)

// StandardGravity is 1 g in m/s².
const StandardGravity = 9.80665

// ValidUnits contains all valid unit values
var ValidUnits = []string{MG, G, MS2}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// Normalize maps the unit labels found in file headers onto a unit constant.
func Normalize(label string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "mg", "milli-g", "millig":
		return MG, nil
	case "g":
		return G, nil
	case "ms2", "m/s2", "m/s^2", "m/s²", "mps2":
		return MS2, nil
	}
	return "", fmt.Errorf("unsupported acceleration unit %q (valid: %s)", label, GetValidUnitsString())
}

// ToMG converts an acceleration in the given unit to mg.
// Unknown units are returned unchanged.
func ToMG(v float64, unit string) float64 {
	switch unit {
	case G:
		return v * 1000
	case MS2:
		return v / StandardGravity * 1000
	default:
		return v
	}
}

// MGToG converts milli-g to g.
func MGToG(mg float64) float64 {
	return mg / 1000
}
