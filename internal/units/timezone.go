package units

import (
	"fmt"
	"time"
)

// LoadLocation resolves the zone used to interpret header timestamps, which
// carry no offset. An empty name means UTC.
func LoadLocation(tz string) (*time.Location, error) {
	if tz == "" || tz == "UTC" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", tz, err)
	}
	return loc, nil
}
