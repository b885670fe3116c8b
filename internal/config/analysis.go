package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// Onset wrap policies for sleep regularity.
const (
	OnsetWrapNoon    = "noon"
	OnsetWrapEvening = "evening"
)

// AnalysisConfig holds every tunable threshold of the analysis pipeline.
// Fields omitted from JSON fall back to the defaults returned by the Get*
// methods, so partial configs are safe.
type AnalysisConfig struct {
	// Wear detection
	NonWearWindowSeconds *float64 `json:"non_wear_window_seconds,omitempty"`
	NonWearStdMG         *float64 `json:"non_wear_std_mg,omitempty"`

	// Intensity bands (lower bounds, inclusive)
	LightMG    *float64 `json:"light_mg,omitempty"`
	ModerateMG *float64 `json:"moderate_mg,omitempty"`
	VigorousMG *float64 `json:"vigorous_mg,omitempty"`

	// Bouts and guidelines
	MinActiveBoutMinutes    *float64 `json:"min_active_bout_minutes,omitempty"`
	MinSedentaryBoutMinutes *float64 `json:"min_sedentary_bout_minutes,omitempty"`
	WeeklyMVPAGuideline     *float64 `json:"weekly_mvpa_guideline_minutes,omitempty"`
	BoutMVPAGuideline       *float64 `json:"bout_mvpa_guideline_minutes,omitempty"`

	// Sleep detection
	RestWindowSeconds    *float64 `json:"rest_window_seconds,omitempty"`
	InactivityMG         *float64 `json:"inactivity_mg,omitempty"`
	MinRestMinutes       *float64 `json:"min_rest_minutes,omitempty"`
	MinSleepHours        *float64 `json:"min_sleep_hours,omitempty"`
	MaxSleepHours        *float64 `json:"max_sleep_hours,omitempty"`
	SleepWindowStartHour *int     `json:"sleep_window_start_hour,omitempty"`
	SleepWindowEndHour   *int     `json:"sleep_window_end_hour,omitempty"`
	EarlyOnsetHour       *int     `json:"early_onset_hour,omitempty"`
	AwakeningMG          *float64 `json:"awakening_mg,omitempty"`
	MinAwakeningMinutes  *float64 `json:"min_awakening_minutes,omitempty"`
	SleepMG              *float64 `json:"sleep_mg,omitempty"`
	OnsetWrap            *string  `json:"onset_wrap,omitempty"`
	MaxNapHours          *float64 `json:"max_nap_hours,omitempty"`
	DaytimeStartHour     *int     `json:"daytime_start_hour,omitempty"`
	DaytimeEndHour       *int     `json:"daytime_end_hour,omitempty"`

	// Quality assessment
	MinWearHoursPerDay *float64 `json:"min_wear_hours_per_day,omitempty"`
	MinValidDays       *int     `json:"min_valid_days,omitempty"`
	MaxImputationPct   *float64 `json:"max_imputation_percentage,omitempty"`
	MaxOutlierPct      *float64 `json:"max_outlier_percentage,omitempty"`
	LongNonWearMinutes *float64 `json:"long_non_wear_minutes,omitempty"`

	// Batch processing
	Workers *int `json:"workers,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }

// EmptyConfig returns an AnalysisConfig with all fields unset.
func EmptyConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/activity-report/
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	positive := map[string]*float64{
		"non_wear_window_seconds":    c.NonWearWindowSeconds,
		"rest_window_seconds":        c.RestWindowSeconds,
		"min_active_bout_minutes":    c.MinActiveBoutMinutes,
		"min_sedentary_bout_minutes": c.MinSedentaryBoutMinutes,
		"min_awakening_minutes":      c.MinAwakeningMinutes,
	}
	for name, v := range positive {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", name, *v)
		}
	}

	if c.NonWearStdMG != nil && *c.NonWearStdMG < 0 {
		return fmt.Errorf("non_wear_std_mg must be non-negative, got %f", *c.NonWearStdMG)
	}

	light, moderate, vigorous := c.GetLightMG(), c.GetModerateMG(), c.GetVigorousMG()
	if !(light < moderate && moderate < vigorous) {
		return fmt.Errorf("intensity bands must be increasing, got light=%g moderate=%g vigorous=%g", light, moderate, vigorous)
	}

	if c.GetMinSleepHours() > c.GetMaxSleepHours() {
		return fmt.Errorf("min_sleep_hours (%g) exceeds max_sleep_hours (%g)", c.GetMinSleepHours(), c.GetMaxSleepHours())
	}

	hours := map[string]*int{
		"sleep_window_start_hour": c.SleepWindowStartHour,
		"sleep_window_end_hour":   c.SleepWindowEndHour,
		"early_onset_hour":        c.EarlyOnsetHour,
		"daytime_start_hour":      c.DaytimeStartHour,
		"daytime_end_hour":        c.DaytimeEndHour,
	}
	for name, v := range hours {
		if v != nil && (*v < 0 || *v > 23) {
			return fmt.Errorf("%s must be between 0 and 23, got %d", name, *v)
		}
	}

	if c.OnsetWrap != nil {
		switch *c.OnsetWrap {
		case OnsetWrapNoon, OnsetWrapEvening:
		default:
			return fmt.Errorf("onset_wrap must be %q or %q, got %q", OnsetWrapNoon, OnsetWrapEvening, *c.OnsetWrap)
		}
	}

	if c.MinValidDays != nil && *c.MinValidDays < 0 {
		return fmt.Errorf("min_valid_days must be non-negative, got %d", *c.MinValidDays)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	return nil
}

func getFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func getInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// GetNonWearWindowSeconds returns the rolling window for wear detection (30 min).
func (c *AnalysisConfig) GetNonWearWindowSeconds() float64 {
	return getFloat(c.NonWearWindowSeconds, 1800)
}

// GetNonWearStdMG returns the rolling std below which a sample is unworn.
func (c *AnalysisConfig) GetNonWearStdMG() float64 { return getFloat(c.NonWearStdMG, 1.0) }

func (c *AnalysisConfig) GetLightMG() float64    { return getFloat(c.LightMG, 5) }
func (c *AnalysisConfig) GetModerateMG() float64 { return getFloat(c.ModerateMG, 40) }
func (c *AnalysisConfig) GetVigorousMG() float64 { return getFloat(c.VigorousMG, 100) }

// GetMinActiveBoutMinutes applies to moderate, vigorous and MVPA bouts.
func (c *AnalysisConfig) GetMinActiveBoutMinutes() float64 {
	return getFloat(c.MinActiveBoutMinutes, 10)
}

func (c *AnalysisConfig) GetMinSedentaryBoutMinutes() float64 {
	return getFloat(c.MinSedentaryBoutMinutes, 30)
}

func (c *AnalysisConfig) GetWeeklyMVPAGuideline() float64 {
	return getFloat(c.WeeklyMVPAGuideline, 150)
}

func (c *AnalysisConfig) GetBoutMVPAGuideline() float64 { return getFloat(c.BoutMVPAGuideline, 75) }

func (c *AnalysisConfig) GetRestWindowSeconds() float64 { return getFloat(c.RestWindowSeconds, 300) }
func (c *AnalysisConfig) GetInactivityMG() float64      { return getFloat(c.InactivityMG, 10) }
func (c *AnalysisConfig) GetMinRestMinutes() float64    { return getFloat(c.MinRestMinutes, 60) }
func (c *AnalysisConfig) GetMinSleepHours() float64     { return getFloat(c.MinSleepHours, 3) }
func (c *AnalysisConfig) GetMaxSleepHours() float64     { return getFloat(c.MaxSleepHours, 12) }
func (c *AnalysisConfig) GetSleepWindowStartHour() int  { return getInt(c.SleepWindowStartHour, 18) }
func (c *AnalysisConfig) GetSleepWindowEndHour() int    { return getInt(c.SleepWindowEndHour, 12) }
func (c *AnalysisConfig) GetEarlyOnsetHour() int        { return getInt(c.EarlyOnsetHour, 6) }
func (c *AnalysisConfig) GetAwakeningMG() float64       { return getFloat(c.AwakeningMG, 50) }

func (c *AnalysisConfig) GetMinAwakeningMinutes() float64 {
	return getFloat(c.MinAwakeningMinutes, 1)
}

func (c *AnalysisConfig) GetSleepMG() float64      { return getFloat(c.SleepMG, 20) }
func (c *AnalysisConfig) GetMaxNapHours() float64  { return getFloat(c.MaxNapHours, 2) }
func (c *AnalysisConfig) GetDaytimeStartHour() int { return getInt(c.DaytimeStartHour, 6) }
func (c *AnalysisConfig) GetDaytimeEndHour() int   { return getInt(c.DaytimeEndHour, 18) }

// GetOnsetWrap returns the onset wrap policy, defaulting to noon.
func (c *AnalysisConfig) GetOnsetWrap() string {
	if c.OnsetWrap == nil || *c.OnsetWrap == "" {
		return OnsetWrapNoon
	}
	return *c.OnsetWrap
}

func (c *AnalysisConfig) GetMinWearHoursPerDay() float64 {
	return getFloat(c.MinWearHoursPerDay, 10)
}

func (c *AnalysisConfig) GetMinValidDays() int { return getInt(c.MinValidDays, 4) }

func (c *AnalysisConfig) GetMaxImputationPct() float64 { return getFloat(c.MaxImputationPct, 20) }
func (c *AnalysisConfig) GetMaxOutlierPct() float64    { return getFloat(c.MaxOutlierPct, 1) }

func (c *AnalysisConfig) GetLongNonWearMinutes() float64 {
	return getFloat(c.LongNonWearMinutes, 120)
}

// GetWorkers returns the batch worker count (default 4).
func (c *AnalysisConfig) GetWorkers() int { return getInt(c.Workers, 4) }

// DefaultConfig returns a config with every field populated from the
// built-in defaults.
func DefaultConfig() *AnalysisConfig {
	e := EmptyConfig()
	return &AnalysisConfig{
		NonWearWindowSeconds:    ptrFloat64(e.GetNonWearWindowSeconds()),
		NonWearStdMG:            ptrFloat64(e.GetNonWearStdMG()),
		LightMG:                 ptrFloat64(e.GetLightMG()),
		ModerateMG:              ptrFloat64(e.GetModerateMG()),
		VigorousMG:              ptrFloat64(e.GetVigorousMG()),
		MinActiveBoutMinutes:    ptrFloat64(e.GetMinActiveBoutMinutes()),
		MinSedentaryBoutMinutes: ptrFloat64(e.GetMinSedentaryBoutMinutes()),
		WeeklyMVPAGuideline:     ptrFloat64(e.GetWeeklyMVPAGuideline()),
		BoutMVPAGuideline:       ptrFloat64(e.GetBoutMVPAGuideline()),
		RestWindowSeconds:       ptrFloat64(e.GetRestWindowSeconds()),
		InactivityMG:            ptrFloat64(e.GetInactivityMG()),
		MinRestMinutes:          ptrFloat64(e.GetMinRestMinutes()),
		MinSleepHours:           ptrFloat64(e.GetMinSleepHours()),
		MaxSleepHours:           ptrFloat64(e.GetMaxSleepHours()),
		SleepWindowStartHour:    ptrInt(e.GetSleepWindowStartHour()),
		SleepWindowEndHour:      ptrInt(e.GetSleepWindowEndHour()),
		EarlyOnsetHour:          ptrInt(e.GetEarlyOnsetHour()),
		AwakeningMG:             ptrFloat64(e.GetAwakeningMG()),
		MinAwakeningMinutes:     ptrFloat64(e.GetMinAwakeningMinutes()),
		SleepMG:                 ptrFloat64(e.GetSleepMG()),
		OnsetWrap:               ptrString(e.GetOnsetWrap()),
		MaxNapHours:             ptrFloat64(e.GetMaxNapHours()),
		DaytimeStartHour:        ptrInt(e.GetDaytimeStartHour()),
		DaytimeEndHour:          ptrInt(e.GetDaytimeEndHour()),
		MinWearHoursPerDay:      ptrFloat64(e.GetMinWearHoursPerDay()),
		MinValidDays:            ptrInt(e.GetMinValidDays()),
		MaxImputationPct:        ptrFloat64(e.GetMaxImputationPct()),
		MaxOutlierPct:           ptrFloat64(e.GetMaxOutlierPct()),
		LongNonWearMinutes:      ptrFloat64(e.GetLongNonWearMinutes()),
		Workers:                 ptrInt(e.GetWorkers()),
	}
}
