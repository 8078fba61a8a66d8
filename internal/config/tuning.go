// Package config loads and validates analysis tuning parameters.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for the analysis pipeline.
// Fields are pointers so a partial JSON file only overrides what it names;
// the Get* accessors supply defaults for everything else.
type TuningConfig struct {
	// Sampling
	SampleRate *float64 `json:"sample_rate,omitempty"` // frames per second

	// Worst-case windowing
	WindowDurations []string `json:"window_durations,omitempty"` // duration strings like "60s"
	IntensityMetric *string  `json:"intensity_metric,omitempty"` // speed, m_per_min, acceleration

	// Event alignment
	LookbackDuration     *string `json:"lookback_duration,omitempty"` // duration string like "30s"
	EventToleranceFrames *int64  `json:"event_tolerance_frames,omitempty"`

	// Data quality
	MaxPlausibleSpeed *float64 `json:"max_plausible_speed_mps,omitempty"`

	// Distance bands
	HSRThreshold    *float64 `json:"hsr_threshold_mps,omitempty"`
	SprintThreshold *float64 `json:"sprint_threshold_mps,omitempty"`

	// Execution
	WorkerCount *int `json:"worker_count,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must have
// a .json extension and stay under the max file size. Omitted fields keep
// their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
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

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *TuningConfig) Validate() error {
	if c.SampleRate != nil && *c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %f", *c.SampleRate)
	}

	for _, d := range c.WindowDurations {
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return fmt.Errorf("invalid window duration %q: %w", d, err)
		}
		if parsed <= 0 {
			return fmt.Errorf("window duration %q must be positive", d)
		}
	}

	if c.LookbackDuration != nil && *c.LookbackDuration != "" {
		if _, err := time.ParseDuration(*c.LookbackDuration); err != nil {
			return fmt.Errorf("invalid lookback_duration %q: %w", *c.LookbackDuration, err)
		}
	}

	if c.IntensityMetric != nil {
		switch *c.IntensityMetric {
		case "speed", "m_per_min", "acceleration":
		default:
			return fmt.Errorf("unknown intensity_metric %q", *c.IntensityMetric)
		}
	}

	if c.MaxPlausibleSpeed != nil && *c.MaxPlausibleSpeed <= 0 {
		return fmt.Errorf("max_plausible_speed_mps must be positive, got %f", *c.MaxPlausibleSpeed)
	}

	if c.HSRThreshold != nil && c.SprintThreshold != nil && *c.SprintThreshold < *c.HSRThreshold {
		return fmt.Errorf("sprint_threshold_mps (%f) must not be below hsr_threshold_mps (%f)",
			*c.SprintThreshold, *c.HSRThreshold)
	}

	if c.WorkerCount != nil && *c.WorkerCount < 1 {
		return fmt.Errorf("worker_count must be at least 1, got %d", *c.WorkerCount)
	}

	return nil
}

// GetSampleRate returns the configured frames-per-second or the SkillCorner
// default of 10.
func (c *TuningConfig) GetSampleRate() float64 {
	if c.SampleRate == nil {
		return 10.0
	}
	return *c.SampleRate
}

// GetWindowDurations parses and returns the configured window durations, or
// the conventional 1-5 minute ladder.
func (c *TuningConfig) GetWindowDurations() []time.Duration {
	if len(c.WindowDurations) == 0 {
		return []time.Duration{
			60 * time.Second,
			120 * time.Second,
			180 * time.Second,
			240 * time.Second,
			300 * time.Second,
		}
	}
	out := make([]time.Duration, 0, len(c.WindowDurations))
	for _, s := range c.WindowDurations {
		d, err := time.ParseDuration(s)
		if err != nil {
			continue // Validate rejects this earlier
		}
		out = append(out, d)
	}
	return out
}

// GetIntensityMetric returns the configured metric name or "m_per_min".
func (c *TuningConfig) GetIntensityMetric() string {
	if c.IntensityMetric == nil {
		return "m_per_min"
	}
	return *c.IntensityMetric
}

// GetLookbackDuration returns the lookback interval or the default 30s.
func (c *TuningConfig) GetLookbackDuration() time.Duration {
	if c.LookbackDuration == nil || *c.LookbackDuration == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(*c.LookbackDuration)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetEventToleranceFrames returns the nearest-event tolerance, or -1 meaning
// no tolerance bound.
func (c *TuningConfig) GetEventToleranceFrames() int64 {
	if c.EventToleranceFrames == nil {
		return -1
	}
	return *c.EventToleranceFrames
}

// GetMaxPlausibleSpeed returns the glitch-rejection bound or 20 m/s.
func (c *TuningConfig) GetMaxPlausibleSpeed() float64 {
	if c.MaxPlausibleSpeed == nil {
		return 20.0
	}
	return *c.MaxPlausibleSpeed
}

// GetHSRThreshold returns the high-speed-running threshold or 5.28 m/s.
func (c *TuningConfig) GetHSRThreshold() float64 {
	if c.HSRThreshold == nil {
		return 5.28
	}
	return *c.HSRThreshold
}

// GetSprintThreshold returns the sprint threshold or 6.39 m/s.
func (c *TuningConfig) GetSprintThreshold() float64 {
	if c.SprintThreshold == nil {
		return 6.39
	}
	return *c.SprintThreshold
}

// GetWorkerCount returns the fan-out width or 4.
func (c *TuningConfig) GetWorkerCount() int {
	if c.WorkerCount == nil {
		return 4
	}
	return *c.WorkerCount
}
