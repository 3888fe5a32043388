// Package config loads and validates the structured configuration a
// workout session needs: hardware wiring for the live pulse source, the
// flywheel's physical parameters, and a handful of optional tunables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sergiomo/diy-rower-monitor/internal/machine"
	"github.com/sergiomo/diy-rower-monitor/internal/person"
)

// MachineType selects which DampingModelEstimator a session's MachineMetrics
// is built with.
type MachineType string

// MagneticMachine is the only machine type in the §6 configuration today;
// it resolves to a LinearDampingEstimator. The enum exists so new machine
// types (air, water) can add their own estimator without touching callers.
const MagneticMachine MachineType = "magnetic"

// ConfigError reports a problem with the configuration itself -- a missing
// file, an unknown machine type, or an out-of-range required field. Load
// returns it before any workout.Tracker is built.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("config: %v", e.Err) }
func (e *ConfigError) Unwrap() error { return e.Err }

// Config is the structured configuration for one workout session.
// Hardware-identifying fields are required; tunables are optional pointer
// fields with defaults supplied by their Get* accessor.
type Config struct {
	// Live pulse source wiring.
	IPAddress         string `yaml:"ip_address"`
	PigpioDaemonPort  int    `yaml:"pigpio_daemon_port"`
	GPIOPinNumber     int    `yaml:"gpio_pin_number"`

	// Flywheel physical parameters.
	NumFlywheelEncoderPulsesPerRevolution int         `yaml:"num_flywheel_encoder_pulses_per_revolution"`
	MachineType                           MachineType `yaml:"machine_type"`
	FlywheelMomentOfInertia               float64     `yaml:"flywheel_moment_of_inertia"`

	// Where session logs are written.
	LogFolderPath string `yaml:"log_folder_path"`

	// Optional tunables; nil selects the documented default.
	GlitchFilterMicros       *int     `yaml:"glitch_filter_us,omitempty"`
	ReplayPacingMillis       *int     `yaml:"replay_pacing_ms,omitempty"`
	MinimumStrokeDurationSec *float64 `yaml:"minimum_stroke_duration_sec,omitempty"`
}

// Load reads and validates a Config from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("reading %s: %w", path, err)}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("parsing %s: %w", path, err)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}
	return &cfg, nil
}

// Validate checks that every required field is present and in range. It
// does not touch the network or filesystem; that happens when the pulse
// source or log writer actually opens.
func (c *Config) Validate() error {
	if c.NumFlywheelEncoderPulsesPerRevolution < 1 {
		return fmt.Errorf("num_flywheel_encoder_pulses_per_revolution must be >= 1, got %d", c.NumFlywheelEncoderPulsesPerRevolution)
	}
	if c.FlywheelMomentOfInertia <= 0 {
		return fmt.Errorf("flywheel_moment_of_inertia must be positive, got %f", c.FlywheelMomentOfInertia)
	}
	if _, err := c.DampingEstimator(); err != nil {
		return err
	}
	if strings.TrimSpace(c.LogFolderPath) == "" {
		return fmt.Errorf("log_folder_path must not be empty")
	}
	return nil
}

// DampingEstimator resolves machine_type into the DampingEstimator
// implementation a MachineMetrics should be built with.
func (c *Config) DampingEstimator() (machine.DampingEstimator, error) {
	switch MachineType(strings.ToLower(string(c.MachineType))) {
	case MagneticMachine:
		return machine.LinearDampingEstimator{}, nil
	default:
		return nil, fmt.Errorf("unknown machine_type %q", c.MachineType)
	}
}

// GetGlitchFilterMicros returns the configured glitch-filter width, or the
// 1000us default the original hardware setup used.
func (c *Config) GetGlitchFilterMicros() int {
	if c.GlitchFilterMicros == nil {
		return 1000
	}
	return *c.GlitchFilterMicros
}

// GetReplayPacingDelay returns the delay a replay source should sleep
// between samples when pacing is enabled, or the ~16ms default that
// approximates real-time arrival at a typical stroke rate.
func (c *Config) GetReplayPacingDelay() time.Duration {
	if c.ReplayPacingMillis == nil {
		return 16 * time.Millisecond
	}
	return time.Duration(*c.ReplayPacingMillis) * time.Millisecond
}

// GetMinimumStrokeDuration returns the stroke-boundary debounce window a
// workout.Tracker built from this config should use, or PersonMetrics'
// documented default when the session doesn't override it.
func (c *Config) GetMinimumStrokeDuration() float64 {
	if c.MinimumStrokeDurationSec == nil {
		return person.DefaultMinimumStrokeDuration
	}
	return *c.MinimumStrokeDurationSec
}
