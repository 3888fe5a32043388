package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validConfigYAML = `
ip_address: 192.168.1.50
pigpio_daemon_port: 8888
gpio_pin_number: 17
num_flywheel_encoder_pulses_per_revolution: 6
machine_type: magnetic
flywheel_moment_of_inertia: 0.102
log_folder_path: /var/log/rower
`

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.50", cfg.IPAddress)
	assert.Equal(t, 6, cfg.NumFlywheelEncoderPulsesPerRevolution)
	assert.Equal(t, 0.102, cfg.FlywheelMomentOfInertia)
}

func TestLoadMissingFileIsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadUnknownMachineTypeIsConfigError(t *testing.T) {
	path := writeConfig(t, `
num_flywheel_encoder_pulses_per_revolution: 6
machine_type: hydraulic
flywheel_moment_of_inertia: 0.1
log_folder_path: /var/log/rower
`)
	_, err := Load(path)
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadNonPositivePulsesPerRevolutionIsConfigError(t *testing.T) {
	path := writeConfig(t, `
num_flywheel_encoder_pulses_per_revolution: 0
machine_type: magnetic
flywheel_moment_of_inertia: 0.1
log_folder_path: /var/log/rower
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestDampingEstimatorResolvesMagnetic(t *testing.T) {
	cfg := &Config{MachineType: MagneticMachine}
	estimator, err := cfg.DampingEstimator()
	require.NoError(t, err)
	assert.NotNil(t, estimator)
}

func TestGetGlitchFilterMicrosDefault(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 1000, cfg.GetGlitchFilterMicros())
}

func TestGetGlitchFilterMicrosOverride(t *testing.T) {
	width := 500
	cfg := &Config{GlitchFilterMicros: &width}
	assert.Equal(t, 500, cfg.GetGlitchFilterMicros())
}

func TestGetMinimumStrokeDurationDefault(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 1.0, cfg.GetMinimumStrokeDuration())
}
