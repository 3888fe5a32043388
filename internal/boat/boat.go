// Package boat models the rowed distance and speed as those of a wheel
// rolling on the ground at the flywheel's own rotational speed -- the
// simplest possible translation from "flywheel revolutions" to "boat
// travel" that still gives a rower a distance and speed to look at.
package boat

import "github.com/sergiomo/diy-rower-monitor/internal/timeseries"

// SpeedSource is the read-only flywheel speed access this package needs.
type SpeedSource interface {
	FlywheelSpeed() *timeseries.TimeSeries
}

// wheelCircumferenceMeters is fixed at one meter, so boat position in
// "revolutions of the flywheel" reads directly as meters travelled. It's
// conceptually a calibration parameter (true wheel/drum size varies by
// machine) but no configuration surface exposes it today.
const wheelCircumferenceMeters = 1.0

// Model tracks boat position and speed, updated once per flywheel pulse.
type Model struct {
	pulsesPerRevolution int
	position            *timeseries.TimeSeries
	speed               *timeseries.TimeSeries
}

// New returns a ready-to-use Model. pulsesPerRevolution must match the
// MachineMetrics it's paired with, since position advances by one
// revolution fraction per pulse.
func New(pulsesPerRevolution int) *Model {
	return &Model{
		pulsesPerRevolution: pulsesPerRevolution,
		position:            timeseries.New(),
		speed:               timeseries.New(),
	}
}

// Position returns the boat's distance-travelled series, in meters.
func (m *Model) Position() *timeseries.TimeSeries { return m.position }

// Speed returns the boat's speed series, in meters per second.
func (m *Model) Speed() *timeseries.TimeSeries { return m.speed }

// Update advances the boat model by one flywheel pulse.
func (m *Model) Update(pulseTimestamp float64, flywheel SpeedSource) {
	var currentPosition float64
	if m.position.Len() > 0 {
		currentPosition = m.position.Value(-1) + wheelCircumferenceMeters/float64(m.pulsesPerRevolution)
	}
	m.position.Append(currentPosition, pulseTimestamp)

	speed := flywheel.FlywheelSpeed()
	if speed.Len() > 0 {
		boatSpeed := speed.Value(-1) * wheelCircumferenceMeters
		m.speed.Append(boatSpeed, speed.Timestamp(-1))
	}
}
