// Package machine tracks the flywheel's own kinematics -- speed,
// acceleration, and the damping torque the machine exerts on itself --
// independent of anything the rower is doing.
package machine

import (
	"github.com/sergiomo/diy-rower-monitor/internal/monitoring"
	"github.com/sergiomo/diy-rower-monitor/internal/timeseries"
)

// Metrics holds the flywheel state derived from the raw pulse stream:
// speed and acceleration time series, and the fitted damping model history
// used to separate the rower's contribution from the machine's own drag.
type Metrics struct {
	pulsesPerRevolution int
	momentOfInertia     float64

	pulseTimestamps      []float64
	flywheelSpeed        *timeseries.TimeSeries
	flywheelAcceleration *timeseries.TimeSeries
	dampingTorque        *timeseries.TimeSeries

	estimator     DampingEstimator
	dampingModels []DampingModel
}

// New returns a ready-to-use Metrics tracker. pulsesPerRevolution is the
// number of encoder pulses per flywheel revolution (P in the speed
// derivation); momentOfInertia converts angular acceleration into torque.
func New(pulsesPerRevolution int, momentOfInertia float64, estimator DampingEstimator) *Metrics {
	return &Metrics{
		pulsesPerRevolution:  pulsesPerRevolution,
		momentOfInertia:      momentOfInertia,
		flywheelSpeed:        timeseries.New(),
		flywheelAcceleration: timeseries.New(),
		dampingTorque:        timeseries.New(),
		estimator:            estimator,
	}
}

// FlywheelSpeed returns the machine's speed series. Callers must treat it
// as read-only; Metrics is the only writer.
func (m *Metrics) FlywheelSpeed() *timeseries.TimeSeries { return m.flywheelSpeed }

// FlywheelAcceleration returns the machine's acceleration series.
func (m *Metrics) FlywheelAcceleration() *timeseries.TimeSeries { return m.flywheelAcceleration }

// DampingTorque returns the machine's fitted damping-torque series.
func (m *Metrics) DampingTorque() *timeseries.TimeSeries { return m.dampingTorque }

// MomentOfInertia returns the flywheel's moment of inertia, used to convert
// acceleration samples into torque.
func (m *Metrics) MomentOfInertia() float64 { return m.momentOfInertia }

// PulsesPerRevolution returns the configured encoder pulse count per
// flywheel revolution.
func (m *Metrics) PulsesPerRevolution() int { return m.pulsesPerRevolution }

// PulseTimestamp returns the ingest-normalized timestamp of the i-th raw
// pulse seen so far. Negative indices count from the end.
func (m *Metrics) PulseTimestamp(i int) float64 {
	n := len(m.pulseTimestamps)
	if i < 0 {
		i = n + i
	}
	return m.pulseTimestamps[i]
}

// PulseCount returns the number of raw pulses ingested so far.
func (m *Metrics) PulseCount() int { return len(m.pulseTimestamps) }

// UpdateFlywheel records one encoder pulse and, once enough pulse history
// has accumulated, derives one new speed sample and, from that, one new
// acceleration sample.
func (m *Metrics) UpdateFlywheel(pulseTimestamp float64) {
	m.pulseTimestamps = append(m.pulseTimestamps, pulseTimestamp)
	m.updateSpeed()
	m.updateAcceleration()
}

// updateSpeed measures the time taken for one full revolution by comparing
// pulses P apart, which cancels out any misalignment between the holes on
// the flywheel's encoder wheel.
func (m *Metrics) updateSpeed() {
	n := len(m.pulseTimestamps)
	if n < m.pulsesPerRevolution+1 {
		return
	}
	start := m.pulseTimestamps[n-1-m.pulsesPerRevolution]
	end := m.pulseTimestamps[n-1]
	revolutionTime := end - start
	if revolutionTime == 0 {
		monitoring.Logf("machine: duplicate pulse timestamp %.9f, skipping derived speed sample", end)
		return
	}
	speed := 1.0 / revolutionTime
	// Associate the average speed with the midpoint of the revolution,
	// consistent with an assumption that speed varies linearly within it.
	timestamp := start + revolutionTime/2.0
	m.flywheelSpeed.Append(speed, timestamp)
}

func (m *Metrics) updateAcceleration() {
	if m.flywheelSpeed.Len() < 2 {
		return
	}
	speedNow, tNow := m.flywheelSpeed.At(-1)
	speedPrev, tPrev := m.flywheelSpeed.At(-2)
	timeDelta := tNow - tPrev
	acceleration := (speedNow - speedPrev) / timeDelta
	timestamp := tPrev + timeDelta/2.0
	m.flywheelAcceleration.Append(acceleration, timestamp)
}

// UpdateDamping fits a new damping model from the recovery phase of a
// just-finalized stroke (when hasNewStroke is true), then appends one
// damping-torque sample if enough speed history exists. The damping-torque
// half runs on every pulse that reaches this stage, whether or not a new
// stroke was finalized.
func (m *Metrics) UpdateDamping(hasNewStroke bool, startOfRecoveryIdx, endOfRecoveryIdx int) {
	if hasNewStroke {
		model := m.estimator.Fit(m.flywheelAcceleration, m.flywheelSpeed, startOfRecoveryIdx, endOfRecoveryIdx, m.lastDampingModel())
		m.dampingModels = append(m.dampingModels, model)
	}
	m.updateDampingTorque()
}

func (m *Metrics) lastDampingModel() *DampingModel {
	if len(m.dampingModels) == 0 {
		return nil
	}
	model := m.dampingModels[len(m.dampingModels)-1]
	return &model
}

func (m *Metrics) updateDampingTorque() {
	if m.flywheelSpeed.Len() < 2 {
		return
	}
	// No fitted model yet -- assume zero damping until the first stroke's
	// recovery phase produces one.
	var dampingAcceleration float64
	if model := m.lastDampingModel(); model != nil {
		speedNow := m.flywheelSpeed.Value(-1)
		speedPrev := m.flywheelSpeed.Value(-2)
		midSpeed := (speedNow + speedPrev) / 2.0
		dampingAcceleration = model.Evaluate(midSpeed)
	}
	dampingTorque := dampingAcceleration * m.momentOfInertia
	m.dampingTorque.Append(dampingTorque, m.flywheelAcceleration.Timestamp(-1))
}
