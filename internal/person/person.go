// Package person attributes the rower's own contribution -- strokes,
// applied torque, and work done -- by subtracting the machine's modeled
// damping torque from the net torque implied by flywheel acceleration.
package person

import (
	"math"

	"github.com/sergiomo/diy-rower-monitor/internal/timeseries"
)

// DefaultMinimumStrokeDuration debounces stroke-boundary detection: no rower
// manages more than 60 strokes per minute, so an acceleration rising edge
// closer than this to the last detected stroke start is noise, not a new
// stroke. New uses this unless the caller supplies its own threshold.
const DefaultMinimumStrokeDuration = 1.0

// MachineView is the read-only slice of flywheel state this package needs
// to detect strokes and attribute torque to the rower. machine.Metrics
// satisfies it; depending on an interface here instead of the concrete type
// keeps this package free of any import-cycle risk with package machine.
type MachineView interface {
	FlywheelAcceleration() *timeseries.TimeSeries
	FlywheelSpeed() *timeseries.TimeSeries
	DampingTorque() *timeseries.TimeSeries
	MomentOfInertia() float64
}

// Metrics tracks the rower's applied torque and the strokes segmented out
// of it.
type Metrics struct {
	torque                *timeseries.TimeSeries
	strokes               []*Stroke
	minimumStrokeDuration float64

	startOfOngoingStrokeIdx       int
	startOfOngoingStrokeTimestamp float64
}

// New returns a ready-to-use Metrics tracker that debounces stroke-boundary
// detection against minimumStrokeDuration. Pass DefaultMinimumStrokeDuration
// (or zero, which New resolves to the same default) when no session-specific
// override applies.
func New(minimumStrokeDuration float64) *Metrics {
	if minimumStrokeDuration <= 0 {
		minimumStrokeDuration = DefaultMinimumStrokeDuration
	}
	return &Metrics{
		torque:                        timeseries.New(),
		minimumStrokeDuration:         minimumStrokeDuration,
		startOfOngoingStrokeIdx:       0,
		startOfOngoingStrokeTimestamp: math.Inf(-1),
	}
}

// Torque returns the rower's applied-torque time series.
func (p *Metrics) Torque() *timeseries.TimeSeries { return p.torque }

// Strokes returns all strokes finalized so far, oldest first.
func (p *Metrics) Strokes() []*Stroke { return p.strokes }

// DetectAndFinalizeStroke checks whether the flywheel's acceleration has
// just completed a rising edge far enough past the last detected stroke
// boundary, and if so, finalizes the stroke that just ended and starts
// tracking the next one. Returns the finalized stroke and true if one was
// produced this pulse.
func (p *Metrics) DetectAndFinalizeStroke(mv MachineView) (*Stroke, bool) {
	accel := mv.FlywheelAcceleration()
	if accel.Len() < 2 {
		return nil, false
	}
	risingEdge := accel.Value(-1) >= 0 && accel.Value(-2) < 0
	elapsed := accel.Timestamp(-1) - p.startOfOngoingStrokeTimestamp
	if !risingEdge || elapsed <= p.minimumStrokeDuration {
		return nil, false
	}

	startIdx := p.startOfOngoingStrokeIdx
	endIdx := accel.Len() - 2
	stroke := newStroke(mv, p.torque, startIdx, endIdx)
	p.strokes = append(p.strokes, stroke)

	// The last sample currently in the acceleration series is the first
	// sample of the next stroke.
	p.startOfOngoingStrokeIdx = accel.Len() - 1
	p.startOfOngoingStrokeTimestamp = accel.Timestamp(-1)
	return stroke, true
}

// UpdateTorque appends one person-torque sample: the net torque implied by
// flywheel acceleration, minus the machine's modeled damping torque, clamped
// at zero (a negative result would mean the machine is accelerating the
// flywheel on its own, which isn't physically meaningful here). Must run
// after the machine has appended this pulse's damping-torque sample, since
// it asserts the two series stay aligned.
func (p *Metrics) UpdateTorque(mv MachineView) {
	accel := mv.FlywheelAcceleration()
	if accel.Len() < 1 {
		return
	}
	netTorque := accel.Value(-1) * mv.MomentOfInertia()

	var dampingTorque float64
	damping := mv.DampingTorque()
	if damping.Len() > 0 {
		dampingTorque = damping.Value(-1)
		if damping.Timestamp(-1) != accel.Timestamp(-1) {
			panic("person: flywheel acceleration and damping torque time series are not aligned")
		}
	}

	personTorque := netTorque - dampingTorque
	if personTorque < 0 {
		personTorque = 0
	}
	p.torque.Append(personTorque, accel.Timestamp(-1))
}
