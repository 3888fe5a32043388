package person

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergiomo/diy-rower-monitor/internal/timeseries"
)

// fakeMachine is a minimal MachineView for exercising PersonMetrics without
// depending on the real machine package.
type fakeMachine struct {
	accel           *timeseries.TimeSeries
	speed           *timeseries.TimeSeries
	dampingTorque   *timeseries.TimeSeries
	momentOfInertia float64
}

func newFakeMachine() *fakeMachine {
	return &fakeMachine{
		accel:           timeseries.New(),
		speed:           timeseries.New(),
		dampingTorque:   timeseries.New(),
		momentOfInertia: 1.0,
	}
}

func (f *fakeMachine) FlywheelAcceleration() *timeseries.TimeSeries { return f.accel }
func (f *fakeMachine) FlywheelSpeed() *timeseries.TimeSeries        { return f.speed }
func (f *fakeMachine) DampingTorque() *timeseries.TimeSeries        { return f.dampingTorque }
func (f *fakeMachine) MomentOfInertia() float64                     { return f.momentOfInertia }

func TestDetectAndFinalizeStrokeNoneBelowTwoSamples(t *testing.T) {
	p := New(DefaultMinimumStrokeDuration)
	m := newFakeMachine()
	m.accel.Append(-1.0, 0.0)
	stroke, ok := p.DetectAndFinalizeStroke(m)
	assert.False(t, ok)
	assert.Nil(t, stroke)
}

func TestDetectAndFinalizeStrokeRequiresRisingEdgeAndDebounce(t *testing.T) {
	p := New(DefaultMinimumStrokeDuration)
	m := newFakeMachine()
	m.accel.Append(-1.0, 0.0)
	m.accel.Append(-0.5, 0.2)
	_, ok := p.DetectAndFinalizeStroke(m)
	assert.False(t, ok, "not a rising edge yet")

	m.accel.Append(0.5, 0.4) // rising edge; no stroke start recorded yet (-inf)
	_, ok = p.DetectAndFinalizeStroke(m)
	// elapsed = 0.4 - (-inf) = +inf, which is > MinimumStrokeDuration, so the
	// very first rising edge after startup always finalizes.
	assert.True(t, ok)
}

func TestDetectAndFinalizeStrokeDebouncesSecondEdge(t *testing.T) {
	p := New(DefaultMinimumStrokeDuration)
	m := newFakeMachine()
	// Two rising edges 0.4s apart, well inside the 1.0s debounce window:
	// only the first one should finalize a stroke.
	accelValues := []float64{-1.0, -0.5, 0.5, 1.0, -1.0, -0.5, 0.5}
	accelTimes := []float64{0.0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6}

	var finalized int
	for i := range accelValues {
		m.accel.Append(accelValues[i], accelTimes[i])
		if _, ok := p.DetectAndFinalizeStroke(m); ok {
			finalized++
		}
	}
	assert.Equal(t, 1, finalized)
}

func TestCustomMinimumStrokeDurationOverridesDebounce(t *testing.T) {
	p := New(0.15) // shorter than the 1.0s default
	m := newFakeMachine()
	// Same 0.4s-apart rising edges as the debounce test above, but now far
	// enough apart to both finalize under the shorter threshold.
	accelValues := []float64{-1.0, -0.5, 0.5, 1.0, -1.0, -0.5, 0.5}
	accelTimes := []float64{0.0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6}

	var finalized int
	for i := range accelValues {
		m.accel.Append(accelValues[i], accelTimes[i])
		if _, ok := p.DetectAndFinalizeStroke(m); ok {
			finalized++
		}
	}
	assert.Equal(t, 2, finalized)
}

func TestNewTreatsNonPositiveDurationAsDefault(t *testing.T) {
	p := New(0)
	assert.Equal(t, DefaultMinimumStrokeDuration, p.minimumStrokeDuration)
}

func TestUpdateTorqueClampsAtZero(t *testing.T) {
	p := New(DefaultMinimumStrokeDuration)
	m := newFakeMachine()
	m.accel.Append(-2.0, 0.0) // net torque negative
	p.UpdateTorque(m)
	require.Equal(t, 1, p.Torque().Len())
	assert.Equal(t, 0.0, p.Torque().Value(-1))
}

func TestUpdateTorqueSubtractsDampingTorque(t *testing.T) {
	p := New(DefaultMinimumStrokeDuration)
	m := newFakeMachine()
	m.accel.Append(5.0, 0.0)
	m.dampingTorque.Append(-1.0, 0.0)
	p.UpdateTorque(m)
	require.Equal(t, 1, p.Torque().Len())
	assert.InDelta(t, 6.0, p.Torque().Value(-1), 1e-9)
}

func TestUpdateTorquePanicsOnMisalignedDampingTorque(t *testing.T) {
	p := New(DefaultMinimumStrokeDuration)
	m := newFakeMachine()
	m.accel.Append(5.0, 0.0)
	m.dampingTorque.Append(-1.0, 0.5) // wrong timestamp
	assert.Panics(t, func() {
		p.UpdateTorque(m)
	})
}
