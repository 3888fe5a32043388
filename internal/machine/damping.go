package machine

import (
	"gonum.org/v1/gonum/stat"

	"github.com/sergiomo/diy-rower-monitor/internal/timeseries"
)

// DampingModel predicts the flywheel's deceleration due to friction and
// (for magnetic machines) eddy-current braking at a given speed. It is
// refit independently after every stroke's recovery phase.
type DampingModel struct {
	Intercept float64
	Slope     float64
}

// Evaluate returns the expected flywheel acceleration due to the damping
// force at the given speed. Expected to be negative for any speed above
// the model's zero-crossing.
func (d DampingModel) Evaluate(speed float64) float64 {
	return d.Intercept + d.Slope*speed
}

// DampingEstimator fits a DampingModel to one stroke's recovery-phase
// acceleration and speed samples.
type DampingEstimator interface {
	// Fit fits a model using accel[startOfRecoveryIdx:endOfRecoveryIdx+1]
	// and the corresponding aligned speed samples. priorModel is the most
	// recently fitted model, or nil if none exists yet (the first stroke).
	Fit(accel, speed *timeseries.TimeSeries, startOfRecoveryIdx, endOfRecoveryIdx int, priorModel *DampingModel) DampingModel
}

// Window-selection tuning for LinearDampingEstimator: a recovery phase
// must contribute at least minRecoverySamples acceleration samples to the
// fit, and when it has more than the minimum, only the middle window
// surviving iterated recoveryCutoffFraction trims is used.
const (
	minRecoverySamples     = 3
	recoveryCutoffFraction = 0.25
)

// LinearDampingEstimator fits acceleration = intercept + slope*speed by
// ordinary least squares over the trimmed middle of a stroke's recovery
// phase. This is the estimator used for magnetic-resistance rowers, whose
// damping torque is close to linear in speed over the range a person can
// actually row at.
type LinearDampingEstimator struct{}

// Fit implements DampingEstimator.
func (LinearDampingEstimator) Fit(accel, speed *timeseries.TimeSeries, startOfRecoveryIdx, endOfRecoveryIdx int, priorModel *DampingModel) DampingModel {
	accelSamples := accel.Slice(startOfRecoveryIdx, endOfRecoveryIdx+1)
	// Speed has one extra trailing sample (each acceleration sample is
	// bracketed by two speed samples), so that interpolating midpoints lines
	// its timestamps up exactly with accelSamples.
	speedSamples := speed.Slice(startOfRecoveryIdx, endOfRecoveryIdx+2).InterpolateMidpoints()

	window := selectRecoveryWindow(accelSamples)
	if window == nil {
		if priorModel != nil {
			return *priorModel
		}
		// Too slow and short a stroke to fit confidently, and no prior
		// model to fall back on. Assume zero damping; this overestimates
		// person torque for this one stroke, which is acceptable since the
		// stroke itself was very slow and weak.
		return DampingModel{}
	}

	windowedSpeed := speedSamples.GetTimeSlice(window.Timestamp(0), window.Timestamp(-1))
	intercept, slope := stat.LinearRegression(windowedSpeed.Values(), window.Values(), nil, false)
	return DampingModel{Intercept: intercept, Slope: slope}
}

// selectRecoveryWindow picks the subset of a stroke's recovery-phase
// acceleration samples to fit against. If there's a long gap between the
// end of the drive and the start of the next one (the flywheel sitting
// essentially motionless), the naive middle window can end up empty, so
// the last sample considered is iteratively dropped until the window holds
// enough points. Returns nil if even the full sample set is too small, or
// no candidate window ever collects enough points.
func selectRecoveryWindow(accelSamples *timeseries.TimeSeries) *timeseries.TimeSeries {
	n := accelSamples.Len()
	if n < minRecoverySamples {
		return nil
	}
	if n == minRecoverySamples {
		return accelSamples
	}

	start := accelSamples.Timestamp(0)
	for lastIdx := n - 1; lastIdx >= minRecoverySamples-1; lastIdx-- {
		end := accelSamples.Timestamp(lastIdx)
		offset := (end - start) * recoveryCutoffFraction
		window := accelSamples.GetTimeSlice(start+offset, end-offset)
		if window.Len() > minRecoverySamples {
			return window
		}
	}
	return nil
}
