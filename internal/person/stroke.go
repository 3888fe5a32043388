package person

import "github.com/sergiomo/diy-rower-monitor/internal/timeseries"

// Stroke is one complete drive-then-recovery cycle, segmented out of the
// flywheel acceleration series once enough of it has elapsed to identify
// the boundary. Computed once at stroke completion; immutable thereafter.
type Stroke struct {
	StartIdx, EndIdx int
	StartTime        float64
	EndTime          float64

	StartOfDriveIdx    int
	EndOfDriveIdx      int
	StartOfRecoveryIdx int
	EndOfRecoveryIdx   int

	Duration             float64
	DriveToRecoveryRatio float64
	WorkDoneByPerson     float64
	AveragePower         float64
}

// newStroke builds a Stroke covering flywheel_acceleration[startIdx..endIdx]
// (inclusive), reading whatever of the machine's and this tracker's series
// are needed to segment the stroke and account for the energy put into it.
func newStroke(mv MachineView, torque *timeseries.TimeSeries, startIdx, endIdx int) *Stroke {
	accel := mv.FlywheelAcceleration()
	s := &Stroke{
		StartIdx:  startIdx,
		EndIdx:    endIdx,
		StartTime: accel.Timestamp(startIdx),
		EndTime:   accel.Timestamp(endIdx),
	}
	s.Duration = s.EndTime - s.StartTime

	s.segment(accel)

	driveDuration := accel.Timestamp(s.EndOfDriveIdx) - accel.Timestamp(s.StartOfDriveIdx)
	recoveryDuration := s.Duration - driveDuration
	s.DriveToRecoveryRatio = recoveryDuration / driveDuration

	s.WorkDoneByPerson = s.calculateWorkDoneByPerson(mv, torque)
	s.AveragePower = s.WorkDoneByPerson / s.Duration
	return s
}

// segment splits the stroke into its drive phase (start through the last
// occurrence of the stroke's minimum acceleration) and recovery phase (the
// rest). The flywheel decelerates throughout the recovery phase and only
// starts accelerating again once the next drive begins, so the minimum
// acceleration value marks the drive/recovery boundary; the *last*
// occurrence picks the sample closest to where the drive actually starts
// when the signal briefly plateaus at its minimum.
func (s *Stroke) segment(accel *timeseries.TimeSeries) {
	values := accel.Slice(s.StartIdx, s.EndIdx+1).Values()
	minValue := values[0]
	minIdx := 0
	for i, v := range values {
		if v <= minValue {
			minValue = v
			minIdx = i
		}
	}
	s.StartOfDriveIdx = s.StartIdx
	s.EndOfDriveIdx = s.StartIdx + minIdx
	s.StartOfRecoveryIdx = s.EndOfDriveIdx + 1
	s.EndOfRecoveryIdx = s.EndIdx
}

// calculateWorkDoneByPerson numerically integrates torque_person * dTheta
// over the stroke, assuming flywheel speed is constant between ticks.
func (s *Stroke) calculateWorkDoneByPerson(mv MachineView, torque *timeseries.TimeSeries) float64 {
	torqueSamples := torque.Slice(s.StartIdx, s.EndIdx+1)
	// Speed has two extra trailing samples: one to interpolate-align with
	// the torque series, and one more
	// look-ahead sample to compute the rotational distance travelled in
	// the last time differential.
	speedSamples := mv.FlywheelSpeed().Slice(s.StartIdx, s.EndIdx+3).InterpolateMidpoints()

	var result float64
	for k := 0; k < torqueSamples.Len(); k++ {
		torqueValue, timestamp := torqueSamples.At(k)
		speedNow := speedSamples.Value(k)
		speedNext := speedSamples.Value(k + 1)
		instantaneousSpeed := (speedNow + speedNext) / 2.0
		nextTimestamp := speedSamples.Timestamp(k + 1)
		timeBetweenSamples := nextTimestamp - timestamp
		deltaDistance := instantaneousSpeed * timeBetweenSamples
		result += deltaDistance * torqueValue
	}
	return result
}
