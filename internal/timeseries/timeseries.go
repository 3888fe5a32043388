// Package timeseries provides the append-only, time-ordered sample sequence
// that every derived signal in the rowing pipeline (speed, acceleration,
// torque, boat position) is built out of.
package timeseries

import "fmt"

// TimeSeries is an ordered sequence of (value, timestamp) samples in
// monotonically non-decreasing timestamp order. The zero value is an empty,
// ready-to-use series; each instance owns its own backing storage, so
// sharing one TimeSeries between components by value is never safe -- pass
// pointers.
type TimeSeries struct {
	values     []float64
	timestamps []float64
}

// New returns an empty TimeSeries.
func New() *TimeSeries {
	return &TimeSeries{}
}

// Len returns the number of samples in the series.
func (t *TimeSeries) Len() int {
	if t == nil {
		return 0
	}
	return len(t.values)
}

// Append adds a sample to the end of the series. timestamp must be greater
// than or equal to the series' current last timestamp; violating this is a
// programming error and Append panics rather than silently corrupting the
// series' ordering invariant.
func (t *TimeSeries) Append(value, timestamp float64) {
	if n := len(t.timestamps); n > 0 && timestamp < t.timestamps[n-1] {
		panic(fmt.Sprintf("timeseries: append timestamp %v precedes last timestamp %v", timestamp, t.timestamps[n-1]))
	}
	t.values = append(t.values, value)
	t.timestamps = append(t.timestamps, timestamp)
}

// resolveIndex converts a possibly-negative index (Python-style, counting
// from the end) into an absolute index into a series of length n.
func resolveIndex(i, n int) int {
	if i < 0 {
		return n + i
	}
	return i
}

// At returns the (value, timestamp) pair at index i. Negative indices count
// from the end of the series, so At(-1) is the most recent sample.
func (t *TimeSeries) At(i int) (value, timestamp float64) {
	idx := resolveIndex(i, t.Len())
	return t.values[idx], t.timestamps[idx]
}

// Value returns just the value at index i (see At for index semantics).
func (t *TimeSeries) Value(i int) float64 {
	v, _ := t.At(i)
	return v
}

// Timestamp returns just the timestamp at index i (see At for index
// semantics).
func (t *TimeSeries) Timestamp(i int) float64 {
	_, ts := t.At(i)
	return ts
}

// Slice returns a new TimeSeries over the half-open range [i, j), sharing
// half-open-range semantics with Go's own slicing. Negative indices count
// from the end.
func (t *TimeSeries) Slice(i, j int) *TimeSeries {
	n := t.Len()
	i = resolveIndex(i, n)
	j = resolveIndex(j, n)
	if i < 0 {
		i = 0
	}
	if j > n {
		j = n
	}
	if j < i {
		j = i
	}
	out := &TimeSeries{
		values:     make([]float64, j-i),
		timestamps: make([]float64, j-i),
	}
	copy(out.values, t.values[i:j])
	copy(out.timestamps, t.timestamps[i:j])
	return out
}

// GetTimeSlice returns the sub-series of samples whose timestamps fall in
// the inclusive interval [t0, t1]. Returns an empty series if no sample
// qualifies.
func (t *TimeSeries) GetTimeSlice(t0, t1 float64) *TimeSeries {
	first := -1
	last := -1
	for i, ts := range t.timestamps {
		if ts >= t0 && ts <= t1 {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	if first == -1 {
		return New()
	}
	return t.Slice(first, last+1)
}

// InterpolateMidpoints returns a series of length n-1 in which element k is
// the arithmetic mean of the value and timestamp of samples k and k+1 in the
// receiver. This is the alignment primitive used throughout the pipeline to
// co-register series that are naturally offset by half a sample period --
// e.g. speed samples, which sit at mid-revolution timestamps, against
// acceleration samples, which sit at mid-speed-pair timestamps.
func (t *TimeSeries) InterpolateMidpoints() *TimeSeries {
	n := t.Len()
	if n == 0 {
		return New()
	}
	out := &TimeSeries{
		values:     make([]float64, 0, n-1),
		timestamps: make([]float64, 0, n-1),
	}
	for i := 0; i < n-1; i++ {
		out.values = append(out.values, (t.values[i]+t.values[i+1])/2.0)
		out.timestamps = append(out.timestamps, (t.timestamps[i]+t.timestamps[i+1])/2.0)
	}
	return out
}

// GetAverageValue returns the time-weighted average value over the
// receiver, or over the inclusive [t0, t1] sub-range when withinRange is
// true. Each sample i < n-1 contributes value[i] * (timestamp[i+1] -
// timestamp[i]) to the numerator; the denominator is the total elapsed
// time. A range with fewer than two samples has no well-defined average and
// returns an error.
func (t *TimeSeries) GetAverageValue(withinRange bool, t0, t1 float64) (float64, error) {
	series := t
	if withinRange {
		series = t.GetTimeSlice(t0, t1)
	}
	n := series.Len()
	if n < 2 {
		return 0, fmt.Errorf("timeseries: cannot average a series with fewer than 2 samples (got %d)", n)
	}
	var numerator float64
	for i := 0; i < n-1; i++ {
		numerator += series.values[i] * (series.timestamps[i+1] - series.timestamps[i])
	}
	denominator := series.timestamps[n-1] - series.timestamps[0]
	if denominator == 0 {
		return 0, fmt.Errorf("timeseries: zero-duration average window")
	}
	return numerator / denominator, nil
}

// Values returns a copy of the series' values, for callers (such as
// fitting routines) that need a plain slice.
func (t *TimeSeries) Values() []float64 {
	out := make([]float64, len(t.values))
	copy(out, t.values)
	return out
}

// Timestamps returns a copy of the series' timestamps.
func (t *TimeSeries) Timestamps() []float64 {
	out := make([]float64, len(t.timestamps))
	copy(out, t.timestamps)
	return out
}
