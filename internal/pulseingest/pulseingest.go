// Package pulseingest converts raw 32-bit microsecond tick counts from the
// flywheel's optical sensor into monotonic seconds-since-first-pulse,
// absorbing the hardware counter's ~71.6 minute rollover along the way.
package pulseingest

// TickPeriodSeconds is the duration of one raw tick, matching the
// microsecond counter used by the pigpio-compatible daemon this system was
// built against (and the Raspberry Pi timer before that).
const TickPeriodSeconds = 1e-6

// RolloverPeriod is one full cycle of the unsigned 32-bit tick counter.
const RolloverPeriod = 1 << 32

// Ingest tracks the rollover state needed to normalize a raw tick stream.
// The zero value is ready to use.
type Ingest struct {
	firstTick     uint32
	lastTick      uint32
	haveFirstTick bool
	haveLastTick  bool
	rolloverCount uint64
}

// New returns a ready-to-use Ingest.
func New() *Ingest {
	return &Ingest{}
}

// Normalize converts a raw hardware tick count into seconds elapsed since
// the first tick this Ingest has seen. Output is non-decreasing for any
// valid stream whose true inter-arrival time is under one rollover period
// (~71.6 minutes); glitch suppression for implausibly fast repeats is the
// pulse source's job, not this one's.
func (p *Ingest) Normalize(rawTick uint32) float64 {
	if !p.haveFirstTick {
		p.firstTick = rawTick
		p.haveFirstTick = true
		p.rolloverCount = 0
	}
	if p.haveLastTick && rawTick < p.lastTick {
		p.rolloverCount++
	}

	// Widen to int64 before subtracting so that rawTick < firstTick (the
	// normal case right after a rollover) produces a negative intermediate
	// instead of wrapping; rolloverCount already carries the exact number
	// of 2^32 periods needed to bring that intermediate back positive.
	adjusted := int64(rawTick) - int64(p.firstTick) + int64(p.rolloverCount)*RolloverPeriod

	p.lastTick = rawTick
	p.haveLastTick = true

	return float64(adjusted) * TickPeriodSeconds
}

// Reset clears all rollover-tracking state, as if no ticks had ever been
// seen. Used when a pulse source reconnects and the hardware counter may
// have restarted from an unrelated value.
func (p *Ingest) Reset() {
	*p = Ingest{}
}
