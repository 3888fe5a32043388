// Package workout orchestrates one rowing session: it owns the machine,
// person, and boat trackers, feeds every incoming pulse through them in the
// exact order the downstream timestamp-alignment invariants require, and
// notifies an observer once the pulse has been fully processed.
package workout

import (
	"github.com/google/uuid"

	"github.com/sergiomo/diy-rower-monitor/internal/boat"
	"github.com/sergiomo/diy-rower-monitor/internal/machine"
	"github.com/sergiomo/diy-rower-monitor/internal/monitoring"
	"github.com/sergiomo/diy-rower-monitor/internal/person"
	"github.com/sergiomo/diy-rower-monitor/internal/pulseingest"
)

// Observer is notified once per fully-processed pulse. It must not block;
// slow rendering work belongs on the receiving side of a channel or signal,
// not inside Observer itself, since the pipeline runs synchronously on the
// pulse-delivery goroutine and never waits on observers.
type Observer interface {
	Updated(w *Tracker)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(w *Tracker)

// Updated implements Observer.
func (f ObserverFunc) Updated(w *Tracker) { f(w) }

// Tracker owns every component of one rowing session and is the sole
// writer of their state. It is not safe for concurrent use: pulses must be
// delivered serially, exactly as the pipeline's single-threaded model
// requires.
type Tracker struct {
	id      uuid.UUID
	ingest  *pulseingest.Ingest
	machine *machine.Metrics
	person  *person.Metrics
	boat    *boat.Model

	rawTicks []uint32
	observer Observer
}

// New builds a Tracker for a machine with pulsesPerRevolution encoder
// pulses per flywheel revolution, moment of inertia momentOfInertia, the
// given damping estimator (selected by machine type at config time), and
// minimumStrokeDuration debouncing stroke-boundary detection (pass
// person.DefaultMinimumStrokeDuration, or zero, for the default). Each
// Tracker gets its own session identifier (see ID) for tagging log lines; the
// identifier is not written into the saved raw-tick log.
func New(pulsesPerRevolution int, momentOfInertia float64, estimator machine.DampingEstimator, minimumStrokeDuration float64) *Tracker {
	return &Tracker{
		id:      uuid.New(),
		ingest:  pulseingest.New(),
		machine: machine.New(pulsesPerRevolution, momentOfInertia, estimator),
		person:  person.New(minimumStrokeDuration),
		boat:    boat.New(pulsesPerRevolution),
	}
}

// ID returns the session's unique identifier.
func (t *Tracker) ID() uuid.UUID { return t.id }

// Machine returns the tracker's flywheel metrics, for read access by
// observers and offline analysis.
func (t *Tracker) Machine() *machine.Metrics { return t.machine }

// Person returns the tracker's rower metrics.
func (t *Tracker) Person() *person.Metrics { return t.person }

// Boat returns the tracker's boat model.
func (t *Tracker) Boat() *boat.Model { return t.boat }

// RawTicks returns every raw hardware tick value seen so far, in arrival
// order, for persistence via the rawlog package.
func (t *Tracker) RawTicks() []uint32 {
	out := make([]uint32, len(t.rawTicks))
	copy(out, t.rawTicks)
	return out
}

// SetObserver installs the observer notified after every processed pulse.
// Pass nil to stop notifying.
func (t *Tracker) SetObserver(observer Observer) { t.observer = observer }

// HandlePulse processes one raw pulse end to end: normalizes its timestamp,
// updates every component in the order the alignment invariants require,
// and notifies the observer exactly once. This is the function a
// PulseSource's handler callback should call for each pulse it produces.
func (t *Tracker) HandlePulse(rawTick uint32) {
	t.rawTicks = append(t.rawTicks, rawTick)
	pulseTime := t.ingest.Normalize(rawTick)

	t.machine.UpdateFlywheel(pulseTime)

	stroke, hasNewStroke := t.person.DetectAndFinalizeStroke(t.machine)

	var startOfRecoveryIdx, endOfRecoveryIdx int
	if hasNewStroke {
		startOfRecoveryIdx = stroke.StartOfRecoveryIdx
		endOfRecoveryIdx = stroke.EndOfRecoveryIdx
	}
	t.machine.UpdateDamping(hasNewStroke, startOfRecoveryIdx, endOfRecoveryIdx)

	t.person.UpdateTorque(t.machine)
	t.boat.Update(pulseTime, t.machine)

	if t.observer != nil {
		t.notifyObserver()
	}
}

// notifyObserver calls the observer, containing any panic so a broken
// Observer never halts the pulse pipeline.
func (t *Tracker) notifyObserver() {
	defer func() {
		if r := recover(); r != nil {
			monitoring.Logf("workout: observer panicked, continuing session: %v", r)
		}
	}()
	t.observer.Updated(t)
}
