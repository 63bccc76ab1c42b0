// Package counter turns per-frame exercise signals into counted repetitions
// and timed holds.
package counter

import (
	"sync"
	"time"

	"github.com/ayusman/repcount/internal/exercise"
)

// Phase is the position of a Machine in the rep cycle.
type Phase string

const (
	PhaseIdle      Phase = "idle"      // Waiting for the down position
	PhaseHolding   Phase = "holding"   // Down seen, not yet confirmed
	PhaseConfirmed Phase = "confirmed" // Down latched, waiting for up
)

// StepResult describes what one evaluation did to a Machine.
type StepResult struct {
	Phase      Phase
	HoldFrames int
	// Committed is set on the frame that counted a rep.
	Committed bool
	// Suppressed is set when an up position arrived inside the count delay.
	Suppressed bool
}

// Machine is the debounced down/up state for one exercise.
//
// Down frames must be seen ConfirmFrames times in a row before the machine
// latches. Once latched, a missing down position only drops the latch after
// ReleaseGrace has passed without it coming back. An up position while
// latched commits a rep, at most once per CountDelay.
type Machine struct {
	mu    sync.Mutex
	clock Clock

	confirmFrames int
	releaseGrace  time.Duration
	countDelay    time.Duration

	phase      Phase
	holdFrames int
	lastRep    time.Time
	counted    bool

	release    Timer
	generation uint64
}

// NewMachine creates an idle machine.
func NewMachine(cfg Config, clock Clock) *Machine {
	cfg = cfg.withDefaults()
	if clock == nil {
		clock = SystemClock()
	}
	return &Machine{
		clock:         clock,
		confirmFrames: cfg.ConfirmFrames,
		releaseGrace:  cfg.ReleaseGrace,
		countDelay:    cfg.CountDelay,
		phase:         PhaseIdle,
	}
}

// Step applies one frame's signals.
func (m *Machine) Step(s exercise.Signals, now time.Time) StepResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res StepResult
	switch {
	case s.Down():
		m.cancelRelease()
		m.holdFrames++
		if m.phase == PhaseIdle {
			m.phase = PhaseHolding
		}
		if m.phase == PhaseHolding && m.holdFrames >= m.confirmFrames {
			m.phase = PhaseConfirmed
		}

	case m.phase == PhaseHolding:
		// Unconfirmed down frames must be consecutive.
		m.toIdle()

	case m.phase == PhaseConfirmed:
		if s.Up() {
			if !m.counted || now.Sub(m.lastRep) >= m.countDelay {
				m.counted = true
				m.lastRep = now
				m.cancelRelease()
				m.toIdle()
				res.Committed = true
				break
			}
			res.Suppressed = true
		}
		m.scheduleRelease()
	}

	res.Phase = m.phase
	res.HoldFrames = m.holdFrames
	return res
}

// Invalidate drops any progress immediately. Used when the pose cannot be
// evaluated.
func (m *Machine) Invalidate() StepResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelRelease()
	m.toIdle()
	return StepResult{Phase: m.phase}
}

// State returns the current phase and hold frame count.
func (m *Machine) State() (Phase, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase, m.holdFrames
}

// ReleasePending reports whether a release timer is scheduled.
func (m *Machine) ReleasePending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.release != nil
}

// Stop cancels any pending release. The machine stays usable.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelRelease()
}

func (m *Machine) toIdle() {
	m.phase = PhaseIdle
	m.holdFrames = 0
}

// scheduleRelease arms the grace timer unless one is already pending.
func (m *Machine) scheduleRelease() {
	if m.release != nil {
		return
	}
	m.generation++
	gen := m.generation
	m.release = m.clock.AfterFunc(m.releaseGrace, func() {
		m.expire(gen)
	})
}

func (m *Machine) cancelRelease() {
	if m.release == nil {
		return
	}
	m.release.Stop()
	m.release = nil
	m.generation++
}

// expire runs when the grace timer fires. A callback from a cancelled or
// replaced timer sees a newer generation and does nothing.
func (m *Machine) expire(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation || m.release == nil {
		return
	}
	m.release = nil
	if m.phase == PhaseConfirmed {
		m.toIdle()
	}
}
