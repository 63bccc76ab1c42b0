package counter

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/repcount/internal/body"
	"github.com/ayusman/repcount/internal/exercise"
)

// Status classifies the outcome of an evaluation.
type Status string

const (
	StatusEvaluated   Status = "evaluated"
	StatusInvalidPose Status = "invalid_pose"
	StatusUnsupported Status = "unsupported"
)

// ErrUnsupportedExercise is returned for kinds the engine cannot evaluate.
var ErrUnsupportedExercise = errors.New("unsupported exercise")

// FrameResult is everything the display layer needs after one frame.
type FrameResult struct {
	Status       Status        `json:"status"`
	Exercise     exercise.Kind `json:"exercise"`
	Time         time.Time     `json:"time"`
	RepCommitted bool          `json:"rep_committed"`
	RepCount     int           `json:"rep_count"`
	Phase        Phase         `json:"phase"`
	HoldFrames   int           `json:"hold_frames"`
	// HoldElapsedSeconds is only set for isometric exercises.
	HoldElapsedSeconds *float64           `json:"hold_elapsed_seconds,omitempty"`
	Label              string             `json:"label,omitempty"`
	Summary            string             `json:"summary,omitempty"`
	HoldSummary        *HoldSummary       `json:"hold_summary,omitempty"`
	Suppressed         bool               `json:"suppressed,omitempty"`
	Angles             map[string]float64 `json:"angles,omitempty"`
	// Reason explains an invalid_pose or unsupported status.
	Reason string `json:"reason,omitempty"`
}

// Engine evaluates pose frames for the selected exercise and keeps the
// session totals. Selecting a different exercise starts a new session.
type Engine struct {
	mu      sync.Mutex
	cfg     Config
	clock   Clock
	kind    exercise.Kind
	session *Session

	machines map[exercise.Kind]*Machine
	hold     *HoldTracker
}

// NewEngine creates an engine with no exercise selected.
func NewEngine(cfg Config, clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock()
	}
	return &Engine{
		cfg:      cfg.withDefaults(),
		clock:    clock,
		session:  NewSession(""),
		machines: make(map[exercise.Kind]*Machine),
	}
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Clock returns the clock driving release timers.
func (e *Engine) Clock() Clock {
	return e.clock
}

// Kind returns the selected exercise, empty if none.
func (e *Engine) Kind() exercise.Kind {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kind
}

// Select switches to kind and starts a new session, even if kind is already
// selected.
func (e *Engine) Select(kind exercise.Kind) error {
	if err := e.supported(kind); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.switchTo(kind)
	return nil
}

// Reset clears the session and all progress of the selected exercise.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.switchTo(e.kind)
}

// Counters returns the current session aggregate.
func (e *Engine) Counters() Counters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Counters()
}

// FinishHold ends an isometric hold in progress as if the pose had been lost
// and returns its summary with the updated counters. The summary is nil when
// no hold is open.
func (e *Engine) FinishHold() (*HoldSummary, Counters) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.finishHold()
	return s, e.session.Counters()
}

// Close cancels every pending release timer.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopMachines()
}

// Evaluate processes one frame for kind. A pose that cannot be evaluated
// resets progress and is reported as StatusInvalidPose with a nil error. An
// unsupported kind returns StatusUnsupported and an error wrapping
// ErrUnsupportedExercise. A frame for a different kind starts a new session;
// a hold left open by the previous one is reported in its HoldSummary.
func (e *Engine) Evaluate(pose *body.Pose, kind exercise.Kind, now time.Time) (FrameResult, error) {
	if err := e.supported(kind); err != nil {
		return FrameResult{
			Status:   StatusUnsupported,
			Exercise: kind,
			Time:     now,
			Phase:    PhaseIdle,
			Reason:   err.Error(),
		}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var ended *HoldSummary
	if kind != e.kind {
		ended = e.switchTo(kind)
	}

	var res FrameResult
	var err error
	if kind.Isometric() {
		res, err = e.evaluateHold(pose, kind, now)
	} else {
		res, err = e.evaluateReps(pose, kind, now)
	}
	res.Exercise = kind
	res.Time = now
	c := e.session.Counters()
	res.RepCount = c.RepCount
	if res.Label == "" {
		res.Label = c.LastLabel
	}
	if res.HoldSummary == nil {
		res.HoldSummary = ended
	}
	return res, err
}

func (e *Engine) supported(kind exercise.Kind) error {
	if kind == exercise.Auto || exercise.Supported(kind) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedExercise, kind)
}

// candidates returns the exercises evaluated for kind.
func (e *Engine) candidates(kind exercise.Kind) []exercise.Kind {
	if kind == exercise.Auto {
		return e.cfg.AutoCandidates
	}
	return []exercise.Kind{kind}
}

func (e *Engine) machine(kind exercise.Kind) *Machine {
	m, ok := e.machines[kind]
	if !ok {
		m = NewMachine(e.cfg, e.clock)
		e.machines[kind] = m
	}
	return m
}

func (e *Engine) evaluateReps(pose *body.Pose, kind exercise.Kind, now time.Time) (FrameResult, error) {
	res := FrameResult{Status: StatusInvalidPose, Phase: PhaseIdle}
	var lead StepResult
	evaluated := 0

	for _, cand := range e.candidates(kind) {
		m := e.machine(cand)
		signals, err := exercise.Classify(cand, pose, e.cfg.Thresholds)
		if err != nil {
			if !isPoseError(err) {
				return res, fmt.Errorf("classify %s: %w", cand, err)
			}
			m.Invalidate()
			if res.Reason == "" {
				res.Reason = err.Error()
			}
			continue
		}
		evaluated++

		step := m.Step(signals, now)
		if step.Committed {
			res.RepCommitted = true
			res.Label = string(cand)
			e.session.Commit(string(cand))
		}
		res.Suppressed = res.Suppressed || step.Suppressed
		if evaluated == 1 || ahead(step, lead) {
			lead = step
			res.Angles = signals.Angles
		}
	}

	if evaluated == 0 {
		return res, nil
	}
	res.Status = StatusEvaluated
	res.Reason = ""
	res.Phase = lead.Phase
	res.HoldFrames = lead.HoldFrames
	if res.RepCommitted {
		res.Summary = e.session.Counters().Summary
	}
	return res, nil
}

func (e *Engine) evaluateHold(pose *body.Pose, kind exercise.Kind, now time.Time) (FrameResult, error) {
	if e.hold == nil {
		e.hold = NewHoldTracker(string(kind))
	}
	res := FrameResult{Status: StatusEvaluated, Phase: PhaseIdle}

	var step HoldStep
	signals, err := exercise.Classify(kind, pose, e.cfg.Thresholds)
	switch {
	case err == nil:
		step = e.hold.Step(signals.Holding, now)
		res.Angles = signals.Angles
	case isPoseError(err):
		step = e.hold.Invalidate()
		res.Status = StatusInvalidPose
		res.Reason = err.Error()
	default:
		return res, fmt.Errorf("classify %s: %w", kind, err)
	}

	if step.Holding {
		res.Phase = PhaseHolding
		e.session.RecordHold(step.Elapsed.Seconds())
	}
	if step.Summary != nil {
		res.HoldSummary = step.Summary
		res.Label = step.Summary.Label
		res.Summary = e.session.EndHold(step.Summary.Label, step.Summary.Duration)
	}
	elapsed := e.session.Counters().HoldElapsedSeconds
	res.HoldElapsedSeconds = &elapsed
	return res, nil
}

func (e *Engine) finishHold() *HoldSummary {
	if e.hold == nil {
		return nil
	}
	s := e.hold.Invalidate().Summary
	if s != nil {
		e.session.EndHold(s.Label, s.Duration)
	}
	return s
}

// switchTo closes any open hold, discards all per-exercise state and starts a
// new session. It returns the summary of the hold it closed, if any.
func (e *Engine) switchTo(kind exercise.Kind) *HoldSummary {
	ended := e.finishHold()
	e.stopMachines()
	e.machines = make(map[exercise.Kind]*Machine)
	e.hold = nil
	e.kind = kind
	e.session.Reset(kind)
	return ended
}

func (e *Engine) stopMachines() {
	for _, m := range e.machines {
		m.Stop()
	}
}

func isPoseError(err error) bool {
	return errors.Is(err, body.ErrJointMissing) || errors.Is(err, body.ErrLowConfidence)
}

var phaseRank = map[Phase]int{PhaseIdle: 0, PhaseHolding: 1, PhaseConfirmed: 2}

// ahead reports whether a is further into its rep than b.
func ahead(a, b StepResult) bool {
	if phaseRank[a.Phase] != phaseRank[b.Phase] {
		return phaseRank[a.Phase] > phaseRank[b.Phase]
	}
	return a.HoldFrames > b.HoldFrames
}
