package counter

import (
	"encoding/json"
	"time"
)

// HoldSummary reports a finished isometric hold.
type HoldSummary struct {
	Label    string        `json:"label"`
	Duration time.Duration `json:"-"`
}

// Seconds returns the hold duration in seconds.
func (h HoldSummary) Seconds() float64 {
	return h.Duration.Seconds()
}

// MarshalJSON reports the duration in seconds.
func (h HoldSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Label   string  `json:"label"`
		Seconds float64 `json:"seconds"`
	}{h.Label, h.Seconds()})
}

// HoldStep is the outcome of one HoldTracker evaluation.
type HoldStep struct {
	Holding bool
	Elapsed time.Duration
	// Summary is set on the frame a hold ended.
	Summary *HoldSummary
}

// HoldTracker times an isometric exercise. It has no grace period: the first
// frame out of position ends the hold.
type HoldTracker struct {
	label   string
	holding bool
	start   time.Time
	last    time.Time
}

// NewHoldTracker creates a tracker reporting summaries under label.
func NewHoldTracker(label string) *HoldTracker {
	return &HoldTracker{label: label}
}

// Step applies one frame. Elapsed is measured from the first holding frame to
// now and is zero when not holding.
func (h *HoldTracker) Step(holding bool, now time.Time) HoldStep {
	if !holding {
		return HoldStep{Summary: h.end()}
	}
	if !h.holding {
		h.holding = true
		h.start = now
	}
	if now.After(h.last) {
		h.last = now
	}
	return HoldStep{Holding: true, Elapsed: h.last.Sub(h.start)}
}

// Invalidate ends any hold in progress.
func (h *HoldTracker) Invalidate() HoldStep {
	return HoldStep{Summary: h.end()}
}

// Holding reports whether a hold is in progress.
func (h *HoldTracker) Holding() bool {
	return h.holding
}

// end closes the current hold at the last frame it was observed.
func (h *HoldTracker) end() *HoldSummary {
	if !h.holding {
		return nil
	}
	s := &HoldSummary{Label: h.label, Duration: h.last.Sub(h.start)}
	h.holding = false
	h.start = time.Time{}
	h.last = time.Time{}
	return s
}
