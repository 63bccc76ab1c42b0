package counter

import (
	"fmt"
	"time"

	"github.com/ayusman/repcount/internal/exercise"
)

// Counters is the aggregate of one exercise session.
type Counters struct {
	Exercise           exercise.Kind `json:"exercise"`
	RepCount           int           `json:"rep_count"`
	HoldElapsedSeconds float64       `json:"hold_elapsed_seconds"`
	HoldCount          int           `json:"hold_count"`
	TotalHoldSeconds   float64       `json:"total_hold_seconds"`
	LastLabel          string        `json:"last_label,omitempty"`
	Summary            string        `json:"summary,omitempty"`
}

// Session accumulates counted reps and finished holds. It is not safe for
// concurrent use; Engine serializes access.
type Session struct {
	counters Counters
}

// NewSession starts an empty session for kind.
func NewSession(kind exercise.Kind) *Session {
	return &Session{counters: Counters{Exercise: kind}}
}

// Commit counts one repetition of label and returns the new total.
func (s *Session) Commit(label string) int {
	s.counters.RepCount++
	s.counters.LastLabel = label
	s.counters.Summary = RepSummary(label, s.counters.RepCount)
	return s.counters.RepCount
}

// RecordHold updates the running hold time.
func (s *Session) RecordHold(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	s.counters.HoldElapsedSeconds = seconds
}

// EndHold closes a hold of duration d and returns its summary text.
func (s *Session) EndHold(label string, d time.Duration) string {
	s.counters.HoldElapsedSeconds = 0
	s.counters.HoldCount++
	s.counters.TotalHoldSeconds += d.Seconds()
	s.counters.LastLabel = label
	s.counters.Summary = HoldSummaryText(label, d)
	return s.counters.Summary
}

// Reset clears the session and rebinds it to kind.
func (s *Session) Reset(kind exercise.Kind) {
	s.counters = Counters{Exercise: kind}
}

// Counters returns a copy of the aggregate.
func (s *Session) Counters() Counters {
	return s.counters
}

// RepSummary is the message shown after a committed rep.
func RepSummary(label string, count int) string {
	unit := "times"
	if count == 1 {
		unit = "time"
	}
	return fmt.Sprintf("You have done %s %d %s", label, count, unit)
}

// HoldSummaryText is the message shown after a hold ends, in whole seconds.
func HoldSummaryText(label string, d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("You held %s for %d min %d sec", label, secs/60, secs%60)
}
