package counter

import (
	"time"

	"github.com/ayusman/repcount/internal/exercise"
)

// Defaults for Config.
const (
	DefaultConfirmFrames = 3
	DefaultReleaseGrace  = 400 * time.Millisecond
	DefaultCountDelay    = 800 * time.Millisecond
)

// Config holds the debounce settings shared by every machine of an engine.
type Config struct {
	// ConfirmFrames is the number of consecutive down frames that latch a rep.
	ConfirmFrames int
	// ReleaseGrace is how long the down position may vanish before a latched
	// rep is dropped.
	ReleaseGrace time.Duration
	// CountDelay is the minimum time between two committed reps.
	CountDelay time.Duration
	// Thresholds are passed to every classifier.
	Thresholds exercise.Thresholds
	// AutoCandidates are the exercises tracked together in auto mode.
	AutoCandidates []exercise.Kind
}

// DefaultConfig returns the default debounce settings.
func DefaultConfig() Config {
	return Config{
		ConfirmFrames:  DefaultConfirmFrames,
		ReleaseGrace:   DefaultReleaseGrace,
		CountDelay:     DefaultCountDelay,
		Thresholds:     exercise.DefaultThresholds(),
		AutoCandidates: []exercise.Kind{exercise.PushUp, exercise.Squat},
	}
}

func (c Config) withDefaults() Config {
	if c.ConfirmFrames <= 0 {
		c.ConfirmFrames = DefaultConfirmFrames
	}
	if c.ReleaseGrace <= 0 {
		c.ReleaseGrace = DefaultReleaseGrace
	}
	if c.CountDelay < 0 {
		c.CountDelay = 0
	}
	if len(c.AutoCandidates) == 0 {
		c.AutoCandidates = DefaultConfig().AutoCandidates
	}
	if c.Thresholds == (exercise.Thresholds{}) {
		c.Thresholds = exercise.DefaultThresholds()
	}
	return c
}
