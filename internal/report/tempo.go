// Package report turns stored rep and hold events into statistics, charts and
// export files.
package report

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/repcount/internal/store"
)

// TempoStats describes the pace of a set of repetitions. Interval fields are
// in seconds and are zero when fewer than two reps exist.
type TempoStats struct {
	Reps            int     `json:"reps"`
	DurationSeconds float64 `json:"duration_seconds"`
	RepsPerMinute   float64 `json:"reps_per_minute"`
	MeanInterval    float64 `json:"mean_interval_seconds"`
	StdDevInterval  float64 `json:"stddev_interval_seconds"`
	MinInterval     float64 `json:"min_interval_seconds"`
	MaxInterval     float64 `json:"max_interval_seconds"`
}

// Tempo computes pace statistics from rep commit times. The input need not be sorted.
func Tempo(times []time.Time) TempoStats {
	ts := TempoStats{Reps: len(times)}
	if len(times) < 2 {
		return ts
	}

	sorted := append([]time.Time(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	intervals := make([]float64, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		intervals[i-1] = sorted[i].Sub(sorted[i-1]).Seconds()
	}

	ts.DurationSeconds = sorted[len(sorted)-1].Sub(sorted[0]).Seconds()
	if ts.DurationSeconds > 0 {
		ts.RepsPerMinute = float64(len(intervals)) / (ts.DurationSeconds / 60)
	}

	if len(intervals) == 1 {
		ts.MeanInterval = intervals[0]
	} else {
		ts.MeanInterval, ts.StdDevInterval = stat.MeanStdDev(intervals, nil)
	}
	ts.MinInterval = floats.Min(intervals)
	ts.MaxInterval = floats.Max(intervals)
	return ts
}

// RepTimes extracts commit times from rep events.
func RepTimes(events []store.RepEvent) []time.Time {
	times := make([]time.Time, len(events))
	for i, e := range events {
		times[i] = e.At
	}
	return times
}

// HoldStats summarises finished isometric holds.
type HoldStats struct {
	Count          int     `json:"count"`
	TotalSeconds   float64 `json:"total_seconds"`
	MeanSeconds    float64 `json:"mean_seconds"`
	LongestSeconds float64 `json:"longest_seconds"`
}

// Holds computes totals over hold events.
func Holds(events []store.HoldEvent) HoldStats {
	hs := HoldStats{Count: len(events)}
	if len(events) == 0 {
		return hs
	}

	seconds := make([]float64, len(events))
	for i, e := range events {
		seconds[i] = e.Seconds
	}
	hs.TotalSeconds = floats.Sum(seconds)
	hs.MeanSeconds = stat.Mean(seconds, nil)
	hs.LongestSeconds = floats.Max(seconds)
	return hs
}

// SessionStats is the full statistics payload for one stored session.
type SessionStats struct {
	Session *store.Session `json:"session"`
	Tempo   TempoStats     `json:"tempo"`
	Holds   HoldStats      `json:"holds"`
}

// Stats builds SessionStats for a session and its events.
func Stats(s *store.Session, reps []store.RepEvent, holds []store.HoldEvent) SessionStats {
	return SessionStats{
		Session: s,
		Tempo:   Tempo(RepTimes(reps)),
		Holds:   Holds(holds),
	}
}
