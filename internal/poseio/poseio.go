// Package poseio reads and writes pose frames in the JSON form shared by
// recordings, the HTTP API and the live WebSocket.
//
// A frame looks like
//
//	{"t_ms":1200,"exercise":"squat","keypoints":[{"x":1,"y":2,"score":0.9},null,...]}
//
// where keypoints are in joint order and null marks a joint the pose source
// could not locate.
package poseio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/ayusman/repcount/internal/body"
	"github.com/ayusman/repcount/internal/counter"
	"github.com/ayusman/repcount/internal/exercise"
)

// maxLine bounds a single JSON line.
const maxLine = 1 << 20

// Frame is one pose sample.
type Frame struct {
	// TimeMillis is the offset from the start of a recording.
	TimeMillis int64 `json:"t_ms"`
	// Exercise optionally names the exercise to evaluate, as a label or
	// slug. It is kept as text so unknown names reach the engine.
	Exercise  string               `json:"exercise,omitempty"`
	Keypoints []*body.Keypoint `json:"keypoints"`
	Score     float64              `json:"score,omitempty"`
}

// FromPose converts a pose into a frame. Missing joints become null.
func FromPose(p body.Pose, offset time.Duration) Frame {
	f := Frame{
		TimeMillis: offset.Milliseconds(),
		Keypoints:  make([]*body.Keypoint, len(p.Keypoints)),
		Score:      p.Score,
	}
	for i := range p.Keypoints {
		if kp, ok := p.Joint(body.Joint(i)); ok {
			f.Keypoints[i] = &kp
		}
	}
	return f
}

// Pose converts the frame into a detector pose. Null keypoints become
// missing joints.
func (f Frame) Pose() body.Pose {
	p := body.Pose{
		Keypoints: make([]body.Keypoint, len(f.Keypoints)),
		Score:     f.Score,
	}
	for i, kp := range f.Keypoints {
		if kp == nil {
			p.Keypoints[i] = body.Keypoint{X: math.NaN(), Y: math.NaN()}
			continue
		}
		p.Keypoints[i] = *kp
	}
	return p
}

// Kind resolves the frame's exercise. An empty name gives "". A name that
// is not a known exercise is returned unchanged so the caller can report
// it as unsupported.
func (f Frame) Kind() exercise.Kind {
	if f.Exercise == "" {
		return ""
	}
	if k, err := exercise.ParseKind(f.Exercise); err == nil {
		return k
	}
	return exercise.Kind(f.Exercise)
}

// Offset returns TimeMillis as a duration.
func (f Frame) Offset() time.Duration {
	return time.Duration(f.TimeMillis) * time.Millisecond
}

// Decode parses a single frame.
func Decode(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if len(f.Keypoints) > body.NumJoints {
		return Frame{}, fmt.Errorf("decode frame: %d keypoints, at most %d allowed", len(f.Keypoints), body.NumJoints)
	}
	return f, nil
}

// ReadAll reads JSON-lines frames, skipping blank lines.
func ReadAll(r io.Reader) ([]Frame, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var frames []Frame
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		f, err := Decode(sc.Bytes())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		frames = append(frames, f)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}

// Write encodes frames as JSON lines.
func Write(w io.Writer, frames []Frame) error {
	enc := json.NewEncoder(w)
	for i := range frames {
		if err := enc.Encode(&frames[i]); err != nil {
			return err
		}
	}
	return nil
}

// Replay feeds frames through engine for kind, advancing clock to each
// frame's offset from start so release timers fire in recording time.
// Frames out of time order are rejected. Unless a frame names its own
// exercise, kind is used.
func Replay(engine *counter.Engine, clock *counter.ManualClock, kind exercise.Kind, frames []Frame) ([]counter.FrameResult, error) {
	start := clock.Now()
	results := make([]counter.FrameResult, 0, len(frames))

	var last int64
	for i, f := range frames {
		if i > 0 && f.TimeMillis < last {
			return results, fmt.Errorf("frame %d: t_ms %d before previous %d", i, f.TimeMillis, last)
		}
		last = f.TimeMillis

		clock.AdvanceTo(start.Add(f.Offset()))
		k := kind
		if fk := f.Kind(); fk != "" {
			k = fk
		}
		pose := f.Pose()
		res, err := engine.Evaluate(&pose, k, clock.Now())
		if err != nil {
			return results, fmt.Errorf("frame %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}
