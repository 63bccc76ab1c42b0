// Package body defines the COCO-17 keypoint layout, poses and the joint
// geometry used to classify exercises.
package body

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Joint identifies a body keypoint in the 17-point single-person layout used by
// MoveNet and other COCO-style pose models. Right-side joints are the left-side
// index plus one.
type Joint int

// Body keypoint indices following the COCO convention.
const (
	Nose          Joint = 0
	LeftEye       Joint = 1
	RightEye      Joint = 2
	LeftEar       Joint = 3
	RightEar      Joint = 4
	LeftShoulder  Joint = 5
	RightShoulder Joint = 6
	LeftElbow     Joint = 7
	RightElbow    Joint = 8
	LeftWrist     Joint = 9
	RightWrist    Joint = 10
	LeftHip       Joint = 11
	RightHip      Joint = 12
	LeftKnee      Joint = 13
	RightKnee     Joint = 14
	LeftAnkle     Joint = 15
	RightAnkle    Joint = 16
	NumJoints           = 17
)

var jointNames = [NumJoints]string{
	"nose",
	"left_eye",
	"right_eye",
	"left_ear",
	"right_ear",
	"left_shoulder",
	"right_shoulder",
	"left_elbow",
	"right_elbow",
	"left_wrist",
	"right_wrist",
	"left_hip",
	"right_hip",
	"left_knee",
	"right_knee",
	"left_ankle",
	"right_ankle",
}

// String returns the snake_case joint name reported by the pose model.
func (j Joint) String() string {
	if j < 0 || int(j) >= NumJoints {
		return fmt.Sprintf("joint(%d)", int(j))
	}
	return jointNames[j]
}

// ParseJoint converts a joint name such as "left_knee" into a Joint.
func ParseJoint(name string) (Joint, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	for i, n := range jointNames {
		if n == normalized {
			return Joint(i), nil
		}
	}
	return 0, fmt.Errorf("unknown joint %q", name)
}

// Skeleton lists the limb connections drawn in the debug overlay.
var Skeleton = [][2]Joint{
	{LeftShoulder, LeftElbow},
	{LeftElbow, LeftWrist},
	{RightShoulder, RightElbow},
	{RightElbow, RightWrist},
	{LeftShoulder, RightShoulder},
	{LeftShoulder, LeftHip},
	{RightShoulder, RightHip},
	{LeftHip, RightHip},
	{LeftHip, LeftKnee},
	{LeftKnee, LeftAnkle},
	{RightHip, RightKnee},
	{RightKnee, RightAnkle},
}

// Keypoint is a single joint location in image pixel coordinates.
// Score is nil when the pose source does not report a confidence.
type Keypoint struct {
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Score *float64 `json:"score,omitempty"`
}

// Confidence returns the keypoint score and whether one was reported.
func (k Keypoint) Confidence() (float64, bool) {
	if k.Score == nil {
		return 0, false
	}
	return *k.Score, true
}

// Pose is the set of keypoints produced by one estimation call, indexed by Joint.
type Pose struct {
	Keypoints []Keypoint `json:"keypoints"`
	Score     float64    `json:"score,omitempty"`
}

// Errors reported by Require.
var (
	ErrJointMissing  = errors.New("joint missing")
	ErrLowConfidence = errors.New("joint confidence below threshold")
)

// JointError describes why a required joint could not be used.
type JointError struct {
	Joint Joint
	Err   error
}

func (e *JointError) Error() string {
	return fmt.Sprintf("%s: %v", e.Joint, e.Err)
}

func (e *JointError) Unwrap() error {
	return e.Err
}

// Joint returns the keypoint for j and whether it is present with finite coordinates.
func (p *Pose) Joint(j Joint) (Keypoint, bool) {
	if p == nil || j < 0 || int(j) >= len(p.Keypoints) {
		return Keypoint{}, false
	}
	k := p.Keypoints[j]
	if !IsValid(k) {
		return Keypoint{}, false
	}
	return k, true
}

// At returns the keypoint for j without validation. Callers must Require the
// joint first.
func (p *Pose) At(j Joint) Keypoint {
	return p.Keypoints[j]
}

// Require checks that every joint is present and confident enough to compute
// angles from. With strict set, keypoints without a reported score fail too.
func (p *Pose) Require(minConfidence float64, strict bool, joints ...Joint) error {
	for _, j := range joints {
		k, ok := p.Joint(j)
		if !ok {
			return &JointError{Joint: j, Err: ErrJointMissing}
		}
		if _, reported := k.Confidence(); strict && !reported {
			return &JointError{Joint: j, Err: ErrLowConfidence}
		}
		if !IsConfident(k, minConfidence) {
			return &JointError{Joint: j, Err: ErrLowConfidence}
		}
	}
	return nil
}

// Clone returns a deep copy of the pose.
func (p *Pose) Clone() *Pose {
	if p == nil {
		return nil
	}
	out := &Pose{
		Keypoints: make([]Keypoint, len(p.Keypoints)),
		Score:     p.Score,
	}
	for i, k := range p.Keypoints {
		out.Keypoints[i] = Keypoint{X: k.X, Y: k.Y}
		if k.Score != nil {
			s := *k.Score
			out.Keypoints[i].Score = &s
		}
	}
	return out
}

// finite reports whether v is neither NaN nor infinite.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
