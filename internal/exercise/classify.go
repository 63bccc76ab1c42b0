package exercise

import (
	"fmt"

	"github.com/ayusman/repcount/internal/body"
)

// Signals is the per-frame classification of a pose.
//
// Down is the exertion position that arms the counter and Up is the return
// position that commits a repetition. Holding is only set by isometric kinds.
type Signals struct {
	DownLeft  bool `json:"down_left"`
	UpLeft    bool `json:"up_left"`
	DownRight bool `json:"down_right"`
	UpRight   bool `json:"up_right"`
	Holding   bool `json:"holding"`

	// Angles holds the measurements behind the decision, keyed by name.
	Angles map[string]float64 `json:"angles,omitempty"`
}

// Down reports whether either side is in the exertion position.
func (s Signals) Down() bool {
	return s.DownLeft || s.DownRight
}

// Up reports whether either side is in the return position.
func (s Signals) Up() bool {
	return s.UpLeft || s.UpRight
}

func (s *Signals) set(sd side, down, up bool) {
	if sd == leftSide {
		s.DownLeft, s.UpLeft = down, up
		return
	}
	s.DownRight, s.UpRight = down, up
}

type side struct {
	name     string
	shoulder body.Joint
	elbow    body.Joint
	wrist    body.Joint
	hip      body.Joint
	knee     body.Joint
	ankle    body.Joint
}

var (
	leftSide = side{
		name:     "left",
		shoulder: body.LeftShoulder,
		elbow:    body.LeftElbow,
		wrist:    body.LeftWrist,
		hip:      body.LeftHip,
		knee:     body.LeftKnee,
		ankle:    body.LeftAnkle,
	}
	rightSide = side{
		name:     "right",
		shoulder: body.RightShoulder,
		elbow:    body.RightElbow,
		wrist:    body.RightWrist,
		hip:      body.RightHip,
		knee:     body.RightKnee,
		ankle:    body.RightAnkle,
	}
)

// Joint groups used to build requirement lists.
var (
	arms = []body.Joint{
		body.LeftShoulder, body.RightShoulder,
		body.LeftElbow, body.RightElbow,
		body.LeftWrist, body.RightWrist,
	}
	torso = []body.Joint{
		body.LeftShoulder, body.RightShoulder,
		body.LeftHip, body.RightHip,
	}
	legs = []body.Joint{
		body.LeftHip, body.RightHip,
		body.LeftKnee, body.RightKnee,
		body.LeftAnkle, body.RightAnkle,
	}
)

// classifier is one stateless rule set.
type classifier struct {
	joints   []body.Joint
	classify func(f frame, t Thresholds) Signals
}

var classifiers = map[Kind]classifier{
	PushUp:                  {joints: union(arms, torso, legs), classify: pushUp},
	BenchPress:              {joints: union(arms, torso), classify: benchPress},
	DumbbellBenchPress:      {joints: arms, classify: dumbbellBenchPress},
	Squat:                   {joints: union(torso, legs), classify: squat},
	DumbbellGobletSquats:    {joints: union(arms, torso, legs), classify: gobletSquat},
	LegLunge:                {joints: legs, classify: lunge},
	Plank:                   {joints: union(arms, torso, legs), classify: plank},
	SidePlank:               {joints: union(torso, legs), classify: sidePlank},
	LegRaises:               {joints: union(torso, legs), classify: legRaises},
	RussianTwist:            {joints: torso, classify: russianTwist},
	Burpee:                  {joints: union(arms, torso, legs), classify: burpee},
	DumbbellShoulderPress:   {joints: union(arms, torso), classify: shoulderPress},
	DumbbellBentOverRows:    {joints: union(arms, torso, legs), classify: bentOverRow},
	DumbbellBicepCurls:      {joints: arms, classify: bicepCurl},
	DumbbellDeadlift:        {joints: union(arms, torso, legs), classify: romanianDeadlift},
	DumbbellTricepExtension: {joints: union(arms, torso), classify: tricepExtension},
	DumbbellLateralRaises:   {joints: union(arms, torso), classify: lateralRaise},
}

// Supported reports whether kind has a classifier. Auto does not.
func Supported(kind Kind) bool {
	_, ok := classifiers[kind]
	return ok
}

// RequiredJoints returns the joints kind needs, in index order.
func RequiredJoints(kind Kind) []body.Joint {
	c, ok := classifiers[kind]
	if !ok {
		return nil
	}
	out := make([]body.Joint, len(c.joints))
	copy(out, c.joints)
	return out
}

// Classify computes the signals for one pose. It checks the required joints
// first and returns the accessor error, with no signals, when any of them is
// missing or not confident.
func Classify(kind Kind, pose *body.Pose, t Thresholds) (Signals, error) {
	c, ok := classifiers[kind]
	if !ok {
		return Signals{}, fmt.Errorf("%w: no classifier for %q", ErrUnknownKind, kind)
	}
	if err := pose.Require(t.MinConfidence, t.StrictConfidence, c.joints...); err != nil {
		return Signals{}, err
	}
	return c.classify(frame{pose: pose, angles: make(map[string]float64)}, t), nil
}

// frame wraps a validated pose and records every measurement taken from it.
type frame struct {
	pose   *body.Pose
	angles map[string]float64
}

func (f frame) at(j body.Joint) body.Keypoint {
	return f.pose.At(j)
}

// angle measures the angle at b and records it under name.
func (f frame) angle(name string, a, b, c body.Joint) float64 {
	v := body.AngleAt(f.at(a), f.at(b), f.at(c))
	f.angles[name] = v
	return v
}

func (f frame) mid(a, b body.Joint) body.Keypoint {
	return body.Midpoint(f.at(a), f.at(b))
}

func (f frame) record(name string, v float64) float64 {
	f.angles[name] = v
	return v
}

func (f frame) signals(s Signals) Signals {
	s.Angles = f.angles
	return s
}

func (f frame) elbow(s side) float64 {
	return f.angle(s.name+"_elbow", s.shoulder, s.elbow, s.wrist)
}

func (f frame) knee(s side) float64 {
	return f.angle(s.name+"_knee", s.hip, s.knee, s.ankle)
}

func (f frame) hip(s side) float64 {
	return f.angle(s.name+"_hip", s.shoulder, s.hip, s.knee)
}

// shoulder is the angle between upper arm and torso.
func (f frame) shoulder(s side) float64 {
	return f.angle(s.name+"_shoulder", s.elbow, s.shoulder, s.hip)
}

func within(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func union(groups ...[]body.Joint) []body.Joint {
	var seen [body.NumJoints]bool
	for _, g := range groups {
		for _, j := range g {
			seen[j] = true
		}
	}
	var out []body.Joint
	for j, ok := range seen {
		if ok {
			out = append(out, body.Joint(j))
		}
	}
	return out
}
