// Package posetest builds synthetic poses with exact joint angles for tests.
package posetest

import (
	"embed"
	"fmt"
	"io"
	"math"

	"github.com/ayusman/repcount/internal/body"
)

// Score is the confidence given to every generated keypoint.
const Score = 0.9

//go:embed recordings/*.jsonl
var recordingsFS embed.FS

// Recording opens an embedded JSON-lines pose recording by file name.
func Recording(name string) (io.ReadCloser, error) {
	f, err := recordingsFS.Open("recordings/" + name)
	if err != nil {
		return nil, fmt.Errorf("load recording %s: %w", name, err)
	}
	return f, nil
}

// Rotate returns the point at distance length from vertex such that the angle
// from->vertex->result equals deg.
func Rotate(vertex, from body.Keypoint, deg, length float64) body.Keypoint {
	dx, dy := from.X-vertex.X, from.Y-vertex.Y
	norm := math.Hypot(dx, dy)
	if norm == 0 {
		dx, dy, norm = 1, 0, 1
	}
	ux, uy := dx/norm, dy/norm
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	out := body.Keypoint{
		X: vertex.X + length*(ux*cos-uy*sin),
		Y: vertex.Y + length*(ux*sin+uy*cos),
	}
	if vertex.Score != nil {
		s := *vertex.Score
		out.Score = &s
	}
	return out
}

// Bend moves joint c so that the angle a-b-c equals deg, keeping its distance
// from b.
func Bend(p body.Pose, a, b, c body.Joint, deg float64) body.Pose {
	out := *p.Clone()
	length := body.Distance(out.Keypoints[b], out.Keypoints[c])
	out.Keypoints[c] = Rotate(out.Keypoints[b], out.Keypoints[a], deg, length)
	return out
}

// Translate shifts joint j, and nothing else, by dx, dy.
func Translate(p body.Pose, j body.Joint, dx, dy float64) body.Pose {
	out := *p.Clone()
	out.Keypoints[j].X += dx
	out.Keypoints[j].Y += dy
	return out
}

// WithScore returns a copy of p with joint j scored s.
func WithScore(p body.Pose, j body.Joint, s float64) body.Pose {
	out := *p.Clone()
	out.Keypoints[j].Score = &s
	return out
}

// WithoutScores returns a copy of p where no keypoint reports a confidence.
func WithoutScores(p body.Pose) body.Pose {
	out := *p.Clone()
	for i := range out.Keypoints {
		out.Keypoints[i].Score = nil
	}
	return out
}

// Missing returns a copy of p with joint j set to NaN.
func Missing(p body.Pose, j body.Joint) body.Pose {
	out := *p.Clone()
	out.Keypoints[j].X = math.NaN()
	out.Keypoints[j].Y = math.NaN()
	return out
}

// Standing is an upright person with straight arms and legs, arms at the sides.
func Standing() body.Pose {
	return body.StandingPose()
}

// build places both sides on the same side-view coordinates, the right side
// shifted horizontally by offset.
func build(left map[string][2]float64, offset float64) body.Pose {
	pose := body.EmptyPose()
	pose.Score = Score
	joints := map[string][2]body.Joint{
		"shoulder": {body.LeftShoulder, body.RightShoulder},
		"elbow":    {body.LeftElbow, body.RightElbow},
		"wrist":    {body.LeftWrist, body.RightWrist},
		"hip":      {body.LeftHip, body.RightHip},
		"knee":     {body.LeftKnee, body.RightKnee},
		"ankle":    {body.LeftAnkle, body.RightAnkle},
	}
	for name, pair := range joints {
		xy, ok := left[name]
		if !ok {
			continue
		}
		ls, rs := Score, Score
		pose.Keypoints[pair[0]] = body.Keypoint{X: xy[0], Y: xy[1], Score: &ls}
		pose.Keypoints[pair[1]] = body.Keypoint{X: xy[0] + offset, Y: xy[1], Score: &rs}
	}
	head := left["shoulder"]
	for _, j := range []body.Joint{body.Nose, body.LeftEye, body.RightEye, body.LeftEar, body.RightEar} {
		s := Score
		pose.Keypoints[j] = body.Keypoint{X: head[0] + 40, Y: head[1] - 20, Score: &s}
	}
	return pose
}

func kp(xy [2]float64) body.Keypoint {
	return body.Keypoint{X: xy[0], Y: xy[1]}
}

func xy(k body.Keypoint) [2]float64 {
	return [2]float64{k.X, k.Y}
}

// PushUp is a side-view push-up with a straight horizontal body and the given
// elbow angle on both arms.
func PushUp(elbowDeg float64) body.Pose {
	pts := map[string][2]float64{
		"ankle":    {100, 300},
		"knee":     {200, 300},
		"hip":      {300, 300},
		"shoulder": {500, 300},
		"elbow":    {500, 390},
	}
	pts["wrist"] = xy(Rotate(kp(pts["elbow"]), kp(pts["shoulder"]), elbowDeg, 90))
	return build(pts, 0)
}

// Sagging is a push-up position with the feet moved so the shoulder-hip-ankle
// line bends to bodyDeg.
func Sagging(elbowDeg, bodyDeg float64) body.Pose {
	pose := PushUp(elbowDeg)
	for _, pair := range [][3]body.Joint{
		{body.LeftShoulder, body.LeftHip, body.LeftAnkle},
		{body.RightShoulder, body.RightHip, body.RightAnkle},
	} {
		pose = Bend(pose, pair[0], pair[1], pair[2], bodyDeg)
	}
	return pose
}

// Squat is a side view with the given knee and hip angles. The shin stays
// vertical and arms hang along the torso.
func Squat(kneeDeg, hipDeg float64) body.Pose {
	ankle := body.Keypoint{X: 300, Y: 500}
	knee := body.Keypoint{X: 300, Y: 400}
	hip := Rotate(knee, ankle, kneeDeg, 100)
	shoulder := Rotate(hip, knee, -hipDeg, 150)
	elbow := body.Keypoint{X: shoulder.X, Y: shoulder.Y + 80}
	wrist := body.Keypoint{X: shoulder.X, Y: shoulder.Y + 160}
	return build(map[string][2]float64{
		"ankle":    xy(ankle),
		"knee":     xy(knee),
		"hip":      xy(hip),
		"shoulder": xy(shoulder),
		"elbow":    xy(elbow),
		"wrist":    xy(wrist),
	}, 10)
}

// Plank is a forearm plank seen from the side with the shoulder-hip-knee line
// at bodyDeg and both elbows at 90 degrees.
func Plank(bodyDeg float64) body.Pose {
	knee := body.Keypoint{X: 200, Y: 300}
	hip := body.Keypoint{X: 350, Y: 300}
	shoulder := Rotate(hip, knee, bodyDeg, 150)
	elbow := body.Keypoint{X: shoulder.X, Y: shoulder.Y + 80}
	wrist := Rotate(elbow, shoulder, 90, 80)
	return build(map[string][2]float64{
		"ankle":    {50, 300},
		"knee":     xy(knee),
		"hip":      xy(hip),
		"shoulder": xy(shoulder),
		"elbow":    xy(elbow),
		"wrist":    xy(wrist),
	}, 0)
}

// Lying is a supine bench position with both elbows at elbowDeg.
func Lying(elbowDeg float64) body.Pose {
	pts := map[string][2]float64{
		"ankle":    {100, 300},
		"knee":     {200, 300},
		"hip":      {300, 300},
		"shoulder": {480, 300},
		"elbow":    {480, 220},
	}
	pts["wrist"] = xy(Rotate(kp(pts["elbow"]), kp(pts["shoulder"]), elbowDeg, 80))
	return build(pts, 0)
}

// Curl is a standing pose with both elbows at elbowDeg.
func Curl(elbowDeg float64) body.Pose {
	p := Standing()
	p = Bend(p, body.LeftShoulder, body.LeftElbow, body.LeftWrist, elbowDeg)
	return Bend(p, body.RightShoulder, body.RightElbow, body.RightWrist, -elbowDeg)
}

// Arms is a standing pose with both upper arms raised to shoulderDeg from the
// torso and both elbows at elbowDeg.
func Arms(shoulderDeg, elbowDeg float64) body.Pose {
	p := Standing()
	p = raiseArm(p, body.LeftHip, body.LeftShoulder, body.LeftElbow, body.LeftWrist, -shoulderDeg)
	p = raiseArm(p, body.RightHip, body.RightShoulder, body.RightElbow, body.RightWrist, shoulderDeg)
	p = Bend(p, body.LeftShoulder, body.LeftElbow, body.LeftWrist, elbowDeg)
	return Bend(p, body.RightShoulder, body.RightElbow, body.RightWrist, -elbowDeg)
}

// LegsRaised is a supine pose with straight legs lifted so the
// shoulder-hip-ankle angle equals foldDeg.
func LegsRaised(foldDeg float64) body.Pose {
	p := Lying(170)
	for _, side := range [][4]body.Joint{
		{body.LeftShoulder, body.LeftHip, body.LeftKnee, body.LeftAnkle},
		{body.RightShoulder, body.RightHip, body.RightKnee, body.RightAnkle},
	} {
		p = Bend(p, side[0], side[1], side[2], foldDeg)
		p = Bend(p, side[0], side[1], side[3], foldDeg)
	}
	return p
}

// Twist is a standing pose with both shoulders shifted sideways by dx.
func Twist(dx float64) body.Pose {
	p := Standing()
	p = Translate(p, body.LeftShoulder, dx, 0)
	return Translate(p, body.RightShoulder, dx, 0)
}

// raiseArm swings the elbow about the shoulder and carries the wrist along.
func raiseArm(p body.Pose, hip, shoulder, elbow, wrist body.Joint, deg float64) body.Pose {
	before := p.Keypoints[elbow]
	p = Bend(p, hip, shoulder, elbow, deg)
	after := p.Keypoints[elbow]
	return Translate(p, wrist, after.X-before.X, after.Y-before.Y)
}
