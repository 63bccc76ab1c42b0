package body

import "math"

// AngleAt returns the unsigned interior angle at vertex, in degrees, formed by
// the rays towards p1 and p3. Results above 180 are folded to 360 minus the
// value, so the direction of bend is not distinguished.
// Callers must validate the points first.
func AngleAt(p1, vertex, p3 Keypoint) float64 {
	radians := math.Atan2(p3.Y-vertex.Y, p3.X-vertex.X) -
		math.Atan2(p1.Y-vertex.Y, p1.X-vertex.X)
	angle := math.Abs(radians * 180.0 / math.Pi)
	if angle > 180 {
		angle = 360 - angle
	}
	return angle
}

// IsValid reports whether every point has finite coordinates.
func IsValid(points ...Keypoint) bool {
	for _, p := range points {
		if !finite(p.X) || !finite(p.Y) {
			return false
		}
	}
	return true
}

// IsConfident reports whether the point's score exceeds threshold.
// A point without a score is treated as confident.
func IsConfident(p Keypoint, threshold float64) bool {
	score, ok := p.Confidence()
	if !ok {
		return true
	}
	return score > threshold
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Keypoint) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Midpoint returns the point halfway between a and b. The score is the lower
// of the two, or nil if either is unscored.
func Midpoint(a, b Keypoint) Keypoint {
	mid := Keypoint{
		X: (a.X + b.X) / 2,
		Y: (a.Y + b.Y) / 2,
	}
	sa, okA := a.Confidence()
	sb, okB := b.Confidence()
	if okA && okB {
		s := math.Min(sa, sb)
		mid.Score = &s
	}
	return mid
}

// Inclination returns the angle in degrees between segment a-b and the image
// horizontal, in [0, 90].
func Inclination(a, b Keypoint) float64 {
	dx := math.Abs(b.X - a.X)
	dy := math.Abs(b.Y - a.Y)
	if dx == 0 && dy == 0 {
		return 0
	}
	return math.Atan2(dy, dx) * 180.0 / math.Pi
}

func nan() float64 {
	return math.NaN()
}
