package exercise

import (
	"errors"
	"fmt"
)

// Thresholds are the angle and confidence limits used by the classifiers.
// Angles are in degrees.
type Thresholds struct {
	// ExtendedMin is the angle above which a joint counts as straight.
	ExtendedMin float64 `json:"extended_min"`
	// BentMin and BentMax bound the working band of a loaded joint.
	BentMin float64 `json:"bent_min"`
	BentMax float64 `json:"bent_max"`
	// HipCollapseMin is the lowest hip angle still treated as a controlled squat.
	HipCollapseMin float64 `json:"hip_collapse_min"`
	// CurlMax is the elbow angle below which an arm counts as flexed.
	CurlMax float64 `json:"curl_max"`
	// AlignmentMin is the shoulder-hip-ankle angle a push-up must hold.
	AlignmentMin float64 `json:"alignment_min"`
	// HoldAlignmentMin is the body-line angle required for planks.
	HoldAlignmentMin float64 `json:"hold_alignment_min"`
	// ForearmMax is the elbow angle of a forearm plank or goblet grip.
	ForearmMax float64 `json:"forearm_max"`
	// LungeRearMin is the knee angle of the trailing leg in a lunge and of
	// the soft knee in a deadlift.
	LungeRearMin float64 `json:"lunge_rear_min"`
	// ShoulderRackMax is the shoulder angle below which a pressed dumbbell
	// counts as back at the shoulders.
	ShoulderRackMax float64 `json:"shoulder_rack_max"`
	// RowReleaseMin is the elbow angle above which a rowing arm counts as
	// lowered.
	RowReleaseMin float64 `json:"row_release_min"`
	// HingeMax is the hip angle below which the torso counts as hinged forward.
	HingeMax float64 `json:"hinge_max"`
	// LyingMaxIncline is the steepest torso, from horizontal, still treated as lying.
	LyingMaxIncline float64 `json:"lying_max_incline"`
	// RaiseMin and RaiseMax bound the shoulder angle at the top of a lateral raise.
	RaiseMin float64 `json:"raise_min"`
	RaiseMax float64 `json:"raise_max"`
	// ArmsDownMax is the shoulder angle below which arms hang at the sides.
	ArmsDownMax float64 `json:"arms_down_max"`
	// LegRaiseMax is the shoulder-hip-ankle angle reached with legs lifted.
	LegRaiseMax float64 `json:"leg_raise_max"`
	// TwistRatio is the sideways shoulder offset, as a fraction of torso
	// length, that counts as a twist.
	TwistRatio float64 `json:"twist_ratio"`
	// MinConfidence is the keypoint score a joint must exceed.
	MinConfidence float64 `json:"min_confidence"`
	// StrictConfidence rejects keypoints that carry no score.
	StrictConfidence bool `json:"strict_confidence"`
}

// DefaultThresholds returns the tuned defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExtendedMin:      160,
		BentMin:          60,
		BentMax:          120,
		HipCollapseMin:   40,
		CurlMax:          90,
		AlignmentMin:     150,
		HoldAlignmentMin: 160,
		ForearmMax:       120,
		LungeRearMin:     140,
		ShoulderRackMax:  90,
		RowReleaseMin:    140,
		HingeMax:         140,
		LyingMaxIncline:  30,
		RaiseMin:         80,
		RaiseMax:         110,
		ArmsDownMax:      30,
		LegRaiseMax:      110,
		TwistRatio:       0.15,
		MinConfidence:    0.5,
	}
}

// Validate checks that every band is ordered and every limit is in range.
func (t Thresholds) Validate() error {
	var errs []error
	angles := []struct {
		name  string
		value float64
	}{
		{"extended_min", t.ExtendedMin},
		{"bent_min", t.BentMin},
		{"bent_max", t.BentMax},
		{"hip_collapse_min", t.HipCollapseMin},
		{"curl_max", t.CurlMax},
		{"alignment_min", t.AlignmentMin},
		{"hold_alignment_min", t.HoldAlignmentMin},
		{"forearm_max", t.ForearmMax},
		{"lunge_rear_min", t.LungeRearMin},
		{"shoulder_rack_max", t.ShoulderRackMax},
		{"row_release_min", t.RowReleaseMin},
		{"hinge_max", t.HingeMax},
		{"raise_min", t.RaiseMin},
		{"raise_max", t.RaiseMax},
		{"arms_down_max", t.ArmsDownMax},
		{"leg_raise_max", t.LegRaiseMax},
	}
	for _, a := range angles {
		if a.value < 0 || a.value > 180 {
			errs = append(errs, fmt.Errorf("%s must be within [0, 180], got %g", a.name, a.value))
		}
	}
	if t.LyingMaxIncline < 0 || t.LyingMaxIncline > 90 {
		errs = append(errs, fmt.Errorf("lying_max_incline must be within [0, 90], got %g", t.LyingMaxIncline))
	}
	if t.BentMin >= t.BentMax {
		errs = append(errs, fmt.Errorf("bent_min (%g) must be below bent_max (%g)", t.BentMin, t.BentMax))
	}
	if t.BentMax >= t.ExtendedMin {
		errs = append(errs, fmt.Errorf("bent_max (%g) must be below extended_min (%g)", t.BentMax, t.ExtendedMin))
	}
	if t.RaiseMin >= t.RaiseMax {
		errs = append(errs, fmt.Errorf("raise_min (%g) must be below raise_max (%g)", t.RaiseMin, t.RaiseMax))
	}
	if t.TwistRatio <= 0 || t.TwistRatio >= 1 {
		errs = append(errs, fmt.Errorf("twist_ratio must be within (0, 1), got %g", t.TwistRatio))
	}
	if t.MinConfidence < 0 || t.MinConfidence >= 1 {
		errs = append(errs, fmt.Errorf("min_confidence must be within [0, 1), got %g", t.MinConfidence))
	}
	return errors.Join(errs...)
}
