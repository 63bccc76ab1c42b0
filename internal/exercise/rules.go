package exercise

import "github.com/ayusman/repcount/internal/body"

// pushUp requires a straight shoulder-hip-ankle line before reading the elbows.
func pushUp(f frame, t Thresholds) Signals {
	line := f.record("body", body.AngleAt(
		f.mid(body.LeftShoulder, body.RightShoulder),
		f.mid(body.LeftHip, body.RightHip),
		f.mid(body.LeftAnkle, body.RightAnkle),
	))
	aligned := line >= t.AlignmentMin
	left, right := f.elbow(leftSide), f.elbow(rightSide)

	return f.signals(Signals{
		DownLeft:  aligned && within(left, t.BentMin, t.BentMax),
		DownRight: aligned && within(right, t.BentMin, t.BentMax),
		UpLeft:    aligned && left > t.ExtendedMin,
		UpRight:   aligned && right > t.ExtendedMin,
	})
}

// benchPress gates the elbows on a torso lying close to horizontal.
func benchPress(f frame, t Thresholds) Signals {
	incline := f.record("torso_incline", body.Inclination(
		f.mid(body.LeftShoulder, body.RightShoulder),
		f.mid(body.LeftHip, body.RightHip),
	))
	lying := incline <= t.LyingMaxIncline
	left, right := f.elbow(leftSide), f.elbow(rightSide)

	return f.signals(Signals{
		DownLeft:  lying && within(left, t.BentMin, t.BentMax),
		DownRight: lying && within(right, t.BentMin, t.BentMax),
		UpLeft:    lying && left > t.ExtendedMin,
		UpRight:   lying && right > t.ExtendedMin,
	})
}

func dumbbellBenchPress(f frame, t Thresholds) Signals {
	left, right := f.elbow(leftSide), f.elbow(rightSide)
	return f.signals(Signals{
		DownLeft:  within(left, t.BentMin, t.BentMax),
		DownRight: within(right, t.BentMin, t.BentMax),
		UpLeft:    left > t.ExtendedMin,
		UpRight:   right > t.ExtendedMin,
	})
}

// squatSide rejects hip angles below the collapse guard.
func squatSide(f frame, s side, t Thresholds) (down, up bool) {
	knee, hip := f.knee(s), f.hip(s)
	down = within(knee, t.BentMin, t.BentMax) && within(hip, t.HipCollapseMin, t.BentMax)
	up = knee > t.ExtendedMin && hip > t.ExtendedMin
	return down, up
}

func squat(f frame, t Thresholds) Signals {
	var s Signals
	s.DownLeft, s.UpLeft = squatSide(f, leftSide, t)
	s.DownRight, s.UpRight = squatSide(f, rightSide, t)
	return f.signals(s)
}

// gobletSquat reads the knees while both elbows hold the weight at the chest.
func gobletSquat(f frame, t Thresholds) Signals {
	grip := f.elbow(leftSide) <= t.ForearmMax && f.elbow(rightSide) <= t.ForearmMax
	left, right := f.knee(leftSide), f.knee(rightSide)
	return f.signals(Signals{
		DownLeft:  grip && within(left, t.BentMin, t.BentMax),
		DownRight: grip && within(right, t.BentMin, t.BentMax),
		UpLeft:    grip && left > t.ExtendedMin,
		UpRight:   grip && right > t.ExtendedMin,
	})
}

// lunge is down when one knee is bent and the other stays long behind it.
func lunge(f frame, t Thresholds) Signals {
	left, right := f.knee(leftSide), f.knee(rightSide)
	leftForward := within(left, t.BentMin, t.BentMax) && right > t.LungeRearMin
	rightForward := within(right, t.BentMin, t.BentMax) && left > t.LungeRearMin
	standing := left > t.ExtendedMin && right > t.ExtendedMin
	return f.signals(Signals{
		DownLeft:  leftForward,
		DownRight: rightForward,
		UpLeft:    standing,
		UpRight:   standing,
	})
}

// plank holds with a straight shoulder-hip-knee line on both sides and bent
// elbows resting on the forearms.
func plank(f frame, t Thresholds) Signals {
	leftBody := f.angle("left_body", body.LeftShoulder, body.LeftHip, body.LeftKnee)
	rightBody := f.angle("right_body", body.RightShoulder, body.RightHip, body.RightKnee)
	straight := leftBody >= t.HoldAlignmentMin && rightBody >= t.HoldAlignmentMin
	forearms := f.elbow(leftSide) <= t.ForearmMax && f.elbow(rightSide) <= t.ForearmMax
	return f.signals(Signals{Holding: straight && forearms})
}

func sidePlank(f frame, t Thresholds) Signals {
	left := f.angle("left_body", body.LeftShoulder, body.LeftHip, body.LeftAnkle)
	right := f.angle("right_body", body.RightShoulder, body.RightHip, body.RightAnkle)
	return f.signals(Signals{Holding: left >= t.HoldAlignmentMin || right >= t.HoldAlignmentMin})
}

// legRaises counts lifting straight legs towards the torso and lowering them flat.
func legRaises(f frame, t Thresholds) Signals {
	var s Signals
	for _, sd := range []side{leftSide, rightSide} {
		straight := f.knee(sd) > t.ExtendedMin
		fold := f.angle(sd.name+"_fold", sd.shoulder, sd.hip, sd.ankle)
		down := straight && fold <= t.LegRaiseMax
		up := straight && fold > t.ExtendedMin
		s.set(sd, down, up)
	}
	return f.signals(s)
}

// russianTwist reads a sideways shoulder shift relative to torso length.
// Twisting left arms the counter and twisting right commits, so each
// left-right alternation is one repetition.
func russianTwist(f frame, t Thresholds) Signals {
	torsoLen := body.Distance(
		f.mid(body.LeftShoulder, body.RightShoulder),
		f.mid(body.LeftHip, body.RightHip),
	)
	offset := t.TwistRatio * torsoLen
	leftShift := f.at(body.LeftHip).X - f.at(body.LeftShoulder).X
	rightShift := f.at(body.RightShoulder).X - f.at(body.RightHip).X
	f.record("torso_length", torsoLen)
	f.record("left_shift", leftShift)
	f.record("right_shift", rightShift)

	twistLeft := torsoLen > 0 && leftShift > offset
	twistRight := torsoLen > 0 && rightShift > offset
	return f.signals(Signals{
		DownLeft:  twistLeft,
		DownRight: twistLeft,
		UpLeft:    twistRight,
		UpRight:   twistRight,
	})
}

// burpee arms on the crouch or the push-up and commits on standing tall.
func burpee(f frame, t Thresholds) Signals {
	lk, rk := f.knee(leftSide), f.knee(rightSide)
	le, re := f.elbow(leftSide), f.elbow(rightSide)
	lh, rh := f.hip(leftSide), f.hip(rightSide)
	down := (lk <= t.BentMax && rk <= t.BentMax) || (le <= t.BentMax && re <= t.BentMax)
	up := lk > t.ExtendedMin && rk > t.ExtendedMin && lh > t.ExtendedMin && rh > t.ExtendedMin
	return f.signals(Signals{
		DownLeft:  down,
		DownRight: down,
		UpLeft:    up,
		UpRight:   up,
	})
}

// shoulderPress arms at lockout overhead and commits when the elbows come back
// below shoulder height.
func shoulderPress(f frame, t Thresholds) Signals {
	var s Signals
	for _, sd := range []side{leftSide, rightSide} {
		sh, el := f.shoulder(sd), f.elbow(sd)
		down := sh > t.ExtendedMin && el > t.ExtendedMin
		up := sh < t.ShoulderRackMax
		s.set(sd, down, up)
	}
	return f.signals(s)
}

// bentOverRow only reads the arms while the torso is hinged forward.
func bentOverRow(f frame, t Thresholds) Signals {
	hinged := f.hip(leftSide) <= t.HingeMax && f.hip(rightSide) <= t.HingeMax
	left, right := f.elbow(leftSide), f.elbow(rightSide)
	return f.signals(Signals{
		DownLeft:  hinged && left <= t.CurlMax,
		DownRight: hinged && right <= t.CurlMax,
		UpLeft:    hinged && left > t.RowReleaseMin,
		UpRight:   hinged && right > t.RowReleaseMin,
	})
}

func bicepCurl(f frame, t Thresholds) Signals {
	left, right := f.elbow(leftSide), f.elbow(rightSide)
	return f.signals(Signals{
		DownLeft:  left <= t.CurlMax,
		DownRight: right <= t.CurlMax,
		UpLeft:    left > t.ExtendedMin,
		UpRight:   right > t.ExtendedMin,
	})
}

// romanianDeadlift arms on a deep hip hinge with soft knees and hanging arms.
func romanianDeadlift(f frame, t Thresholds) Signals {
	var s Signals
	for _, sd := range []side{leftSide, rightSide} {
		hip, knee := f.hip(sd), f.knee(sd)
		hanging := f.at(sd.elbow).Y > f.at(sd.shoulder).Y
		down := hip <= t.BentMax && knee > t.LungeRearMin && hanging
		up := hip > t.ExtendedMin
		s.set(sd, down, up)
	}
	return f.signals(s)
}

// tricepExtension reads the elbows while they point up above the shoulders.
func tricepExtension(f frame, t Thresholds) Signals {
	var s Signals
	for _, sd := range []side{leftSide, rightSide} {
		raised := f.at(sd.elbow).Y < f.at(sd.shoulder).Y
		el := f.elbow(sd)
		down := raised && el <= t.CurlMax
		up := raised && el > t.ExtendedMin
		s.set(sd, down, up)
	}
	return f.signals(s)
}

// lateralRaise needs both arms level at the top and both hanging at the bottom.
func lateralRaise(f frame, t Thresholds) Signals {
	left, right := f.shoulder(leftSide), f.shoulder(rightSide)
	top := within(left, t.RaiseMin, t.RaiseMax) && within(right, t.RaiseMin, t.RaiseMax)
	bottom := left < t.ArmsDownMax && right < t.ArmsDownMax
	return f.signals(Signals{
		DownLeft:  top,
		DownRight: top,
		UpLeft:    bottom,
		UpRight:   bottom,
	})
}
