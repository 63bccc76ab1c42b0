package body

// StandingPose returns a preset of an upright person facing the camera with
// straight arms and legs, all joints scored 0.9.
func StandingPose() Pose {
	points := [NumJoints][2]float64{
		Nose:          {320, 80},
		LeftEye:       {330, 70},
		RightEye:      {310, 70},
		LeftEar:       {340, 75},
		RightEar:      {300, 75},
		LeftShoulder:  {360, 140},
		RightShoulder: {280, 140},
		LeftElbow:     {365, 220},
		RightElbow:    {275, 220},
		LeftWrist:     {368, 300},
		RightWrist:    {272, 300},
		LeftHip:       {345, 300},
		RightHip:      {295, 300},
		LeftKnee:      {346, 400},
		RightKnee:     {294, 400},
		LeftAnkle:     {347, 500},
		RightAnkle:    {293, 500},
	}
	return poseFromPoints(points, 0.9)
}

// EmptyPose returns a pose with every joint missing.
func EmptyPose() Pose {
	pose := Pose{Keypoints: make([]Keypoint, NumJoints)}
	for i := range pose.Keypoints {
		pose.Keypoints[i] = Keypoint{X: nan(), Y: nan()}
	}
	return pose
}

func poseFromPoints(points [NumJoints][2]float64, score float64) Pose {
	pose := Pose{
		Keypoints: make([]Keypoint, NumJoints),
		Score:     score,
	}
	for i, p := range points {
		s := score
		pose.Keypoints[i] = Keypoint{X: p[0], Y: p[1], Score: &s}
	}
	return pose
}
