package exercise

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/repcount/internal/body"
	"github.com/ayusman/repcount/internal/posetest"
)

func bendElbows(p body.Pose, deg float64) body.Pose {
	p = posetest.Bend(p, body.LeftShoulder, body.LeftElbow, body.LeftWrist, deg)
	return posetest.Bend(p, body.RightShoulder, body.RightElbow, body.RightWrist, deg)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		pose    body.Pose
		down    bool
		up      bool
		holding bool
	}{
		{"push-up bottom", PushUp, posetest.PushUp(90), true, false, false},
		{"push-up top", PushUp, posetest.PushUp(170), false, true, false},
		{"push-up mid", PushUp, posetest.PushUp(140), false, false, false},
		{"push-up sagging hips", PushUp, posetest.Sagging(90, 120), false, false, false},

		{"bench press bottom", BenchPress, posetest.Lying(90), true, false, false},
		{"bench press lockout", BenchPress, posetest.Lying(170), false, true, false},
		{"bench press standing", BenchPress, posetest.Curl(90), false, false, false},

		{"dumbbell bench press bottom", DumbbellBenchPress, posetest.Lying(100), true, false, false},
		{"dumbbell bench press lockout", DumbbellBenchPress, posetest.Lying(175), false, true, false},

		{"squat bottom", Squat, posetest.Squat(90, 90), true, false, false},
		{"squat standing", Squat, posetest.Squat(170, 170), false, true, false},
		{"squat collapsed hips", Squat, posetest.Squat(90, 30), false, false, false},

		{"goblet squat bottom", DumbbellGobletSquats, bendElbows(posetest.Squat(90, 90), 60), true, false, false},
		{"goblet squat standing", DumbbellGobletSquats, bendElbows(posetest.Squat(170, 170), 60), false, true, false},
		{"goblet squat without grip", DumbbellGobletSquats, posetest.Squat(90, 90), false, false, false},

		{"lunge left forward", LegLunge, posetest.Bend(posetest.Standing(), body.LeftHip, body.LeftKnee, body.LeftAnkle, 90), true, false, false},
		{"lunge standing", LegLunge, posetest.Standing(), false, true, false},
		{"lunge both bent", LegLunge, posetest.Squat(90, 90), false, false, false},

		{"plank straight", Plank, posetest.Plank(180), false, false, true},
		{"plank piked", Plank, posetest.Plank(90), false, false, false},
		{"side plank straight", SidePlank, posetest.Plank(178), false, false, true},
		{"side plank seated", SidePlank, posetest.Squat(90, 90), false, false, false},

		{"leg raises lifted", LegRaises, posetest.LegsRaised(90), true, false, false},
		{"leg raises lowered", LegRaises, posetest.Lying(170), false, true, false},

		{"russian twist left", RussianTwist, posetest.Twist(-60), true, false, false},
		{"russian twist right", RussianTwist, posetest.Twist(60), false, true, false},
		{"russian twist centered", RussianTwist, posetest.Standing(), false, false, false},

		{"burpee crouch", Burpee, posetest.Squat(90, 90), true, false, false},
		{"burpee stand", Burpee, posetest.Standing(), false, true, false},
		{"burpee plank top", Burpee, posetest.PushUp(170), false, true, false},

		{"shoulder press lockout", DumbbellShoulderPress, posetest.Arms(170, 170), true, false, false},
		{"shoulder press racked", DumbbellShoulderPress, posetest.Standing(), false, true, false},

		{"row pulled", DumbbellBentOverRows, bendElbows(posetest.Squat(170, 100), 60), true, false, false},
		{"row released", DumbbellBentOverRows, posetest.Squat(170, 100), false, true, false},
		{"row upright", DumbbellBentOverRows, posetest.Curl(60), false, false, false},

		{"curl top", DumbbellBicepCurls, posetest.Curl(60), true, false, false},
		{"curl bottom", DumbbellBicepCurls, posetest.Standing(), false, true, false},

		{"deadlift hinge", DumbbellDeadlift, posetest.Squat(170, 100), true, false, false},
		{"deadlift lockout", DumbbellDeadlift, posetest.Standing(), false, true, false},

		{"tricep extension bent", DumbbellTricepExtension, posetest.Arms(170, 60), true, false, false},
		{"tricep extension straight", DumbbellTricepExtension, posetest.Arms(170, 170), false, true, false},
		{"tricep extension arms down", DumbbellTricepExtension, posetest.Curl(60), false, false, false},

		{"lateral raise top", DumbbellLateralRaises, posetest.Arms(90, 170), true, false, false},
		{"lateral raise bottom", DumbbellLateralRaises, posetest.Standing(), false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pose := tt.pose
			got, err := Classify(tt.kind, &pose, DefaultThresholds())
			require.NoError(t, err)
			assert.Equal(t, tt.down, got.Down(), "down, angles %v", got.Angles)
			assert.Equal(t, tt.up, got.Up(), "up, angles %v", got.Angles)
			assert.Equal(t, tt.holding, got.Holding, "holding, angles %v", got.Angles)
		})
	}
}

func TestClassify_PerSide(t *testing.T) {
	pose := posetest.Bend(posetest.Standing(), body.LeftShoulder, body.LeftElbow, body.LeftWrist, 60)
	got, err := Classify(DumbbellBicepCurls, &pose, DefaultThresholds())
	require.NoError(t, err)
	assert.True(t, got.DownLeft)
	assert.False(t, got.DownRight)
	assert.False(t, got.UpLeft)
	assert.True(t, got.UpRight)
	assert.InDelta(t, 60.0, got.Angles["left_elbow"], 1e-6)
}

func TestClassify_Angles(t *testing.T) {
	pose := posetest.PushUp(90)
	got, err := Classify(PushUp, &pose, DefaultThresholds())
	require.NoError(t, err)
	assert.InDelta(t, 180.0, got.Angles["body"], 1e-6)
	assert.InDelta(t, 90.0, got.Angles["left_elbow"], 1e-6)
	assert.InDelta(t, 90.0, got.Angles["right_elbow"], 1e-6)
}

func TestClassify_DedicatedThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.CurlMax = 0
	th.LungeRearMin = 180

	racked := posetest.Standing()
	got, err := Classify(DumbbellShoulderPress, &racked, th)
	require.NoError(t, err)
	assert.True(t, got.Up(), "shoulder press ignores curl_max, angles %v", got.Angles)

	released := posetest.Squat(170, 100)
	got, err = Classify(DumbbellBentOverRows, &released, th)
	require.NoError(t, err)
	assert.True(t, got.Up(), "row ignores lunge_rear_min, angles %v", got.Angles)

	th = DefaultThresholds()
	th.RowReleaseMin = 180
	got, err = Classify(DumbbellBentOverRows, &released, th)
	require.NoError(t, err)
	assert.False(t, got.Up(), "row_release_min gates the release, angles %v", got.Angles)
}

func TestClassify_Invalid(t *testing.T) {
	th := DefaultThresholds()

	t.Run("low confidence hip", func(t *testing.T) {
		pose := posetest.WithScore(posetest.Squat(90, 90), body.LeftHip, 0.1)
		got, err := Classify(Squat, &pose, th)
		require.Error(t, err)
		assert.True(t, errors.Is(err, body.ErrLowConfidence))
		assert.Equal(t, Signals{}, got)
	})

	t.Run("missing elbow", func(t *testing.T) {
		pose := posetest.Missing(posetest.PushUp(90), body.RightElbow)
		_, err := Classify(PushUp, &pose, th)
		assert.ErrorIs(t, err, body.ErrJointMissing)
	})

	t.Run("joints a kind ignores do not matter", func(t *testing.T) {
		pose := posetest.Missing(posetest.Curl(60), body.LeftAnkle)
		_, err := Classify(DumbbellBicepCurls, &pose, th)
		assert.NoError(t, err)
	})

	t.Run("unscored keypoints", func(t *testing.T) {
		pose := posetest.WithoutScores(posetest.PushUp(90))
		got, err := Classify(PushUp, &pose, th)
		require.NoError(t, err)
		assert.True(t, got.Down())

		strict := th
		strict.StrictConfidence = true
		_, err = Classify(PushUp, &pose, strict)
		assert.ErrorIs(t, err, body.ErrLowConfidence)
	})

	t.Run("auto has no classifier", func(t *testing.T) {
		pose := posetest.Standing()
		_, err := Classify(Auto, &pose, th)
		assert.ErrorIs(t, err, ErrUnknownKind)
	})
}

func TestSupported(t *testing.T) {
	for _, k := range Kinds() {
		if k == Auto {
			assert.False(t, Supported(k))
			continue
		}
		assert.True(t, Supported(k), k)
		assert.NotEmpty(t, RequiredJoints(k), k)
	}
	assert.Nil(t, RequiredJoints("Handstand"))
}
