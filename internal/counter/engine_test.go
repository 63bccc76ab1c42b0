package counter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/repcount/internal/body"
	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/posetest"
)

// feeder plays poses into an engine at a fixed frame interval.
type feeder struct {
	t      *testing.T
	clock  *ManualClock
	engine *Engine
	kind   exercise.Kind
	frame  time.Duration
}

func newFeeder(t *testing.T, kind exercise.Kind) *feeder {
	clock := NewManualClock(epoch)
	e := NewEngine(DefaultConfig(), clock)
	t.Cleanup(e.Close)
	return &feeder{t: t, clock: clock, engine: e, kind: kind, frame: 100 * time.Millisecond}
}

func (f *feeder) feed(p body.Pose) FrameResult {
	f.t.Helper()
	f.clock.Advance(f.frame)
	res, err := f.engine.Evaluate(&p, f.kind, f.clock.Now())
	require.NoError(f.t, err)
	return res
}

func (f *feeder) feedAll(poses ...body.Pose) FrameResult {
	f.t.Helper()
	var res FrameResult
	for _, p := range poses {
		res = f.feed(p)
	}
	return res
}

func repeat(p body.Pose, n int) []body.Pose {
	out := make([]body.Pose, n)
	for i := range out {
		out[i] = p
	}
	return out
}

func pushUpRep() []body.Pose {
	poses := []body.Pose{posetest.PushUp(170)}
	poses = append(poses, repeat(posetest.PushUp(90), 4)...)
	return append(poses, posetest.PushUp(170))
}

func TestEngine_PushUpTwoReps(t *testing.T) {
	f := newFeeder(t, exercise.PushUp)

	res := f.feedAll(pushUpRep()...)
	assert.Equal(t, StatusEvaluated, res.Status)
	assert.True(t, res.RepCommitted)
	assert.Equal(t, 1, res.RepCount)
	assert.Equal(t, "Push-up", res.Label)
	assert.Equal(t, "You have done Push-up 1 time", res.Summary)

	f.clock.Advance(DefaultCountDelay)
	res = f.feedAll(pushUpRep()...)
	assert.True(t, res.RepCommitted)
	assert.Equal(t, 2, res.RepCount)
	assert.Equal(t, "You have done Push-up 2 times", res.Summary)
	assert.Equal(t, 2, f.engine.Counters().RepCount)
	assert.Nil(t, res.HoldElapsedSeconds)
}

func TestEngine_ReportsPhaseAndAngles(t *testing.T) {
	f := newFeeder(t, exercise.PushUp)
	res := f.feed(posetest.PushUp(90))
	assert.Equal(t, PhaseHolding, res.Phase)
	assert.Equal(t, 1, res.HoldFrames)
	assert.InDelta(t, 90.0, res.Angles["left_elbow"], 1e-6)

	res = f.feedAll(posetest.PushUp(90), posetest.PushUp(90))
	assert.Equal(t, PhaseConfirmed, res.Phase)
	assert.Equal(t, 3, res.HoldFrames)
	assert.False(t, res.RepCommitted)
}

func TestEngine_SquatRejectedOnLowHipConfidence(t *testing.T) {
	f := newFeeder(t, exercise.Squat)
	res := f.feed(posetest.WithScore(posetest.Squat(90, 90), body.LeftHip, 0.1))

	assert.Equal(t, StatusInvalidPose, res.Status)
	assert.Equal(t, PhaseIdle, res.Phase)
	assert.Zero(t, res.HoldFrames)
	assert.Zero(t, res.RepCount)
	assert.Contains(t, res.Reason, "left_hip")
}

func TestEngine_InvalidPoseResetsConfirmedHold(t *testing.T) {
	f := newFeeder(t, exercise.PushUp)
	res := f.feedAll(repeat(posetest.PushUp(90), 4)...)
	require.Equal(t, PhaseConfirmed, res.Phase)

	res = f.feed(posetest.Missing(posetest.PushUp(170), body.LeftWrist))
	assert.Equal(t, StatusInvalidPose, res.Status)
	assert.Equal(t, PhaseIdle, res.Phase)
	assert.Zero(t, res.HoldFrames)
	assert.False(t, res.RepCommitted, "up is never evaluated on an invalid frame")

	res = f.feed(posetest.PushUp(170))
	assert.False(t, res.RepCommitted, "progress was discarded")
	assert.Zero(t, res.RepCount)
}

func TestEngine_PlankHold(t *testing.T) {
	f := newFeeder(t, exercise.Plank)

	res := f.feed(posetest.Plank(180))
	require.NotNil(t, res.HoldElapsedSeconds)
	assert.Zero(t, *res.HoldElapsedSeconds)
	assert.Equal(t, PhaseHolding, res.Phase)

	prev := 0.0
	for i := 0; i < 50; i++ {
		res = f.feed(posetest.Plank(180))
		require.NotNil(t, res.HoldElapsedSeconds)
		assert.Greater(t, *res.HoldElapsedSeconds, prev)
		prev = *res.HoldElapsedSeconds
	}
	assert.InDelta(t, 5.0, prev, 1e-9)
	assert.Zero(t, res.RepCount)

	res = f.feed(posetest.Plank(90))
	assert.Equal(t, PhaseIdle, res.Phase)
	require.NotNil(t, res.HoldElapsedSeconds)
	assert.Zero(t, *res.HoldElapsedSeconds)
	require.NotNil(t, res.HoldSummary)
	assert.Equal(t, 5*time.Second, res.HoldSummary.Duration)
	assert.Equal(t, "You held Plank for 0 min 5 sec", res.Summary)
	assert.Equal(t, "Plank", res.Label)

	c := f.engine.Counters()
	assert.Equal(t, 1, c.HoldCount)
	assert.InDelta(t, 5.0, c.TotalHoldSeconds, 1e-9)
}

func TestEngine_PlankEndsOnInvalidPose(t *testing.T) {
	f := newFeeder(t, exercise.Plank)
	f.feedAll(repeat(posetest.Plank(180), 11)...)

	res := f.feed(posetest.Missing(posetest.Plank(180), body.RightKnee))
	assert.Equal(t, StatusInvalidPose, res.Status)
	require.NotNil(t, res.HoldSummary)
	assert.Equal(t, time.Second, res.HoldSummary.Duration)
	assert.Equal(t, "You held Plank for 0 min 1 sec", res.Summary)
}

func TestEngine_FinishHold(t *testing.T) {
	f := newFeeder(t, exercise.Plank)
	f.feedAll(repeat(posetest.Plank(180), 51)...)

	summary, c := f.engine.FinishHold()
	require.NotNil(t, summary)
	assert.Equal(t, "Plank", summary.Label)
	assert.Equal(t, 5*time.Second, summary.Duration)
	assert.Equal(t, 1, c.HoldCount)
	assert.InDelta(t, 5.0, c.TotalHoldSeconds, 1e-9)
	assert.Zero(t, c.HoldElapsedSeconds)
	assert.Equal(t, "You held Plank for 0 min 5 sec", c.Summary)

	summary, _ = f.engine.FinishHold()
	assert.Nil(t, summary, "nothing left open")

	res := f.feed(posetest.Plank(180))
	require.NotNil(t, res.HoldElapsedSeconds)
	assert.Zero(t, *res.HoldElapsedSeconds, "the next frame starts a new hold")
}

func TestEngine_SelectEndsHoldInProgress(t *testing.T) {
	t.Run("frame for another exercise", func(t *testing.T) {
		f := newFeeder(t, exercise.Plank)
		f.feedAll(repeat(posetest.Plank(180), 51)...)

		f.kind = exercise.Squat
		res := f.feed(posetest.Squat(170, 170))
		require.NotNil(t, res.HoldSummary)
		assert.Equal(t, "Plank", res.HoldSummary.Label)
		assert.Equal(t, 5*time.Second, res.HoldSummary.Duration)
		assert.Equal(t, exercise.Squat, f.engine.Counters().Exercise)
		assert.Zero(t, f.engine.Counters().HoldCount)
	})

	t.Run("select", func(t *testing.T) {
		f := newFeeder(t, exercise.Plank)
		f.feedAll(repeat(posetest.Plank(180), 20)...)

		require.NoError(t, f.engine.Select(exercise.Plank))
		summary, c := f.engine.FinishHold()
		assert.Nil(t, summary, "the hold does not carry into the new session")
		assert.Zero(t, c.HoldCount)

		res := f.feed(posetest.Plank(180))
		require.NotNil(t, res.HoldElapsedSeconds)
		assert.Zero(t, *res.HoldElapsedSeconds)
	})
}

func TestEngine_RussianTwistsAlternate(t *testing.T) {
	f := newFeeder(t, exercise.RussianTwist)
	left, right := posetest.Twist(-60), posetest.Twist(60)

	res := f.feedAll(repeat(right, 5)...)
	assert.Zero(t, res.RepCount, "a right twist alone does not count")

	res = f.feedAll(repeat(left, 5)...)
	assert.Equal(t, PhaseConfirmed, res.Phase)
	res = f.feed(right)
	assert.True(t, res.RepCommitted)
	f.feedAll(repeat(right, 4)...)

	f.feedAll(repeat(left, 5)...)
	res = f.feed(right)
	assert.True(t, res.RepCommitted)
	assert.Equal(t, 2, res.RepCount)
	assert.Equal(t, "You have done Russian Twists 2 times", res.Summary)
}

func TestEngine_LateralRaisesCountOnLowering(t *testing.T) {
	f := newFeeder(t, exercise.DumbbellLateralRaises)
	raised := posetest.Arms(90, 170)

	res := f.feedAll(repeat(raised, 4)...)
	assert.Equal(t, PhaseConfirmed, res.Phase, "the raised arm is the held position")
	assert.False(t, res.RepCommitted)

	res = f.feed(posetest.Standing())
	assert.True(t, res.RepCommitted)
	assert.Equal(t, 1, res.RepCount)

	f.clock.Advance(time.Second)
	f.feedAll(repeat(raised, 2)...)
	res = f.feed(posetest.Standing())
	assert.False(t, res.RepCommitted, "a raise shorter than the confirm window")
	assert.Equal(t, 1, res.RepCount)
}

func TestEngine_Unsupported(t *testing.T) {
	f := newFeeder(t, exercise.PushUp)
	f.feedAll(repeat(posetest.PushUp(90), 3)...)

	pose := posetest.Standing()
	res, err := f.engine.Evaluate(&pose, exercise.Kind("Handstand"), f.clock.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedExercise)
	assert.Equal(t, StatusUnsupported, res.Status)
	assert.NotEmpty(t, res.Reason)

	assert.Equal(t, exercise.PushUp, f.engine.Kind(), "selection is untouched")
	assert.Error(t, f.engine.Select("Handstand"))
}

func TestEngine_SwitchingKindResets(t *testing.T) {
	f := newFeeder(t, exercise.PushUp)
	f.feedAll(pushUpRep()...)
	f.feedAll(repeat(posetest.PushUp(90), 3)...)
	f.feed(posetest.PushUp(140))
	require.Equal(t, 1, f.clock.Pending(), "release timer armed")

	f.kind = exercise.Squat
	res := f.feed(posetest.Squat(170, 170))
	assert.Zero(t, res.RepCount)
	assert.Zero(t, f.clock.Pending(), "old machines are stopped")
	assert.Equal(t, exercise.Squat, f.engine.Counters().Exercise)
}

func TestEngine_SelectAndReset(t *testing.T) {
	f := newFeeder(t, exercise.Squat)
	require.NoError(t, f.engine.Select(exercise.Squat))
	assert.Equal(t, exercise.Squat, f.engine.Kind())

	squat := append([]body.Pose{posetest.Squat(170, 170)}, repeat(posetest.Squat(90, 90), 3)...)
	squat = append(squat, posetest.Squat(170, 170))
	res := f.feedAll(squat...)
	require.Equal(t, 1, res.RepCount)

	f.engine.Reset()
	assert.Zero(t, f.engine.Counters().RepCount)
	assert.Equal(t, exercise.Squat, f.engine.Kind())
}

func TestEngine_AutoTracksCandidates(t *testing.T) {
	f := newFeeder(t, exercise.Auto)

	res := f.feedAll(pushUpRep()...)
	assert.True(t, res.RepCommitted)
	assert.Equal(t, "Push-up", res.Label)
	assert.Equal(t, exercise.Auto, res.Exercise)

	f.clock.Advance(time.Second)
	squat := append(repeat(posetest.Squat(90, 90), 4), posetest.Squat(170, 170))
	res = f.feedAll(squat...)
	assert.True(t, res.RepCommitted)
	assert.Equal(t, 2, res.RepCount)
	assert.Equal(t, "Squat", res.Label)
	assert.Equal(t, "You have done Squat 2 times", res.Summary)
}

func TestEngine_AutoInvalidOnlyWhenNoCandidateFits(t *testing.T) {
	f := newFeeder(t, exercise.Auto)

	res := f.feed(posetest.Missing(posetest.Squat(90, 90), body.LeftWrist))
	assert.Equal(t, StatusEvaluated, res.Status, "squat does not need wrists")
	assert.Equal(t, PhaseHolding, res.Phase)

	res = f.feed(posetest.Missing(posetest.Squat(90, 90), body.LeftKnee))
	assert.Equal(t, StatusInvalidPose, res.Status)
	assert.Equal(t, PhaseIdle, res.Phase)
}

func TestEngine_FrameResultJSON(t *testing.T) {
	f := newFeeder(t, exercise.Plank)
	res := f.feed(posetest.Plank(180))

	out, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "evaluated", decoded["status"])
	assert.Equal(t, "Plank", decoded["exercise"])
	assert.Equal(t, "holding", decoded["phase"])
	assert.Contains(t, decoded, "hold_elapsed_seconds")
}
