package exercise

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"Push-up", PushUp},
		{"push-up", PushUp},
		{"PUSH UP", PushUp},
		{"auto", Auto},
		{"dumbbell-bent-over-rows", DumbbellBentOverRows},
		{"Dumbbell Bent-Over Rows", DumbbellBentOverRows},
		{"  side plank ", SidePlank},
		{"dumbbell-romanian-deadlifts", DumbbellDeadlift},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "handstand", "push"} {
		_, err := ParseKind(bad)
		assert.ErrorIs(t, err, ErrUnknownKind, bad)
	}
}

func TestKindLabels(t *testing.T) {
	kinds := Kinds()
	require.Len(t, kinds, 18)
	assert.Equal(t, Auto, kinds[0])

	seen := map[string]bool{}
	for _, k := range kinds {
		assert.True(t, k.Valid())
		assert.False(t, seen[k.Slug()], "duplicate slug %s", k.Slug())
		seen[k.Slug()] = true

		back, err := ParseKind(k.Slug())
		require.NoError(t, err)
		assert.Equal(t, k, back)
	}

	assert.Equal(t, "Dumbbell Overhand Tricep Extension", DumbbellTricepExtension.String())
	assert.Equal(t, "dumbbell-overhand-tricep-extension", DumbbellTricepExtension.Slug())
	assert.False(t, Kind("Yoga").Valid())
}

func TestKindIsometric(t *testing.T) {
	assert.True(t, Plank.Isometric())
	assert.True(t, SidePlank.Isometric())
	assert.False(t, PushUp.Isometric())
	assert.False(t, Auto.Isometric())
}

func TestKindJSON(t *testing.T) {
	var payload struct {
		Exercise Kind `json:"exercise"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"exercise":"bench-press"}`), &payload))
	assert.Equal(t, BenchPress, payload.Exercise)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"exercise":"Bench Press"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"exercise":"cartwheel"}`), &payload))
}

func TestThresholdsValidate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	th := DefaultThresholds()
	th.BentMin = 130
	th.TwistRatio = 0
	err := th.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "bent_min")
	assert.ErrorContains(t, err, "twist_ratio")

	th = DefaultThresholds()
	th.ExtendedMin = 200
	assert.ErrorContains(t, th.Validate(), "extended_min")
}

func TestThresholdsValidate_Order(t *testing.T) {
	th := DefaultThresholds()
	th.LegRaiseMax = -1
	th.ExtendedMin = 200
	th.ShoulderRackMax = 190

	for i := 0; i < 5; i++ {
		assert.EqualError(t, th.Validate(), "extended_min must be within [0, 180], got 200\n"+
			"shoulder_rack_max must be within [0, 180], got 190\n"+
			"leg_raise_max must be within [0, 180], got -1")
	}
}
