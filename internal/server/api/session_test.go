package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/ayusman/repcount/internal/app"
	"github.com/ayusman/repcount/internal/body"
	"github.com/ayusman/repcount/internal/counter"
	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/poseio"
	"github.com/ayusman/repcount/internal/posetest"
	"github.com/ayusman/repcount/internal/store"
)

// newTestApp returns an app on a fresh store with a manual clock.
func newTestApp(t *testing.T, kind exercise.Kind) (*app.App, *store.Store, *counter.ManualClock) {
	t.Helper()
	s := newTestStore(t)
	clock := counter.NewManualClock(epoch)
	a := app.New(app.Config{
		Store:     s,
		PluginDir: t.TempDir(),
		Clock:     clock,
		Exercise:  kind,
	})
	t.Cleanup(func() { a.Close() })
	return a, s, clock
}

func TestSessionHandler_Get(t *testing.T) {
	a, _, _ := newTestApp(t, exercise.Squat)

	rec := do(t, NewSessionHandler(a), http.MethodGet, "/api/session", nil)
	expectStatus(t, rec, http.StatusOK)

	var response sessionStateResponse
	decode(t, rec, &response)
	if response.Exercise != exercise.Squat {
		t.Errorf("expected Squat, got %q", response.Exercise)
	}
	if response.SessionID == "" {
		t.Error("expected a session id")
	}
	if response.Counters.RepCount != 0 {
		t.Errorf("expected zero reps, got %d", response.Counters.RepCount)
	}
}

func TestSessionHandler_Select(t *testing.T) {
	a, s, _ := newTestApp(t, exercise.Squat)
	before := a.SessionID()
	h := NewSessionHandler(a)

	rec := do(t, h, http.MethodPost, "/api/session", map[string]string{"exercise": "plank"})
	expectStatus(t, rec, http.StatusOK)

	var response sessionStateResponse
	decode(t, rec, &response)
	if response.Exercise != exercise.Plank {
		t.Errorf("expected Plank, got %q", response.Exercise)
	}
	if response.SessionID == before {
		t.Error("selecting an exercise should start a new session")
	}

	saved, err := s.Settings().Get(store.SettingExercise)
	if err != nil || saved != "plank" {
		t.Errorf("setting = %q, %v", saved, err)
	}
}

func TestSessionHandler_SelectErrors(t *testing.T) {
	a, _, _ := newTestApp(t, exercise.Squat)
	h := NewSessionHandler(a)

	tests := []struct {
		name string
		body any
	}{
		{"invalid json", "{"},
		{"empty", map[string]string{}},
		{"unknown", map[string]string{"exercise": "handstand"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/session", tt.body)
			expectStatus(t, rec, http.StatusBadRequest)
		})
	}
	if a.Exercise() != exercise.Squat {
		t.Errorf("selection changed to %q", a.Exercise())
	}
}

func TestSessionHandler_Reset(t *testing.T) {
	a, _, clock := newTestApp(t, exercise.PushUp)
	for _, deg := range []float64{170, 90, 90, 90, 170} {
		clock.Advance(100 * time.Millisecond)
		p := posetest.PushUp(deg)
		if _, err := a.Submit(&p, clock.Now()); err != nil {
			t.Fatal(err)
		}
	}
	if a.Counters().RepCount != 1 {
		t.Fatalf("expected 1 rep before reset, got %d", a.Counters().RepCount)
	}

	rec := do(t, NewSessionHandler(a), http.MethodDelete, "/api/session", nil)
	expectStatus(t, rec, http.StatusOK)

	var response sessionStateResponse
	decode(t, rec, &response)
	if response.Counters.RepCount != 0 {
		t.Errorf("expected counters reset, got %d", response.Counters.RepCount)
	}
}

func TestSessionHandler_MethodNotAllowed(t *testing.T) {
	a, _, _ := newTestApp(t, exercise.Squat)
	rec := do(t, NewSessionHandler(a), http.MethodPut, "/api/session", nil)
	expectStatus(t, rec, http.StatusMethodNotAllowed)
}

func TestFramesHandler_Evaluate(t *testing.T) {
	a, _, _ := newTestApp(t, exercise.PushUp)
	h := NewFramesHandler(a)

	rec := do(t, h, http.MethodPost, "/api/frames", poseio.FromPose(posetest.PushUp(90), 0))
	expectStatus(t, rec, http.StatusOK)

	var res counter.FrameResult
	decode(t, rec, &res)
	if res.Status != counter.StatusEvaluated {
		t.Errorf("expected evaluated, got %q (%s)", res.Status, res.Reason)
	}
	if res.Phase != counter.PhaseHolding {
		t.Errorf("expected holding, got %q", res.Phase)
	}
	if res.Angles["left_elbow"] < 89 || res.Angles["left_elbow"] > 91 {
		t.Errorf("left_elbow = %v", res.Angles["left_elbow"])
	}
}

func TestFramesHandler_InvalidPose(t *testing.T) {
	a, _, _ := newTestApp(t, exercise.PushUp)

	frame := poseio.FromPose(posetest.Missing(posetest.PushUp(90), body.LeftWrist), 0)
	rec := do(t, NewFramesHandler(a), http.MethodPost, "/api/frames", frame)
	expectStatus(t, rec, http.StatusOK)

	var res counter.FrameResult
	decode(t, rec, &res)
	if res.Status != counter.StatusInvalidPose {
		t.Errorf("expected invalid_pose, got %q", res.Status)
	}
	if res.Reason == "" {
		t.Error("expected a reason")
	}
}

func TestFramesHandler_SelectsFrameExercise(t *testing.T) {
	a, _, _ := newTestApp(t, exercise.PushUp)

	frame := poseio.FromPose(posetest.Squat(170, 170), 0)
	frame.Exercise = "squat"
	rec := do(t, NewFramesHandler(a), http.MethodPost, "/api/frames", frame)
	expectStatus(t, rec, http.StatusOK)

	if a.Exercise() != exercise.Squat {
		t.Errorf("expected Squat selected, got %q", a.Exercise())
	}
}

func TestFramesHandler_Unsupported(t *testing.T) {
	a, _, _ := newTestApp(t, exercise.PushUp)

	frame := poseio.FromPose(posetest.Standing(), 0)
	frame.Exercise = "handstand"
	rec := do(t, NewFramesHandler(a), http.MethodPost, "/api/frames", frame)
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	var res struct {
		Status   counter.Status `json:"status"`
		Exercise string         `json:"exercise"`
		Reason   string         `json:"reason"`
	}
	decode(t, rec, &res)
	if res.Exercise != "handstand" || res.Reason == "" {
		t.Errorf("unexpected body: %+v", res)
	}
	if res.Status != counter.StatusUnsupported {
		t.Errorf("expected unsupported, got %q", res.Status)
	}
	if a.Exercise() != exercise.PushUp {
		t.Errorf("selection changed to %q", a.Exercise())
	}
}

func TestFramesHandler_BadRequests(t *testing.T) {
	a, _, _ := newTestApp(t, exercise.PushUp)
	h := NewFramesHandler(a)

	rec := do(t, h, http.MethodPost, "/api/frames", "not json")
	expectStatus(t, rec, http.StatusBadRequest)

	rec = do(t, h, http.MethodGet, "/api/frames", nil)
	expectStatus(t, rec, http.StatusMethodNotAllowed)
}
