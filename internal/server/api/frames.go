package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/ayusman/repcount/internal/counter"
	"github.com/ayusman/repcount/internal/monitoring"
	"github.com/ayusman/repcount/internal/poseio"
)

// FramesHandler evaluates poses produced by an external pose estimator.
// POST /api/frames takes one poseio.Frame and answers with the FrameResult.
// The frame's exercise, when set, selects that exercise first. Unsupported
// exercises are answered with 422 and the unsupported result.
type FramesHandler struct {
	ctl Controller
}

// NewFramesHandler creates a new FramesHandler driving ctl.
func NewFramesHandler(ctl Controller) *FramesHandler {
	return &FramesHandler{ctl: ctl}
}

func (h *FramesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	frame, err := poseio.Decode(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := EvaluateFrame(h.ctl, frame)
	switch {
	case errors.Is(err, counter.ErrUnsupportedExercise):
		writeJSON(w, http.StatusUnprocessableEntity, res)
	case err != nil:
		monitoring.Logf("Error evaluating frame: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to evaluate frame")
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

// EvaluateFrame runs frame through ctl at the controller's current time.
func EvaluateFrame(ctl Controller, frame poseio.Frame) (counter.FrameResult, error) {
	pose := frame.Pose()
	return ctl.Evaluate(&pose, frame.Kind(), ctl.Now())
}
