package api

import (
	"net/http"

	"github.com/ayusman/repcount/internal/counter"
	"github.com/ayusman/repcount/internal/exercise"
)

// SessionHandler exposes the session in progress.
//
//	GET    /api/session  current exercise and counters
//	POST   /api/session  select an exercise, starting a new session
//	DELETE /api/session  reset the counters, starting a new session
type SessionHandler struct {
	ctl Controller
}

// NewSessionHandler creates a new SessionHandler driving ctl.
func NewSessionHandler(ctl Controller) *SessionHandler {
	return &SessionHandler{ctl: ctl}
}

type selectExerciseRequest struct {
	Exercise string `json:"exercise"`
}

type sessionStateResponse struct {
	Exercise  exercise.Kind    `json:"exercise"`
	SessionID string           `json:"session_id,omitempty"`
	Counters  counter.Counters `json:"counters"`
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.state(w)
	case http.MethodPost:
		h.selectExercise(w, r)
	case http.MethodDelete:
		h.ctl.Reset()
		h.state(w)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SessionHandler) state(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, sessionStateResponse{
		Exercise:  h.ctl.Exercise(),
		SessionID: h.ctl.SessionID(),
		Counters:  h.ctl.Counters(),
	})
}

func (h *SessionHandler) selectExercise(w http.ResponseWriter, r *http.Request) {
	var req selectExerciseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	kind, err := exercise.ParseKind(req.Exercise)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.ctl.SelectExercise(kind); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.state(w)
}
