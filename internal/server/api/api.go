// Package api provides HTTP API handlers for the repcount service.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/repcount/internal/body"
	"github.com/ayusman/repcount/internal/counter"
	"github.com/ayusman/repcount/internal/exercise"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Controller is the running counter the session and frame endpoints drive.
type Controller interface {
	Exercise() exercise.Kind
	SessionID() string
	Counters() counter.Counters
	SelectExercise(kind exercise.Kind) error
	Reset()
	Evaluate(pose *body.Pose, kind exercise.Kind, now time.Time) (counter.FrameResult, error)
	Now() time.Time
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// splitPath returns the path segments after prefix.
func splitPath(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
