package api

import (
	"net/http"

	"github.com/ayusman/repcount/internal/exercise"
)

// ExercisesHandler lists the selectable exercises.
type ExercisesHandler struct{}

// NewExercisesHandler creates a new ExercisesHandler.
func NewExercisesHandler() *ExercisesHandler {
	return &ExercisesHandler{}
}

type exerciseResponse struct {
	Label     string `json:"label"`
	Slug      string `json:"slug"`
	Isometric bool   `json:"isometric"`
}

type listExercisesResponse struct {
	Exercises []exerciseResponse `json:"exercises"`
}

// ServeHTTP handles GET /api/exercises.
func (h *ExercisesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	kinds := exercise.Kinds()
	response := listExercisesResponse{Exercises: make([]exerciseResponse, 0, len(kinds))}
	for _, k := range kinds {
		response.Exercises = append(response.Exercises, exerciseResponse{
			Label:     k.String(),
			Slug:      k.Slug(),
			Isometric: k.Isometric(),
		})
	}
	writeJSON(w, http.StatusOK, response)
}
