package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ayusman/repcount/internal/monitoring"
	"github.com/ayusman/repcount/internal/report"
	"github.com/ayusman/repcount/internal/store"
)

// defaultSessionLimit caps GET /api/sessions without a limit parameter.
const defaultSessionLimit = 50

// SessionsHandler serves stored session history.
//
//	GET    /api/sessions?limit=N
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	GET    /api/sessions/{id}/stats
//	GET    /api/sessions/{id}/chart.png
//	GET    /api/sessions/{id}/export?format=csv|parquet
type SessionsHandler struct {
	store *store.Store
}

// NewSessionsHandler creates a new SessionsHandler with the given store.
func NewSessionsHandler(s *store.Store) *SessionsHandler {
	return &SessionsHandler{store: s}
}

type listSessionsResponse struct {
	Sessions []*store.Session `json:"sessions"`
}

type sessionDetailResponse struct {
	*store.Session
	Reps  []store.RepEvent  `json:"reps"`
	Holds []store.HoldEvent `json:"holds"`
}

func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/sessions")

	switch len(parts) {
	case 0:
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	case 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, parts[0])
		case http.MethodDelete:
			h.delete(w, parts[0])
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	case 2:
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		switch parts[1] {
		case "stats":
			h.stats(w, parts[0])
			return
		case "chart.png":
			h.chart(w, parts[0])
			return
		case "export":
			h.export(w, r, parts[0])
			return
		}
	}
	writeError(w, http.StatusNotFound, "Not found")
}

// list handles GET /api/sessions and returns sessions newest first.
func (h *SessionsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultSessionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*store.Session{}
	}
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions})
}

// load fetches a session and its events, writing the error response itself
// when it fails.
func (h *SessionsHandler) load(w http.ResponseWriter, id string) (*store.Session, []store.RepEvent, []store.HoldEvent, bool) {
	session, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return nil, nil, nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return nil, nil, nil, false
	}

	reps, err := h.store.Reps().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reps")
		return nil, nil, nil, false
	}
	holds, err := h.store.Holds().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holds")
		return nil, nil, nil, false
	}
	if reps == nil {
		reps = []store.RepEvent{}
	}
	if holds == nil {
		holds = []store.HoldEvent{}
	}
	return session, reps, holds, true
}

func (h *SessionsHandler) get(w http.ResponseWriter, id string) {
	session, reps, holds, ok := h.load(w, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionDetailResponse{Session: session, Reps: reps, Holds: holds})
}

func (h *SessionsHandler) delete(w http.ResponseWriter, id string) {
	if err := h.store.Sessions().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionsHandler) stats(w http.ResponseWriter, id string) {
	session, reps, holds, ok := h.load(w, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Stats(session, reps, holds))
}

func (h *SessionsHandler) chart(w http.ResponseWriter, id string) {
	session, reps, _, ok := h.load(w, id)
	if !ok {
		return
	}

	var buf bytes.Buffer
	title := fmt.Sprintf("%s, %s", session.Exercise, session.StartedAt.Format("2006-01-02 15:04"))
	if err := report.WriteChart(&buf, title, reps); err != nil {
		if errors.Is(err, report.ErrNoEvents) {
			writeError(w, http.StatusNotFound, "No reps recorded")
			return
		}
		monitoring.Logf("Error rendering chart for %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (h *SessionsHandler) export(w http.ResponseWriter, r *http.Request, id string) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, reps, _, ok := h.load(w, id)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := format.Write(&buf, reps); err != nil {
		monitoring.Logf("Error exporting %s as %s: %v", id, format, err)
		writeError(w, http.StatusInternalServerError, "Failed to export session")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="session-%s.%s"`, id, format))
	w.Write(buf.Bytes())
}
