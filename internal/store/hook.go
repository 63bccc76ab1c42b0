package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/repcount/internal/exercise"
)

// HookEvent names the pipeline event a hook fires on.
type HookEvent string

const (
	// HookEventRep fires after every counted repetition.
	HookEventRep HookEvent = "rep"
	// HookEventHold fires when an isometric hold ends.
	HookEventHold HookEvent = "hold"
	// HookEventSessionEnd fires when a session is closed.
	HookEventSessionEnd HookEvent = "session_end"
)

// Valid reports whether e is a known hook event.
func (e HookEvent) Valid() bool {
	switch e {
	case HookEventRep, HookEventHold, HookEventSessionEnd:
		return true
	}
	return false
}

// ParseHookEvent converts a string into a HookEvent.
func ParseHookEvent(s string) (HookEvent, error) {
	e := HookEvent(s)
	if !e.Valid() {
		return "", fmt.Errorf("unknown hook event %q", s)
	}
	return e, nil
}

// Hook binds a pipeline event to a plugin action. An empty Exercise matches
// every exercise.
type Hook struct {
	ID         string          `json:"id"`
	Event      HookEvent       `json:"event"`
	Exercise   exercise.Kind   `json:"exercise,omitempty"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config,omitempty"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  time.Time       `json:"created_at"`
}

// HookRepository provides CRUD operations for hooks.
type HookRepository struct {
	db *sql.DB
}

// Hooks returns the hook repository for this store.
func (s *Store) Hooks() *HookRepository {
	return &HookRepository{db: s.db}
}

const hookColumns = `id, event, exercise, plugin_name, action_name, config, enabled, created_at`

func scanHook(row rowScanner) (*Hook, error) {
	h := &Hook{}
	var event, kind, config string
	var enabled int

	err := row.Scan(&h.ID, &event, &kind, &h.PluginName, &h.ActionName, &config, &enabled, &h.CreatedAt)
	if err != nil {
		return nil, err
	}

	h.Event = HookEvent(event)
	h.Exercise = exercise.Kind(kind)
	h.Config = json.RawMessage(config)
	h.Enabled = enabled != 0
	return h, nil
}

func hookConfig(h *Hook) string {
	if len(h.Config) == 0 {
		return "{}"
	}
	return string(h.Config)
}

// Create inserts a new hook. An empty ID is filled with a UUID.
func (r *HookRepository) Create(h *Hook) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	h.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO hooks (id, event, exercise, plugin_name, action_name, config, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, string(h.Event), string(h.Exercise), h.PluginName, h.ActionName,
		hookConfig(h), boolToInt(h.Enabled), h.CreatedAt,
	)
	return err
}

// GetByID retrieves a hook by its ID.
func (r *HookRepository) GetByID(id string) (*Hook, error) {
	h, err := scanHook(r.db.QueryRow(`SELECT `+hookColumns+` FROM hooks WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

func (r *HookRepository) query(q string, args ...any) ([]*Hook, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hooks []*Hook
	for rows.Next() {
		h, err := scanHook(rows)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, h)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return hooks, nil
}

// List retrieves all hooks, newest first.
func (r *HookRepository) List() ([]*Hook, error) {
	return r.query(`SELECT ` + hookColumns + ` FROM hooks ORDER BY created_at DESC`)
}

// ListForEvent returns the enabled hooks for event that apply to kind.
func (r *HookRepository) ListForEvent(event HookEvent, kind exercise.Kind) ([]*Hook, error) {
	return r.query(
		`SELECT `+hookColumns+` FROM hooks
		 WHERE event = ? AND enabled = 1 AND (exercise = '' OR exercise = ?)
		 ORDER BY created_at`,
		string(event), string(kind),
	)
}

// Update updates an existing hook.
func (r *HookRepository) Update(h *Hook) error {
	result, err := r.db.Exec(
		`UPDATE hooks SET event = ?, exercise = ?, plugin_name = ?, action_name = ?, config = ?, enabled = ?
		 WHERE id = ?`,
		string(h.Event), string(h.Exercise), h.PluginName, h.ActionName,
		hookConfig(h), boolToInt(h.Enabled), h.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Delete removes a hook by its ID.
func (r *HookRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM hooks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
