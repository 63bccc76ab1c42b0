// Package plugin discovers and runs external hook plugins that react to
// counted reps, finished holds and ended sessions.
package plugin

import "encoding/json"

// Manifest describes a plugin's metadata and the actions it supports.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// SupportsAction reports whether the manifest lists action. A manifest with no
// actions accepts any.
func (m Manifest) SupportsAction(action string) bool {
	if len(m.Actions) == 0 {
		return true
	}
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is written to a plugin's stdin as JSON.
type Request struct {
	Action   string          `json:"action"`
	Event    string          `json:"event"`
	Exercise string          `json:"exercise"`
	Count    int             `json:"count"`
	Summary  string          `json:"summary,omitempty"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest `json:"manifest"`
	Path       string   `json:"path"`
	Executable string   `json:"-"`
}
