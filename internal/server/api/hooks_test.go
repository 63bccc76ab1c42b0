package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/plugin"
	"github.com/ayusman/repcount/internal/store"
)

// newTestPlugins returns a manager that has discovered an "announce" plugin
// supporting say_count.
func newTestPlugins(t *testing.T) *plugin.Manager {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "announce")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	manifest := `{"name":"announce","version":"1.0.0","executable":"announce","actions":["say_count"]}`
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	m := plugin.NewManager(filepath.Dir(dir))
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	return m
}

func TestHookHandler_Create(t *testing.T) {
	s := newTestStore(t)
	h := NewHookHandler(s, newTestPlugins(t))

	rec := do(t, h, http.MethodPost, "/api/hooks", map[string]any{
		"event":       "rep",
		"exercise":    "squat",
		"plugin_name": "announce",
		"action_name": "say_count",
		"config":      map[string]int{"every": 5},
	})
	expectStatus(t, rec, http.StatusCreated)

	var response hookResponse
	decode(t, rec, &response)
	if response.ID == "" {
		t.Error("expected an id")
	}
	if response.Event != "rep" || response.Exercise != "Squat" || !response.Enabled {
		t.Errorf("unexpected hook: %+v", response)
	}
	if string(response.Config) != `{"every":5}` {
		t.Errorf("config = %s", response.Config)
	}

	stored, err := s.Hooks().GetByID(response.ID)
	if err != nil {
		t.Fatalf("hook not stored: %v", err)
	}
	if stored.Exercise != exercise.Squat {
		t.Errorf("stored exercise = %q", stored.Exercise)
	}
}

func TestHookHandler_CreateValidation(t *testing.T) {
	h := NewHookHandler(newTestStore(t), newTestPlugins(t))

	tests := []struct {
		name string
		body any
	}{
		{"invalid json", "{"},
		{"bad event", map[string]string{"event": "jump", "plugin_name": "announce", "action_name": "say_count"}},
		{"bad exercise", map[string]string{"event": "rep", "exercise": "handstand", "plugin_name": "announce", "action_name": "say_count"}},
		{"auto exercise", map[string]string{"event": "rep", "exercise": "auto", "plugin_name": "announce", "action_name": "say_count"}},
		{"missing plugin name", map[string]string{"event": "rep", "action_name": "say_count"}},
		{"missing action", map[string]string{"event": "rep", "plugin_name": "announce"}},
		{"unknown plugin", map[string]string{"event": "rep", "plugin_name": "ghost", "action_name": "say_count"}},
		{"unsupported action", map[string]string{"event": "rep", "plugin_name": "announce", "action_name": "dance"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/hooks", tt.body)
			expectStatus(t, rec, http.StatusBadRequest)
		})
	}
}

func TestHookHandler_WithoutPluginManager(t *testing.T) {
	h := NewHookHandler(newTestStore(t), nil)
	rec := do(t, h, http.MethodPost, "/api/hooks", map[string]string{
		"event":       "session_end",
		"plugin_name": "anything",
		"action_name": "whatever",
	})
	expectStatus(t, rec, http.StatusCreated)
}

func TestHookHandler_ListGetUpdateDelete(t *testing.T) {
	s := newTestStore(t)
	h := NewHookHandler(s, newTestPlugins(t))

	hook := &store.Hook{
		Event:      store.HookEventRep,
		PluginName: "announce",
		ActionName: "say_count",
		Enabled:    true,
	}
	if err := s.Hooks().Create(hook); err != nil {
		t.Fatal(err)
	}

	rec := do(t, h, http.MethodGet, "/api/hooks", nil)
	expectStatus(t, rec, http.StatusOK)
	var list listHooksResponse
	decode(t, rec, &list)
	if len(list.Hooks) != 1 || list.Hooks[0].ID != hook.ID {
		t.Fatalf("unexpected list: %+v", list.Hooks)
	}
	if string(list.Hooks[0].Config) != "{}" {
		t.Errorf("expected default config, got %s", list.Hooks[0].Config)
	}

	rec = do(t, h, http.MethodGet, "/api/hooks/"+hook.ID, nil)
	expectStatus(t, rec, http.StatusOK)

	disabled := false
	rec = do(t, h, http.MethodPut, "/api/hooks/"+hook.ID, map[string]any{
		"event":    "hold",
		"exercise": "plank",
		"enabled":  disabled,
		"config":   json.RawMessage(`{"voice":"en"}`),
	})
	expectStatus(t, rec, http.StatusOK)
	var updated hookResponse
	decode(t, rec, &updated)
	if updated.Event != "hold" || updated.Exercise != "Plank" || updated.Enabled {
		t.Errorf("unexpected update: %+v", updated)
	}

	rec = do(t, h, http.MethodPut, "/api/hooks/"+hook.ID, map[string]string{"exercise": ""})
	expectStatus(t, rec, http.StatusOK)
	var cleared hookResponse
	decode(t, rec, &cleared)
	if cleared.Exercise != "" {
		t.Errorf("expected exercise cleared, got %q", cleared.Exercise)
	}

	rec = do(t, h, http.MethodPut, "/api/hooks/"+hook.ID, map[string]string{"action_name": "dance"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = do(t, h, http.MethodDelete, "/api/hooks/"+hook.ID, nil)
	expectStatus(t, rec, http.StatusNoContent)

	rec = do(t, h, http.MethodGet, "/api/hooks/"+hook.ID, nil)
	expectStatus(t, rec, http.StatusNotFound)
	rec = do(t, h, http.MethodPut, "/api/hooks/"+hook.ID, map[string]string{})
	expectStatus(t, rec, http.StatusNotFound)
	rec = do(t, h, http.MethodDelete, "/api/hooks/"+hook.ID, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestHookHandler_MethodNotAllowed(t *testing.T) {
	h := NewHookHandler(newTestStore(t), nil)
	expectStatus(t, do(t, h, http.MethodPatch, "/api/hooks", nil), http.StatusMethodNotAllowed)
	expectStatus(t, do(t, h, http.MethodPost, "/api/hooks/abc", nil), http.StatusMethodNotAllowed)
}

func TestPluginsHandler(t *testing.T) {
	m := newTestPlugins(t)
	h := NewPluginsHandler(m)

	rec := do(t, h, http.MethodGet, "/api/plugins", nil)
	expectStatus(t, rec, http.StatusOK)
	var response listPluginsResponse
	decode(t, rec, &response)
	if len(response.Plugins) != 1 || response.Plugins[0].Name != "announce" {
		t.Fatalf("unexpected plugins: %+v", response.Plugins)
	}

	if err := os.RemoveAll(filepath.Join(m.PluginDir(), "announce")); err != nil {
		t.Fatal(err)
	}
	rec = do(t, h, http.MethodPost, "/api/plugins", nil)
	expectStatus(t, rec, http.StatusOK)
	var rescanned listPluginsResponse
	decode(t, rec, &rescanned)
	if len(rescanned.Plugins) != 0 {
		t.Errorf("expected rescan to drop the plugin, got %d", len(rescanned.Plugins))
	}

	expectStatus(t, do(t, h, http.MethodDelete, "/api/plugins", nil), http.StatusMethodNotAllowed)
}
